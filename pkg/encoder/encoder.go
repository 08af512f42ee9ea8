// Package encoder packs and unpacks the RV32I R/I/S/B/U/J instruction
// formats. Every function here is total: field widths are enforced purely
// by masking, so a caller handing in an oversize field gets a truncated
// result rather than an error. Range checking is the assembler's job, not
// the encoder's (see pkg/asm), which keeps these functions cheap enough to
// call from a fuzzer or the random program generator without ceremony.
package encoder

import "github.com/rv32v/rv32v/pkg/isa"

const (
	mask3  = 0b111
	mask5  = 0b1_1111
	mask7  = 0b111_1111
	mask12 = 0xFFF
)

// EncodeR packs an R-type instruction: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func EncodeR(opcode, funct3, funct7, rd, rs1, rs2 isa.Word) isa.Word {
	var w isa.Word
	w |= (funct7 & mask7) << 25
	w |= (rs2 & mask5) << 20
	w |= (rs1 & mask5) << 15
	w |= (funct3 & mask3) << 12
	w |= (rd & mask5) << 7
	w |= opcode & mask7
	return w
}

// DecodeR unpacks an R-type instruction.
func DecodeR(w isa.Word) (funct7, rs2, rs1, funct3, rd, opcode isa.Word) {
	return (w >> 25) & mask7, (w >> 20) & mask5, (w >> 15) & mask5,
		(w >> 12) & mask3, (w >> 7) & mask5, w & mask7
}

// EncodeI packs an I-type instruction. imm is the low 12 bits of a signed value.
func EncodeI(opcode, funct3, rd, rs1, imm isa.Word) isa.Word {
	var w isa.Word
	w |= (imm & mask12) << 20
	w |= (rs1 & mask5) << 15
	w |= (funct3 & mask3) << 12
	w |= (rd & mask5) << 7
	w |= opcode & mask7
	return w
}

// DecodeI unpacks an I-type instruction; imm is sign-extended.
func DecodeI(w isa.Word) (imm, rs1, funct3, rd, opcode isa.Word) {
	imm = isa.SignExtend((w>>20)&mask12, 12)
	return imm, (w >> 15) & mask5, (w >> 12) & mask3, (w >> 7) & mask5, w & mask7
}

// EncodeS packs an S-type instruction: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode.
func EncodeS(opcode, funct3, rs1, rs2, imm isa.Word) isa.Word {
	var w isa.Word
	w |= ((imm >> 5) & mask7) << 25
	w |= (rs2 & mask5) << 20
	w |= (rs1 & mask5) << 15
	w |= (funct3 & mask3) << 12
	w |= (imm & 0b1_1111) << 7
	w |= opcode & mask7
	return w
}

// DecodeS unpacks an S-type instruction; imm is sign-extended.
func DecodeS(w isa.Word) (imm, rs2, rs1, funct3, opcode isa.Word) {
	hi := (w >> 25) & mask7
	lo := (w >> 7) & 0b1_1111
	imm = isa.SignExtend((hi<<5)|lo, 12)
	return imm, (w >> 20) & mask5, (w >> 15) & mask5, (w >> 12) & mask3, w & mask7
}

// EncodeB packs a B-type instruction. imm is the signed byte offset; bit 0
// is implicitly zero and is not stored.
func EncodeB(opcode, funct3, rs1, rs2, imm isa.Word) isa.Word {
	var w isa.Word
	w |= ((imm >> 12) & 0b1) << 31
	w |= ((imm >> 5) & 0b11_1111) << 25
	w |= (rs2 & mask5) << 20
	w |= (rs1 & mask5) << 15
	w |= (funct3 & mask3) << 12
	w |= ((imm >> 1) & 0b1111) << 8
	w |= ((imm >> 11) & 0b1) << 7
	w |= opcode & mask7
	return w
}

// DecodeB unpacks a B-type instruction; imm is sign-extended.
func DecodeB(w isa.Word) (imm, rs2, rs1, funct3, opcode isa.Word) {
	bit12 := (w >> 31) & 0b1
	bit11 := (w >> 7) & 0b1
	bits10_5 := (w >> 25) & 0b11_1111
	bits4_1 := (w >> 8) & 0b1111
	raw := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	imm = isa.SignExtend(raw, 13)
	return imm, (w >> 20) & mask5, (w >> 15) & mask5, (w >> 12) & mask3, w & mask7
}

// EncodeU packs a U-type instruction: imm[31:12] | rd | opcode. imm is the
// already-shifted upper-20-bits value (i.e. instr&0xFFFFF000).
func EncodeU(opcode, rd, imm isa.Word) isa.Word {
	var w isa.Word
	w |= imm & 0xFFFFF000
	w |= (rd & mask5) << 7
	w |= opcode & mask7
	return w
}

// DecodeU unpacks a U-type instruction.
func DecodeU(w isa.Word) (imm, rd, opcode isa.Word) {
	return w & 0xFFFFF000, (w >> 7) & mask5, w & mask7
}

// EncodeJ packs a J-type instruction. imm is the signed byte offset; bit 0
// is implicitly zero and is not stored.
func EncodeJ(opcode, rd, imm isa.Word) isa.Word {
	var w isa.Word
	w |= ((imm >> 20) & 0b1) << 31
	w |= ((imm >> 1) & 0b11_1111_1111) << 21
	w |= ((imm >> 11) & 0b1) << 20
	w |= ((imm >> 12) & 0b1111_1111) << 12
	w |= (rd & mask5) << 7
	w |= opcode & mask7
	return w
}

// DecodeJ unpacks a J-type instruction; imm is sign-extended.
func DecodeJ(w isa.Word) (imm, rd, opcode isa.Word) {
	bit20 := (w >> 31) & 0b1
	bits10_1 := (w >> 21) & 0b11_1111_1111
	bit11 := (w >> 20) & 0b1
	bits19_12 := (w >> 12) & 0b1111_1111
	raw := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	imm = isa.SignExtend(raw, 21)
	return imm, (w >> 7) & mask5, w & mask7
}

// Opcode extracts the low 7 bits common to every format.
func Opcode(w isa.Word) isa.Word {
	return w & mask7
}
