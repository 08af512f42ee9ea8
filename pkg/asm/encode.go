package asm

import (
	"strings"

	"github.com/rv32v/rv32v/pkg/encoder"
	"github.com/rv32v/rv32v/pkg/isa"
)

type format byte

const (
	formatR format = iota
	formatI
	formatIShift
	formatS
	formatB
	formatU
	formatJ
	formatFence
	formatSystem
)

type mnemonicSpec struct {
	format format
	opcode isa.Word
	funct3 isa.Word
	funct7 isa.Word
}

var mnemonics = map[string]mnemonicSpec{
	"lui":   {format: formatU, opcode: isa.OpLUI},
	"auipc": {format: formatU, opcode: isa.OpAUIPC},

	"jal":  {format: formatJ, opcode: isa.OpJAL},
	"jalr": {format: formatI, opcode: isa.OpJALR, funct3: 0},

	"beq":  {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BEQ},
	"bne":  {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BNE},
	"blt":  {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BLT},
	"bge":  {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BGE},
	"bltu": {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BLTU},
	"bgeu": {format: formatB, opcode: isa.OpBranch, funct3: isa.F3BGEU},

	"lb":  {format: formatI, opcode: isa.OpLoad, funct3: isa.F3LB},
	"lh":  {format: formatI, opcode: isa.OpLoad, funct3: isa.F3LH},
	"lw":  {format: formatI, opcode: isa.OpLoad, funct3: isa.F3LW},
	"lbu": {format: formatI, opcode: isa.OpLoad, funct3: isa.F3LBU},
	"lhu": {format: formatI, opcode: isa.OpLoad, funct3: isa.F3LHU},

	"sb": {format: formatS, opcode: isa.OpStore, funct3: isa.F3SB},
	"sh": {format: formatS, opcode: isa.OpStore, funct3: isa.F3SH},
	"sw": {format: formatS, opcode: isa.OpStore, funct3: isa.F3SW},

	"addi":  {format: formatI, opcode: isa.OpImm, funct3: isa.F3ADDSUB},
	"slti":  {format: formatI, opcode: isa.OpImm, funct3: isa.F3SLT},
	"sltiu": {format: formatI, opcode: isa.OpImm, funct3: isa.F3SLTU},
	"xori":  {format: formatI, opcode: isa.OpImm, funct3: isa.F3XOR},
	"ori":   {format: formatI, opcode: isa.OpImm, funct3: isa.F3OR},
	"andi":  {format: formatI, opcode: isa.OpImm, funct3: isa.F3AND},
	"slli":  {format: formatIShift, opcode: isa.OpImm, funct3: isa.F3SLL, funct7: 0},
	"srli":  {format: formatIShift, opcode: isa.OpImm, funct3: isa.F3SRL_SRA, funct7: 0},
	"srai":  {format: formatIShift, opcode: isa.OpImm, funct3: isa.F3SRL_SRA, funct7: isa.Funct7Alt},

	"add":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3ADDSUB, funct7: 0},
	"sub":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3ADDSUB, funct7: isa.Funct7Alt},
	"sll":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3SLL, funct7: 0},
	"slt":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3SLT, funct7: 0},
	"sltu": {format: formatR, opcode: isa.OpReg, funct3: isa.F3SLTU, funct7: 0},
	"xor":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3XOR, funct7: 0},
	"srl":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3SRL_SRA, funct7: 0},
	"sra":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3SRL_SRA, funct7: isa.Funct7Alt},
	"or":   {format: formatR, opcode: isa.OpReg, funct3: isa.F3OR, funct7: 0},
	"and":  {format: formatR, opcode: isa.OpReg, funct3: isa.F3AND, funct7: 0},

	"fence":  {format: formatFence, opcode: isa.OpFence},
	"ecall":  {format: formatSystem, opcode: isa.OpSystem},
	"ebreak": {format: formatSystem, opcode: isa.OpSystem},
}

// encodeInstr encodes one expanded (real) instruction at byte address addr.
func encodeInstr(ei emittedInstr, addr isa.Addr, labels map[string]isa.Addr) (isa.Word, error) {
	spec, ok := mnemonics[ei.mnemonic]
	if !ok {
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "unknown mnemonic %q", ei.mnemonic)
	}

	switch spec.format {
	case formatR:
		rd, rs1, rs2, err := regs3(ei)
		if err != nil {
			return 0, err
		}
		return encoder.EncodeR(spec.opcode, spec.funct3, spec.funct7, rd, rs1, rs2), nil

	case formatU:
		rd, err := reg(ei.operands, 0, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm, err := resolveImmediate(ei.operands[1], labels, addr, false, 20, false, ei.lineno)
		if err != nil {
			return 0, err
		}
		return encoder.EncodeU(spec.opcode, rd, imm<<12), nil

	case formatJ:
		rd, err := reg(ei.operands, 0, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm, err := resolveImmediate(ei.operands[1], labels, addr, true, 21, true, ei.lineno)
		if err != nil {
			return 0, err
		}
		return encoder.EncodeJ(spec.opcode, rd, imm), nil

	case formatB:
		rs1, err := reg(ei.operands, 0, ei.lineno)
		if err != nil {
			return 0, err
		}
		rs2, err := reg(ei.operands, 1, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm, err := resolveImmediate(ei.operands[2], labels, addr, true, 13, true, ei.lineno)
		if err != nil {
			return 0, err
		}
		return encoder.EncodeB(spec.opcode, spec.funct3, rs1, rs2, imm), nil

	case formatI:
		switch ei.mnemonic {
		case "jalr":
			return encodeJALR(ei, labels, addr, spec)
		case "lb", "lh", "lw", "lbu", "lhu":
			return encodeLoad(ei, labels, addr, spec)
		default:
			rd, err := reg(ei.operands, 0, ei.lineno)
			if err != nil {
				return 0, err
			}
			rs1, err := reg(ei.operands, 1, ei.lineno)
			if err != nil {
				return 0, err
			}
			imm, err := resolveImmediate(ei.operands[2], labels, addr, false, 12, true, ei.lineno)
			if err != nil {
				return 0, err
			}
			return encoder.EncodeI(spec.opcode, spec.funct3, rd, rs1, imm), nil
		}

	case formatIShift:
		rd, err := reg(ei.operands, 0, ei.lineno)
		if err != nil {
			return 0, err
		}
		rs1, err := reg(ei.operands, 1, ei.lineno)
		if err != nil {
			return 0, err
		}
		shamt, err := resolveImmediate(ei.operands[2], labels, addr, false, 5, false, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm12 := (spec.funct7 << 5) | shamt
		return encoder.EncodeI(spec.opcode, spec.funct3, rd, rs1, imm12), nil

	case formatS:
		return encodeStore(ei, labels, addr, spec)

	case formatFence:
		return encoder.EncodeI(spec.opcode, 0, 0, 0, 0), nil

	case formatSystem:
		imm := isa.Word(0)
		if ei.mnemonic == "ebreak" {
			imm = 1
		}
		return encoder.EncodeI(spec.opcode, 0, 0, 0, imm), nil

	default:
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "unhandled format for %q", ei.mnemonic)
	}
}

func encodeLoad(ei emittedInstr, labels map[string]isa.Addr, addr isa.Addr, spec mnemonicSpec) (isa.Word, error) {
	if len(ei.operands) != 2 {
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "%s: expected \"rd, offset(rs1)\"", ei.mnemonic)
	}
	rd, err := reg(ei.operands, 0, ei.lineno)
	if err != nil {
		return 0, err
	}
	immTok, baseTok, ok := parseOffsetReg(ei.operands[1])
	if !ok {
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "%s: expected \"offset(rs1)\", got %q", ei.mnemonic, ei.operands[1])
	}
	rs1, err := resolveRegister(baseTok, ei.lineno)
	if err != nil {
		return 0, err
	}
	imm, err := resolveImmediate(immTok, labels, addr, false, 12, true, ei.lineno)
	if err != nil {
		return 0, err
	}
	return encoder.EncodeI(spec.opcode, spec.funct3, rd, rs1, imm), nil
}

func encodeStore(ei emittedInstr, labels map[string]isa.Addr, addr isa.Addr, spec mnemonicSpec) (isa.Word, error) {
	if len(ei.operands) != 2 {
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "%s: expected \"rs2, offset(rs1)\"", ei.mnemonic)
	}
	rs2, err := reg(ei.operands, 0, ei.lineno)
	if err != nil {
		return 0, err
	}
	immTok, baseTok, ok := parseOffsetReg(ei.operands[1])
	if !ok {
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "%s: expected \"offset(rs1)\", got %q", ei.mnemonic, ei.operands[1])
	}
	rs1, err := resolveRegister(baseTok, ei.lineno)
	if err != nil {
		return 0, err
	}
	imm, err := resolveImmediate(immTok, labels, addr, false, 12, true, ei.lineno)
	if err != nil {
		return 0, err
	}
	return encoder.EncodeS(spec.opcode, spec.funct3, rs1, rs2, imm), nil
}

func encodeJALR(ei emittedInstr, labels map[string]isa.Addr, addr isa.Addr, spec mnemonicSpec) (isa.Word, error) {
	rd, err := reg(ei.operands, 0, ei.lineno)
	if err != nil {
		return 0, err
	}
	var rs1, imm isa.Word
	switch len(ei.operands) {
	case 2:
		immTok, baseTok, ok := parseOffsetReg(ei.operands[1])
		if !ok {
			return 0, newErr(KindUnknownMnemonic, ei.lineno, "jalr: expected \"rd, offset(rs1)\" or \"rd, rs1, imm\"")
		}
		rs1, err = resolveRegister(baseTok, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm, err = resolveImmediate(immTok, labels, addr, false, 12, true, ei.lineno)
		if err != nil {
			return 0, err
		}
	case 3:
		rs1, err = reg(ei.operands, 1, ei.lineno)
		if err != nil {
			return 0, err
		}
		imm, err = resolveImmediate(ei.operands[2], labels, addr, false, 12, true, ei.lineno)
		if err != nil {
			return 0, err
		}
	default:
		return 0, newErr(KindUnknownMnemonic, ei.lineno, "jalr: wrong number of operands")
	}
	return encoder.EncodeI(spec.opcode, spec.funct3, rd, rs1, imm), nil
}

func regs3(ei emittedInstr) (rd, rs1, rs2 isa.Word, err error) {
	rd, err = reg(ei.operands, 0, ei.lineno)
	if err != nil {
		return
	}
	rs1, err = reg(ei.operands, 1, ei.lineno)
	if err != nil {
		return
	}
	rs2, err = reg(ei.operands, 2, ei.lineno)
	return
}

func reg(operands []string, idx, lineno int) (isa.Word, error) {
	if idx >= len(operands) {
		return 0, newErr(KindUnknownRegister, lineno, "missing operand %d", idx)
	}
	return resolveRegister(operands[idx], lineno)
}

func resolveRegister(tok string, lineno int) (isa.Word, error) {
	n, ok := isa.RegisterByName(strings.TrimSpace(tok))
	if !ok {
		return 0, newErr(KindUnknownRegister, lineno, "unknown register %q", tok)
	}
	return n, nil
}

// parseOffsetReg splits "imm(reg)" into ("imm", "reg", true).
func parseOffsetReg(tok string) (imm, reg string, ok bool) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return "", "", false
	}
	imm = strings.TrimSpace(tok[:open])
	if imm == "" {
		imm = "0"
	}
	reg = strings.TrimSpace(tok[open+1 : len(tok)-1])
	return imm, reg, true
}

// resolveImmediate resolves a numeric literal or label reference to a
// masked, range-checked immediate. pcRelative applies only to label
// references (branches and jal); numeric literals are used as-is.
func resolveImmediate(tok string, labels map[string]isa.Addr, curAddr isa.Addr, pcRelative bool, bits int, signed bool, lineno int) (isa.Word, error) {
	if v, err := parseIntLiteral(tok); err == nil {
		return castImmediate(v, bits, signed, lineno)
	}
	addr, ok := labels[tok]
	if !ok {
		return 0, newErr(KindUndefinedLabel, lineno, "undefined label %q", tok)
	}
	var value int64
	if pcRelative {
		value = int64(addr) - int64(curAddr)
	} else {
		value = int64(addr)
	}
	return castImmediate(value, bits, signed, lineno)
}

func castImmediate(value int64, bits int, signed bool, lineno int) (isa.Word, error) {
	if signed {
		lo := -(int64(1) << uint(bits-1))
		hi := (int64(1) << uint(bits-1)) - 1
		if value < lo || value > hi {
			return 0, newErr(KindImmediateOutOfRange, lineno, "value %d out of %d-bit signed range", value, bits)
		}
	} else {
		if value < 0 || value > (int64(1)<<uint(bits))-1 {
			return 0, newErr(KindImmediateOutOfRange, lineno, "value %d out of %d-bit unsigned range", value, bits)
		}
	}
	return isa.Word(value), nil
}
