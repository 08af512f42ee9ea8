package asm_test

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32v/rv32v/pkg/asm"
	"github.com/rv32v/rv32v/pkg/encoder"
	"github.com/rv32v/rv32v/pkg/isa"
)

func TestAsm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asm Suite")
}

var _ = Describe("Assemble", func() {
	It("encodes a real R-type instruction", func() {
		words, err := asm.Assemble(strings.NewReader("add x1, x2, x3"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(1))
		funct7, rs2, rs1, funct3, rd, opcode := encoder.DecodeR(words[0])
		Expect(opcode).To(Equal(isa.OpReg))
		Expect(funct3).To(Equal(isa.Word(isa.F3ADDSUB)))
		Expect(funct7).To(BeEquivalentTo(0))
		Expect(rd).To(BeEquivalentTo(1))
		Expect(rs1).To(BeEquivalentTo(2))
		Expect(rs2).To(BeEquivalentTo(3))
	})

	It("resolves a backward label to a negative branch offset", func() {
		words, err := asm.Assemble(strings.NewReader(`
			loop:
			addi x1, x1, -1
			bne x1, x0, loop
		`))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
		imm, _, _, _, _ := encoder.DecodeB(words[1])
		Expect(int32(imm)).To(Equal(int32(-4)))
	})

	It("expands li within the single-addi range to one instruction", func() {
		words, err := asm.Assemble(strings.NewReader("li x5, 100"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(1))
	})

	It("expands li outside the single-addi range to lui+addi", func() {
		words, err := asm.Assemble(strings.NewReader("li x5, 0x12345678"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
	})

	It("expands li for a negative value near the 32-bit boundary correctly", func() {
		words, err := asm.Assemble(strings.NewReader("li x31, -16"))
		Expect(err).NotTo(HaveOccurred())
		var reconstructed isa.Word
		for _, w := range words {
			switch encoder.Opcode(w) {
			case isa.OpLUI:
				imm, _, _ := encoder.DecodeU(w)
				reconstructed = imm
			case isa.OpImm:
				imm, _, _, _, _ := encoder.DecodeI(w)
				reconstructed += imm
			}
		}
		Expect(reconstructed).To(BeEquivalentTo(0xFFFFFFF0))
	})

	It("rejects an unknown register with a typed error", func() {
		_, err := asm.Assemble(strings.NewReader("add x1, x99, x3"))
		Expect(err).To(HaveOccurred())
		var ae *asm.AssembleError
		Expect(errors.As(err, &ae)).To(BeTrue())
		Expect(ae.Kind).To(Equal(asm.KindUnknownRegister))
		Expect(errors.Is(err, asm.ErrUnknownRegister)).To(BeTrue())
	})

	It("rejects an unknown mnemonic", func() {
		_, err := asm.Assemble(strings.NewReader("frobnicate x1, x2, x3"))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, asm.ErrUnknownMnemonic)).To(BeTrue())
	})

	It("rejects an out-of-range immediate", func() {
		_, err := asm.Assemble(strings.NewReader("addi x1, x0, 5000"))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, asm.ErrImmediateOutOfRange)).To(BeTrue())
	})

	It("rejects a reference to an undefined label", func() {
		_, err := asm.Assemble(strings.NewReader("beq x1, x0, nowhere"))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, asm.ErrUndefinedLabel)).To(BeTrue())
	})

	It("rejects a duplicate label definition", func() {
		_, err := asm.Assemble(strings.NewReader(`
			here:
			addi x1, x0, 1
			here:
			addi x2, x0, 2
		`))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, asm.ErrDuplicateLabel)).To(BeTrue())
	})

	It("reports a clean error instead of panicking on a pseudo-op missing operands", func() {
		_, err := asm.Assemble(strings.NewReader("mv x1"))
		Expect(err).To(HaveOccurred())
	})

	It("parses offset(reg) operands for loads and stores", func() {
		words, err := asm.Assemble(strings.NewReader("lw x5, 8(x1)\nsw x5, -4(x2)"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
		imm, rs1, _, rd, _ := encoder.DecodeI(words[0])
		Expect(rd).To(BeEquivalentTo(5))
		Expect(rs1).To(BeEquivalentTo(1))
		Expect(int32(imm)).To(Equal(int32(8)))
	})

	It("accepts both jalr operand forms", func() {
		words, err := asm.Assemble(strings.NewReader("jalr x1, 4(x2)\njalr x1, x2, 4"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words[0]).To(Equal(words[1]))
	})
})
