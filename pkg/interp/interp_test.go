package interp_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32v/rv32v/pkg/asm"
	"github.com/rv32v/rv32v/pkg/interp"
	"github.com/rv32v/rv32v/pkg/isa"
)

func TestInterp(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Interp Suite")
}

func assemble(src string) []isa.Word {
	words, err := asm.Assemble(strings.NewReader(src))
	Expect(err).NotTo(HaveOccurred())
	return words
}

var _ = Describe("Interp", func() {
	var it *interp.Interp

	BeforeEach(func() {
		it = interp.New()
	})

	It("halts on a store to the sentinel address, yielding the expected register", func() {
		it.LoadProgram(assemble(`
			addi x5, x0, 42
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Halted).To(BeTrue())
		Expect(result.Regs[5]).To(BeEquivalentTo(0x2A))
	})

	It("assembles lui+addi to the exact 32-bit constant", func() {
		it.LoadProgram(assemble(`
			lui x6, 0x12345
			addi x6, x6, 0x678
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[6]).To(BeEquivalentTo(0x12345678))
	})

	It("sign-extends SRAI at the top-bit boundary", func() {
		it.LoadProgram(assemble(`
			addi x1, x0, -1
			srai x2, x1, 4
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[2]).To(BeEquivalentTo(0xFFFFFFFF))
	})

	It("takes a forward branch when the comparison is true", func() {
		it.LoadProgram(assemble(`
			addi x1, x0, 5
			addi x2, x0, 6
			bne x1, x2, skip
			addi x3, x0, 1
			skip:
			addi x4, x0, 2
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[3]).To(BeEquivalentTo(0))
		Expect(result.Regs[4]).To(BeEquivalentTo(2))
	})

	It("falls through when the branch is not taken", func() {
		it.LoadProgram(assemble(`
			addi x1, x0, 5
			addi x2, x0, 5
			bne x1, x2, skip
			addi x3, x0, 1
			skip:
			addi x4, x0, 2
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[3]).To(BeEquivalentTo(1))
		Expect(result.Regs[4]).To(BeEquivalentTo(2))
	})

	It("round-trips a stored word and its sub-word views", func() {
		it.LoadProgram(assemble(`
			li x1, 0x2000
			li x2, -559038737
			sw x2, 0(x1)
			lw x5, 0(x1)
			lbu x6, 0(x1)
			lbu x7, 1(x1)
			lbu x8, 2(x1)
			lbu x9, 3(x1)
			lb x10, 3(x1)
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[5]).To(BeEquivalentTo(0xDEADBEEF))
		Expect(result.Regs[6]).To(BeEquivalentTo(0xEF))
		Expect(result.Regs[7]).To(BeEquivalentTo(0xBE))
		Expect(result.Regs[8]).To(BeEquivalentTo(0xAD))
		Expect(result.Regs[9]).To(BeEquivalentTo(0xDE))
		Expect(result.Regs[10]).To(BeEquivalentTo(0xFFFFFFDE))
	})

	It("keeps x0 hardwired to zero across steps", func() {
		it.LoadProgram(assemble(`
			addi x0, x0, 5
			li x31, -16
			addi x30, x0, 1
			sw x30, 0(x31)
		`))
		result := it.Run()
		Expect(result.Regs[0]).To(BeEquivalentTo(0))
	})

	It("treats an unknown opcode as a silent NOP rather than an error", func() {
		it.LoadProgram([]isa.Word{0x00000000}) // opcode bits all zero: not a defined opcode
		result := it.Step()
		Expect(result).To(Equal(interp.StepContinue))
		Expect(it.PC).To(BeEquivalentTo(4))
	})

	It("reports timeout when the cycle budget is exhausted", func() {
		it = interp.New(interp.WithMaxCycles(3))
		it.LoadProgram(assemble(`
			addi x1, x0, 1
			addi x1, x1, 1
			addi x1, x1, 1
			addi x1, x1, 1
			addi x1, x1, 1
		`))
		result := it.Run()
		Expect(result.Timeout).To(BeTrue())
		Expect(result.Cycles).To(Equal(3))
	})
})
