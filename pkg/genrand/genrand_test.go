package genrand_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32v/rv32v/pkg/asm"
	"github.com/rv32v/rv32v/pkg/genrand"
	"github.com/rv32v/rv32v/pkg/interp"
	"github.com/rv32v/rv32v/pkg/isa"
)

func TestGenrand(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Genrand Suite")
}

var _ = Describe("Generate", func() {
	It("is deterministic for a fixed seed", func() {
		a, err := genrand.Generate(0, 50)
		Expect(err).NotTo(HaveOccurred())
		b, err := genrand.Generate(0, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Words).To(Equal(b.Words))
		Expect(a.Source).To(Equal(b.Source))
	})

	It("varies with the seed", func() {
		a, err := genrand.Generate(0, 50)
		Expect(err).NotTo(HaveOccurred())
		b, err := genrand.Generate(1, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Words).NotTo(Equal(b.Words))
	})

	It("produces a program the reference interpreter halts within the default cycle budget", func() {
		program, err := genrand.Generate(0, 50)
		Expect(err).NotTo(HaveOccurred())

		it := interp.New()
		it.LoadProgram(program.Words)
		result := it.Run()

		Expect(result.Timeout).To(BeFalse())
		Expect(result.Halted).To(BeTrue())
		Expect(result.Regs[0]).To(BeEquivalentTo(0))
	})

	It("produces assembly source that re-assembles to the same words", func() {
		program, err := genrand.Generate(7, 30)
		Expect(err).NotTo(HaveOccurred())

		reassembled, err := asm.Assemble(strings.NewReader(program.Source))
		Expect(err).NotTo(HaveOccurred())
		Expect(reassembled).To(Equal(program.Words))
	})

	It("keeps x0 hardwired to zero across all steps", func() {
		program, err := genrand.Generate(42, 80)
		Expect(err).NotTo(HaveOccurred())

		it := interp.New()
		it.LoadProgram(program.Words)
		for i := 0; i < isa.DefaultMaxCycles; i++ {
			if it.Halted() {
				break
			}
			it.Step()
			Expect(it.Regs[0]).To(BeEquivalentTo(0))
		}
	})

	It("honors a custom weight mix favoring branches and still halts", func() {
		program, err := genrand.Generate(3, 60, genrand.WithWeights(genrand.Weights{
			RType: 10, IALU: 10, IShift: 5, Load: 5, Store: 5, LUI: 5, AUIPC: 5, Branch: 55,
		}))
		Expect(err).NotTo(HaveOccurred())

		it := interp.New()
		it.LoadProgram(program.Words)
		result := it.Run()
		Expect(result.Halted).To(BeTrue())
	})
})

