// Package genrand produces constrained-random RV32I programs: a fixed
// preamble and register-seeding block, followed by a weighted mix of random
// instructions, followed by a halt epilogue. Every program it emits is
// legal and terminates within the interpreter's default cycle budget, which
// makes it suitable for feeding both the reference interpreter and an
// external RTL simulator and diffing the results.
//
// Generation works by building RV32I assembly source text and handing it to
// pkg/asm, rather than calling pkg/encoder directly: that way label
// resolution, pseudo-op expansion and range checking are never duplicated,
// and the assembly text returned alongside the encoded words is guaranteed
// to be exactly what produced them.
package genrand

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rv32v/rv32v/pkg/asm"
	"github.com/rv32v/rv32v/pkg/isa"
)

// Weights is the normalized instruction-category mix. The zero value is
// invalid; use DefaultWeights or WithWeights.
type Weights struct {
	RType  int
	IALU   int
	IShift int
	Load   int
	Store  int
	LUI    int
	AUIPC  int
	Branch int
}

// DefaultWeights matches the mix used throughout the pack's own fuzz runs.
var DefaultWeights = Weights{
	RType: 30, IALU: 20, IShift: 10, Load: 12, Store: 10, LUI: 5, AUIPC: 3, Branch: 10,
}

func (w Weights) total() int {
	return w.RType + w.IALU + w.IShift + w.Load + w.Store + w.LUI + w.AUIPC + w.Branch
}

// Program is a generated test case: its encoded words, ready to write as a
// hex image, and the assembly source that produced them.
type Program struct {
	Words  []isa.Word
	Source string
}

type config struct {
	dataBase isa.Word
	dataSize isa.Word
	weights  Weights
}

// Option configures Generate away from its defaults.
type Option func(*config)

// WithDataBase overrides the address the preamble loads into x1.
func WithDataBase(addr isa.Word) Option {
	return func(c *config) { c.dataBase = addr }
}

// WithDataSize overrides the load/store offset window, [0, size).
func WithDataSize(size isa.Word) Option {
	return func(c *config) { c.dataSize = size }
}

// WithWeights overrides the instruction-category mix.
func WithWeights(w Weights) Option {
	return func(c *config) { c.weights = w }
}

// seedRegs are the scratch registers the seeding block loads interesting
// constants into. x1 is reserved for the data-base pointer, x31/x30 for the
// halt epilogue, x0 is hardwired zero.
var seedRegs = []uint32{2, 3, 4, 5, 6, 7, 8, 9}
var seedValues = []int64{0, 1, -1, 2147483647, -2147483648, 42, 1431655765, -1431655766}

var rTypeOps = []string{"add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and"}
var iALUOps = []string{"addi", "slti", "sltiu", "xori", "ori", "andi"}
var iShiftOps = []string{"slli", "srli", "srai"}
var branchOps = []string{"beq", "bne", "blt", "bge", "bltu", "bgeu"}

type loadSpec struct {
	mnemonic string
	width    int
}

var loadSpecs = []loadSpec{{"lb", 1}, {"lh", 2}, {"lw", 4}, {"lbu", 1}, {"lhu", 2}}
var storeSpecs = []loadSpec{{"sb", 1}, {"sh", 2}, {"sw", 4}}

const (
	kindRType = iota
	kindIALU
	kindIShift
	kindLoad
	kindStore
	kindLUI
	kindAUIPC
	kindBranch
)

// Generate deterministically builds a random program from seed, with n
// body instructions between the seeding block and the halt epilogue.
func Generate(seed int64, n int, opts ...Option) (Program, error) {
	cfg := config{dataBase: isa.DataBase, dataSize: isa.DataSize, weights: DefaultWeights}
	for _, opt := range opts {
		opt(&cfg)
	}
	rng := rand.New(rand.NewSource(seed))

	var body []string
	// index -> incoming label name, for instructions that are branch targets.
	labelAt := make(map[int]string)
	type branchPlan struct {
		idx    int
		target int
		op     string
		rs1    string
		rs2    string
	}
	var branches []branchPlan

	for i := 0; i < n; i++ {
		kind := pickKind(rng, cfg.weights)
		remaining := n - i - 1
		if kind == kindBranch {
			maxSkip := remaining - 2
			if maxSkip < 1 {
				// No room for a legal forward target; fall back to an ALU op.
				kind = kindIALU
			}
		}
		switch kind {
		case kindRType:
			op := rTypeOps[rng.Intn(len(rTypeOps))]
			body = append(body, fmt.Sprintf("%s %s, %s, %s", op, randReg(rng), randReg(rng), randReg(rng)))

		case kindIALU:
			op := iALUOps[rng.Intn(len(iALUOps))]
			imm := rng.Intn(4096) - 2048
			body = append(body, fmt.Sprintf("%s %s, %s, %d", op, randReg(rng), randReg(rng), imm))

		case kindIShift:
			op := iShiftOps[rng.Intn(len(iShiftOps))]
			shamt := rng.Intn(32)
			body = append(body, fmt.Sprintf("%s %s, %s, %d", op, randReg(rng), randReg(rng), shamt))

		case kindLoad:
			ls := loadSpecs[rng.Intn(len(loadSpecs))]
			off := alignedOffset(rng, cfg.dataSize, ls.width)
			body = append(body, fmt.Sprintf("%s %s, %d(x1)", ls.mnemonic, randReg(rng), off))

		case kindStore:
			ls := storeSpecs[rng.Intn(len(storeSpecs))]
			off := alignedOffset(rng, cfg.dataSize, ls.width)
			body = append(body, fmt.Sprintf("%s %s, %d(x1)", ls.mnemonic, randReg(rng), off))

		case kindLUI:
			body = append(body, fmt.Sprintf("lui %s, %d", randReg(rng), rng.Intn(0x100000)))

		case kindAUIPC:
			body = append(body, fmt.Sprintf("auipc %s, %d", randReg(rng), rng.Intn(0x100000)))

		case kindBranch:
			maxSkip := remaining - 2
			if maxSkip > 5 {
				maxSkip = 5
			}
			skip := 1 + rng.Intn(maxSkip)
			target := i + skip
			label := fmt.Sprintf("gen_%d", target)
			labelAt[target] = label
			op := branchOps[rng.Intn(len(branchOps))]
			rs1, rs2 := randReg(rng), randReg(rng)
			branches = append(branches, branchPlan{idx: i, target: target, op: op, rs1: rs1, rs2: rs2})
			body = append(body, "") // placeholder, filled in below
		}
	}
	for _, b := range branches {
		body[b.idx] = fmt.Sprintf("%s %s, %s, %s", b.op, b.rs1, b.rs2, labelAt[b.target])
	}

	var src strings.Builder
	fmt.Fprintf(&src, "li x1, %d\n", cfg.dataBase)
	for i, reg := range seedRegs {
		fmt.Fprintf(&src, "li x%d, %d\n", reg, seedValues[i])
	}
	for i, line := range body {
		if label, ok := labelAt[i]; ok {
			fmt.Fprintf(&src, "%s:\n", label)
		}
		src.WriteString(line)
		src.WriteByte('\n')
	}
	src.WriteString("li x31, -16\n") // 0xFFFFFFF0, the halt sentinel
	src.WriteString("addi x30, x0, 1\n")
	src.WriteString("sw x30, 0(x31)\n")
	src.WriteString("halt: jal x0, halt\n")

	source := src.String()
	words, err := asm.Assemble(strings.NewReader(source))
	if err != nil {
		return Program{}, fmt.Errorf("genrand: generated program failed to assemble: %w", err)
	}
	return Program{Words: words, Source: source}, nil
}

func pickKind(rng *rand.Rand, w Weights) int {
	total := w.total()
	r := rng.Intn(total)
	buckets := []struct {
		kind   int
		weight int
	}{
		{kindRType, w.RType}, {kindIALU, w.IALU}, {kindIShift, w.IShift},
		{kindLoad, w.Load}, {kindStore, w.Store}, {kindLUI, w.LUI},
		{kindAUIPC, w.AUIPC}, {kindBranch, w.Branch},
	}
	for _, b := range buckets {
		if r < b.weight {
			return b.kind
		}
		r -= b.weight
	}
	return kindIALU
}

// randReg picks uniformly from x2..x30: never the zero register, never x1
// (the data-base pointer) or x31 (reserved for the halt epilogue).
func randReg(rng *rand.Rand) string {
	return fmt.Sprintf("x%d", 2+rng.Intn(29))
}

func alignedOffset(rng *rand.Rand, dataSize isa.Word, width int) int {
	n := int(dataSize) / width
	return rng.Intn(n) * width
}
