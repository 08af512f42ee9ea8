// Package interp is the RV32I reference interpreter: a permissive,
// deterministic functional model of the architectural state. It tolerates
// any encoding a fuzzer or the random generator can produce — unknown
// opcodes are silent NOPs, out-of-range memory access reads zero or drops
// the write — so that running a guest program never raises a host error.
// The assembler (pkg/asm), by contrast, is strict: that split is
// deliberate, see SPEC_FULL.md §9.
package interp

import (
	"encoding/binary"
	"fmt"

	"github.com/rv32v/rv32v/pkg/encoder"
	"github.com/rv32v/rv32v/pkg/isa"
)

// StepResult reports what a single Step call did, so callers don't have to
// re-derive it from the Interp's own Halted() flag.
type StepResult int

const (
	// StepContinue means the machine advanced one instruction and is still running.
	StepContinue StepResult = iota
	// StepHalted means this step observed the halt sentinel on the address bus.
	StepHalted
	// StepNoProgress means the machine was already halted; Step was a no-op.
	StepNoProgress
)

func (r StepResult) String() string {
	switch r {
	case StepContinue:
		return "continue"
	case StepHalted:
		return "halted"
	case StepNoProgress:
		return "no-progress"
	default:
		return "unknown"
	}
}

// RunResult is the outcome of driving the interpreter to completion.
type RunResult struct {
	Cycles  int
	Halted  bool // true if halted by the store-to-sentinel protocol
	Timeout bool // true if the cycle budget was exhausted first
	Regs    [isa.NumRegisters]isa.Word
	PC      isa.Word
}

// Interp is the RV32I architectural state: register file, program counter,
// byte-addressable memory, and a sticky halted flag. It is not goroutine
// safe; a single goroutine should drive a given Interp.
type Interp struct {
	Regs [isa.NumRegisters]isa.Word
	PC   isa.Word

	mem       []byte
	halted    bool
	maxCycles int
}

// Option configures a new Interp.
type Option func(*Interp)

// WithMemorySize overrides the default 64 KiB backing buffer.
func WithMemorySize(n int) Option {
	return func(it *Interp) { it.mem = make([]byte, n) }
}

// WithMaxCycles overrides the default 10,000-cycle run budget.
func WithMaxCycles(n int) Option {
	return func(it *Interp) { it.maxCycles = n }
}

// New creates an Interp with memory pre-filled with the canonical NOP word,
// replicated every 4 bytes, per the data model's construction invariant.
func New(opts ...Option) *Interp {
	it := &Interp{
		mem:       make([]byte, isa.DefaultMemorySize),
		maxCycles: isa.DefaultMaxCycles,
	}
	for _, opt := range opts {
		opt(it)
	}
	fillNop(it.mem)
	return it
}

func fillNop(mem []byte) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], isa.NopWord)
	for i := 0; i+4 <= len(mem); i += 4 {
		copy(mem[i:i+4], buf[:])
	}
}

// LoadProgram copies words into memory starting at byte address 0.
func (it *Interp) LoadProgram(words []isa.Word) {
	for i, w := range words {
		it.writeWord(isa.Addr(i*4), w)
	}
}

// Halted reports whether the machine has observed the halt sentinel.
func (it *Interp) Halted() bool {
	return it.halted
}

// readByte returns 0 for any address outside the backing buffer.
func (it *Interp) readByte(addr isa.Addr) byte {
	if int(addr) < len(it.mem) {
		return it.mem[addr]
	}
	return 0
}

// writeByte silently drops writes outside the backing buffer.
func (it *Interp) writeByte(addr isa.Addr, v byte) {
	if int(addr) < len(it.mem) {
		it.mem[addr] = v
	}
}

func (it *Interp) readHalf(addr isa.Addr) isa.Word {
	lo := isa.Word(it.readByte(addr))
	hi := isa.Word(it.readByte(addr + 1))
	return lo | hi<<8
}

func (it *Interp) writeHalf(addr isa.Addr, v isa.Word) {
	it.writeByte(addr, byte(v))
	it.writeByte(addr+1, byte(v>>8))
}

func (it *Interp) readWord(addr isa.Addr) isa.Word {
	b0 := isa.Word(it.readByte(addr))
	b1 := isa.Word(it.readByte(addr + 1))
	b2 := isa.Word(it.readByte(addr + 2))
	b3 := isa.Word(it.readByte(addr + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func (it *Interp) writeWord(addr isa.Addr, v isa.Word) {
	it.writeByte(addr, byte(v))
	it.writeByte(addr+1, byte(v>>8))
	it.writeByte(addr+2, byte(v>>16))
	it.writeByte(addr+3, byte(v>>24))
}

// fetch reads the instruction at pc, or the canonical NOP if pc is not
// fully covered by the backing buffer.
func (it *Interp) fetch(pc isa.Word) isa.Word {
	if int(pc)+4 <= len(it.mem) {
		return it.readWord(pc)
	}
	return isa.NopWord
}

// Step executes a single instruction. If the machine is already halted,
// Step is a no-op and returns StepNoProgress.
func (it *Interp) Step() StepResult {
	if it.halted {
		return StepNoProgress
	}
	instr := it.fetch(it.PC)
	result := it.execute(instr)
	it.Regs[0] = 0
	return result
}

func (it *Interp) execute(instr isa.Word) StepResult {
	opcode := encoder.Opcode(instr)
	nextPC := it.PC + 4

	switch opcode {
	case isa.OpLUI:
		imm, rd, _ := encoder.DecodeU(instr)
		it.setReg(rd, imm)

	case isa.OpAUIPC:
		imm, rd, _ := encoder.DecodeU(instr)
		it.setReg(rd, it.PC+imm)

	case isa.OpJAL:
		imm, rd, _ := encoder.DecodeJ(instr)
		it.setReg(rd, it.PC+4)
		nextPC = it.PC + imm

	case isa.OpJALR:
		imm, rs1, _, rd, _ := encoder.DecodeI(instr)
		target := (it.Regs[rs1] + imm) &^ 1
		it.setReg(rd, it.PC+4)
		nextPC = target

	case isa.OpBranch:
		imm, rs2, rs1, funct3, _ := encoder.DecodeB(instr)
		if branchTaken(funct3, it.Regs[rs1], it.Regs[rs2]) {
			nextPC = it.PC + imm
		}

	case isa.OpLoad:
		imm, rs1, funct3, rd, _ := encoder.DecodeI(instr)
		addr := it.Regs[rs1] + imm
		it.setReg(rd, it.loadValue(funct3, addr))

	case isa.OpStore:
		imm, rs2, rs1, funct3, _ := encoder.DecodeS(instr)
		addr := it.Regs[rs1] + imm
		if addr == isa.HaltSentinel {
			it.halted = true
			it.PC = nextPC
			return StepHalted
		}
		it.storeValue(funct3, addr, it.Regs[rs2])

	case isa.OpImm:
		imm, rs1, funct3, rd, _ := encoder.DecodeI(instr)
		it.setReg(rd, aluImm(funct3, instr, it.Regs[rs1], imm))

	case isa.OpReg:
		_, rs2, rs1, funct3, rd, _ := encoder.DecodeR(instr)
		funct7 := (instr >> 25) & 0b111_1111
		it.setReg(rd, aluReg(funct3, funct7, it.Regs[rs1], it.Regs[rs2]))

	case isa.OpFence, isa.OpSystem:
		// NOP: fences and ECALL/EBREAK are outside scope (spec Non-goals).

	default:
		// Unknown opcode: silent NOP, by design — see package doc.
	}

	it.PC = nextPC & 0xFFFFFFFF
	return StepContinue
}

func (it *Interp) setReg(r, v isa.Word) {
	if r != 0 {
		it.Regs[r] = v
	}
}

func branchTaken(funct3, a, b isa.Word) bool {
	switch funct3 {
	case isa.F3BEQ:
		return a == b
	case isa.F3BNE:
		return a != b
	case isa.F3BLT:
		return int32(a) < int32(b)
	case isa.F3BGE:
		return int32(a) >= int32(b)
	case isa.F3BLTU:
		return a < b
	case isa.F3BGEU:
		return a >= b
	default:
		return false
	}
}

func (it *Interp) loadValue(funct3 isa.Word, addr isa.Addr) isa.Word {
	switch funct3 {
	case isa.F3LB:
		return isa.SignExtend(isa.Word(it.readByte(addr)), 8)
	case isa.F3LH:
		return isa.SignExtend(it.readHalf(addr), 16)
	case isa.F3LW:
		return it.readWord(addr)
	case isa.F3LBU:
		return isa.Word(it.readByte(addr))
	case isa.F3LHU:
		return it.readHalf(addr)
	default:
		return 0
	}
}

func (it *Interp) storeValue(funct3 isa.Word, addr isa.Addr, v isa.Word) {
	switch funct3 {
	case isa.F3SB:
		it.writeByte(addr, byte(v))
	case isa.F3SH:
		it.writeHalf(addr, v)
	case isa.F3SW:
		it.writeWord(addr, v)
	}
}

func aluImm(funct3, instr, rs1v, imm isa.Word) isa.Word {
	switch funct3 {
	case isa.F3ADDSUB:
		return rs1v + imm
	case isa.F3SLT:
		return boolWord(int32(rs1v) < int32(imm))
	case isa.F3SLTU:
		return boolWord(rs1v < imm)
	case isa.F3XOR:
		return rs1v ^ imm
	case isa.F3OR:
		return rs1v | imm
	case isa.F3AND:
		return rs1v & imm
	case isa.F3SLL:
		return rs1v << (imm & 0x1F)
	case isa.F3SRL_SRA:
		shamt := (instr >> 20) & 0x1F
		if (instr>>25)&0b111_1111 == isa.Funct7Alt {
			return isa.Word(int32(rs1v) >> shamt)
		}
		return rs1v >> shamt
	default:
		return 0
	}
}

func aluReg(funct3, funct7, a, b isa.Word) isa.Word {
	alt := funct7 == isa.Funct7Alt
	switch funct3 {
	case isa.F3ADDSUB:
		if alt {
			return a - b
		}
		return a + b
	case isa.F3SLL:
		return a << (b & 0x1F)
	case isa.F3SLT:
		return boolWord(int32(a) < int32(b))
	case isa.F3SLTU:
		return boolWord(a < b)
	case isa.F3XOR:
		return a ^ b
	case isa.F3SRL_SRA:
		if alt {
			return isa.Word(int32(a) >> (b & 0x1F))
		}
		return a >> (b & 0x1F)
	case isa.F3OR:
		return a | b
	case isa.F3AND:
		return a & b
	default:
		return 0
	}
}

func boolWord(b bool) isa.Word {
	if b {
		return 1
	}
	return 0
}

// Run drives Step until halt or the cycle budget is exhausted.
func (it *Interp) Run() RunResult {
	cycles := 0
	for ; cycles < it.maxCycles; cycles++ {
		switch it.Step() {
		case StepHalted:
			cycles++
			return it.result(cycles, true, false)
		case StepNoProgress:
			return it.result(cycles, true, false)
		}
	}
	return it.result(cycles, false, true)
}

func (it *Interp) result(cycles int, halted, timeout bool) RunResult {
	return RunResult{
		Cycles:  cycles,
		Halted:  halted,
		Timeout: timeout,
		Regs:    it.Regs,
		PC:      it.PC,
	}
}

// Disassemble renders a single instruction in the assembly syntax accepted
// by pkg/asm.
func (it *Interp) Disassemble(instr isa.Word) string {
	return Disassemble(instr)
}

// Disassemble renders a single instruction word as assembly text.
func Disassemble(instr isa.Word) string {
	opcode := encoder.Opcode(instr)
	switch opcode {
	case isa.OpLUI:
		imm, rd, _ := encoder.DecodeU(instr)
		return fmt.Sprintf("lui x%d, 0x%x", rd, imm>>12)
	case isa.OpAUIPC:
		imm, rd, _ := encoder.DecodeU(instr)
		return fmt.Sprintf("auipc x%d, 0x%x", rd, imm>>12)
	case isa.OpJAL:
		imm, rd, _ := encoder.DecodeJ(instr)
		return fmt.Sprintf("jal x%d, %d", rd, int32(imm))
	case isa.OpJALR:
		imm, rs1, _, rd, _ := encoder.DecodeI(instr)
		return fmt.Sprintf("jalr x%d, x%d, %d", rd, rs1, int32(imm))
	case isa.OpBranch:
		imm, rs2, rs1, funct3, _ := encoder.DecodeB(instr)
		return fmt.Sprintf("%s x%d, x%d, %d", branchMnemonic(funct3), rs1, rs2, int32(imm))
	case isa.OpLoad:
		imm, rs1, funct3, rd, _ := encoder.DecodeI(instr)
		return fmt.Sprintf("%s x%d, %d(x%d)", loadMnemonic(funct3), rd, int32(imm), rs1)
	case isa.OpStore:
		imm, rs2, rs1, funct3, _ := encoder.DecodeS(instr)
		return fmt.Sprintf("%s x%d, %d(x%d)", storeMnemonic(funct3), rs2, int32(imm), rs1)
	case isa.OpImm:
		imm, rs1, funct3, rd, _ := encoder.DecodeI(instr)
		if funct3 == isa.F3SLL || funct3 == isa.F3SRL_SRA {
			shamt := (instr >> 20) & 0x1F
			return fmt.Sprintf("%s x%d, x%d, %d", immALUMnemonic(funct3, instr), rd, rs1, shamt)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", immALUMnemonic(funct3, instr), rd, rs1, int32(imm))
	case isa.OpReg:
		_, rs2, rs1, funct3, rd, _ := encoder.DecodeR(instr)
		funct7 := (instr >> 25) & 0b111_1111
		return fmt.Sprintf("%s x%d, x%d, x%d", regALUMnemonic(funct3, funct7), rd, rs1, rs2)
	case isa.OpFence:
		return "fence"
	case isa.OpSystem:
		if imm, _, _, _, _ := encoder.DecodeI(instr); imm == 1 {
			return "ebreak"
		}
		return "ecall"
	default:
		return fmt.Sprintf("<unknown 0x%08x>", instr)
	}
}

func branchMnemonic(f3 isa.Word) string {
	switch f3 {
	case isa.F3BEQ:
		return "beq"
	case isa.F3BNE:
		return "bne"
	case isa.F3BLT:
		return "blt"
	case isa.F3BGE:
		return "bge"
	case isa.F3BLTU:
		return "bltu"
	case isa.F3BGEU:
		return "bgeu"
	default:
		return "b?"
	}
}

func loadMnemonic(f3 isa.Word) string {
	switch f3 {
	case isa.F3LB:
		return "lb"
	case isa.F3LH:
		return "lh"
	case isa.F3LW:
		return "lw"
	case isa.F3LBU:
		return "lbu"
	case isa.F3LHU:
		return "lhu"
	default:
		return "l?"
	}
}

func storeMnemonic(f3 isa.Word) string {
	switch f3 {
	case isa.F3SB:
		return "sb"
	case isa.F3SH:
		return "sh"
	case isa.F3SW:
		return "sw"
	default:
		return "s?"
	}
}

func immALUMnemonic(f3, instr isa.Word) string {
	switch f3 {
	case isa.F3ADDSUB:
		return "addi"
	case isa.F3SLT:
		return "slti"
	case isa.F3SLTU:
		return "sltiu"
	case isa.F3XOR:
		return "xori"
	case isa.F3OR:
		return "ori"
	case isa.F3AND:
		return "andi"
	case isa.F3SLL:
		return "slli"
	case isa.F3SRL_SRA:
		if (instr>>25)&0b111_1111 == isa.Funct7Alt {
			return "srai"
		}
		return "srli"
	default:
		return "?i"
	}
}

func regALUMnemonic(f3, f7 isa.Word) string {
	alt := f7 == isa.Funct7Alt
	switch f3 {
	case isa.F3ADDSUB:
		if alt {
			return "sub"
		}
		return "add"
	case isa.F3SLL:
		return "sll"
	case isa.F3SLT:
		return "slt"
	case isa.F3SLTU:
		return "sltu"
	case isa.F3XOR:
		return "xor"
	case isa.F3SRL_SRA:
		if alt {
			return "sra"
		}
		return "srl"
	case isa.F3OR:
		return "or"
	case isa.F3AND:
		return "and"
	default:
		return "?"
	}
}

// String renders the current architectural state, grounded on the
// teacher's VM.String debug dump.
func (it *Interp) String() string {
	return fmt.Sprintf("{PC:0x%08x Regs:%+v Halted:%v}", it.PC, it.Regs, it.halted)
}
