// Package asm is the two-pass RV32I assembler: pass 1 expands pseudo-ops
// and records label addresses, pass 2 encodes every real instruction via
// pkg/encoder. Unlike pkg/interp, the assembler is strict: any of the five
// error kinds in errors.go is fatal, by design — user mistakes should
// surface immediately rather than silently becoming a NOP.
package asm

import (
	"io"

	"github.com/rv32v/rv32v/pkg/isa"
)

// InstructionOrError is one assembled word, or the error that occurred
// producing it. Grounded on the teacher's channel-pipeline idiom for
// streaming assembly results. Pass 1 still collects every expanded
// instruction before pass 2 encodes and streams the first word.
type InstructionOrError struct {
	Instruction isa.Word
	Err         error
	Lineno      int
}

// StartAssembling runs the assembler in a background goroutine and streams
// one InstructionOrError per emitted word.
func StartAssembling(r io.Reader) <-chan InstructionOrError {
	out := make(chan InstructionOrError)
	go assembleAsync(r, out)
	return out
}

func assembleAsync(r io.Reader, out chan<- InstructionOrError) {
	defer close(out)

	var expanded []emittedInstr
	labels := make(map[string]isa.Addr)
	var addr isa.Addr

	for st := range StartParsing(StartLexing(r)) {
		if st.label != nil {
			if _, dup := labels[*st.label]; dup {
				out <- InstructionOrError{Err: newErr(KindDuplicateLabel, st.lineno,
					"label %q redefined", *st.label), Lineno: st.lineno}
				return
			}
			labels[*st.label] = addr
		}
		instrs, err := expandPseudo(st)
		if err != nil {
			out <- InstructionOrError{Err: err, Lineno: st.lineno}
			return
		}
		for _, ei := range instrs {
			expanded = append(expanded, ei)
			addr += 4
		}
	}

	var cur isa.Addr
	for _, ei := range expanded {
		word, err := encodeInstr(ei, cur, labels)
		if err != nil {
			out <- InstructionOrError{Err: err, Lineno: ei.lineno}
			return
		}
		out <- InstructionOrError{Instruction: word, Lineno: ei.lineno}
		cur += 4
	}
}

// Assemble is the synchronous entry point: it drains StartAssembling and
// returns the full word slice, or the first error encountered.
func Assemble(r io.Reader) ([]isa.Word, error) {
	var words []isa.Word
	for ioe := range StartAssembling(r) {
		if ioe.Err != nil {
			return nil, ioe.Err
		}
		words = append(words, ioe.Instruction)
	}
	return words, nil
}
