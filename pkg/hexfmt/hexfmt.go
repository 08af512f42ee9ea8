// Package hexfmt reads and writes the $readmemh-compatible hex image format
// shared by the interpreter, the assembler and the random generator: one
// 8-hex-digit lowercase word per line, newline-terminated, no comments.
package hexfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rv32v/rv32v/pkg/isa"
)

// Write emits one 8-hex-digit lowercase word per line.
func Write(w io.Writer, words []isa.Word) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintf(bw, "%08x\n", word); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses a hex image, one word per line. Blank lines are skipped;
// anything else that fails to parse as a hexadecimal value of at most 32
// bits is an error. Lines with fewer than 8 digits are accepted.
func Read(r io.Reader) ([]isa.Word, error) {
	var words []isa.Word
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("hexfmt: malformed line %q: %w", line, err)
		}
		words = append(words, isa.Word(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
