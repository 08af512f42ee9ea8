package asm

import (
	"math"
	"strconv"
	"strings"
)

// emittedInstr is a real (non-pseudo) mnemonic with its operands, carrying
// the source line it was expanded from for diagnostics.
type emittedInstr struct {
	lineno   int
	mnemonic string
	operands []string
}

func real(lineno int, mnemonic string, operands ...string) emittedInstr {
	return emittedInstr{lineno: lineno, mnemonic: mnemonic, operands: operands}
}

// expandPseudo rewrites a statement's instruction into one or more real
// instructions, per the exact pseudo-op expansions.
func expandPseudo(st statement) ([]emittedInstr, error) {
	if st.mnemonic == "" {
		return nil, nil
	}
	ln := st.lineno
	ops := st.operands

	var want int
	switch st.mnemonic {
	case "nop":
		want = 0
	case "j", "jr", "ret", "call":
		want = 1
		if st.mnemonic == "ret" {
			want = 0
		}
	case "mv", "li", "not", "neg", "seqz", "snez",
		"beqz", "bnez", "blez", "bgez", "bltz", "bgtz":
		want = 2
	default:
		want = -1 // not a pseudo-op: arity is pass 2's problem
	}
	if want >= 0 && len(ops) < want {
		return nil, newErr(KindUnknownMnemonic, ln, "%s: expected %d operand(s), got %d", st.mnemonic, want, len(ops))
	}

	switch st.mnemonic {
	case "nop":
		return []emittedInstr{real(ln, "addi", "x0", "x0", "0")}, nil

	case "mv":
		return []emittedInstr{real(ln, "addi", ops[0], ops[1], "0")}, nil

	case "li":
		return expandLI(ln, ops[0], ops[1])

	case "j":
		return []emittedInstr{real(ln, "jal", "x0", ops[0])}, nil

	case "jr":
		return []emittedInstr{real(ln, "jalr", "x0", ops[0], "0")}, nil

	case "ret":
		return []emittedInstr{real(ln, "jalr", "x0", "ra", "0")}, nil

	case "call":
		return []emittedInstr{real(ln, "jal", "ra", ops[0])}, nil

	case "not":
		return []emittedInstr{real(ln, "xori", ops[0], ops[1], "-1")}, nil

	case "neg":
		return []emittedInstr{real(ln, "sub", ops[0], "x0", ops[1])}, nil

	case "seqz":
		return []emittedInstr{real(ln, "sltiu", ops[0], ops[1], "1")}, nil

	case "snez":
		return []emittedInstr{real(ln, "sltu", ops[0], "x0", ops[1])}, nil

	case "beqz":
		return []emittedInstr{real(ln, "beq", ops[0], "x0", ops[1])}, nil
	case "bnez":
		return []emittedInstr{real(ln, "bne", ops[0], "x0", ops[1])}, nil
	case "blez":
		return []emittedInstr{real(ln, "bge", "x0", ops[0], ops[1])}, nil
	case "bgez":
		return []emittedInstr{real(ln, "bge", ops[0], "x0", ops[1])}, nil
	case "bltz":
		return []emittedInstr{real(ln, "blt", ops[0], "x0", ops[1])}, nil
	case "bgtz":
		return []emittedInstr{real(ln, "blt", "x0", ops[0], ops[1])}, nil

	default:
		// Not a pseudo-op: pass through unchanged for pass 2 to encode,
		// or reject as unknown if pass 2 doesn't recognize the mnemonic.
		return []emittedInstr{real(ln, st.mnemonic, ops...)}, nil
	}
}

// expandLI implements the exact li expansion rule from the spec, for any
// imm in [INT32_MIN, INT32_MAX]. The lui+addi split must be computed in
// wrapping 32-bit arithmetic (as the hardware does it), not in plain int64
// arithmetic, or the rounding carry is wrong for negative imm whose
// magnitude exceeds a single addi's 12-bit range.
func expandLI(ln int, rd, immToken string) ([]emittedInstr, error) {
	imm, err := parseIntLiteral(immToken)
	if err != nil {
		return nil, newErr(KindImmediateOutOfRange, ln, "li: invalid immediate %q", immToken)
	}
	if imm >= -2048 && imm <= 2047 {
		return []emittedInstr{real(ln, "addi", rd, "x0", strconv.FormatInt(imm, 10))}, nil
	}
	if imm < math.MinInt32 || imm > math.MaxInt32 {
		return nil, newErr(KindImmediateOutOfRange, ln, "li: %d out of 32-bit range", imm)
	}
	v := uint32(int32(imm))
	upper := ((v + 0x800) >> 12) & 0xFFFFF
	lower := int32(v - (upper << 12))
	instrs := []emittedInstr{real(ln, "lui", rd, strconv.FormatUint(uint64(upper), 10))}
	if lower != 0 {
		instrs = append(instrs, real(ln, "addi", rd, rd, strconv.FormatInt(int64(lower), 10)))
	}
	return instrs, nil
}

// parseIntLiteral accepts decimal, 0x hex and 0b binary, signed.
func parseIntLiteral(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseInt(s[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}
