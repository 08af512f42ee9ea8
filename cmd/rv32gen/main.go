// Command rv32gen emits a constrained-random RV32I program as a hex image,
// and optionally the assembly source it was generated from.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/rv32v/rv32v/pkg/genrand"
	"github.com/rv32v/rv32v/pkg/hexfmt"
)

func main() {
	log.SetFlags(0)
	seed := flag.Int64("seed", 0, "PRNG seed")
	n := flag.Int("n", 50, "number of random body instructions")
	out := flag.String("o", "", "output hex image (default: stdout)")
	asmOut := flag.String("asm", "", "also write the generated assembly source here")
	flag.Parse()
	if *n <= 0 {
		log.Fatal("usage: rv32gen -seed N -n N [-o <hex-file>] [-asm <path>]")
	}

	program, err := genrand.Generate(*seed, *n)
	if err != nil {
		log.Fatal(err)
	}

	dst := os.Stdout
	if *out != "" {
		dst, err = os.Create(*out)
		if err != nil {
			log.Fatal(err)
		}
		defer dst.Close()
	}
	if err := hexfmt.Write(dst, program.Words); err != nil {
		log.Fatal(err)
	}

	if *asmOut != "" {
		if err := os.WriteFile(*asmOut, []byte(program.Source), 0o644); err != nil {
			log.Fatal(err)
		}
	}
}
