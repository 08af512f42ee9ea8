// Command rv32asm assembles RV32I source into a $readmemh hex image.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/rv32v/rv32v/pkg/asm"
	"github.com/rv32v/rv32v/pkg/hexfmt"
)

func main() {
	log.SetFlags(0)
	src := flag.String("f", "", "assembly source file")
	out := flag.String("o", "", "output hex image (default: stdout)")
	flag.Parse()
	if *src == "" {
		log.Fatal("usage: rv32asm -f <source-file> [-o <hex-file>]")
	}

	fp, err := os.Open(*src)
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()

	words, err := asm.Assemble(fp)
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
	if err := hexfmt.Write(dst, words); err != nil {
		log.Fatal(err)
	}
}
