package hexfmt_test

import (
	"strings"
	"testing"

	"github.com/rv32v/rv32v/pkg/hexfmt"
	"github.com/rv32v/rv32v/pkg/isa"
)

func TestWrite(t *testing.T) {
	var buf strings.Builder
	words := []isa.Word{0x00000013, 0xDEADBEEF, 0x0}
	if err := hexfmt.Write(&buf, words); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "00000013\ndeadbeef\n00000000\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestRead(t *testing.T) {
	in := "00000013\n\ndeadbeef\n  \n00000000\n"
	words, err := hexfmt.Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []isa.Word{0x00000013, 0xDEADBEEF, 0x0}
	if len(words) != len(want) {
		t.Fatalf("Read() = %v, want %v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = 0x%08x, want 0x%08x", i, words[i], want[i])
		}
	}
}

func TestReadRejectsMalformedLine(t *testing.T) {
	_, err := hexfmt.Read(strings.NewReader("not hex\n"))
	if err == nil {
		t.Fatal("Read() expected error on malformed line, got nil")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	words := []isa.Word{0x00000000, 0xFFFFFFFF, 0x12345678, 0x80000000}
	var buf strings.Builder
	if err := hexfmt.Write(&buf, words); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := hexfmt.Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(words) {
		t.Fatalf("round trip = %v, want %v", got, words)
	}
	for i := range words {
		if got[i] != words[i] {
			t.Errorf("word %d = 0x%08x, want 0x%08x", i, got[i], words[i])
		}
	}
}
