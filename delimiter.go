package plink

import (
	"bufio"
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/csimplestring/go-csv/detector"
)

// Delimiter separates the columns of a .fam or .bim file. Any single rune is
// accepted; Whitespace and AutoDelimiter are special values.
type Delimiter rune

const (
	// AutoDelimiter sniffs the delimiter from the first lines of the file,
	// falling back to Whitespace when nothing conclusive is found.
	AutoDelimiter Delimiter = 0
	// Whitespace splits on runs of spaces and tabs, which is how PLINK
	// itself reads these files.
	Whitespace Delimiter = -1

	Tab   Delimiter = '\t'
	Space Delimiter = ' '
	Comma Delimiter = ','
)

// sniffBytes bounds how much of a sidecar is inspected by AutoDelimiter.
const sniffBytes = 64 * 1024

func (d Delimiter) String() string {
	switch d {
	case AutoDelimiter:
		return "auto"
	case Whitespace:
		return "whitespace"
	case Tab:
		return `\t`
	}
	return string(rune(d))
}

func (d Delimiter) validate() error {
	if d == AutoDelimiter || d == Whitespace {
		return nil
	}
	if d == '"' || d == '\r' || d == '\n' || !utf8.ValidRune(rune(d)) || rune(d) == utf8.RuneError {
		return &ConfigError{Rule: "delimiter", Message: fmt.Sprintf("%q cannot delimit a sidecar file", rune(d))}
	}
	return nil
}

// resolve replaces AutoDelimiter with a concrete delimiter by peeking at br.
func (d Delimiter) resolve(br *bufio.Reader) Delimiter {
	if d != AutoDelimiter {
		return d
	}

	head, _ := br.Peek(sniffBytes)
	if i := bytes.LastIndexByte(head, '\n'); i > 0 {
		head = head[:i+1]
	}
	if len(head) == 0 {
		return Whitespace
	}

	candidates := detector.New().DetectDelimiter(bytes.NewReader(head), '"')
	if len(candidates) == 0 || len(candidates[0]) != 1 {
		return Whitespace
	}

	// PLINK never emits empty fields, so blank delimiters are read the
	// tolerant way.
	switch sniffed := Delimiter(candidates[0][0]); sniffed {
	case Space, Tab:
		return Whitespace
	default:
		return sniffed
	}
}
