package plink

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Kind is the logical or storage type of a sidecar column.
type Kind byte

const (
	KindString Kind = iota
	KindInt8
	KindInt32
	KindFloat32
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt8:
		return "int8"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	}
	return "unknown"
}

// Field describes one column of a fixed-layout sidecar file: Logical is the
// type the text is read as, Storage the type it is kept as once parsed.
type Field struct {
	Name    string
	Logical Kind
	Storage Kind
}

// FAMFields is the column layout of a .fam file.
// See https://www.cog-genomics.org/plink/1.9/formats#fam
var FAMFields = [...]Field{
	{"family_id", KindString, KindString},
	{"member_id", KindString, KindString},
	{"paternal_id", KindString, KindString},
	{"maternal_id", KindString, KindString},
	{"sex", KindString, KindInt8},
	{"phenotype", KindString, KindInt8},
}

// BIMFields is the column layout of a .bim file.
// See https://www.cog-genomics.org/plink/1.9/formats#bim
var BIMFields = [...]Field{
	{"contig", KindString, KindString},
	{"variant_id", KindString, KindString},
	{"cm_pos", KindFloat32, KindFloat32},
	{"pos", KindInt32, KindInt32},
	{"a1", KindString, KindString},
	{"a2", KindString, KindString},
}

// missingSentinel is the documented "unknown" value for identifiers and
// contigs in both sidecar formats.
const missingSentinel = "0"

// rowReader is a gocsv.CSVReader that remembers the 1-based line each
// returned row starts on. Blank lines are skipped, so rows and lines diverge.
type rowReader interface {
	gocsv.CSVReader
	rowLines() []int
}

// newRowReader builds the reader that gocsv decodes from. Every row must
// have exactly nFields columns.
func newRowReader(r io.Reader, sep Delimiter, nFields int) rowReader {
	br := bufio.NewReaderSize(r, sniffBytes)
	sep = sep.resolve(br)

	if sep == Whitespace {
		return &fieldsReader{scanner: bufio.NewScanner(br), nFields: nFields}
	}

	cr := csv.NewReader(br)
	cr.Comma = rune(sep)
	cr.FieldsPerRecord = nFields
	cr.LazyQuotes = true
	return &csvRowReader{Reader: cr}
}

// decodeRows unmarshals every row of r into out, a pointer to a slice of
// structs with one exported string field per column. It returns the line
// each row was read from.
func decodeRows(r io.Reader, sep Delimiter, nFields int, name string, out interface{}) ([]int, error) {
	rr := newRowReader(r, sep, nFields)
	err := gocsv.UnmarshalCSVWithoutHeaders(rr, out)
	if err == nil || errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return rr.rowLines(), nil
	}

	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return nil, &ParseError{File: name, Line: csvErr.Line, Column: csvErr.Column, Err: csvErr.Err}
	}
	return nil, &ParseError{File: name, Err: err}
}

// csvRowReader records the line of each record read through encoding/csv.
type csvRowReader struct {
	*csv.Reader
	lines []int
}

func (c *csvRowReader) Read() ([]string, error) {
	row, err := c.Reader.Read()
	if err == nil {
		line, _ := c.Reader.FieldPos(0)
		c.lines = append(c.lines, line)
	}
	return row, err
}

func (c *csvRowReader) ReadAll() ([][]string, error) {
	return readAllRows(c)
}

func (c *csvRowReader) rowLines() []int {
	return c.lines
}

func readAllRows(r gocsv.CSVReader) ([][]string, error) {
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		} else if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// readSidecar opens path (local or remote, possibly compressed) and hands the
// decompressed stream to parse.
func readSidecar(ctx context.Context, o fileOpener, path string, parse func(io.Reader) error) error {
	rc, err := o.openReader(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	dr, _, err := decompressReader(rc)
	if err != nil {
		return pfx.Err(err)
	}
	defer dr.Close()

	return parse(dr)
}

// countRows counts the non-blank lines of a sidecar without parsing them.
func countRows(ctx context.Context, o fileOpener, path string) (int, error) {
	n := 0
	err := readSidecar(ctx, o, path, func(r io.Reader) error {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				n++
			}
		}
		return scanner.Err()
	})
	return n, err
}

// fieldsReader splits lines on runs of whitespace. It satisfies
// gocsv.CSVReader and reports column count mismatches the way encoding/csv
// does.
type fieldsReader struct {
	scanner *bufio.Scanner
	nFields int
	line    int
	lines   []int
}

func (f *fieldsReader) Read() ([]string, error) {
	for f.scanner.Scan() {
		f.line++
		cols := strings.Fields(f.scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) != f.nFields {
			return cols, &csv.ParseError{StartLine: f.line, Line: f.line, Column: 1, Err: csv.ErrFieldCount}
		}
		f.lines = append(f.lines, f.line)
		return cols, nil
	}
	if err := f.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (f *fieldsReader) ReadAll() ([][]string, error) {
	return readAllRows(f)
}

func (f *fieldsReader) rowLines() []int {
	return f.lines
}
