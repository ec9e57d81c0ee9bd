package plink

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Variant is one row of a .bim file. The order of variants in the file
// defines the variants axis and must match the .bed.
type Variant struct {
	Contig       sql.NullString
	ID           string // E.g., RSID
	CentiMorgans float32
	Position     int32  // Labeled "coordinate" by some applications
	Allele1      string // Can contain > 1 character
	Allele2      string // Can contain > 1 character
}

// Map columns in the BIM file to their positions
const (
	bimContig int = iota
	bimVariantID
	bimCentiMorgans
	bimPosition
	bimAllele1
	bimAllele2
)

type bimRow struct {
	Contig       string
	VariantID    string
	CentiMorgans string
	Position     string
	Allele1      string
	Allele2      string
}

// ReadBIM parses the local .bim file at path.
func ReadBIM(path string, sep Delimiter) ([]Variant, error) {
	variants, _, err := readBIM(context.Background(), fileOpener{}, path, sep)
	return variants, err
}

// readBIM also returns the line each variant was read from.
func readBIM(ctx context.Context, o fileOpener, path string, sep Delimiter) ([]Variant, []int, error) {
	var (
		variants []Variant
		lines    []int
	)
	err := readSidecar(ctx, o, path, func(r io.Reader) error {
		var err error
		variants, lines, err = parseBIM(r, sep, path)
		return err
	})
	return variants, lines, err
}

// ParseBIM reads .bim rows from r. name identifies the source in errors.
func ParseBIM(r io.Reader, sep Delimiter, name string) ([]Variant, error) {
	variants, _, err := parseBIM(r, sep, name)
	return variants, err
}

func parseBIM(r io.Reader, sep Delimiter, name string) ([]Variant, []int, error) {
	var rows []bimRow
	lines, err := decodeRows(r, sep, len(BIMFields), name, &rows)
	if err != nil {
		return nil, nil, err
	}

	variants := make([]Variant, len(rows))
	for i, row := range rows {
		cm, err := strconv.ParseFloat(strings.TrimSpace(row.CentiMorgans), 32)
		if err != nil {
			return nil, nil, &ParseError{File: name, Line: lines[i], Column: bimCentiMorgans + 1, Err: fmt.Errorf("%s: %w", BIMFields[bimCentiMorgans].Name, err)}
		}
		pos, err := strconv.ParseInt(strings.TrimSpace(row.Position), 10, 32)
		if err != nil {
			return nil, nil, &ParseError{File: name, Line: lines[i], Column: bimPosition + 1, Err: fmt.Errorf("%s: %w", BIMFields[bimPosition].Name, err)}
		}

		variants[i] = Variant{
			Contig:       nullIfMissing(row.Contig),
			ID:           row.VariantID,
			CentiMorgans: float32(cm),
			Position:     int32(pos),
			Allele1:      row.Allele1,
			Allele2:      row.Allele2,
		}
	}

	return variants, lines, nil
}
