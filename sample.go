package plink

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sex codes as stored in sample_sex.
const (
	SexUnknown int8 = -1
	SexMale    int8 = 1
	SexFemale  int8 = 2
)

// Phenotype codes as stored in sample_phenotype.
const (
	PhenotypeMissing int8 = -1
	PhenotypeControl int8 = 1
	PhenotypeCase    int8 = 2
)

// Sample is one row of a .fam file. The order of samples in the file defines
// the samples axis of the dataset.
type Sample struct {
	FamilyID   sql.NullString
	MemberID   string // Sample identity; never normalised
	PaternalID sql.NullString
	MaternalID sql.NullString
	Sex        int8
	Phenotype  int8
}

// famRow receives the raw text of one .fam row from gocsv, in column order.
type famRow struct {
	FamilyID   string
	MemberID   string
	PaternalID string
	MaternalID string
	Sex        string
	Phenotype  string
}

// ReadFAM parses the local .fam file at path.
func ReadFAM(path string, sep Delimiter) ([]Sample, error) {
	return readFAM(context.Background(), fileOpener{}, path, sep)
}

func readFAM(ctx context.Context, o fileOpener, path string, sep Delimiter) ([]Sample, error) {
	var samples []Sample
	err := readSidecar(ctx, o, path, func(r io.Reader) error {
		var err error
		samples, err = ParseFAM(r, sep, path)
		return err
	})
	return samples, err
}

// ParseFAM reads .fam rows from r. name identifies the source in errors.
// Sex and phenotype codes outside {1, 2}, including non-numeric text, are
// stored as missing (-1) rather than rejected.
func ParseFAM(r io.Reader, sep Delimiter, name string) ([]Sample, error) {
	var rows []famRow
	lines, err := decodeRows(r, sep, len(FAMFields), name, &rows)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if first, exists := seen[row.MemberID]; exists {
			return nil, &ParseError{File: name, Line: lines[i], Column: 2, Err: fmt.Errorf("member_id %q duplicates line %d", row.MemberID, lines[first])}
		}
		seen[row.MemberID] = i

		samples[i] = Sample{
			FamilyID:   nullIfMissing(row.FamilyID),
			MemberID:   row.MemberID,
			PaternalID: nullIfMissing(row.PaternalID),
			MaternalID: nullIfMissing(row.MaternalID),
			Sex:        coerceCode(row.Sex),
			Phenotype:  coerceCode(row.Phenotype),
		}
	}

	return samples, nil
}

// coerceCode maps the text of a sex or phenotype column onto {1, 2}, with
// anything else becoming -1.
func coerceCode(v string) int8 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return -1
	}
	switch f {
	case 1:
		return 1
	case 2:
		return 2
	}
	return -1
}

func nullIfMissing(v string) sql.NullString {
	if v == missingSentinel {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
