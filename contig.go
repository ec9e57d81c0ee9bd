package plink

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ContigEncoder derives per-variant contig codes and the ordered table of
// contig names they index. A *ParseError it returns numbers lines by label
// position, starting at 1.
type ContigEncoder interface {
	Encode(labels []sql.NullString) (codes []int16, names []string, err error)
}

// LabeledContigs treats contigs as arbitrary strings. Names are sorted
// lexically, so "chr10" comes before "chr2", and each code is the position of
// the variant's contig in that table. Absent contigs get code -1 and are not
// listed.
type LabeledContigs struct{}

func (LabeledContigs) Encode(labels []sql.NullString) ([]int16, []string, error) {
	distinct := make(map[string]struct{})
	for _, l := range labels {
		if l.Valid {
			distinct[l.String] = struct{}{}
		}
	}

	names := make([]string, 0, len(distinct))
	for name := range distinct {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 1<<15 {
		return nil, nil, fmt.Errorf("%d distinct contigs do not fit an int16 code", len(names))
	}

	lookup := make(map[string]int16, len(names))
	for i, name := range names {
		lookup[name] = int16(i)
	}

	codes := make([]int16, len(labels))
	for i, l := range labels {
		if !l.Valid {
			codes[i] = -1
			continue
		}
		codes[i] = lookup[l.String]
	}

	return codes, names, nil
}

// IntegerContigs treats contigs as integers already. Codes are the integers
// themselves (an absent contig is 0, its literal value) and names are the
// distinct codes in numeric order, as text.
type IntegerContigs struct{}

func (IntegerContigs) Encode(labels []sql.NullString) ([]int16, []string, error) {
	codes := make([]int16, len(labels))
	distinct := make(map[int16]struct{})

	for i, l := range labels {
		if l.Valid {
			v, err := strconv.ParseInt(strings.TrimSpace(l.String), 10, 16)
			if err != nil {
				return nil, nil, &ParseError{Line: i + 1, Column: bimContig + 1, Err: fmt.Errorf("contig %q is not an integer: %w", l.String, err)}
			}
			codes[i] = int16(v)
		}
		distinct[codes[i]] = struct{}{}
	}

	sorted := make([]int, 0, len(distinct))
	for c := range distinct {
		sorted = append(sorted, int(c))
	}
	sort.Ints(sorted)

	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = strconv.Itoa(c)
	}

	return codes, names, nil
}
