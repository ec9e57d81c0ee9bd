package plink

import (
	"bytes"
)

// Dimension names.
const (
	DimVariants = "variants"
	DimSamples  = "samples"
	DimPloidy   = "ploidy"
	DimAlleles  = "alleles"
)

// Variable names.
const (
	VarCallGenotype      = "call_genotype"
	VarVariantContig     = "variant_contig"
	VarVariantPosition   = "variant_position"
	VarVariantAllele     = "variant_allele"
	VarVariantID         = "variant_id"
	VarVariantCMPosition = "variant_cm_position"
	VarSampleID          = "sample_id"
	VarSampleFamilyID    = "sample_family_id"
	VarSampleMemberID    = "sample_member_id"
	VarSamplePaternalID  = "sample_paternal_id"
	VarSampleMaternalID  = "sample_maternal_id"
	VarSampleSex         = "sample_sex"
	VarSamplePhenotype   = "sample_phenotype"
)

// AttrContigs is the dataset attribute holding the ordered contig names that
// variant_contig indexes.
const AttrContigs = "contigs"

// Variable is a named array laid out along named dimensions. Data holds one
// of: *Array (call_genotype), []int16, []int32, []float32, []int8, []string,
// []sql.NullString or FixedBytes.
type Variable struct {
	Name string
	Dims []string
	Data interface{}
}

// FixedBytes is a 2-dimensional array of byte strings padded with NULs to a
// common width.
type FixedBytes struct {
	Rows, Cols int
	Width      int
	Data       []byte
}

func newFixedBytes(rows [][]string) FixedBytes {
	f := FixedBytes{Rows: len(rows)}
	for _, row := range rows {
		if len(row) > f.Cols {
			f.Cols = len(row)
		}
		for _, v := range row {
			if len(v) > f.Width {
				f.Width = len(v)
			}
		}
	}

	f.Data = make([]byte, f.Rows*f.Cols*f.Width)
	for i, row := range rows {
		for j, v := range row {
			copy(f.Data[(i*f.Cols+j)*f.Width:], v)
		}
	}
	return f
}

// At returns the value at (i, j) without its padding.
func (f FixedBytes) At(i, j int) []byte {
	start := (i*f.Cols + j) * f.Width
	return bytes.TrimRight(f.Data[start:start+f.Width], "\x00")
}
