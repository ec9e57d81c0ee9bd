package plink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/carbocation/pfx"
	"golang.org/x/sync/errgroup"
)

// Dataset is a PLINK fileset presented as labeled arrays over the variants,
// samples and ploidy dimensions. call_genotype is lazy; the remaining
// variables come from the .bim and .fam. A Dataset is immutable and safe for
// concurrent use. Close releases the .bed handle.
type Dataset struct {
	BedPath string
	BimPath string
	FamPath string

	bed       *BedReader
	genotypes *Array
	opts      options

	once    sync.Once
	meta    *metadata
	loadErr error
}

// metadata is everything derived from the sidecar files.
type metadata struct {
	variants []Variant
	samples  []Sample
	codes    []int16
	contigs  []string

	vars  map[string]*Variable
	order []string
}

// Sizes maps each dimension name to its length.
func (d *Dataset) Sizes() map[string]int {
	shape := d.genotypes.Shape()
	return map[string]int{
		DimVariants: shape[0],
		DimSamples:  shape[1],
		DimPloidy:   shape[2],
	}
}

// CallGenotype is the lazy (variants, samples, ploidy) genotype tensor.
func (d *Dataset) CallGenotype() *Array {
	return d.genotypes
}

// Variable returns the variable called name. Metadata variables are parsed
// on first use if the dataset was opened without persisting them.
func (d *Dataset) Variable(name string) (*Variable, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	v, ok := m.vars[name]
	if !ok {
		return nil, fmt.Errorf("plink: no variable %q", name)
	}
	return v, nil
}

// Names lists every variable in the order it was added.
func (d *Dataset) Names() ([]string, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.order...), nil
}

// Contigs is the ordered table of contig names indexed by variant_contig.
func (d *Dataset) Contigs() ([]string, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.contigs...), nil
}

// Attrs returns the dataset-level attributes.
func (d *Dataset) Attrs() (map[string]interface{}, error) {
	contigs, err := d.Contigs()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{AttrContigs: contigs}, nil
}

// Variants returns the parsed .bim rows.
func (d *Dataset) Variants() ([]Variant, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	return m.variants, nil
}

// Samples returns the parsed .fam rows.
func (d *Dataset) Samples() ([]Sample, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	return m.samples, nil
}

// ContigVariants returns the variants-axis positions whose variant_contig
// equals code. The bitmap can be passed straight to Bitmap for slicing.
func (d *Dataset) ContigVariants(code int16) (*roaring.Bitmap, error) {
	m, err := d.metadata()
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	for i, c := range m.codes {
		if c == code {
			bm.Add(uint32(i))
		}
	}
	return bm, nil
}

// Close releases the .bed handle. Views of call_genotype cannot be
// materialised afterwards.
func (d *Dataset) Close() error {
	return d.bed.Close()
}

func (d *Dataset) metadata() (*metadata, error) {
	d.once.Do(func() {
		d.meta, d.loadErr = d.loadMetadata(context.Background())
	})
	return d.meta, d.loadErr
}

// loadMetadata parses both sidecars concurrently and assembles the metadata
// variables around the genotype tensor.
func (d *Dataset) loadMetadata(ctx context.Context) (*metadata, error) {
	var (
		variants []Variant
		bimLines []int
		samples  []Sample
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		variants, bimLines, err = readBIM(ctx, d.opts.opener(), d.BimPath, d.opts.bimSep)
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = readFAM(ctx, d.opts.opener(), d.FamPath, d.opts.famSep)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(variants, bimLines, samples, d.genotypes, d.opts.contigs, d.BimPath, d.FamPath)
}

// assemble builds the metadata variables. The genotype tensor must already
// have the shape implied by the sidecars. bimLines maps each variant to its
// line in the .bim, for error reporting.
func assemble(variants []Variant, bimLines []int, samples []Sample, genotypes *Array, contigs ContigEncoder, bimPath, famPath string) (*metadata, error) {
	shape := genotypes.Shape()
	if len(variants) != shape[0] {
		return nil, &ParseError{File: bimPath, Err: fmt.Errorf("%d variants, but the genotype tensor has %d", len(variants), shape[0])}
	}
	if len(samples) != shape[1] {
		return nil, &ParseError{File: famPath, Err: fmt.Errorf("%d samples, but the genotype tensor has %d", len(samples), shape[1])}
	}

	labels := make([]sql.NullString, len(variants))
	for i, v := range variants {
		labels[i] = v.Contig
	}
	codes, names, err := contigs.Encode(labels)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = bimPath
			if pe.Line > 0 && pe.Line <= len(bimLines) {
				pe.Line = bimLines[pe.Line-1]
			}
			return nil, pe
		}
		return nil, &ParseError{File: bimPath, Err: err}
	}

	m := &metadata{
		variants: variants,
		samples:  samples,
		codes:    codes,
		contigs:  names,
		vars:     make(map[string]*Variable),
	}

	if err := m.addGenotypeCallVariables(genotypes); err != nil {
		return nil, pfx.Err(err)
	}
	if err := m.assignPedigree(); err != nil {
		return nil, pfx.Err(err)
	}

	return m, nil
}

// addGenotypeCallVariables adds the variables every genotype call dataset
// carries, whatever its source format.
func (m *metadata) addGenotypeCallVariables(genotypes *Array) error {
	positions := make([]int32, len(m.variants))
	ids := make([]string, len(m.variants))
	alleles := make([][]string, len(m.variants))
	for i, v := range m.variants {
		positions[i] = v.Position
		ids[i] = v.ID
		alleles[i] = []string{v.Allele1, v.Allele2}
	}

	sampleIDs := make([]string, len(m.samples))
	for i, s := range m.samples {
		sampleIDs[i] = s.MemberID
	}

	for _, v := range []*Variable{
		{VarVariantContig, []string{DimVariants}, m.codes},
		{VarVariantPosition, []string{DimVariants}, positions},
		{VarVariantAllele, []string{DimVariants, DimAlleles}, newFixedBytes(alleles)},
		{VarSampleID, []string{DimSamples}, sampleIDs},
		{VarCallGenotype, []string{DimVariants, DimSamples, DimPloidy}, genotypes},
		{VarVariantID, []string{DimVariants}, ids},
	} {
		if err := m.add(v); err != nil {
			return err
		}
	}
	return nil
}

// assignPedigree attaches the PLINK-specific .bim and .fam columns. It only
// adds variables.
func (m *metadata) assignPedigree() error {
	cm := make([]float32, len(m.variants))
	for i, v := range m.variants {
		cm[i] = v.CentiMorgans
	}

	n := len(m.samples)
	family := make([]sql.NullString, n)
	member := make([]sql.NullString, n)
	paternal := make([]sql.NullString, n)
	maternal := make([]sql.NullString, n)
	sex := make([]int8, n)
	phenotype := make([]int8, n)
	for i, s := range m.samples {
		family[i] = s.FamilyID
		member[i] = sql.NullString{String: s.MemberID, Valid: true}
		paternal[i] = s.PaternalID
		maternal[i] = s.MaternalID
		sex[i] = s.Sex
		phenotype[i] = s.Phenotype
	}

	for _, v := range []*Variable{
		{VarVariantCMPosition, []string{DimVariants}, cm},
		{VarSampleFamilyID, []string{DimSamples}, family},
		{VarSampleMemberID, []string{DimSamples}, member},
		{VarSamplePaternalID, []string{DimSamples}, paternal},
		{VarSampleMaternalID, []string{DimSamples}, maternal},
		{VarSampleSex, []string{DimSamples}, sex},
		{VarSamplePhenotype, []string{DimSamples}, phenotype},
	} {
		if err := m.add(v); err != nil {
			return err
		}
	}
	return nil
}

func (m *metadata) add(v *Variable) error {
	if _, exists := m.vars[v.Name]; exists {
		return fmt.Errorf("variable %q already exists and cannot be replaced", v.Name)
	}
	m.vars[v.Name] = v
	m.order = append(m.order, v.Name)
	return nil
}
