// Package plink reads PLINK 1.9 binary filesets (.bed, .bim and .fam) into a
// labeled genotype dataset whose calls are decoded lazily, chunk by chunk,
// straight from the .bed.
package plink

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Paths names a fileset either by its stem, to which .bed, .bim and .fam are
// appended, or by all three files explicitly. Exactly one form must be used.
type Paths struct {
	Path string

	BedPath string
	BimPath string
	FamPath string
}

// resolve applies the mutual exclusivity rules without touching the
// filesystem.
func (p Paths) resolve() (bed, bim, fam string, err error) {
	explicit := 0
	for _, v := range []string{p.BedPath, p.BimPath, p.FamPath} {
		if v != "" {
			explicit++
		}
	}

	switch {
	case p.Path != "" && explicit > 0:
		return "", "", "", &ConfigError{Rule: "both", Message: "Either `path` or all 3 of `{bed,bim,fam}_path` must be specified but not both"}
	case p.Path == "" && explicit == 0:
		return "", "", "", &ConfigError{Rule: "neither", Message: "Either `path` or all 3 of `{bed,bim,fam}_path` must be specified"}
	case p.Path == "" && explicit < 3:
		return "", "", "", &ConfigError{Rule: "incomplete", Message: "all 3 of `{bed,bim,fam}_path` must be specified when `path` is not"}
	case p.Path != "":
		return p.Path + ".bed", p.Path + ".bim", p.Path + ".fam", nil
	}

	return p.BedPath, p.BimPath, p.FamPath, nil
}

// Open reads the fileset with stem path.
func Open(path string, opts ...Option) (*Dataset, error) {
	return Read(context.Background(), Paths{Path: path}, opts...)
}

// Read opens a fileset. The sidecars are read first to size the genotype
// tensor; no genotypes are decoded until call_genotype is materialised.
func Read(ctx context.Context, paths Paths, opts ...Option) (*Dataset, error) {
	bedPath, bimPath, famPath, err := paths.resolve()
	if err != nil {
		return nil, err
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		BedPath: bedPath,
		BimPath: bimPath,
		FamPath: famPath,
		opts:    o,
	}

	// The .bed handle outlives this call.
	ctx = context.WithoutCancel(ctx)

	var (
		variants  []Variant
		bimLines  []int
		samples   []Sample
		nVariants int
		nSamples  int
	)

	g, gctx := errgroup.WithContext(ctx)
	if o.persist {
		g.Go(func() error {
			var err error
			variants, bimLines, err = readBIM(gctx, o.opener(), bimPath, o.bimSep)
			nVariants = len(variants)
			return err
		})
		g.Go(func() error {
			var err error
			samples, err = readFAM(gctx, o.opener(), famPath, o.famSep)
			nSamples = len(samples)
			return err
		})
	} else {
		g.Go(func() error {
			var err error
			nVariants, err = countRows(gctx, o.opener(), bimPath)
			return err
		})
		g.Go(func() error {
			var err error
			nSamples, err = countRows(gctx, o.opener(), famPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds.bed, err = openBed(ctx, o, bedPath, nVariants, nSamples)
	if err != nil {
		return nil, err
	}
	ds.genotypes = newArray(ds.bed, o.chunks, o.cacheBytes, o.executor)

	chunks := ds.genotypes.Chunks()
	gridV, gridS := chunks.grid(nVariants, nSamples)
	o.logger.Printf("call_genotype shape %v in %d x %d chunks of %d variants x %d samples", ds.genotypes.Shape(), gridV, gridS, chunks.Variants, chunks.Samples)

	if o.persist {
		ds.once.Do(func() {
			ds.meta, ds.loadErr = assemble(variants, bimLines, samples, ds.genotypes, o.contigs, bimPath, famPath)
		})
		if ds.loadErr != nil {
			ds.bed.Close()
			return nil, ds.loadErr
		}
	}

	return ds, nil
}
