package plink

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var simExpectedCalls = []struct {
	v, s int
	want Call
}{
	{50, 7, Call{1, 0}},
	{81, 8, Call{1, 0}},
	{45, 2, Call{1, 1}},
	{36, 8, Call{1, 1}},
	{24, 2, Call{-1, -1}},
	{92, 9, Call{0, 0}},
	{26, 2, Call{0, 0}},
	{81, 0, Call{1, 1}},
	{31, 8, Call{0, 0}},
	{4, 9, Call{0, 0}},
}

func TestReadCallGenotype(t *testing.T) {
	for _, layout := range []Layout{LayoutVariantMajor, LayoutSampleMajor} {
		t.Run(layout.String(), func(t *testing.T) {
			ds, err := Open(writeSim(t, layout))
			require.NoError(t, err)
			defer ds.Close()

			block, err := ds.CallGenotype().Values(context.Background())
			require.NoError(t, err)
			assert.Equal(t, [3]int{simVariants, simSamples, Ploidy}, block.Shape)

			for _, tc := range simExpectedCalls {
				assert.Equal(t, tc.want, block.Call(tc.v, tc.s), "call at (%d, %d)", tc.v, tc.s)
			}
		})
	}
}

func TestReadCountA2(t *testing.T) {
	stem := writeSim(t, LayoutVariantMajor)

	a1, err := Open(stem)
	require.NoError(t, err)
	defer a1.Close()
	a2, err := Open(stem, WithCountA1(false))
	require.NoError(t, err)
	defer a2.Close()

	b1, err := a1.CallGenotype().Values(context.Background())
	require.NoError(t, err)
	b2, err := a2.CallGenotype().Values(context.Background())
	require.NoError(t, err)

	for v := 0; v < simVariants; v++ {
		for s := 0; s < simSamples; s++ {
			c1, c2 := b1.Call(v, s), b2.Call(v, s)
			if c1.IsMissing() {
				assert.True(t, c2.IsMissing())
				continue
			}
			assert.Equal(t, int8(Ploidy), c1.Dosage()+c2.Dosage(), "dosages at (%d, %d)", v, s)
		}
	}

	assert.Equal(t, Call{1, 1}, b2.Call(92, 9))
	assert.Equal(t, Call{0, 0}, b2.Call(45, 2))
	assert.Equal(t, Call{1, 0}, b2.Call(50, 7))
}

func TestMissingCallsAgree(t *testing.T) {
	ds, err := Open(writeSim(t, LayoutVariantMajor))
	require.NoError(t, err)
	defer ds.Close()

	block, err := ds.CallGenotype().Values(context.Background())
	require.NoError(t, err)

	missing := 0
	for i := 0; i < block.Len(); i += Ploidy {
		first, second := block.Data[i], block.Data[i+1]
		assert.Equal(t, first < 0, second < 0)
		if first < 0 {
			missing++
		}
	}
	assert.Greater(t, missing, 0)
}

func TestShapeAndSlice(t *testing.T) {
	ds, err := Open(writeSim(t, LayoutVariantMajor))
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, map[string]int{DimVariants: 100, DimSamples: 10, DimPloidy: 2}, ds.Sizes())

	gt := ds.CallGenotype()
	assert.Equal(t, [3]int{100, 10, 2}, gt.Shape())

	view, err := gt.Slice(Span(0, 3), Span(0, 5), Span(0, 1))
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 5, 1}, view.Shape())

	block, err := view.Values(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 5, 1}, block.Shape)

	full, err := gt.Values(context.Background())
	require.NoError(t, err)
	for v := 0; v < 3; v++ {
		for s := 0; s < 5; s++ {
			assert.Equal(t, full.At(v, s, 0), block.At(v, s, 0))
		}
	}

	for _, tt := range []struct {
		sel  []Index
		want [3]int
	}{
		{[]Index{Span(0, 3), All(), All()}, [3]int{3, 10, 2}},
		{[]Index{All(), Span(0, 3), All()}, [3]int{100, 3, 2}},
	} {
		view, err := gt.Slice(tt.sel...)
		require.NoError(t, err)
		assert.Equal(t, tt.want, view.Shape())

		block, err := view.Values(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, block.Shape)
	}
}

func TestSliceComposes(t *testing.T) {
	ds, err := Open(writeSim(t, LayoutSampleMajor), WithChunks(UniformChunks(7)))
	require.NoError(t, err)
	defer ds.Close()

	gt := ds.CallGenotype()
	outer, err := gt.Slice(Span(40, 95), Indices(9, 2, 8), All())
	require.NoError(t, err)
	inner, err := outer.Slice(Indices(52, 5, 41), All(), All())
	require.NoError(t, err)

	block, err := inner.Values(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 3, 2}, block.Shape)

	// Variants 92, 45 and 81 crossed with samples 9, 2 and 8.
	assert.Equal(t, Call{0, 0}, block.Call(0, 0))
	assert.Equal(t, Call{1, 1}, block.Call(1, 1))
	assert.Equal(t, Call{1, 0}, block.Call(2, 2))

	_, err = outer.Slice(Indices(55), All(), All())
	assert.True(t, errors.Is(err, ErrIndex))
}

func TestSliceErrors(t *testing.T) {
	ds, err := Open(writeSim(t, LayoutVariantMajor))
	require.NoError(t, err)
	defer ds.Close()

	gt := ds.CallGenotype()
	for name, sel := range map[string][]Index{
		"rank":          {All(), All()},
		"span past end": {Span(0, 101), All(), All()},
		"negative":      {All(), Indices(-1), All()},
		"ploidy":        {All(), All(), Indices(2)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := gt.Slice(sel...)
			var ie *IndexError
			require.True(t, errors.As(err, &ie))
			assert.True(t, errors.Is(err, ErrIndex))
		})
	}

	_, err = gt.At(context.Background(), 100, 0)
	assert.True(t, errors.Is(err, ErrIndex))

	call, err := gt.At(context.Background(), 50, 7)
	require.NoError(t, err)
	assert.Equal(t, Call{1, 0}, call)

	// A view holding one haplotype slot cannot yield a whole call.
	second, err := gt.Slice(Indices(50), Indices(7), Indices(1))
	require.NoError(t, err)
	_, err = second.At(context.Background(), 0, 0)
	var ie *IndexError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, 2, ie.Axis)
	assert.True(t, errors.Is(err, ErrIndex))
}

func TestPathResolution(t *testing.T) {
	stem := writeSim(t, LayoutVariantMajor)

	tests := []struct {
		name  string
		paths Paths
		rule  string
	}{
		{"both", Paths{Path: stem, BedPath: stem + ".bed", BimPath: stem + ".bim", FamPath: stem + ".fam"}, "both"},
		{"both partial", Paths{Path: stem, BedPath: stem + ".bed"}, "both"},
		{"neither", Paths{}, "neither"},
		{"incomplete", Paths{BedPath: stem + ".bed", BimPath: stem + ".bim"}, "incomplete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), tt.paths)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.rule, ce.Rule)
			assert.True(t, errors.Is(err, ErrConfig))
		})
	}

	_, err := Read(context.Background(), Paths{Path: "/does/not/exist", BedPath: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Either `path` or all 3 of `{bed,bim,fam}_path` must be specified but not both")

	ds, err := Read(context.Background(), Paths{BedPath: stem + ".bed", BimPath: stem + ".bim", FamPath: stem + ".fam"})
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, stem+".bim", ds.BimPath)
}

func TestMetadataVariables(t *testing.T) {
	ds, err := Open(writeSim(t, LayoutVariantMajor))
	require.NoError(t, err)
	defer ds.Close()

	names, err := ds.Names()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		VarCallGenotype, VarVariantContig, VarVariantPosition, VarVariantAllele,
		VarVariantID, VarVariantCMPosition, VarSampleID, VarSampleFamilyID,
		VarSampleMemberID, VarSamplePaternalID, VarSampleMaternalID, VarSampleSex,
		VarSamplePhenotype,
	}, names)

	contigs, err := ds.Contigs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, contigs)

	attrs, err := ds.Attrs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, attrs[AttrContigs])

	v, err := ds.Variable(VarVariantContig)
	require.NoError(t, err)
	assert.Equal(t, []string{DimVariants}, v.Dims)
	codes := v.Data.([]int16)
	assert.Len(t, codes, simVariants)
	for _, c := range codes {
		assert.Equal(t, int16(0), c)
	}

	v, err = ds.Variable(VarVariantPosition)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Data.([]int32)[0])
	assert.Equal(t, int32(100), v.Data.([]int32)[99])

	v, err = ds.Variable(VarVariantAllele)
	require.NoError(t, err)
	assert.Equal(t, []string{DimVariants, DimAlleles}, v.Dims)
	alleles := v.Data.(FixedBytes)
	assert.Equal(t, "A", string(alleles.At(3, 0)))
	assert.Equal(t, "C", string(alleles.At(3, 1)))

	v, err = ds.Variable(VarSampleID)
	require.NoError(t, err)
	assert.Equal(t, "per0", v.Data.([]string)[0])

	v, err = ds.Variable(VarSampleFamilyID)
	require.NoError(t, err)
	assert.Equal(t, sql.NullString{}, v.Data.([]sql.NullString)[0])

	v, err = ds.Variable(VarSampleSex)
	require.NoError(t, err)
	assert.Equal(t, []int8{-1, 1, 2, -1, 1, 2, -1, 1, 2, -1}, v.Data.([]int8))

	v, err = ds.Variable(VarSamplePhenotype)
	require.NoError(t, err)
	for _, p := range v.Data.([]int8) {
		assert.Equal(t, PhenotypeMissing, p)
	}

	v, err = ds.Variable(VarCallGenotype)
	require.NoError(t, err)
	assert.Same(t, ds.CallGenotype(), v.Data.(*Array))

	_, err = ds.Variable("nope")
	assert.Error(t, err)
}

func TestContigEncoding(t *testing.T) {
	contigs := []string{"chr2", "chr10", "0", "chr2", "chrX"}
	stem := writeFileset(t,
		encodeBed(simCodeMatrix(len(contigs), 3), LayoutVariantMajor),
		simBIM(len(contigs), func(v int) string { return contigs[v] }),
		simFAM(3),
	)

	ds, err := Open(stem)
	require.NoError(t, err)
	defer ds.Close()

	names, err := ds.Contigs()
	require.NoError(t, err)
	assert.Equal(t, []string{"chr10", "chr2", "chrX"}, names)

	v, err := ds.Variable(VarVariantContig)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 0, -1, 1, 2}, v.Data.([]int16))

	bm, err := ds.ContigVariants(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3}, bm.ToArray())

	view, err := ds.CallGenotype().Slice(Bitmap(bm), All(), All())
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 3, 2}, view.Shape())

	assert.Equal(t, "bitmap(2)", Bitmap(bm).String())
	assert.Equal(t, "bitmap(0)", Bitmap(nil).String())
	empty, err := Bitmap(nil).resolve(0, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Open(stem, WithIntegerContigs(true))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, stem+".bim", pe.File)
	assert.Equal(t, 1, pe.Line)
	assert.Equal(t, 1, pe.Column)
}

func TestIntegerContigs(t *testing.T) {
	contigs := []string{"10", "2", "0", "2"}
	stem := writeFileset(t,
		encodeBed(simCodeMatrix(len(contigs), 3), LayoutVariantMajor),
		simBIM(len(contigs), func(v int) string { return contigs[v] }),
		simFAM(3),
	)

	ds, err := Open(stem, WithIntegerContigs(true))
	require.NoError(t, err)
	defer ds.Close()

	names, err := ds.Contigs()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2", "10"}, names)

	v, err := ds.Variable(VarVariantContig)
	require.NoError(t, err)
	assert.Equal(t, []int16{10, 2, 0, 2}, v.Data.([]int16))

	sim, err := Open(writeSim(t, LayoutVariantMajor), WithIntegerContigs(true))
	require.NoError(t, err)
	defer sim.Close()
	v, err = sim.Variable(VarVariantContig)
	require.NoError(t, err)
	assert.Equal(t, int16(1), v.Data.([]int16)[0])
	names, err = sim.Contigs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, names)

	bad := writeFileset(t,
		encodeBed(simCodeMatrix(2, 3), LayoutVariantMajor),
		"1 v1 0 1 A C\n\nchrX v2 0 2 A C\n",
		simFAM(3),
	)
	_, err = Open(bad, WithIntegerContigs(true))
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, bad+".bim", pe.File)
	assert.Equal(t, 3, pe.Line)
}

func TestLazyMetadata(t *testing.T) {
	stem := writeSim(t, LayoutVariantMajor)

	ds, err := Open(stem, WithPersist(false))
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, 100, ds.Sizes()[DimVariants])

	// The sidecars are only parsed on first use.
	require.NoError(t, os.WriteFile(stem+".fam", []byte(simFAM(simSamples-1)+"0\tper0\t0\t0\t1\t1\n"), 0o644))
	_, err = ds.Samples()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Column)

	// The failure sticks.
	_, err = ds.Variable(VarSampleID)
	assert.True(t, errors.Is(err, ErrParse))

	block, err := ds.CallGenotype().Values(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Call{1, 0}, block.Call(50, 7))
}

func TestBedSizeMismatch(t *testing.T) {
	bed := encodeBed(simCodeMatrix(simVariants, simSamples), LayoutVariantMajor)
	stem := writeFileset(t, bed[:len(bed)-1], simBIM(simVariants, func(int) string { return "1" }), simFAM(simSamples))

	_, err := Open(stem)
	assert.True(t, errors.Is(err, ErrParse))

	stem = writeFileset(t, bed, simBIM(simVariants-1, func(int) string { return "1" }), simFAM(simSamples))
	_, err = Open(stem)
	assert.True(t, errors.Is(err, ErrParse))

	bad := append([]byte{0x6c, 0x1c}, bed[2:]...)
	stem = writeFileset(t, bad, simBIM(simVariants, func(int) string { return "1" }), simFAM(simSamples))
	_, err = Open(stem)
	assert.True(t, errors.Is(err, ErrParse))
}
