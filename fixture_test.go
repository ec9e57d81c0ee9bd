package plink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	simVariants = 100
	simSamples  = 10
)

// simCodes are pinned 2-bit codes of the simulated fileset, keyed by
// (variant, sample). Every other position follows simCode.
var simCodes = map[[2]int]byte{
	{50, 7}: codeHeterozygous,
	{81, 8}: codeHeterozygous,
	{45, 2}: codeHomozygousA1,
	{36, 8}: codeHomozygousA1,
	{24, 2}: codeMissing,
	{92, 9}: codeHomozygousA2,
	{26, 2}: codeHomozygousA2,
	{81, 0}: codeHomozygousA1,
	{31, 8}: codeHomozygousA2,
	{4, 9}:  codeHomozygousA2,
}

func simCode(v, s int) byte {
	if c, ok := simCodes[[2]int{v, s}]; ok {
		return c
	}
	// Roughly a tenth missing, the rest spread over the three genotypes.
	h := (v*31 + s*17 + v*s) % 10
	switch {
	case h == 0:
		return codeMissing
	case h < 4:
		return codeHomozygousA1
	case h < 7:
		return codeHeterozygous
	}
	return codeHomozygousA2
}

// encodeBed packs codes[v][s] into a .bed file with the given layout.
func encodeBed(codes [][]byte, layout Layout) []byte {
	nV := len(codes)
	nS := 0
	if nV > 0 {
		nS = len(codes[0])
	}

	rows, cols := nV, nS
	at := func(r, c int) byte { return codes[r][c] }
	if layout == LayoutSampleMajor {
		rows, cols = nS, nV
		at = func(r, c int) byte { return codes[c][r] }
	}

	rowBytes := (cols + 3) / 4
	out := make([]byte, bedHeaderSize+rows*rowBytes)
	out[0], out[1], out[2] = MagicNumber[0], MagicNumber[1], byte(layout)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[bedHeaderSize+r*rowBytes+c/4] |= at(r, c) << (2 * uint(c%4))
		}
	}
	return out
}

func simCodeMatrix(nV, nS int) [][]byte {
	codes := make([][]byte, nV)
	for v := range codes {
		codes[v] = make([]byte, nS)
		for s := range codes[v] {
			codes[v][s] = simCode(v, s)
		}
	}
	return codes
}

func simBIM(nV int, contig func(v int) string) string {
	var sb strings.Builder
	for v := 0; v < nV; v++ {
		fmt.Fprintf(&sb, "%s 1:%d:A:C 0 %d A C\n", contig(v), v+1, v+1)
	}
	return sb.String()
}

func simFAM(nS int) string {
	var sb strings.Builder
	for s := 0; s < nS; s++ {
		fmt.Fprintf(&sb, "0\tper%d\t0\t0\t%d\t-9\n", s, s%3)
	}
	return sb.String()
}

// writeFileset writes stem.bed, stem.bim and stem.fam into a temporary
// directory and returns the stem.
func writeFileset(t *testing.T, bed []byte, bim, fam string) string {
	t.Helper()
	stem := filepath.Join(t.TempDir(), "plink_sim")
	require.NoError(t, os.WriteFile(stem+".bed", bed, 0o644))
	require.NoError(t, os.WriteFile(stem+".bim", []byte(bim), 0o644))
	require.NoError(t, os.WriteFile(stem+".fam", []byte(fam), 0o644))
	return stem
}

// writeSim writes the simulated 100 x 10 fileset, all on contig "1".
func writeSim(t *testing.T, layout Layout) string {
	t.Helper()
	return writeFileset(t,
		encodeBed(simCodeMatrix(simVariants, simSamples), layout),
		simBIM(simVariants, func(int) string { return "1" }),
		simFAM(simSamples),
	)
}
