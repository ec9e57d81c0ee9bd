package plink

// autoChunkBytes is the decoded size targeted by automatically sized chunks.
const autoChunkBytes = 128 << 20

// Chunks is the chunk shape of call_genotype along the variants and samples
// axes. The ploidy axis is never split. A zero size is chosen automatically.
type Chunks struct {
	Variants int
	Samples  int
}

// UniformChunks uses the same chunk length on both axes.
func UniformChunks(n int) Chunks {
	return Chunks{Variants: n, Samples: n}
}

// resolve fixes both chunk lengths for a tensor of nVariants x nSamples.
// Automatic sizing keeps whole samples rows together where possible and
// grows the variant length until a chunk reaches autoChunkBytes.
func (c Chunks) resolve(nVariants, nSamples int) Chunks {
	out := c
	if out.Samples <= 0 {
		out.Samples = nSamples
		if out.Samples*Ploidy > autoChunkBytes {
			out.Samples = autoChunkBytes / Ploidy
		}
	}
	if out.Samples > nSamples {
		out.Samples = nSamples
	}
	if out.Samples < 1 {
		out.Samples = 1
	}

	if out.Variants <= 0 {
		out.Variants = autoChunkBytes / (out.Samples * Ploidy)
	}
	if out.Variants > nVariants {
		out.Variants = nVariants
	}
	if out.Variants < 1 {
		out.Variants = 1
	}

	return out
}

// grid is the number of chunks along each split axis.
func (c Chunks) grid(nVariants, nSamples int) (int, int) {
	return ceilDiv(nVariants, c.Variants), ceilDiv(nSamples, c.Samples)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
