package plink

// Layout is the block orientation declared by the third byte of a .bed file.
type Layout byte

const (
	// LayoutSampleMajor stores one block per sample, each holding every
	// variant. Written only by very old PLINK versions.
	LayoutSampleMajor Layout = iota
	// LayoutVariantMajor stores one block per variant ("SNP-major"), each
	// holding every sample. This is what PLINK 1.9 writes.
	LayoutVariantMajor
)

func (l Layout) String() string {
	switch l {
	case LayoutSampleMajor:
		return "sample-major"
	case LayoutVariantMajor:
		return "variant-major"

	default:
		return "Illegal selection"
	}
}
