package plink

// Block is a decoded, in-memory region of the genotype tensor, laid out
// (variant, sample, ploidy) in row-major order.
type Block struct {
	Shape [3]int
	Data  []int8
}

func newBlock(nVariants, nSamples, nPloidy int) *Block {
	return &Block{
		Shape: [3]int{nVariants, nSamples, nPloidy},
		Data:  make([]int8, nVariants*nSamples*nPloidy),
	}
}

func (b *Block) offset(v, s, p int) int {
	return (v*b.Shape[1]+s)*b.Shape[2] + p
}

// At returns the haplotype value at (v, s, p).
func (b *Block) At(v, s, p int) int8 {
	return b.Data[b.offset(v, s, p)]
}

// Call returns both haplotype slots at (v, s). It is only meaningful when the
// ploidy axis has not been subset.
func (b *Block) Call(v, s int) Call {
	o := b.offset(v, s, 0)
	return Call{b.Data[o], b.Data[o+1]}
}

func (b *Block) set(v, s, p int, val int8) {
	b.Data[b.offset(v, s, p)] = val
}

// Len is the number of values held.
func (b *Block) Len() int {
	return len(b.Data)
}
