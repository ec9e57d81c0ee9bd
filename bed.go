package plink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/carbocation/pfx"
)

// MagicNumber contains the value required to confirm that a file is a PLINK
// .bed file.
var MagicNumber = [2]byte{0x6c, 0x1b}

const (
	offsetMagicNumber = 0
	offsetLayout      = 2
	bedHeaderSize     = 3
)

// Ploidy is the fixed size of the last axis of the genotype tensor.
const Ploidy = 2

// BedReader decodes rectangular regions of a .bed file on demand. It holds
// the file handle open until Close and never loads the .bim or .fam: the
// caller supplies the variant and sample counts.
type BedReader struct {
	FilePath  string
	NVariants int
	NSamples  int
	Layout    Layout

	file     ReaderAtCloser
	size     int64
	rowBytes int64
	dosage   dosageTable
	mu       *sync.Mutex
}

// OpenBed opens the .bed at path, which must hold nVariants x nSamples calls.
// The relevant options are WithCountA1, WithLock, WithGCS and WithS3.
func OpenBed(path string, nVariants, nSamples int, opts ...Option) (*BedReader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return openBed(context.Background(), o, path, nVariants, nSamples)
}

func openBed(ctx context.Context, o options, path string, nVariants, nSamples int) (*BedReader, error) {
	if nVariants < 0 || nSamples < 0 {
		return nil, &ConfigError{Rule: "shape", Message: fmt.Sprintf("negative shape (%d, %d)", nVariants, nSamples)}
	}

	file, size, err := o.opener().open(ctx, path)
	if err != nil {
		return nil, err
	}

	b := &BedReader{
		FilePath:  path,
		NVariants: nVariants,
		NSamples:  nSamples,
		file:      file,
		size:      size,
		dosage:    newDosageTable(o.countA1),
	}
	if o.lock {
		b.mu = &sync.Mutex{}
	}

	if err := populateBedHeader(b); err != nil {
		file.Close()
		return nil, err
	}

	o.logger.Printf("Opened %s: %s, %d variants x %d samples, count A1: %v", path, b.Layout, nVariants, nSamples, o.countA1)

	return b, nil
}

func populateBedHeader(b *BedReader) error {
	buffer := make([]byte, bedHeaderSize)
	if b.size < bedHeaderSize {
		return &ParseError{File: b.FilePath, Err: fmt.Errorf("file is %d bytes, shorter than the %d byte header", b.size, bedHeaderSize)}
	}
	if err := b.readAt(buffer, offsetMagicNumber); err != nil {
		return pfx.Err(err)
	}

	if buffer[0] != MagicNumber[0] || buffer[1] != MagicNumber[1] {
		return &ParseError{File: b.FilePath, Err: fmt.Errorf("The .bed header at offset %d is expected to resolve to the Magic Number %#x, but instead resolved to %#x", offsetMagicNumber, MagicNumber[:], buffer[:2])}
	}

	var rows, cols int
	switch Layout(buffer[offsetLayout]) {
	case LayoutVariantMajor:
		b.Layout = LayoutVariantMajor
		rows, cols = b.NVariants, b.NSamples
	case LayoutSampleMajor:
		b.Layout = LayoutSampleMajor
		rows, cols = b.NSamples, b.NVariants
	default:
		return &ParseError{File: b.FilePath, Err: fmt.Errorf("unrecognised layout byte %#x", buffer[offsetLayout])}
	}

	// Each block is padded to a whole byte.
	b.rowBytes = int64((cols + 3) / 4)
	if expected := bedHeaderSize + int64(rows)*b.rowBytes; expected != b.size {
		return &ParseError{File: b.FilePath, Err: fmt.Errorf("file is %d bytes but %d variants x %d samples (%s) requires %d", b.size, b.NVariants, b.NSamples, b.Layout, expected)}
	}

	return nil
}

// Shape is the logical (variants, samples, ploidy) shape.
func (b *BedReader) Shape() [3]int {
	return [3]int{b.NVariants, b.NSamples, Ploidy}
}

// VariantOffset returns the byte range holding variant i. It is only
// contiguous in variant-major files; for sample-major files ok is false.
func (b *BedReader) VariantOffset(i int) (start, size int64, ok bool) {
	if b.Layout != LayoutVariantMajor || i < 0 || i >= b.NVariants {
		return 0, 0, false
	}
	return bedHeaderSize + int64(i)*b.rowBytes, b.rowBytes, true
}

// Read decodes the region selected by one Index per axis (variants, samples,
// ploidy). Only the bytes spanning the selected samples of each selected
// variant (or vice versa, for sample-major files) are read.
func (b *BedReader) Read(sel ...Index) (*Block, error) {
	idx, err := resolveAll(b.Shape(), sel)
	if err != nil {
		return nil, err
	}
	variants, samples, ploidy := idx[0], idx[1], idx[2]

	out := newBlock(len(variants), len(samples), len(ploidy))
	emit := func(v, s int, dosage int8) {
		call := CallFromDosage(dosage)
		for p, which := range ploidy {
			out.set(v, s, p, call[which])
		}
	}

	switch b.Layout {
	case LayoutVariantMajor:
		err = b.decode(variants, samples, emit)
	default:
		// Blocks are samples; transpose back to (variant, sample).
		err = b.decode(samples, variants, func(s, v int, dosage int8) { emit(v, s, dosage) })
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

// decode visits every (row, col) pair of the selection, where rows are the
// on-disk blocks. emit receives positions within rows and cols.
func (b *BedReader) decode(rows, cols []int, emit func(r, c int, dosage int8)) error {
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}

	lo, hi := spanOf(cols)
	byteLo := int64(lo / 4)
	buffer := make([]byte, int64(hi/4)-byteLo+1)

	for r, row := range rows {
		if err := b.readAt(buffer, bedHeaderSize+int64(row)*b.rowBytes+byteLo); err != nil {
			return pfx.Err(err)
		}
		for c, col := range cols {
			code := (buffer[int64(col/4)-byteLo] >> (2 * uint(col%4))) & 0x3
			emit(r, c, b.dosage[code])
		}
	}

	return nil
}

func (b *BedReader) readAt(buffer []byte, offset int64) error {
	if b.mu != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
	}

	n, err := b.file.ReadAt(buffer, offset)
	if err == io.EOF && n == len(buffer) {
		return nil
	}
	return err
}

// Close releases the file handle.
func (b *BedReader) Close() error {
	return b.file.Close()
}
