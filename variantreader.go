package plink

import (
	"bytes"
	"io"

	"github.com/carbocation/pfx"
)

// VariantCalls holds every sample's call at one variant.
type VariantCalls struct {
	Index int
	Calls []Call
}

// VariantReader walks a .bed one variant at a time, in file order.
type VariantReader struct {
	VariantsSeen int
	b            *BedReader
	err          error

	// Cached values
	buffer []byte
}

func (b *BedReader) NewVariantReader() *VariantReader {
	return &VariantReader{b: b}
}

func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the next variant, or nil once every variant has been seen or
// an error occurred (see Error).
func (vr *VariantReader) Read() *VariantCalls {
	if vr.err != nil || vr.VariantsSeen >= vr.b.NVariants {
		return nil
	}

	v, err := vr.readVariant(vr.VariantsSeen)
	if err != nil {
		vr.err = pfx.Err(err)
		return nil
	}

	vr.VariantsSeen++
	return v
}

// ReadAt returns variant i without moving the reader.
func (vr *VariantReader) ReadAt(i int) (*VariantCalls, error) {
	if i < 0 || i >= vr.b.NVariants {
		return nil, &IndexError{Axis: 0, Index: i, Bound: vr.b.NVariants}
	}
	return vr.readVariant(i)
}

func (vr *VariantReader) readVariant(i int) (*VariantCalls, error) {
	v := &VariantCalls{Index: i, Calls: make([]Call, vr.b.NSamples)}

	start, size, contiguous := vr.b.VariantOffset(i)
	if !contiguous {
		block, err := vr.b.Read(Indices(i), All(), All())
		if err != nil {
			return nil, err
		}
		for s := range v.Calls {
			v.Calls[s] = block.Call(0, s)
		}
		return v, nil
	}

	if int64(len(vr.buffer)) < size {
		vr.buffer = make([]byte, size)
	}
	if err := vr.b.readAt(vr.buffer[:size], start); err != nil {
		return nil, err
	}

	cr := newCodeReader(bytes.NewReader(vr.buffer[:size]))
	for s := range v.Calls {
		code, err := cr.ReadCode()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		} else if err != nil {
			return nil, err
		}
		v.Calls[s] = CallFromDosage(vr.b.dosage[code])
	}

	return v, nil
}
