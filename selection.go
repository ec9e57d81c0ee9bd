package plink

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

type indexKind byte

const (
	indexAll indexKind = iota
	indexSpan
	indexList
	indexBitmap
)

// Index selects positions along one axis of the genotype tensor. The zero
// value selects the whole axis.
type Index struct {
	kind        indexKind
	start, stop int
	list        []int
	bitmap      *roaring.Bitmap
}

// All selects every position of an axis.
func All() Index {
	return Index{kind: indexAll}
}

// Span selects the half-open range [start, stop).
func Span(start, stop int) Index {
	return Index{kind: indexSpan, start: start, stop: stop}
}

// Indices selects explicit positions, in the given order. Repeats are allowed.
func Indices(idx ...int) Index {
	return Index{kind: indexList, list: idx}
}

// Bitmap selects the positions set in bm, in ascending order.
func Bitmap(bm *roaring.Bitmap) Index {
	return Index{kind: indexBitmap, bitmap: bm}
}

func (ix Index) String() string {
	switch ix.kind {
	case indexSpan:
		return fmt.Sprintf("%d:%d", ix.start, ix.stop)
	case indexList:
		return fmt.Sprintf("%v", ix.list)
	case indexBitmap:
		if ix.bitmap == nil {
			return "bitmap(0)"
		}
		return fmt.Sprintf("bitmap(%d)", ix.bitmap.GetCardinality())
	}
	return ":"
}

// resolve expands the index into explicit positions along an axis of
// length n.
func (ix Index) resolve(axis, n int) ([]int, error) {
	switch ix.kind {
	case indexAll:
		return seq(0, n), nil

	case indexSpan:
		if ix.start < 0 || ix.stop > n || ix.start > ix.stop {
			return nil, &IndexError{Axis: axis, Bound: n, Msg: fmt.Sprintf("span %d:%d does not fit axis of length %d", ix.start, ix.stop, n)}
		}
		return seq(ix.start, ix.stop), nil

	case indexList:
		out := make([]int, len(ix.list))
		for i, v := range ix.list {
			if v < 0 || v >= n {
				return nil, &IndexError{Axis: axis, Index: v, Bound: n}
			}
			out[i] = v
		}
		return out, nil

	case indexBitmap:
		if ix.bitmap == nil {
			return nil, nil
		}
		out := make([]int, 0, ix.bitmap.GetCardinality())
		it := ix.bitmap.Iterator()
		for it.HasNext() {
			v := int(it.Next())
			if v >= n {
				return nil, &IndexError{Axis: axis, Index: v, Bound: n}
			}
			out = append(out, v)
		}
		return out, nil
	}

	return nil, &IndexError{Axis: axis, Msg: "unknown index"}
}

// resolveAll resolves one Index per axis against shape.
func resolveAll(shape [3]int, sel []Index) ([3][]int, error) {
	var out [3][]int
	if len(sel) != len(shape) {
		return out, &IndexError{Axis: -1, Msg: fmt.Sprintf("indexer must have %d entries (received %d)", len(shape), len(sel))}
	}
	for axis, ix := range sel {
		idx, err := ix.resolve(axis, shape[axis])
		if err != nil {
			return out, err
		}
		out[axis] = idx
	}
	return out, nil
}

func seq(start, stop int) []int {
	out := make([]int, stop-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// spanOf returns the smallest and largest value of a non-empty slice.
func spanOf(idx []int) (lo, hi int) {
	lo, hi = idx[0], idx[0]
	for _, v := range idx[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
