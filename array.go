package plink

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// chunkedSource is the shared state behind every view of one genotype
// tensor: the reader, the chunk grid and the decoded chunk cache.
type chunkedSource struct {
	reader   *BedReader
	chunks   Chunks
	cache    *tileCache
	executor Executor
}

// decodeTile reads one chunk of the grid straight from the .bed.
func (src *chunkedSource) decodeTile(key tileKey) (*Block, error) {
	v0 := key.variant * src.chunks.Variants
	s0 := key.sample * src.chunks.Samples
	v1 := min(v0+src.chunks.Variants, src.reader.NVariants)
	s1 := min(s0+src.chunks.Samples, src.reader.NSamples)
	return src.reader.Read(Span(v0, v1), Span(s0, s1), All())
}

// Array is a lazy (variants, samples, ploidy) view of a genotype tensor.
// Slicing composes index maps without touching the file; Values decodes the
// chunks the view covers, at most once each while they remain cached.
type Array struct {
	src   *chunkedSource
	index [3][]int // positions in the full tensor; nil is the identity
	shape [3]int
}

func newArray(reader *BedReader, chunks Chunks, cacheBytes int64, executor Executor) *Array {
	return &Array{
		src: &chunkedSource{
			reader:   reader,
			chunks:   chunks.resolve(reader.NVariants, reader.NSamples),
			cache:    newTileCache(cacheBytes),
			executor: executor,
		},
		shape: reader.Shape(),
	}
}

// Shape is the (variants, samples, ploidy) shape of this view.
func (a *Array) Shape() [3]int {
	return a.shape
}

// Chunks is the chunk shape of the underlying tensor.
func (a *Array) Chunks() Chunks {
	return a.src.chunks
}

// CacheStats reports activity of the chunk cache shared by all views.
func (a *Array) CacheStats() CacheStats {
	return a.src.cache.stats()
}

// Slice returns a view of the selected positions, one Index per axis, in the
// coordinates of this view. Nothing is read from disk.
func (a *Array) Slice(sel ...Index) (*Array, error) {
	idx, err := resolveAll(a.shape, sel)
	if err != nil {
		return nil, err
	}

	out := &Array{src: a.src}
	for axis := range idx {
		positions := idx[axis]
		if a.index[axis] != nil {
			for i, p := range positions {
				positions[i] = a.index[axis][p]
			}
		}
		out.index[axis] = positions
		out.shape[axis] = len(positions)
	}
	return out, nil
}

// Values materialises the view.
func (a *Array) Values(ctx context.Context) (*Block, error) {
	variants := a.positions(0)
	samples := a.positions(1)
	ploidy := a.positions(2)
	cv, cs := a.src.chunks.Variants, a.src.chunks.Samples

	tiles, err := a.loadTiles(ctx, chunkIDs(variants, cv), chunkIDs(samples, cs))
	if err != nil {
		return nil, err
	}

	out := newBlock(len(variants), len(samples), len(ploidy))
	for i, v := range variants {
		for j, s := range samples {
			tile := tiles[tileKey{v / cv, s / cs}]
			for k, p := range ploidy {
				out.set(i, j, k, tile.At(v%cv, s%cs, p))
			}
		}
	}
	return out, nil
}

// At materialises a single call. The view must keep both haplotype slots.
func (a *Array) At(ctx context.Context, variant, sample int) (Call, error) {
	if a.shape[2] != Ploidy {
		return Call{}, &IndexError{Axis: 2, Bound: a.shape[2], Msg: fmt.Sprintf("At needs both haplotype slots, view has %d", a.shape[2])}
	}
	view, err := a.Slice(Indices(variant), Indices(sample), All())
	if err != nil {
		return Call{}, err
	}
	block, err := view.Values(ctx)
	if err != nil {
		return Call{}, err
	}
	return block.Call(0, 0), nil
}

func (a *Array) positions(axis int) []int {
	if a.index[axis] != nil {
		return a.index[axis]
	}
	return seq(0, a.shape[axis])
}

// loadTiles fetches the cross product of the given chunk rows and columns
// through the executor.
func (a *Array) loadTiles(ctx context.Context, variantChunks, sampleChunks []int) (map[tileKey]*Block, error) {
	var mu sync.Mutex
	tiles := make(map[tileKey]*Block, len(variantChunks)*len(sampleChunks))
	tasks := make([]func(context.Context) error, 0, len(variantChunks)*len(sampleChunks))

	for _, tv := range variantChunks {
		for _, ts := range sampleChunks {
			key := tileKey{tv, ts}
			tasks = append(tasks, func(context.Context) error {
				block, err := a.src.cache.load(key, func() (*Block, error) {
					return a.src.decodeTile(key)
				})
				if err != nil {
					return err
				}
				mu.Lock()
				tiles[key] = block
				mu.Unlock()
				return nil
			})
		}
	}

	if err := a.src.executor.Execute(ctx, tasks); err != nil {
		return nil, err
	}
	return tiles, nil
}

// chunkIDs lists, in ascending order, the chunks that hold positions.
func chunkIDs(positions []int, chunk int) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, p := range positions {
		id := p / chunk
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
