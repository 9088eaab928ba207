// Package vector provides an exact nearest-neighbor index over dense embeddings.
package vector

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyIndex is returned when searching an index that was never built or holds no vectors.
// Callers treat it as "no retrievable content".
var ErrEmptyIndex = errors.New("vector index is empty")

// FlatIndex is an immutable row-major matrix of embeddings searched exhaustively
// by squared Euclidean distance. Row i corresponds to position i of the owner's
// chunk list. There is no incremental add or delete; rebuild it instead.
type FlatIndex struct {
	dimensions int
	n          int
	data       []float32
}

// Build copies vectors into a new index. All vectors must share the same non-zero dimension.
// An empty input yields an empty index whose Search returns ErrEmptyIndex.
func Build(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return &FlatIndex{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("vector 0 has zero dimensions")
	}
	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at %d: got %d, expected %d", i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &FlatIndex{dimensions: dim, n: len(vectors), data: data}, nil
}

// Search returns up to k nearest rows to query, ascending by squared L2 distance.
// Equal distances keep insertion order. k larger than the index size returns every row.
func (f *FlatIndex) Search(query []float32, k int) (distances []float32, positions []int, err error) {
	if f == nil || f.n == 0 {
		return nil, nil, ErrEmptyIndex
	}
	if len(query) != f.dimensions {
		return nil, nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	type hit struct {
		pos  int
		dist float32
	}
	hits := make([]hit, f.n)
	for i := 0; i < f.n; i++ {
		hits[i] = hit{pos: i, dist: SquaredL2(query, f.row(i))}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	if k > f.n {
		k = f.n
	}
	distances = make([]float32, k)
	positions = make([]int, k)
	for i := 0; i < k; i++ {
		distances[i] = hits[i].dist
		positions[i] = hits[i].pos
	}
	return distances, positions, nil
}

// Size returns the number of rows.
func (f *FlatIndex) Size() int {
	if f == nil {
		return 0
	}
	return f.n
}

// Dimensions returns the row width, 0 for an empty index.
func (f *FlatIndex) Dimensions() int {
	if f == nil {
		return 0
	}
	return f.dimensions
}

func (f *FlatIndex) row(i int) []float32 {
	return f.data[i*f.dimensions : (i+1)*f.dimensions]
}
