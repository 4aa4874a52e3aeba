package ann

import (
	"fmt"
	"math"
	"sort"
)

// Neighbor is one k-NN search result. Ordinal is the vector's position
// in the index, or -1 for padding slots when the index holds fewer than
// k vectors. Distance is the squared L2 distance from the query.
type Neighbor struct {
	Ordinal  int
	Distance float32
}

// FlatIndex is an exact nearest-neighbor index over float32 vectors of
// one fixed dimension. Vectors are stored row-major in insertion order,
// so a vector's ordinal is simply how many vectors preceded it.
//
// The index is append-only during a build and must not be mutated once
// shared between goroutines; Search never mutates it.
type FlatIndex struct {
	dim     int
	vectors []float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimension the index was created with.
func (x *FlatIndex) Dim() int {
	return x.dim
}

// Len returns the number of vectors in the index.
func (x *FlatIndex) Len() int {
	return len(x.vectors) / x.dim
}

// Add appends a vector and returns its ordinal.
func (x *FlatIndex) Add(vector []float32) (int, error) {
	if len(vector) != x.dim {
		return 0, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vector), x.dim)
	}
	ordinal := x.Len()
	x.vectors = append(x.vectors, vector...)
	return ordinal, nil
}

// Search returns the k nearest vectors to query by squared L2 distance,
// nearest first. The result always has exactly k entries; when the index
// holds fewer than k vectors the tail is padded with sentinel neighbors
// (ordinal -1, infinite distance). Equal distances order by ordinal so
// repeated searches are deterministic.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	n := x.Len()
	neighbors := make([]Neighbor, 0, n)
	for ordinal := 0; ordinal < n; ordinal++ {
		row := x.vectors[ordinal*x.dim : (ordinal+1)*x.dim]
		neighbors = append(neighbors, Neighbor{
			Ordinal:  ordinal,
			Distance: squaredL2(query, row),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Ordinal < neighbors[j].Ordinal
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	for len(neighbors) < k {
		neighbors = append(neighbors, Neighbor{Ordinal: -1, Distance: float32(math.Inf(1))})
	}
	return neighbors, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
