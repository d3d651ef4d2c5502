// Package embedding turns text into L2-normalized dense vectors and
// provides the similarity primitives the scorer and gap analyzer build on.
package embedding

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Engine encodes text into unit vectors and exposes vector-space primitives
// over the resulting matrix.
type Engine interface {
	// Encode returns one row per input text, each a unit vector in R^Dim.
	Encode(ctx context.Context, texts []string) (*mat.Dense, error)
	// Dim reports the engine's fixed output dimensionality.
	Dim() int
}

// Similarity maps cosine similarity from [-1,1] into [0,1].
func Similarity(u, v mat.Vector) float64 {
	return (mat.Dot(u, v) + 1) / 2
}

// SimilarityMatrix computes (M M^T + 1) / 2 for a matrix of unit-normalized
// rows, giving the pairwise [0,1]-mapped similarity between every row pair.
func SimilarityMatrix(m *mat.Dense) *mat.Dense {
	rows, _ := m.Dims()
	var gram mat.Dense
	gram.Mul(m, m.T())

	out := mat.NewDense(rows, rows, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return (v + 1) / 2
	}, &gram)
	return out
}

// Centroid returns the L2-normalized mean row of m.
func Centroid(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	if rows == 0 {
		return make([]float64, cols)
	}
	mean := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}
	normalize(mean)
	return mean
}

// TopK returns the indices of the k rows of m with the largest dot product
// against q, descending.
func TopK(q []float64, m *mat.Dense, k int) []int {
	rows, _ := m.Dims()
	if k > rows {
		k = rows
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, rows)
	qv := mat.NewVecDense(len(q), q)
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		rv := mat.NewVecDense(len(row), row)
		scores[i] = scored{idx: i, score: mat.Dot(qv, rv)}
	}
	// insertion sort is fine: k and rows are both small (phrase/chunk counts)
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0 && scores[j].score > scores[j-1].score; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
		}
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].idx
	}
	return out
}

// EncodeOne is a convenience wrapper for single-text encoding, used by
// callers that need one query vector rather than a batch.
func EncodeOne(ctx context.Context, e Engine, text string) ([]float64, error) {
	m, err := e.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return m.RawRowView(0), nil
}

func normalize(v []float64) {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
}
