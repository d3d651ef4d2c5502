package models

// Embedding is an L2-normalized dense vector in R^D.
type Embedding []float32

// Dim returns the vector's dimensionality.
func (e Embedding) Dim() int {
	return len(e)
}
