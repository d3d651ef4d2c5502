package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LocalEngine is a dependency-free embedder: it hashes overlapping word
// shingles into a fixed-width vector (a variant of feature hashing / the
// hashing trick), then L2-normalizes. It produces no semantic understanding
// beyond lexical overlap, but it is deterministic, requires no network call,
// and is stable across runs and replicas of the same binary.
type LocalEngine struct {
	dim       int
	batchSize int
}

// NewLocalEngine returns a LocalEngine that emits vectors of the given
// dimension, batching encode calls at batchSize texts at a time.
func NewLocalEngine(dim, batchSize int) *LocalEngine {
	if dim <= 0 {
		dim = 384
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &LocalEngine{dim: dim, batchSize: batchSize}
}

func (e *LocalEngine) Dim() int { return e.dim }

// Encode hashes each text's word shingles into e.dim buckets and
// L2-normalizes each row. The batch is chunked at e.batchSize purely to
// match the batching contract other engines honor for real rate limits;
// there is no network cost here to amortize.
func (e *LocalEngine) Encode(ctx context.Context, texts []string) (*mat.Dense, error) {
	out := mat.NewDense(len(texts), e.dim, nil)
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for i := start; i < end; i++ {
			row := e.vectorFor(texts[i])
			out.SetRow(i, row)
		}
	}
	return out, nil
}

func (e *LocalEngine) vectorFor(text string) []float64 {
	v := make([]float64, e.dim)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		words = []string{""}
	}

	addToken := func(token string) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dim))
		sign := 1.0
		if sum&(1<<63) != 0 {
			sign = -1.0
		}
		v[idx] += sign
	}

	for _, w := range words {
		addToken(w)
	}
	for i := 0; i+1 < len(words); i++ {
		addToken(words[i] + " " + words[i+1])
	}

	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		v[0] = 1
		return v
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
	return v
}
