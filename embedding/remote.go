package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/use-agent/seoscope/models"
)

// RemoteEngine calls an OpenAI-compatible embeddings endpoint.
type RemoteEngine struct {
	baseURL   string
	apiKey    string
	model     string
	dim       int
	batchSize int
	client    *http.Client
}

// NewRemoteEngine configures a RemoteEngine against an OpenAI-compatible
// embeddings API.
func NewRemoteEngine(baseURL, apiKey, model string, dim, batchSize int) *RemoteEngine {
	if batchSize <= 0 {
		batchSize = 64
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &RemoteEngine{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		dim:       dim,
		batchSize: batchSize,
		client:    &http.Client{Transport: transport, Timeout: 60 * time.Second},
	}
}

func (e *RemoteEngine) Dim() int { return e.dim }

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Encode chunks texts into batches of e.batchSize and issues one HTTP
// request per batch, normalizing every returned row to unit length.
func (e *RemoteEngine) Encode(ctx context.Context, texts []string) (*mat.Dense, error) {
	if len(texts) == 0 {
		return mat.NewDense(0, e.dim, nil), nil
	}

	rows := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.encodeBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for i, row := range batch {
			rows[start+i] = row
		}
	}

	dim := e.dim
	if dim == 0 && len(rows) > 0 {
		dim = len(rows[0])
	}
	out := mat.NewDense(len(texts), dim, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out, nil
}

func (e *RemoteEngine) encodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	body := embeddingRequest{Input: texts, Model: e.model}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", buf)
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrKindEmbedding, "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, models.NewPipelineError(models.ErrKindEmbedding,
			fmt.Sprintf("embedding API error (status %d): %s", resp.StatusCode, string(respBody)), nil)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, models.NewPipelineError(models.ErrKindEmbedding, "embedding response row count mismatch", nil)
	}

	out := make([][]float64, len(result.Data))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		out[d.Index] = normalizedFloat64(d.Embedding)
	}
	return out, nil
}

func normalizedFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	var sumSq float64
	for i, x := range v {
		out[i] = float64(x)
		sumSq += out[i] * out[i]
	}
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i := range out {
		out[i] /= norm
	}
	return out
}
