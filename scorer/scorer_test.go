package scorer

import (
	"context"
	"strings"
	"testing"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/models"
)

func testWeights() config.ScorerConfig {
	return config.ScorerConfig{
		WeightMetadata:   0.15,
		WeightHierarchy:  0.15,
		WeightThematic:   0.20,
		WeightBalance:    0.10,
		WeightIntent:     0.20,
		WeightStructural: 0.20,
	}
}

func TestScoreEmptyTextReturnsZerosWithError(t *testing.T) {
	e := embedding.NewLocalEngine(32, 8)
	s := New(e, testWeights())
	snap := &models.PageSnapshot{URL: "https://example.com", Text: ""}

	result := s.Score(context.Background(), snap, "")
	if result.Error == "" {
		t.Fatal("expected error reason for empty content")
	}
	if result.CompositeScore != 0 || result.SEOScore != 0 {
		t.Error("expected all-zero scores for empty content")
	}
}

func TestScoreProducesAllDimensions(t *testing.T) {
	e := embedding.NewLocalEngine(32, 8)
	s := New(e, testWeights())

	text := strings.Repeat("Widgets are useful tools for many tasks. They come in many shapes and sizes. ", 20)
	snap := &models.PageSnapshot{
		URL:             "https://example.com",
		Title:           "Widget Guide",
		MetaDescription: "A guide to widgets",
		Text:            text,
	}

	result := s.Score(context.Background(), snap, "widget guide")
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	for name, v := range map[string]float64{
		"metadata":   result.MetadataAlignment,
		"hierarchy":  result.HierarchicalDecomposition,
		"thematic":   result.ThematicUnity,
		"balance":    result.Balance,
		"intent":     result.QueryIntent,
		"structural": result.StructuralCoherence,
		"composite":  result.CompositeScore,
		"seo":        result.SEOScore,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s score out of range: %f", name, v)
		}
	}
}

func TestScoreNoQueryIsNeutral(t *testing.T) {
	e := embedding.NewLocalEngine(32, 8)
	s := New(e, testWeights())
	text := strings.Repeat("Content about widgets and gadgets. ", 20)
	snap := &models.PageSnapshot{URL: "https://example.com", Text: text}

	result := s.Score(context.Background(), snap, "")
	if result.QueryIntent != 50.0 {
		t.Errorf("expected neutral query intent score of 50, got %f", result.QueryIntent)
	}
}

func TestScoreNoMetadataIsZero(t *testing.T) {
	e := embedding.NewLocalEngine(32, 8)
	s := New(e, testWeights())
	text := strings.Repeat("Content with no title or description at all. ", 20)
	snap := &models.PageSnapshot{URL: "https://example.com", Text: text}

	result := s.Score(context.Background(), snap, "")
	if result.MetadataAlignment != 0 {
		t.Errorf("expected zero metadata alignment without title/description, got %f", result.MetadataAlignment)
	}
}

func TestRecommendationsIncludePraiseWhenAllHigh(t *testing.T) {
	c := &models.ContentScore{
		MetadataAlignment:         80,
		HierarchicalDecomposition: 80,
		ThematicUnity:             80,
		Balance:                   80,
		QueryIntent:               80,
		StructuralCoherence:       80,
	}
	recs := recommendations(c)
	found := false
	for _, r := range recs {
		if strings.Contains(r, "Excellent content") {
			found = true
		}
	}
	if !found {
		t.Error("expected praise recommendation when all dimensions exceed threshold")
	}
}

func TestChunkDiscardsShortFragmentsUnlessWholeDocShort(t *testing.T) {
	short := "tiny"
	chunks := Chunk(short)
	if len(chunks) != 1 || chunks[0] != short {
		t.Fatalf("expected whole short document kept as one chunk, got %v", chunks)
	}
}

func TestChunkLongTextProducesMultipleChunks(t *testing.T) {
	text := strings.Repeat("This is a sentence in a long document about widgets. ", 50)
	chunks := Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) < minChunkSize {
			t.Errorf("chunk shorter than minChunkSize: %d", len(c))
		}
	}
}
