// Package scorer computes the eight-dimension content score for a
// PageSnapshot against its chunk embeddings and an optional query.
package scorer

import (
	"context"
	"math"
	"regexp"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/models"
)

var sentenceSplitRegexp = regexp.MustCompile(`(?:[.!?]+\s+)`)

// Recommendation thresholds, one per dimension in declaration order.
const (
	thresholdMetadata   = 70.0
	thresholdHierarchy  = 65.0
	thresholdThematic   = 60.0
	thresholdBalance    = 65.0
	thresholdIntent     = 70.0
	thresholdStructural = 65.0
	praiseThreshold     = 75.0
)

// Structural coherence weights and the progression-score scale. The scale
// and cap come from the scoring model this package reimplements: a mean
// per-distance similarity drop of 0.5 maps to a perfect 100 progression
// score, and the result is capped there.
const (
	flowWeight            = 40.0
	flowConsistencyScale  = 30.0
	progressionWeight     = 0.3
	progressionScoreCap   = 100.0
	progressionScale      = 200.0
	maxProgressionDist    = 4
)

// SEO sub-composite weights and traditional-factor bonuses.
const (
	seoWeightMetadata   = 0.25
	seoWeightThematic   = 0.25
	seoWeightIntent     = 0.30
	seoWeightStructural = 0.20
	seoBonusPerFactor   = 5.0
	seoGoodLengthMin    = 300
	seoGoodLengthMax    = 5000
)

// Scorer computes ContentScore for a PageSnapshot.
type Scorer struct {
	engine  embedding.Engine
	weights config.ScorerConfig
}

// New builds a Scorer using engine for chunk/metadata/query embedding and
// weights for the composite score.
func New(engine embedding.Engine, weights config.ScorerConfig) *Scorer {
	return &Scorer{engine: engine, weights: weights}
}

// Score computes the full eight-dimension result for snap. query may be
// empty, in which case QueryIntent is neutral.
func (s *Scorer) Score(ctx context.Context, snap *models.PageSnapshot, query string) *models.ContentScore {
	result := &models.ContentScore{URL: snap.URL}

	chunks := Chunk(snap.Text)
	if len(chunks) == 0 {
		result.Error = "No content to analyze"
		return result
	}

	E, err := s.engine.Encode(ctx, chunks)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	centroid := embedding.Centroid(E)
	centroidVec := mat.NewVecDense(len(centroid), centroid)

	result.MetadataAlignment = s.scoreMetadataAlignment(ctx, snap, centroidVec)
	result.HierarchicalDecomposition = scoreHierarchicalDecomposition(E)

	thematic, outliers := scoreThematicUnity(E)
	result.ThematicUnity = thematic
	result.OutlierChunks = outliers

	result.Balance = scoreBalance(chunks, E)

	if query != "" {
		intent, topChunks, err := s.scoreQueryIntent(ctx, query, E)
		if err != nil {
			result.QueryIntent = 0
		} else {
			result.QueryIntent = intent
			result.TopAlignedChunks = topChunks
		}
	} else {
		result.QueryIntent = 50.0
	}

	result.StructuralCoherence = scoreStructuralCoherence(chunks, E)

	result.CompositeScore = s.weights.WeightMetadata*result.MetadataAlignment +
		s.weights.WeightHierarchy*result.HierarchicalDecomposition +
		s.weights.WeightThematic*result.ThematicUnity +
		s.weights.WeightBalance*result.Balance +
		s.weights.WeightIntent*result.QueryIntent +
		s.weights.WeightStructural*result.StructuralCoherence

	result.SEOScore = seoScore(result, snap.Title, snap.MetaDescription, snap.Text)
	result.Recommendations = recommendations(result)

	return result
}

func (s *Scorer) scoreMetadataAlignment(ctx context.Context, snap *models.PageSnapshot, centroid mat.Vector) float64 {
	var texts []string
	if snap.Title != "" {
		texts = append(texts, snap.Title)
	}
	if snap.MetaDescription != "" {
		texts = append(texts, snap.MetaDescription)
	}
	if len(texts) == 0 {
		return 0
	}

	M, err := s.engine.Encode(ctx, texts)
	if err != nil {
		return 0
	}
	rows, _ := M.Dims()
	var sum float64
	for i := 0; i < rows; i++ {
		sum += embedding.Similarity(M.RowView(i), centroid)
	}
	return (sum / float64(rows)) * 100
}

func scoreHierarchicalDecomposition(E *mat.Dense) float64 {
	rows, _ := E.Dims()
	if rows < 2 {
		return 50.0
	}
	seq := sequentialSimilarities(E, 1)

	mu := stat.Mean(seq, nil)
	sigma := stat.StdDev(seq, nil)

	simScore := math.Max(0, 1-math.Abs(mu-0.6)/0.3) * 100
	consistencyScore := math.Max(0, 1-sigma/0.2) * 100

	return simScore*0.6 + consistencyScore*0.4
}

func scoreThematicUnity(E *mat.Dense) (float64, []int) {
	rows, _ := E.Dims()
	if rows < 2 {
		return 50.0, nil
	}
	S := embedding.SimilarityMatrix(E)

	var offDiagSum float64
	var offDiagCount int
	rowMeans := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var rowSum float64
		for j := 0; j < rows; j++ {
			v := S.At(i, j)
			rowSum += v
			if i != j {
				offDiagSum += v
				offDiagCount++
			}
		}
		rowMeans[i] = rowSum / float64(rows)
	}

	avgSimilarity := offDiagSum / float64(offDiagCount)
	score := avgSimilarity * 100

	meanRowMeans := stat.Mean(rowMeans, nil)
	stdRowMeans := stat.StdDev(rowMeans, nil)
	threshold := meanRowMeans - 1.5*stdRowMeans

	var outliers []int
	for i, m := range rowMeans {
		if m < threshold {
			outliers = append(outliers, i)
		}
	}

	return score, outliers
}

func scoreBalance(chunks []string, E *mat.Dense) float64 {
	if len(chunks) < 3 {
		return 50.0
	}

	sizes := make([]float64, len(chunks))
	for i, c := range chunks {
		sizes[i] = float64(len(c))
	}
	meanSize := stat.Mean(sizes, nil)
	stdSize := stat.StdDev(sizes, nil)

	sizeCV := 1.0
	if meanSize > 0 {
		sizeCV = stdSize / meanSize
	}
	sizeScore := math.Max(0, 1-sizeCV) * 100

	rows, _ := E.Dims()
	S := embedding.SimilarityMatrix(E)
	rowMeans := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var sum float64
		for j := 0; j < rows; j++ {
			sum += S.At(i, j)
		}
		rowMeans[i] = sum / float64(rows)
	}
	diversityScore := (1 - stat.StdDev(rowMeans, nil)) * 100

	return sizeScore*0.4 + diversityScore*0.6
}

func (s *Scorer) scoreQueryIntent(ctx context.Context, query string, E *mat.Dense) (float64, []int, error) {
	q, err := embedding.EncodeOne(ctx, s.engine, query)
	if err != nil {
		return 0, nil, err
	}
	qv := mat.NewVecDense(len(q), q)

	rows, _ := E.Dims()
	sims := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sims[i] = embedding.Similarity(qv, E.RowView(i))
	}

	meanSim := stat.Mean(sims, nil)
	maxSim := floatMax(sims)
	score := (0.6*meanSim + 0.4*maxSim) * 100

	top := embedding.TopK([]float64(q), E, 3)
	return score, top, nil
}

func scoreStructuralCoherence(chunks []string, E *mat.Dense) float64 {
	if len(chunks) < 3 {
		return 50.0
	}

	seq := sequentialSimilarities(E, 1)
	avgFlow := stat.Mean(seq, nil)
	flowConsistency := 1 - stat.StdDev(seq, nil)

	maxDist := maxProgressionDist
	if n := len(chunks) - 1; n < maxDist {
		maxDist = n
	}

	var distanceMeans []float64
	for d := 1; d <= maxDist; d++ {
		sims := sequentialSimilarities(E, d)
		if len(sims) == 0 {
			continue
		}
		distanceMeans = append(distanceMeans, stat.Mean(sims, nil))
	}

	progressionScore := 50.0
	if len(distanceMeans) > 1 {
		var diffs []float64
		for i := 1; i < len(distanceMeans); i++ {
			diffs = append(diffs, distanceMeans[i]-distanceMeans[i-1])
		}
		progression := -stat.Mean(diffs, nil)
		progressionScore = math.Min(progressionScoreCap, math.Max(0, progression*progressionScale))
	}

	return avgFlow*flowWeight + flowConsistency*flowConsistencyScale + progressionScore*progressionWeight
}

// sequentialSimilarities returns s(E[i], E[i+dist]) for every valid i.
func sequentialSimilarities(E *mat.Dense, dist int) []float64 {
	rows, _ := E.Dims()
	if rows-dist <= 0 {
		return nil
	}
	out := make([]float64, 0, rows-dist)
	for i := 0; i < rows-dist; i++ {
		out = append(out, embedding.Similarity(E.RowView(i), E.RowView(i+dist)))
	}
	return out
}

func seoScore(c *models.ContentScore, title, description, text string) float64 {
	sub := c.MetadataAlignment*seoWeightMetadata +
		c.ThematicUnity*seoWeightThematic +
		c.QueryIntent*seoWeightIntent +
		c.StructuralCoherence*seoWeightStructural

	var bonus float64
	if title != "" {
		bonus += seoBonusPerFactor
	}
	if description != "" {
		bonus += seoBonusPerFactor
	}
	if n := len(text); n >= seoGoodLengthMin && n <= seoGoodLengthMax {
		bonus += seoBonusPerFactor
	}

	return math.Min(100, sub+bonus)
}

func recommendations(c *models.ContentScore) []string {
	var recs []string
	if c.MetadataAlignment < thresholdMetadata {
		recs = append(recs, "Improve metadata alignment: ensure title and description accurately reflect main content themes")
	}
	if c.HierarchicalDecomposition < thresholdHierarchy {
		recs = append(recs, "Enhance content structure: use clear headings and logical progression between sections")
	}
	if c.ThematicUnity < thresholdThematic {
		recs = append(recs, "Strengthen thematic unity: remove off-topic content and maintain focus on core themes")
	}
	if c.Balance < thresholdBalance {
		recs = append(recs, "Improve content balance: distribute content more evenly across sections")
	}
	if c.QueryIntent < thresholdIntent {
		recs = append(recs, "Better target query intent: include more content directly addressing the search query")
	}
	if c.StructuralCoherence < thresholdStructural {
		recs = append(recs, "Enhance structural coherence: improve logical flow and transitions between sections")
	}

	if c.MetadataAlignment > praiseThreshold && c.HierarchicalDecomposition > praiseThreshold &&
		c.ThematicUnity > praiseThreshold && c.Balance > praiseThreshold &&
		c.QueryIntent > praiseThreshold && c.StructuralCoherence > praiseThreshold {
		recs = append(recs, "Excellent content: maintain current quality and continue optimizing for target keywords")
	}

	return recs
}

func floatMax(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}
