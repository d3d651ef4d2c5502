// Package gapanalyzer finds competitor phrases missing from a target's
// phrase universe and ranks them by estimated ranking impact.
package gapanalyzer

import (
	"context"
	"math"
	"sort"

	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/models"
)

// defaultTopN bounds how many gaps are returned, independent of how many
// qualify.
const defaultTopN = 50

const (
	significantFreqThreshold  = 3
	smallCompetitorSetSize    = 3
	smallCompetitorSetFreq    = 1
	queryRelevanceThreshold   = 0.6
	minCompetitorUsageFloor   = 2
	relaxedCompetitorThresh   = 4
	relaxedMinCompetitorUsage = 1
	competitorUsageFraction   = 0.25
	highImpactThreshold       = 5.0
	highPriorityImpact        = 10.0
	mediumPriorityImpact      = 5.0
)

// Analyzer computes semantic gaps between a target PhraseSet and a set of
// competitor PhraseSets.
type Analyzer struct {
	engine embedding.Engine
	topN   int
}

// New builds an Analyzer using engine to embed phrases and the query.
func New(engine embedding.Engine) *Analyzer {
	return &Analyzer{engine: engine, topN: defaultTopN}
}

// Analyze returns the ranked SemanticGap list and coverage stats for the
// target against competitorSets, given the project query.
func (a *Analyzer) Analyze(ctx context.Context, target *models.PhraseSet, competitorSets []*models.PhraseSet, query string) (*models.GapReport, error) {
	K := len(competitorSets)

	freq := make(map[string]int)
	display := make(map[string]string)
	sources := make(map[string][]string)
	for _, cs := range competitorSets {
		seenInThisSet := make(map[string]bool)
		for _, p := range cs.Phrases {
			if !seenInThisSet[p.Lower] {
				freq[p.Lower]++
				seenInThisSet[p.Lower] = true
			}
			if _, ok := display[p.Lower]; !ok {
				display[p.Lower] = p.Display
			}
			sources[p.Lower] = append(sources[p.Lower], cs.SourceURL)
		}
	}

	significantThreshold := significantFreqThreshold
	if K < smallCompetitorSetSize {
		significantThreshold = smallCompetitorSetFreq
	}

	significant := make(map[string]int)
	for phrase, count := range freq {
		if count >= significantThreshold {
			significant[phrase] = count
		}
	}

	targetLowers := target.Lowers()
	var missing []string
	for phrase := range significant {
		if _, ok := targetLowers[phrase]; !ok {
			missing = append(missing, phrase)
		}
	}
	sort.Strings(missing) // deterministic ordering before ranking

	report := &models.GapReport{
		Coverage: models.CoverageStats{
			YourUniquePhrases:       len(targetLowers),
			CompetitorCommonPhrases: len(significant),
			SemanticGapsFound:       len(missing),
		},
	}

	if len(missing) == 0 {
		return report, nil
	}

	texts := append([]string{query}, missing...)
	E, err := a.engine.Encode(ctx, texts)
	if err != nil {
		return nil, err
	}
	qv := E.RowView(0)

	minUsage := int(math.Max(minCompetitorUsageFloor, math.Ceil(competitorUsageFraction*float64(K))))
	if K < relaxedCompetitorThresh {
		minUsage = relaxedMinCompetitorUsage
	}

	var gaps []models.SemanticGap
	for i, phrase := range missing {
		pv := E.RowView(i + 1)
		relevance := embedding.Similarity(qv, pv)
		usage := freq[phrase]

		if relevance <= queryRelevanceThreshold {
			continue
		}
		if usage < minUsage {
			continue
		}

		impact := 10*relevance + 5*(float64(usage)/float64(K))

		gaps = append(gaps, models.SemanticGap{
			Phrase:          display[phrase],
			QuerySimilarity: relevance,
			CompetitorUsage: usage,
			EstimatedImpact: impact,
			Sources:         dedupStrings(sources[phrase]),
			Recommendation:  recommendationFor(impact),
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].EstimatedImpact > gaps[j].EstimatedImpact
	})

	if len(gaps) > a.topN {
		gaps = gaps[:a.topN]
	}
	report.Gaps = gaps

	var highImpact int
	for _, g := range gaps {
		if g.EstimatedImpact > highImpactThreshold {
			highImpact++
		}
	}
	report.Coverage.HighImpactRecommendations = highImpact

	return report, nil
}

func recommendationFor(impact float64) string {
	switch {
	case impact > highPriorityImpact:
		return "HIGH PRIORITY: add this concept to your content for significant impact"
	case impact > mediumPriorityImpact:
		return "MEDIUM PRIORITY: including this would improve relevance"
	default:
		return "LOW PRIORITY: minor improvement potential"
	}
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
