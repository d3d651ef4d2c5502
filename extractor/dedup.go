package extractor

import (
	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/simhash"
)

// nearDuplicateThreshold is the maximum Hamming distance between two
// SimHash fingerprints for their source snapshots to be considered
// near-duplicates.
const nearDuplicateThreshold = 7

// NearDuplicate reports whether two competitor snapshots carry
// substantially the same text, so the orchestrator can skip redundant
// content before scoring.
func NearDuplicate(a, b *models.PageSnapshot) bool {
	fpA := simhash.Fingerprint(a.Text)
	fpB := simhash.Fingerprint(b.Text)
	return simhash.Similar(fpA, fpB, nearDuplicateThreshold)
}
