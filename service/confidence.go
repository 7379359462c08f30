package service

import "legid-backend/models"

// Confidence adjustments. Tunable, not calibrated probabilities.
const (
	confidenceBase            = 0.5
	confidenceJurisdiction    = 0.1
	confidenceEvidence        = 0.15
	confidenceGate            = 0.2
	confidenceBannedPenalty   = 0.15
	confidenceCitationPenalty = 0.1
	confidenceFloor           = 0.3
	confidenceCeiling         = 0.99

	highJurisdictionConfidence = 0.8
	evidenceChunksForBonus     = 5
)

// ConfidenceInputs are the signals the confidence heuristic reads
type ConfidenceInputs struct {
	JurisdictionConfidence float64
	ChunksFound            int
	GatePassed             bool
	BannedHits             int
	CitationViolations     int
}

// Confidence derives the response confidence, clamped to [0.3, 0.99]
func Confidence(in ConfidenceInputs) float64 {
	c := confidenceBase
	if in.JurisdictionConfidence > highJurisdictionConfidence {
		c += confidenceJurisdiction
	}
	if in.ChunksFound >= evidenceChunksForBonus {
		c += confidenceEvidence
	}
	if in.GatePassed {
		c += confidenceGate
	}
	if in.BannedHits > 0 {
		c -= confidenceBannedPenalty
	}
	if in.CitationViolations > 0 {
		c -= confidenceCitationPenalty
	}
	return clamp(c, confidenceFloor, confidenceCeiling)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// citationsFor joins the used citation claims with the chunks they cite.
// A claim citing several chunks yields one citation per known chunk.
func citationsFor(used []models.CitationMapping, evidence models.RetrievalResult) []models.Citation {
	out := make([]models.Citation, 0, len(used))
	for _, cm := range used {
		for _, id := range cm.SupportingChunkIDs {
			chunk, ok := evidence.ChunkByID(id)
			if !ok {
				continue
			}
			out = append(out, models.Citation{
				Claim:     cm.Claim,
				ChunkID:   chunk.ID,
				Source:    chunk.Source,
				URL:       chunk.URL,
				Authority: chunk.AuthorityLevel,
			})
		}
	}
	return out
}
