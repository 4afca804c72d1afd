package services

import "lookbookapi/models"

// ValidityConfig tunes the anchor/candidate compatibility filter.
type ValidityConfig struct {
	// FormalitySpread is the maximum absolute difference between formality
	// scores before a candidate is rejected. Zero-scored products skip the
	// check entirely.
	FormalitySpread int

	// StrictAesthetics additionally requires an aesthetic overlap between
	// anchor and candidate.
	StrictAesthetics bool

	// EmptySetMatchesAll treats an empty occasion or season set as matching
	// everything instead of nothing.
	EmptySetMatchesAll bool
}

// ValidPair decides whether a candidate may appear in looks built around the
// anchor. Both products must be non-nil.
func ValidPair(anchor, candidate *models.Product, cfg ValidityConfig) bool {
	if anchor.Slot() == candidate.Slot() {
		return false
	}
	if !setsOverlap(anchor.Occasion, candidate.Occasion, cfg.EmptySetMatchesAll) {
		return false
	}
	if !setsOverlap(anchor.Season, candidate.Season, cfg.EmptySetMatchesAll) {
		return false
	}
	if anchor.FormalityScore > 0 && candidate.FormalityScore > 0 {
		diff := anchor.FormalityScore - candidate.FormalityScore
		if diff < 0 {
			diff = -diff
		}
		if diff > cfg.FormalitySpread {
			return false
		}
	}
	if cfg.StrictAesthetics {
		if !setsOverlap(anchor.FashionAesthetics, candidate.FashionAesthetics, cfg.EmptySetMatchesAll) {
			return false
		}
	}
	return true
}

func setsOverlap(a, b []string, emptyMatchesAll bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return emptyMatchesAll
	}
	return models.OverlapFold(a, b)
}
