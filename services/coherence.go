package services

import "math"

// Coherence weights. Pairwise compatibility dominates; dimension agreement
// and slot coverage temper it.
const (
	coherencePairwiseWeight  = 0.5
	coherenceDimensionWeight = 0.3
	coherenceCoverageWeight  = 0.2

	// dimensionBonusWeight rewards candidates that agree with the active
	// cluster during assembly.
	dimensionBonusWeight = 0.3

	// totalSlots is the number of wardrobe slots a look could fill.
	totalSlots = 6
)

// PairScoreTable is an order-independent view over stored pair scores.
type PairScoreTable map[string]float64

// Score returns the stored score for a pair in either direction.
func (t PairScoreTable) Score(a, b string) (float64, bool) {
	score, ok := t[PairKey(a, b)]
	return score, ok
}

// CoherenceIncrement ranks a candidate against the items already placed in a
// partial look: the mean of its known edge scores to them, plus a weighted
// bonus for the fraction of the would-be look (members plus candidate) that
// agrees with the cluster's dimension value. Missing edges count as zero.
func CoherenceIncrement(candidateSku string, memberSkus []string, scores PairScoreTable, dimensionMatches int) float64 {
	if len(memberSkus) == 0 {
		return 0
	}
	sum := 0.0
	for _, member := range memberSkus {
		if score, ok := scores.Score(candidateSku, member); ok {
			sum += score
		}
	}
	increment := sum / float64(len(memberSkus))
	agreement := float64(dimensionMatches) / float64(len(memberSkus)+1)
	return increment + dimensionBonusWeight*agreement
}

// LookCoherence blends the mean pairwise score over all member pairs, the
// fraction of members agreeing with the cluster dimension, and the fraction
// of slots filled. The result is rounded to three decimals for the wire.
func LookCoherence(memberSkus []string, scores PairScoreTable, dimensionMatches int, slotsFilled int) float64 {
	meanPairwise := 0.0
	pairs := 0
	sum := 0.0
	for i := 0; i < len(memberSkus); i++ {
		for j := i + 1; j < len(memberSkus); j++ {
			pairs++
			if score, ok := scores.Score(memberSkus[i], memberSkus[j]); ok {
				sum += score
			}
		}
	}
	if pairs > 0 {
		meanPairwise = sum / float64(pairs)
	}

	agreement := 0.0
	if len(memberSkus) > 0 {
		agreement = float64(dimensionMatches) / float64(len(memberSkus))
	}
	coverage := float64(slotsFilled) / float64(totalSlots)

	return Round3(coherencePairwiseWeight*meanPairwise +
		coherenceDimensionWeight*agreement +
		coherenceCoverageWeight*coverage)
}

// Round3 rounds to three decimal places, the precision used on the wire.
func Round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
