package services

import (
	"lookbookapi/models"
)

// AssemblyConfig tunes the per-look pairwise rules.
type AssemblyConfig struct {
	// IntraFormalitySpread is the maximum formality score difference allowed
	// between any two items inside one look.
	IntraFormalitySpread int
}

// AssembledLook is the output of one successful assembly pass: the anchor
// plus at most one product per remaining slot.
type AssembledLook struct {
	Cluster *Cluster
	// Items maps normalized slot names to the product occupying the slot,
	// anchor included.
	Items map[string]models.Product
	// MemberSkus lists every member sku, anchor first, then assembly order.
	MemberSkus []string
	// SlotsFilled lists the filled slots in the fixed wardrobe order.
	SlotsFilled []string
	// DimensionMatches counts members agreeing with the cluster value,
	// anchor included.
	DimensionMatches int
	// Coherence is the blended look score, rounded to three decimals.
	Coherence float64
}

// SkuSet returns the member skus as a set.
func (l *AssembledLook) SkuSet() map[string]bool {
	set := make(map[string]bool, len(l.MemberSkus))
	for _, sku := range l.MemberSkus {
		set[sku] = true
	}
	return set
}

// Closed outerwear categories that clash with a statement top underneath.
var closedOuterwearCategories = map[string]bool{
	"hoodie":     true,
	"knit":       true,
	"puffer":     true,
	"zip jacket": true,
}

func isStatementTop(p *models.Product) bool {
	return p.StatementPiece && p.Slot() == models.NormalizeSlot(models.SlotBaseTop)
}

func isBottomSlot(slot string) bool {
	return slot == models.NormalizeSlot(models.SlotPrimaryBottom) ||
		slot == models.NormalizeSlot(models.SlotSecondaryBottom)
}

func isClosedOuterwear(p *models.Product) bool {
	if p.Slot() != models.NormalizeSlot(models.SlotOuterwear) {
		return false
	}
	return closedOuterwearCategories[models.NormalizeSlot(p.Category)]
}

// pairConflict applies the symmetric pairwise rules between two products
// already destined for the same look.
func pairConflict(a, b *models.Product, cfg AssemblyConfig) bool {
	if a.SkuID == b.SkuID {
		return true
	}
	if a.FormalityScore > 0 && b.FormalityScore > 0 {
		diff := a.FormalityScore - b.FormalityScore
		if diff < 0 {
			diff = -diff
		}
		if diff > cfg.IntraFormalitySpread {
			return true
		}
	}
	if statementTopClash(a, b) || statementTopClash(b, a) {
		return true
	}
	return false
}

// statementTopClash rejects sporty bottoms and closed outerwear next to a
// statement base top. The top already carries the outfit; the rest recedes.
func statementTopClash(top, other *models.Product) bool {
	if !isStatementTop(top) {
		return false
	}
	if isBottomSlot(other.Slot()) && other.HasAesthetic("Athletic") {
		return true
	}
	if isClosedOuterwear(other) {
		return true
	}
	return false
}

// AssembleLook fills slots around the anchor from one cluster's candidates,
// greedily by coherence increment, honoring the pairwise rules. It returns
// nil when the result would not stand as an outfit: a look needs at least
// three items and either footwear or an accessory.
//
// The function is pure: it reads the anchor, cluster, scores and config and
// touches no shared state, so callers may run it from multiple goroutines.
func AssembleLook(anchor *models.Product, cluster *Cluster, scores PairScoreTable, cfg AssemblyConfig) *AssembledLook {
	anchorSlot := anchor.Slot()
	members := []models.Product{*anchor}
	memberSkus := []string{anchor.SkuID}
	items := map[string]models.Product{anchorSlot: *anchor}
	matches := 0
	if cluster.Matches(anchor) {
		matches = 1
	}

	for _, slot := range models.AllSlots {
		normalized := models.NormalizeSlot(slot)
		if normalized == anchorSlot {
			continue
		}
		best := pickForSlot(normalized, members, memberSkus, matches, cluster, scores, cfg)
		if best == nil {
			continue
		}
		members = append(members, *best)
		memberSkus = append(memberSkus, best.SkuID)
		items[normalized] = *best
		if cluster.Matches(best) {
			matches++
		}
	}

	if len(members) < 3 {
		return nil
	}
	if !hasFinisher(items) {
		return nil
	}

	var filled []string
	for _, slot := range models.AllSlots {
		normalized := models.NormalizeSlot(slot)
		if _, ok := items[normalized]; ok {
			filled = append(filled, normalized)
		}
	}

	return &AssembledLook{
		Cluster:          cluster,
		Items:            items,
		MemberSkus:       memberSkus,
		SlotsFilled:      filled,
		DimensionMatches: matches,
		Coherence:        LookCoherence(memberSkus, scores, matches, len(filled)),
	}
}

// hasFinisher reports whether the look ends in footwear or an accessory. A
// look stopping at clothes alone reads unfinished.
func hasFinisher(items map[string]models.Product) bool {
	if _, ok := items[models.NormalizeSlot(models.SlotFootwear)]; ok {
		return true
	}
	_, ok := items[models.NormalizeSlot(models.SlotAccessory)]
	return ok
}

func pickForSlot(slot string, members []models.Product, memberSkus []string, memberMatches int, cluster *Cluster, scores PairScoreTable, cfg AssemblyConfig) *models.Product {
	var best *models.Product
	bestIncrement := -1.0
	for i := range cluster.Candidates {
		cand := &cluster.Candidates[i]
		if cand.Slot != slot {
			continue
		}
		if !admissible(&cand.Product, slot, members, cfg) {
			continue
		}
		matches := memberMatches
		if cluster.Matches(&cand.Product) {
			matches++
		}
		increment := CoherenceIncrement(cand.Product.SkuID, memberSkus, scores, matches)
		if increment > bestIncrement {
			bestIncrement = increment
			best = &cand.Product
		}
	}
	return best
}

func admissible(candidate *models.Product, slot string, members []models.Product, cfg AssemblyConfig) bool {
	for i := range members {
		if pairConflict(candidate, &members[i], cfg) {
			return false
		}
	}
	if slot == models.NormalizeSlot(models.SlotAccessory) {
		colors := make([]string, 0, len(members))
		for i := range members {
			colors = append(colors, members[i].PrimaryColor)
		}
		strategy, palette := classifyPalette(colors)
		if !accessoryColorAllowed(candidate.PrimaryColor, strategy, palette) {
			return false
		}
	}
	return true
}
