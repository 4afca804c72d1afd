package services

import (
	"sort"
	"strconv"
	"strings"

	"lookbookapi/models"
)

// Clustering dimensions in priority order.
const (
	DimensionOccasion  = "occasion"
	DimensionAesthetic = "aesthetic"
	DimensionColor     = "color"
	DimensionFormality = "formality"
)

// Color strategy cluster values.
const (
	ColorValueMonochrome = "Monochrome"
	ColorValueNeutral    = "Neutral"
	ColorValueAccent     = "Accent"
	ColorValueTonal      = "Tonal"
)

// Candidate is a validity-filtered neighbor of the anchor together with its
// anchor edge score.
type Candidate struct {
	Product models.Product
	Score   float64
	Slot    string
}

// Cluster groups candidates that share one value along one dimension. The
// same candidate may appear in many clusters.
type Cluster struct {
	Dimension  string
	Value      string
	Candidates []Candidate

	anchorColor string
}

// Matches reports whether a product agrees with the cluster's dimension
// value. The assembler uses it for the dimension bonus, the scorer for the
// dimension agreement term.
func (c *Cluster) Matches(p *models.Product) bool {
	switch c.Dimension {
	case DimensionOccasion:
		return p.HasOccasion(c.Value)
	case DimensionAesthetic:
		return p.HasAesthetic(c.Value)
	case DimensionFormality:
		return p.FormalityScore > 0 && strconv.Itoa(p.FormalityScore) == c.Value
	case DimensionColor:
		switch c.Value {
		case ColorValueMonochrome:
			return SameColor(p.PrimaryColor, c.anchorColor)
		case ColorValueNeutral:
			return IsNeutralColor(p.PrimaryColor)
		case ColorValueAccent:
			return IsAccentPair(p.PrimaryColor, c.anchorColor)
		case ColorValueTonal:
			return SameHueFamily(p.PrimaryColor, c.anchorColor)
		}
	}
	return false
}

func (c *Cluster) meanScore() float64 {
	if len(c.Candidates) == 0 {
		return 0
	}
	sum := 0.0
	for _, cand := range c.Candidates {
		sum += cand.Score
	}
	return sum / float64(len(c.Candidates))
}

func (c *Cluster) distinctSlots() int {
	slots := map[string]bool{}
	for _, cand := range c.Candidates {
		slots[cand.Slot] = true
	}
	return len(slots)
}

// SkuSet returns the set of candidate sku ids in the cluster.
func (c *Cluster) SkuSet() map[string]bool {
	set := make(map[string]bool, len(c.Candidates))
	for _, cand := range c.Candidates {
		set[cand.Product.SkuID] = true
	}
	return set
}

// DisplayName renders the cluster for look naming, e.g. "Gym Occasion",
// "Monochrome Color" or "3 Formality".
func (c *Cluster) DisplayName() string {
	return titleCase(c.Value) + " " + titleCase(c.Dimension)
}

func titleCase(value string) string {
	words := strings.Fields(strings.ToLower(value))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BuildClusters groups candidates along each dimension in priority order:
// occasion, then aesthetic, then color strategy, then formality. Cluster
// values come from the anchor: its occasion and aesthetic tags, its color,
// its formality score plus or minus one. Clusters with fewer than two
// distinct slots are dropped as unviable. Within a dimension, clusters are
// ordered by mean anchor score descending, then size descending, then value
// ascending; candidates inside each cluster by anchor score descending, then
// sku ascending.
func BuildClusters(anchor *models.Product, candidates []Candidate) []*Cluster {
	var clusters []*Cluster
	clusters = append(clusters, tagClusters(DimensionOccasion, anchor.Occasion, candidates,
		func(c Candidate, value string) bool { return c.Product.HasOccasion(value) })...)
	clusters = append(clusters, tagClusters(DimensionAesthetic, anchor.FashionAesthetics, candidates,
		func(c Candidate, value string) bool { return c.Product.HasAesthetic(value) })...)
	clusters = append(clusters, colorClusters(anchor, candidates)...)
	clusters = append(clusters, formalityClusters(anchor, candidates)...)
	return clusters
}

func tagClusters(dimension string, anchorTags []string, candidates []Candidate, has func(Candidate, string) bool) []*Cluster {
	byValue := map[string]*Cluster{}
	for _, raw := range anchorTags {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := byValue[key]; ok {
			continue
		}
		cluster := &Cluster{Dimension: dimension, Value: value}
		for _, cand := range candidates {
			if has(cand, value) {
				cluster.Candidates = append(cluster.Candidates, cand)
			}
		}
		byValue[key] = cluster
	}
	return finishClusters(byValue)
}

func colorClusters(anchor *models.Product, candidates []Candidate) []*Cluster {
	anchorColor := anchor.PrimaryColor
	byValue := map[string]*Cluster{}
	add := func(value string, cand Candidate) {
		cluster, ok := byValue[value]
		if !ok {
			cluster = &Cluster{Dimension: DimensionColor, Value: value, anchorColor: anchorColor}
			byValue[value] = cluster
		}
		cluster.Candidates = append(cluster.Candidates, cand)
	}
	for _, cand := range candidates {
		color := cand.Product.PrimaryColor
		if SameColor(color, anchorColor) {
			add(ColorValueMonochrome, cand)
		}
		if IsNeutralColor(color) {
			add(ColorValueNeutral, cand)
		}
		if IsAccentPair(color, anchorColor) {
			add(ColorValueAccent, cand)
		}
		if SameHueFamily(color, anchorColor) {
			add(ColorValueTonal, cand)
		}
	}
	return finishClusters(byValue)
}

// formalityClusters builds one cluster per formality value within one step
// of the anchor's score, clamped to the 1..5 scale. An anchor without a
// formality score gets no formality clusters.
func formalityClusters(anchor *models.Product, candidates []Candidate) []*Cluster {
	if anchor.FormalityScore <= 0 {
		return nil
	}
	byValue := map[string]*Cluster{}
	for score := anchor.FormalityScore - 1; score <= anchor.FormalityScore+1; score++ {
		if score < 1 || score > 5 {
			continue
		}
		cluster := &Cluster{Dimension: DimensionFormality, Value: strconv.Itoa(score)}
		for _, cand := range candidates {
			if cand.Product.FormalityScore == score {
				cluster.Candidates = append(cluster.Candidates, cand)
			}
		}
		byValue[cluster.Value] = cluster
	}
	return finishClusters(byValue)
}

func finishClusters(byValue map[string]*Cluster) []*Cluster {
	clusters := make([]*Cluster, 0, len(byValue))
	for _, cluster := range byValue {
		if cluster.distinctSlots() < 2 {
			continue
		}
		sort.SliceStable(cluster.Candidates, func(i, j int) bool {
			if cluster.Candidates[i].Score != cluster.Candidates[j].Score {
				return cluster.Candidates[i].Score > cluster.Candidates[j].Score
			}
			return cluster.Candidates[i].Product.SkuID < cluster.Candidates[j].Product.SkuID
		})
		clusters = append(clusters, cluster)
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		mi, mj := clusters[i].meanScore(), clusters[j].meanScore()
		if mi != mj {
			return mi > mj
		}
		if len(clusters[i].Candidates) != len(clusters[j].Candidates) {
			return len(clusters[i].Candidates) > len(clusters[j].Candidates)
		}
		return clusters[i].Value < clusters[j].Value
	})
	return clusters
}

// ClusterSelector walks the ordered cluster list, skipping clusters already
// consumed and clusters whose candidate set is subsumed by a look that was
// already emitted.
type ClusterSelector struct {
	clusters []*Cluster
	next     int
	emitted  []map[string]bool
}

func NewClusterSelector(clusters []*Cluster) *ClusterSelector {
	return &ClusterSelector{clusters: clusters}
}

// Next returns the next usable cluster, or nil when the list is exhausted.
func (s *ClusterSelector) Next() *Cluster {
	for s.next < len(s.clusters) {
		cluster := s.clusters[s.next]
		s.next++
		if s.subsumed(cluster) {
			continue
		}
		return cluster
	}
	return nil
}

// Emit records the member skus of an accepted look so later clusters that
// could only reproduce it are skipped.
func (s *ClusterSelector) Emit(skus map[string]bool) {
	s.emitted = append(s.emitted, skus)
}

func (s *ClusterSelector) subsumed(cluster *Cluster) bool {
	set := cluster.SkuSet()
	for _, look := range s.emitted {
		covered := true
		for sku := range set {
			if !look[sku] {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}
