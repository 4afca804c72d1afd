package models

// LookItem is a single product inside a look, shaped for the wire.
type LookItem struct {
	SkuID    string `json:"sku_id"`
	Title    string `json:"title"`
	Brand    string `json:"brand"`
	ImageURL string `json:"image_url"`
	Type     string `json:"type"`
	Color    string `json:"color"`
	Slot     string `json:"slot"`
}

// Look is one assembled outfit. Looks in a response are peers: Coherence is
// informational and must not be used to rank them against each other.
type Look struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Dimension      string              `json:"dimension"`
	DimensionValue string              `json:"dimension_value"`
	Coherence      float64             `json:"coherence"`
	Items          map[string]LookItem `json:"items"` // lowercased slot -> item
	SlotsFilled    []string            `json:"slots_filled"`
}

// LooksResponse is the materialized result for one (anchor, numLooks)
// fingerprint. Cached instances are frozen; enrich copies, never the original.
type LooksResponse struct {
	Anchor     Product `json:"anchor"`
	Looks      []Look  `json:"looks"`
	TotalLooks int     `json:"total_looks"`
}

type CompatibleItem struct {
	SkuID   string   `json:"sku_id"`
	Score   float64  `json:"score"`
	Slot    string   `json:"slot"`
	Product *Product `json:"product,omitempty"`
}

type CompatibilityResponse struct {
	SourceSku       string           `json:"source_sku"`
	Slot            string           `json:"slot,omitempty"`
	CompatibleItems []CompatibleItem `json:"compatible_items"`
	TotalCount      int              `json:"total_count"`
}

type OutfitScoreIn struct {
	SkuIDs []string `json:"sku_ids" validate:"required,min=2,max=10"`
}

type OutfitScoreResponse struct {
	SkuIDs       []string           `json:"sku_ids"`
	TotalScore   float64            `json:"total_score"`
	PairScores   map[string]float64 `json:"pair_scores"`
	AverageScore float64            `json:"average_score"`
	PairCount    int                `json:"pair_count"`
}

type GraphStats struct {
	TotalProducts  int64   `json:"total_products"`
	TotalEdges     int64   `json:"total_edges"`
	UniqueAnchors  int64   `json:"unique_anchors"`
	AverageScore   float64 `json:"average_score"`
	PrecomputedFor int64   `json:"precomputed_for"`
}
