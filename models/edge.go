package models

// CompatibilityEdge is a directed pairwise compatibility score between two
// catalog products, produced by the offline scoring pipeline. By convention
// TargetSlot equals the functional slot of Sku2. Scores live in [0,1] with
// three decimal digits of precision.
type CompatibilityEdge struct {
	JsonModel
	Sku1       string  `gorm:"index:idx_edge_sku1;index:idx_edge_pair,unique" json:"sku_1"`
	Sku2       string  `gorm:"index:idx_edge_pair,unique" json:"sku_2"`
	TargetSlot string  `json:"target_slot"`
	Score      float64 `json:"score"`
}

// PrecomputedLook stores a fully materialized looks response for one anchor,
// written by the worker and served read-only by the API.
type PrecomputedLook struct {
	JsonModel
	SkuID    string `gorm:"uniqueIndex;not null" json:"sku_id"`
	NumLooks int    `json:"num_looks"`
	Payload  []byte `gorm:"type:jsonb" json:"payload"`
}
