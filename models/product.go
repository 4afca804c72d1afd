package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wardrobe slots. A product occupies exactly one; a look holds at most one
// product per slot.
const (
	SlotBaseTop         = "Base Top"
	SlotOuterwear       = "Outerwear"
	SlotPrimaryBottom   = "Primary Bottom"
	SlotSecondaryBottom = "Secondary Bottom"
	SlotFootwear        = "Footwear"
	SlotAccessory       = "Accessory"
)

// AllSlots in the fixed assembly order used by the look assembler.
var AllSlots = []string{
	SlotOuterwear,
	SlotBaseTop,
	SlotPrimaryBottom,
	SlotSecondaryBottom,
	SlotFootwear,
	SlotAccessory,
}

// NormalizeSlot lowercases and trims a slot name for comparisons and wire keys.
func NormalizeSlot(slot string) string {
	return strings.ToLower(strings.TrimSpace(slot))
}

type Product struct {
	JsonModel
	SkuID          string  `gorm:"uniqueIndex;not null" json:"sku_id"`
	Title          string  `json:"title"`
	Brand          string  `json:"brand"`
	ImageURL       string  `json:"image_url"` // object key in the images bucket
	Type           string  `json:"type"`
	Category       string  `json:"category"`
	SubCategory    *string `json:"sub_category"`
	FunctionalSlot string  `gorm:"index" json:"functional_slot"`
	PrimaryColor   string  `json:"primary_color"`

	Occasion          pq.StringArray `gorm:"type:text[]" json:"occasion"`
	FashionAesthetics pq.StringArray `gorm:"type:text[]" json:"fashion_aesthetics"`
	Season            pq.StringArray `gorm:"type:text[]" json:"season"` // empty means all-season

	FormalityScore int    `json:"formality_score"` // 1..5, 0 when unset
	FormalityLevel string `json:"formality_level"`
	StatementPiece bool   `json:"statement_piece"`
}

// Slot returns the normalized functional slot.
func (p *Product) Slot() string {
	return NormalizeSlot(p.FunctionalSlot)
}

// HasOccasion reports whether the product carries the occasion value,
// case-insensitively.
func (p *Product) HasOccasion(value string) bool {
	return containsFold(p.Occasion, value)
}

// HasAesthetic reports whether the product carries the aesthetic value,
// case-insensitively.
func (p *Product) HasAesthetic(value string) bool {
	return containsFold(p.FashionAesthetics, value)
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// OverlapFold reports whether two tag sets share at least one value,
// case-insensitively.
func OverlapFold(a, b []string) bool {
	for _, v := range a {
		if containsFold(b, v) {
			return true
		}
	}
	return false
}
