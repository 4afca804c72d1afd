package services

import "strings"

// Color tables for the color-strategy dimension and the accessory palette
// rule. These are constants, not configuration.

var neutralColors = map[string]bool{
	"black": true,
	"white": true,
	"gray":  true,
	"grey":  true,
	"navy":  true,
	"beige": true,
	"cream": true,
	"brown": true,
	"tan":   true,
}

var warmColors = map[string]bool{
	"red":    true,
	"orange": true,
	"yellow": true,
	"brown":  true,
	"beige":  true,
}

var coolColors = map[string]bool{
	"blue":   true,
	"navy":   true,
	"green":  true,
	"teal":   true,
	"purple": true,
}

func normalizeColor(color string) string {
	return strings.ToLower(strings.TrimSpace(color))
}

// IsNeutralColor reports whether the color belongs to the neutral palette.
// The empty color is not neutral; it is unknown.
func IsNeutralColor(color string) bool {
	return neutralColors[normalizeColor(color)]
}

func isWarmColor(color string) bool {
	return warmColors[normalizeColor(color)]
}

func isCoolColor(color string) bool {
	return coolColors[normalizeColor(color)]
}

// SameColor compares two colors case-insensitively, treating gray and grey
// as the same color.
func SameColor(a, b string) bool {
	na, nb := normalizeColor(a), normalizeColor(b)
	if na == "grey" {
		na = "gray"
	}
	if nb == "grey" {
		nb = "gray"
	}
	return na != "" && na == nb
}

// SameHueFamily reports whether two colors sit in the same warm or cool
// family. Neutral-only colors (black, white, gray...) have no hue family.
func SameHueFamily(a, b string) bool {
	if isWarmColor(a) && isWarmColor(b) {
		return true
	}
	if isCoolColor(a) && isCoolColor(b) {
		return true
	}
	return false
}

// IsAccentPair reports whether two colors form a cross-family accent pair
// (warm against cool, in either direction).
func IsAccentPair(a, b string) bool {
	if isWarmColor(a) && isCoolColor(b) {
		return true
	}
	if isCoolColor(a) && isWarmColor(b) {
		return true
	}
	return false
}

// Palette strategies recognized by the accessory color rule.
const (
	paletteNone       = ""
	paletteMonochrome = "monochrome"
	paletteNeutral    = "neutral"
	paletteAccent     = "accent"
)

// classifyPalette inspects the colors of the non-accessory items already in
// a look and names the strategy they follow. Unknown (empty) colors are
// ignored; a palette nobody can classify constrains nothing.
func classifyPalette(colors []string) (strategy string, palette []string) {
	known := make([]string, 0, len(colors))
	for _, c := range colors {
		if normalizeColor(c) != "" {
			known = append(known, c)
		}
	}
	if len(known) == 0 {
		return paletteNone, nil
	}

	allSame := true
	allNeutral := true
	hasWarm := false
	hasCool := false
	for _, c := range known {
		if !SameColor(c, known[0]) {
			allSame = false
		}
		if !IsNeutralColor(c) {
			allNeutral = false
			if isWarmColor(c) {
				hasWarm = true
			}
			if isCoolColor(c) {
				hasCool = true
			}
		}
	}

	switch {
	case allSame:
		return paletteMonochrome, known[:1]
	case allNeutral:
		return paletteNeutral, known
	case hasWarm && hasCool:
		return paletteAccent, known
	default:
		return paletteNone, nil
	}
}

// accessoryColorAllowed applies the accessory palette rule: on a monochrome
// or neutral palette the accessory must be neutral or a palette color; on an
// accent palette it must be neutral or one of the accent colors.
func accessoryColorAllowed(accessoryColor string, strategy string, palette []string) bool {
	if strategy == paletteNone || normalizeColor(accessoryColor) == "" {
		return true
	}
	if IsNeutralColor(accessoryColor) {
		return true
	}
	switch strategy {
	case paletteMonochrome, paletteNeutral:
		for _, c := range palette {
			if SameColor(accessoryColor, c) {
				return true
			}
		}
		return false
	case paletteAccent:
		for _, c := range palette {
			if !IsNeutralColor(c) && SameColor(accessoryColor, c) {
				return true
			}
		}
		return false
	}
	return true
}
