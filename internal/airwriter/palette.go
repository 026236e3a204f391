// Package airwriter paints on an off-screen canvas from classified hand
// gestures.
package airwriter

import "image/color"

// Color is a named stroke color.
type Color struct {
	Name string
	Hex  string
	RGBA color.RGBA
}

// Palette is the cycle of stroke colors, in SelectColor order.
var Palette = []Color{
	{"White", "#FFFFFF", color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}},
	{"Red", "#FF1313", color.RGBA{0xFF, 0x13, 0x13, 0xFF}},
	{"Green", "#17DD62", color.RGBA{0x17, 0xDD, 0x62, 0xFF}},
	{"Blue", "#345EC3", color.RGBA{0x34, 0x5E, 0xC3, 0xFF}},
	{"Yellow", "#FCDB05", color.RGBA{0xFC, 0xDB, 0x05, 0xFF}},
	{"Cyan", "#4AEDD9", color.RGBA{0x4A, 0xED, 0xD9, 0xFF}},
	{"Magenta", "#FF00FF", color.RGBA{0xFF, 0x00, 0xFF, 0xFF}},
}

// DefaultColor is the Palette index used for a new canvas (Green).
const DefaultColor = 2

// Stroke thickness bounds in pixels.
const (
	MinThickness     = 1
	MaxThickness     = 20
	DefaultThickness = 5
)

// HistoryLimit caps the number of undo and redo snapshots kept.
const HistoryLimit = 20

// EraseSize is the side of the square cleared around the palm, in pixels.
const EraseSize = 80

func clampThickness(n int) int {
	return max(MinThickness, min(MaxThickness, n))
}
