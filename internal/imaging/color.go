package imaging

import (
	"fmt"
	"image"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MaxIdentifyID is the largest identifier representable by a 24-bit color.
const MaxIdentifyID = 1<<24 - 1

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult describes an identify color in several representations.
//
// Hex is handy for LED strips and dashboards; HSL lets indicator automations
// pick a contrasting highlight for an object.
type ColorResult struct {
	ID  string   `json:"id"`          // Decimal identify id
	Hex string   `json:"hex"`         // "#RRGGBB"
	RGB RGBColor `json:"rgb"`         // RGB components
	HSL HSLColor `json:"hsl"`         // HSL representation
	A   *uint8   `json:"a,omitempty"` // Alpha, only set for sampled pixels
}

// IdentifyColor returns the pixel color that encodes the given identifier.
//
// This is the inverse of IdentifyID: R is the low byte, B the high byte.
// Returns an error if id does not fit in 24 bits.
func IdentifyColor(id uint32) (*ColorResult, error) {
	if id > MaxIdentifyID {
		return nil, fmt.Errorf("identify id %d exceeds 24-bit color space", id)
	}
	r, g, b := uint8(id), uint8(id>>8), uint8(id>>16)
	res := colorResult(r, g, b)
	return &res, nil
}

// ParseIdentifyID parses a decimal identify id as used in object mappings.
func ParseIdentifyID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid identify id %q: %w", s, err)
	}
	if v > MaxIdentifyID {
		return 0, fmt.Errorf("identify id %d exceeds 24-bit color space", v)
	}
	return uint32(v), nil
}

// PixelSample is the color found at one pixel of a pick image.
type PixelSample struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`

	// Transparent is true when alpha == 0. Such pixels belong to no object and
	// Color.ID is empty.
	Transparent bool `json:"transparent"`
}

// SampleColor reads the pixel at (x, y) and reports its identify color.
//
// Returns an error if the coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*PixelSample, error) {
	src := toNRGBA(img)
	if x < 0 || y < 0 || x >= src.Rect.Dx() || y >= src.Rect.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := src.NRGBAAt(x, y)
	res := colorResult(c.R, c.G, c.B)
	a := c.A
	res.A = &a
	if c.A == 0 {
		res.ID = ""
	}

	return &PixelSample{
		X:           x,
		Y:           y,
		Color:       res,
		Transparent: c.A == 0,
	}, nil
}

func colorResult(r, g, b uint8) ColorResult {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		ID:  strconv.FormatUint(uint64(IdentifyID(r, g, b)), 10),
		Hex: fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)),
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}
