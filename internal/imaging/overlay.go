package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"
	"strconv"

	"github.com/anthonynsimon/bild/adjust"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayResult contains the pick image with bounding boxes drawn on it
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// DrawBoundingBoxes outlines every box on a copy of img and labels it with its
// identify id.
//
// The image is first flattened onto black. A dim value in (0,1) then lowers
// its brightness so the outlines stand out against bright identify colors; 0
// leaves it unchanged. Boxes are drawn in ascending id order so overlapping
// labels render deterministically.
func DrawBoundingBoxes(img image.Image, boxes map[string]BoundingBox, colorHex string, dim float64) (*OverlayResult, error) {
	if dim < 0 || dim >= 1 {
		return nil, fmt.Errorf("dim must be in [0,1), got %g", dim)
	}

	boxColor, err := parseHexColor(colorHex)
	if err != nil {
		boxColor = color.RGBA{255, 255, 255, 255} // Default: white
	}

	var base image.Image = Flatten(img)
	if dim > 0 {
		base = adjust.Brightness(base, -dim)
	}

	bounds := base.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), base, bounds.Min, draw.Src)

	ids := make([]string, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	SortIdentifyIDs(ids)

	labelColor := color.RGBA{0, 0, 0, 255}
	for _, id := range ids {
		b := boxes[id]
		drawRect(result, b, boxColor)
		drawLabel(result, b.MinX()+1, b.MinY()+1, id, labelColor, boxColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &OverlayResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		Boxes:       len(boxes),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SortIdentifyIDs sorts decimal identify ids in ascending numeric order.
// Keys that are not decimal numbers sort after all numeric ones, lexically.
func SortIdentifyIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
}

// lessID orders decimal ids numerically, falling back to string order.
func lessID(a, b string) bool {
	ai, aerr := strconv.ParseUint(a, 10, 64)
	bi, berr := strconv.ParseUint(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

// drawRect draws a 1-pixel outline along the inclusive box edges.
func drawRect(img *image.RGBA, b BoundingBox, c color.RGBA) {
	for x := b.MinX(); x <= b.MaxX(); x++ {
		setClipped(img, x, b.MinY(), c)
		setClipped(img, x, b.MaxY(), c)
	}
	for y := b.MinY(); y <= b.MaxY(); y++ {
		setClipped(img, b.MinX(), y, c)
		setClipped(img, b.MaxX(), y, c)
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color: %s", hex)
	}

	return color.RGBA{r, g, b, a}, nil
}

// drawLabel renders text with basicfont on a filled background whose top-left
// corner is (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	labelWidth := font.MeasureString(face, text).Ceil()
	labelHeight := face.Ascent + face.Descent

	bgRect := image.Rect(x-1, y-1, x+labelWidth+1, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, bgRect, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Ascent)},
	}
	d.DrawString(text)
}
