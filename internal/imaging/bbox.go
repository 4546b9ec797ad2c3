package imaging

import (
	"strconv"
)

// BoundingBox is an inclusive pixel rectangle [min_x, min_y, max_x, max_y].
//
// It marshals to JSON as a four element array, which is the shape downstream
// automations already parse.
type BoundingBox [4]int

// MinX returns the left edge (inclusive).
func (b BoundingBox) MinX() int { return b[0] }

// MinY returns the top edge (inclusive).
func (b BoundingBox) MinY() int { return b[1] }

// MaxX returns the right edge (inclusive).
func (b BoundingBox) MaxX() int { return b[2] }

// MaxY returns the bottom edge (inclusive).
func (b BoundingBox) MaxY() int { return b[3] }

// Width returns the number of pixel columns covered by the box.
func (b BoundingBox) Width() int { return b[2] - b[0] + 1 }

// Height returns the number of pixel rows covered by the box.
func (b BoundingBox) Height() int { return b[3] - b[1] + 1 }

// String formats the box as "min_x,min_y,max_x,max_y".
func (b BoundingBox) String() string {
	buf := make([]byte, 0, 24)
	for i, v := range b {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	return string(buf)
}

// extend grows the box to include (x, y).
func (b *BoundingBox) extend(x, y int) {
	if x < b[0] {
		b[0] = x
	}
	if y < b[1] {
		b[1] = y
	}
	if x > b[2] {
		b[2] = x
	}
	if y > b[3] {
		b[3] = y
	}
}

// AnalysisResult holds the bounding boxes found in one pick image.
type AnalysisResult struct {
	// ImageWidth is the pick image width in pixels.
	ImageWidth int `json:"image_width"`

	// ImageHeight is the pick image height in pixels.
	ImageHeight int `json:"image_height"`

	// BBoxes maps the decimal identify id to the object's bounding box.
	// Identifiers without any non-transparent pixel are absent.
	BBoxes map[string]BoundingBox `json:"bboxes"`
}

// IdentifyID packs an identify color into its object identifier.
//
// The bytes are read in B, G, R order: the pixel (R=0x12, G=0x34, B=0x56)
// yields 0x563412.
func IdentifyID(r, g, b uint8) uint32 {
	return uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// ExtractBoundingBoxes decodes a pick image and computes the bounding box of
// every identify color in it.
//
// Pixels with alpha == 0 are skipped. Any other pixel, including partially
// transparent ones, contributes its (R,G,B) triple to IdentifyID. The result is
// a pure function of the input bytes.
//
// Returns an error wrapping ErrDecode if data is not a decodable raster.
func ExtractBoundingBoxes(data []byte) (*AnalysisResult, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	src := toNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()

	bboxes := make(map[string]BoundingBox)
	// Call-scoped cache: packed RGB -> formatted identifier.
	seen := make(map[uint32]string)

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			if p[3] == 0 {
				continue
			}

			packed := IdentifyID(p[0], p[1], p[2])
			id, ok := seen[packed]
			if !ok {
				id = strconv.FormatUint(uint64(packed), 10)
				seen[packed] = id
			}

			if box, ok := bboxes[id]; ok {
				box.extend(x, y)
				bboxes[id] = box
			} else {
				bboxes[id] = BoundingBox{x, y, x, y}
			}
		}
	}

	return &AnalysisResult{
		ImageWidth:  width,
		ImageHeight: height,
		BBoxes:      bboxes,
	}, nil
}
