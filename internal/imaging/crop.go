package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Region      BoundingBox `json:"region"`
	ImageBase64 string      `json:"image_base64"`
	MimeType    string      `json:"mime_type"`
}

// CropObject extracts one object's bounding box from a pick image.
//
// The box is grown by padding pixels on every side and clamped to the image.
// Region in the result is the inclusive rectangle actually cropped. A scale
// other than 1.0 resizes the crop with a Lanczos filter.
func CropObject(img image.Image, box BoundingBox, padding int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if padding < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", padding)
	}
	if box.MinX() > box.MaxX() || box.MinY() > box.MaxY() {
		return nil, fmt.Errorf("invalid bounding box %s", box)
	}
	if box.MinX() < 0 || box.MinY() < 0 || box.MaxX() >= w || box.MaxY() >= h {
		return nil, fmt.Errorf("bounding box %s outside image bounds %dx%d", box, w, h)
	}

	region := BoundingBox{
		max(box.MinX()-padding, 0),
		max(box.MinY()-padding, 0),
		min(box.MaxX()+padding, w-1),
		min(box.MaxY()+padding, h-1),
	}

	rect := image.Rect(region.MinX(), region.MinY(), region.MaxX()+1, region.MaxY()+1).
		Add(bounds.Min)
	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := max(int(float64(cropped.Bounds().Dx())*scale), 1)
		newHeight := max(int(float64(cropped.Bounds().Dy())*scale), 1)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		Region:      region,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
