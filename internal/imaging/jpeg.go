package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is the quality used when no explicit value is configured.
const DefaultJPEGQuality = 80

// ConvertToJPEG re-encodes raw image bytes as JPEG at the given quality.
//
// Parameters:
//   - data: Encoded source image in any registered format.
//   - quality: JPEG quality from 1 to 100. Values outside that range are
//     clamped by the encoder.
//
// # Transparency
//
// JPEG has no alpha channel. Images that may contain transparency are
// composited onto an opaque black canvas using their own alpha as the blend
// weight: alpha 0 becomes black, alpha 255 keeps its color, and anything in
// between is blended toward black proportionally. Opaque images in other color
// models (grayscale, paletted, YCbCr, CMYK) are converted to RGB.
//
// Returns an error wrapping ErrDecode or ErrEncode on failure.
func ConvertToJPEG(data []byte, quality int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	flat := Flatten(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Flatten returns an opaque RGB rendition of img suitable for JPEG encoding.
func Flatten(img image.Image) *image.NRGBA {
	if !hasAlpha(img) {
		return toNRGBA(img)
	}
	bounds := img.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{0, 0, 0, 255})
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
