// Package imaging provides the pixel-level operations behind the plate analyzer.
//
// The two core operations are pure functions of their input bytes:
//   - ExtractBoundingBoxes decodes a pick image, where every printable object is
//     painted in its own identify color, and returns one bounding box per object.
//   - ConvertToJPEG flattens a raster onto a black background and re-encodes it
//     as JPEG for redisplay.
//
// The remaining helpers (identify-color lookups, object crops, bounding-box
// overlays and the pick image file cache) build on the same decoding path.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Bounding boxes are inclusive on both ends: [min_x, min_y, max_x, max_y]
//
// # Identify Colors
//
// A pick image encodes object identifiers in pixel colors using BGR byte order:
//
//	id = B<<16 | G<<8 | R
//
// The ordering is fixed by the printer firmware that renders the image.
// Swapping it for RGB order produces valid looking but wrong identifiers.
// Pixels with alpha == 0 carry no object.
//
// # Thread Safety
//
// ExtractBoundingBoxes and ConvertToJPEG keep no shared state and can be called
// concurrently on independent inputs. The ImageCache type is safe for
// concurrent use.
//
// # Error Handling
//
// Undecodable input is reported as an error wrapping ErrDecode; encoder
// failures wrap ErrEncode. No partial results are returned.
package imaging
