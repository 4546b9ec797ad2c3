package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

var (
	// ErrDecode is returned when input bytes are not a decodable raster.
	ErrDecode = errors.New("image unreadable")

	// ErrEncode is returned when an output encoder fails.
	ErrEncode = errors.New("image encode failed")
)

// Decode decodes raw image bytes in any registered format.
//
// Supported formats are PNG, JPEG, GIF, BMP and WebP. The returned error wraps
// ErrDecode when the bytes are not a recognizable image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// toNRGBA returns img as non-premultiplied 8-bit RGBA.
//
// Decoded PNGs with an alpha channel are already *image.NRGBA and are returned
// as is, so exact channel values survive for partially transparent pixels.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// hasAlpha reports whether img may contain non-opaque pixels.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// cachedFile is one entry of the ImageCache.
type cachedFile struct {
	data    []byte
	size    int64
	modTime time.Time
}

// ImageCache provides thread-safe caching of pick image file contents.
//
// Entries are keyed by path and revalidated against the file's size and
// modification time on every Load, because the printer integration rewrites
// the pick image in place whenever a new plate is sliced. An unchanged file is
// served from memory without re-reading it.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu    sync.RWMutex
	files map[string]cachedFile
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		files: make(map[string]cachedFile),
	}
}

// Load returns the bytes of the file at path, reading it from disk only when
// it is not cached or has changed since it was cached.
//
// # Errors
//
//   - Returns an error wrapping os.ErrNotExist if the file does not exist
//   - Returns an error if the file cannot be read
func (c *ImageCache) Load(path string) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.files[path]
	c.mu.RUnlock()
	if ok && entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
		return entry.data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = cachedFile{data: data, size: stat.Size(), modTime: stat.ModTime()}
	c.mu.Unlock()

	return data, nil
}

// LoadImage loads and decodes the file at path.
func (c *ImageCache) LoadImage(path string) (image.Image, error) {
	data, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Clear removes all files from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string]cachedFile)
	c.mu.Unlock()
}

// Evict removes a specific file from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}
