package plate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
)

// ErrImageUnavailable is returned when the pick image cannot be fetched right
// now. It is not a decode error: the next pass may succeed.
var ErrImageUnavailable = errors.New("pick image unavailable")

// maxImageBytes caps downloaded pick images.
const maxImageBytes = 64 << 20

// ImageSource provides the current pick image bytes.
type ImageSource interface {
	PickImage(ctx context.Context) ([]byte, error)
}

// StaticSource serves fixed bytes.
type StaticSource []byte

// PickImage implements ImageSource.
func (s StaticSource) PickImage(ctx context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrImageUnavailable)
	}
	return s, nil
}

// FileSource reads the pick image from a file that an upstream integration
// rewrites for each plate.
type FileSource struct {
	Path  string
	Cache *imaging.ImageCache
}

// PickImage implements ImageSource.
func (s *FileSource) PickImage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.Cache.Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrImageUnavailable, s.Path)
	}
	return data, nil
}

// URLSource downloads the pick image over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

// PickImage implements ImageSource.
func (s *URLSource) PickImage(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "plate-analyzer/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %s", ErrImageUnavailable, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unexpected Content-Type %s", ErrImageUnavailable, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", ErrImageUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrImageUnavailable)
	}
	return data, nil
}

// OpenSource returns a URLSource for http(s) locations and a FileSource for
// anything else.
func OpenSource(location string, cache *imaging.ImageCache, client *http.Client) (ImageSource, error) {
	if location == "" {
		return nil, fmt.Errorf("empty pick image location")
	}

	if strings.Contains(location, "://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", u.Scheme)
		}
		if client == nil {
			client = http.DefaultClient
		}
		return &URLSource{URL: location, Client: client}, nil
	}

	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &FileSource{Path: location, Cache: cache}, nil
}
