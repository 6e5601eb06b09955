package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUnreadable marks a file that exists but could not be decoded as an image.
//
// Callers use errors.Is to tell a broken screenshot apart from a missing file
// or an image that decoded fine but holds no tooltip.
var ErrUnreadable = errors.New("unreadable image")

// Load opens and decodes a screenshot from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP and WebP. A decode failure is
// wrapped with ErrUnreadable; open failures are returned wrapped as-is.
// Images with a zero-sized bounds rectangle are also reported as unreadable
// so that "no image" never masquerades as an empty tooltip.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w: %v", path, ErrUnreadable, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s has no pixels: %w", path, ErrUnreadable)
	}

	return img, nil
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path,
// together with the file's size and modification time at load. Load stats
// the file on every call and decodes it again when either changed, so a
// screenshot overwritten at the same path is never served stale. A file that
// can no longer be read is dropped from the cache.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	size    int64
	modTime time.Time
}

func (c cachedImage) matches(fi os.FileInfo) bool {
	return c.size == fi.Size() && c.modTime.Equal(fi.ModTime())
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load retrieves an image from the cache or loads it from disk if it is not
// cached or the file changed since it was cached.
//
// Failed loads are not cached, so a screenshot that is still being written can
// be retried later.
func (c *ImageCache) Load(path string) (image.Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		c.evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.matches(fi) {
		return entry.img, nil
	}

	img, err := Load(path)
	if err != nil {
		c.evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = cachedImage{img: img, size: fi.Size(), modTime: fi.ModTime()}
	c.mu.Unlock()

	return img, nil
}

// Len reports how many images are currently cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func (c *ImageCache) evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
