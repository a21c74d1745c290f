package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ImageCache masks storage propagation delay for user-uploaded images. It
// remembers the last-known URL per user and which URLs have been confirmed
// fetchable, so screens can render immediately after an upload without
// waiting for the object to become publicly visible.
type ImageCache struct {
	mu        sync.RWMutex
	urls      map[string]string
	preloaded map[string]bool

	client      *http.Client
	preloadWait time.Duration
	bustSeq     atomic.Uint64
}

var imageCache *ImageCache

func InitImageCache() {
	imageCache = NewImageCache()
}

func GetImageCache() *ImageCache {
	return imageCache
}

func NewImageCache() *ImageCache {
	return &ImageCache{
		urls:        make(map[string]string),
		preloaded:   make(map[string]bool),
		client:      &http.Client{Timeout: 10 * time.Second},
		preloadWait: 3 * time.Second,
	}
}

// Set stores the last-known image URL for a key (usually a user id).
func (c *ImageCache) Set(key string, imageURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[key] = imageURL
}

// Get returns the cached URL for a key, or "" if none is known.
func (c *ImageCache) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.urls[key]
}

func (c *ImageCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.urls[key]
	return ok
}

func (c *ImageCache) IsPreloaded(imageURL string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preloaded[imageURL]
}

// Preload fetches an image in the background with a bounded wait so a slow
// object never blocks a state transition. It never reports failure to the
// caller; an image that cannot be fetched simply stays unconfirmed.
func (c *ImageCache) Preload(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	if c.IsPreloaded(imageURL) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.preloadWait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		log.Printf("preload request for %s: %v", imageURL, err)
		return
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("preload of %s: %v", imageURL, err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return
	}

	c.mu.Lock()
	c.preloaded[imageURL] = true
	c.mu.Unlock()
}

// NoCacheURL decorates a URL with a cache-busting parameter. Two calls for
// the same URL always produce distinct results, even within one millisecond.
// An empty URL passes through unchanged.
func (c *ImageCache) NoCacheURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(imageURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%d.%d", imageURL, sep, time.Now().UnixMilli(), c.bustSeq.Add(1))
}

// Reset clears all cached state. Intended for tests.
func (c *ImageCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = make(map[string]string)
	c.preloaded = make(map[string]bool)
}

// FallbackAvatarURL returns a deterministic generated placeholder for a
// username, used when the real avatar fails to load.
func FallbackAvatarURL(username string) string {
	if username == "" {
		username = "anonymous"
	}
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(username)
}
