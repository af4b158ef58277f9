package images

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
)

// FallbackSet holds pre-registered fallback image references used when every
// provider is exhausted.
type FallbackSet struct {
	urls []string
}

// NewFallbackSet wraps a list of fallback image URLs. An empty or nil list
// is valid; Pick then reports no result.
func NewFallbackSet(urls []string) *FallbackSet {
	return &FallbackSet{urls: urls}
}

// Pick returns a randomly chosen fallback reference, or false when none are
// registered.
func (f *FallbackSet) Pick() (string, bool) {
	if f == nil || len(f.urls) == 0 {
		return "", false
	}
	return f.urls[rand.Intn(len(f.urls))], true
}

// Len returns the number of registered fallback images.
func (f *FallbackSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.urls)
}

// PlaceholderURL builds a deterministic placeholder image reference carrying
// the truncated prompt text, for debuggability.
func PlaceholderURL(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	text := strings.ReplaceAll(string(runes), " ", "+")
	return fmt.Sprintf("https://placehold.co/768x1024/2d2d2d/white?text=%s", url.PathEscape(text))
}
