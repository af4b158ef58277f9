package images

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"storyreel/config"
)

// maxImageBytes caps how much of a provider response is read.
const maxImageBytes = 20 << 20

// ArtifactPutter persists raw image bytes and returns a stable,
// re-fetchable reference.
type ArtifactPutter interface {
	PutImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// Client acquires images through the ranked provider list. Acquire never
// fails: when every provider is exhausted it falls back to a pre-registered
// fallback image or a generated placeholder reference.
type Client struct {
	httpClient *http.Client
	providers  []Provider
	registry   *AvailabilityRegistry
	store      ArtifactPutter
	fallbacks  *FallbackSet

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewClient builds an acquisition client. store may be nil, in which case
// providers returning raw bytes cannot be used and fail over.
func NewClient(providers []Provider, registry *AvailabilityRegistry, store ArtifactPutter, fallbacks *FallbackSet) *Client {
	return &Client{
		httpClient: &http.Client{},
		providers:  providers,
		registry:   registry,
		store:      store,
		fallbacks:  fallbacks,
		sleep:      time.Sleep,
	}
}

// Acquire resolves a visual description into an image reference. Providers
// are tried strictly in priority order, one at a time; the first success
// short-circuits the rest.
func (c *Client) Acquire(ctx context.Context, prompt string) string {
	prompt = capPrompt(prompt)

	for i, p := range c.providers {
		if c.registry.Disabled(p.Name) {
			log.Printf("[images] skipping disabled provider %s", p.Name)
			continue
		}
		log.Printf("[images] trying provider %d/%d: %s", i+1, len(c.providers), p.Name)
		if ref, ok := c.tryProvider(ctx, p, prompt); ok {
			log.Printf("[images] success with %s", p.Name)
			return ref
		}
	}

	log.Printf("[images] all providers failed, using fallback")
	if ref, ok := c.fallbacks.Pick(); ok {
		return ref
	}
	return PlaceholderURL(prompt)
}

// tryProvider runs the per-provider retry loop. It reports ok=false when the
// provider is abandoned and the next one should be tried.
func (c *Client) tryProvider(ctx context.Context, p Provider, prompt string) (string, bool) {
	warmupRetried := false

	for attempt := 0; attempt < p.MaxRetries; attempt++ {
		status, contentType, body, reqURL, err := c.call(ctx, p, prompt)
		if err != nil {
			// Timeout or transport failure: abandon this provider.
			log.Printf("[images] %s attempt %d/%d failed: %v", p.Name, attempt+1, p.MaxRetries, err)
			return "", false
		}

		switch classifyResponse(status, contentType, body) {
		case outcomeSuccess:
			return c.resolve(ctx, p, reqURL, contentType, body)
		case outcomeRetryTransient:
			log.Printf("[images] %s server error %d, backing off", p.Name, status)
			c.sleep(time.Duration(1<<attempt) * time.Second)
		case outcomeRetryWarmup:
			if warmupRetried {
				return "", false
			}
			warmupRetried = true
			log.Printf("[images] %s model warming up, waiting once", p.Name)
			c.sleep(config.ModelWarmupDelay)
		case outcomeDisableProvider:
			log.Printf("[images] %s returned %d, disabling for process lifetime", p.Name, status)
			c.registry.Disable(p.Name)
			return "", false
		case outcomeNextProvider:
			log.Printf("[images] %s returned %d, trying next provider", p.Name, status)
			return "", false
		}
	}
	return "", false
}

// resolve turns a successful response into a stable reference. GET providers
// serve the image at the request URL itself; raw-bytes providers have their
// payload persisted to durable storage.
func (c *Client) resolve(ctx context.Context, p Provider, reqURL, contentType string, body []byte) (string, bool) {
	if p.Method == http.MethodGet {
		return reqURL, true
	}
	if c.store == nil {
		log.Printf("[images] %s returned bytes but no store is configured", p.Name)
		return "", false
	}
	ref, err := c.store.PutImage(ctx, body, contentType)
	if err != nil {
		log.Printf("[images] failed to persist image from %s: %v", p.Name, err)
		return "", false
	}
	return ref, true
}

func (c *Client) call(ctx context.Context, p Provider, prompt string) (status int, contentType string, body []byte, reqURL string, err error) {
	callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var req *http.Request
	if p.Method == http.MethodPost {
		payload, merr := json.Marshal(inferenceRequest{
			Inputs: prompt,
			Parameters: inferenceParameters{
				Width:  config.ImageWidth,
				Height: config.ImageHeight,
				Steps:  4,
			},
		})
		if merr != nil {
			return 0, "", nil, "", merr
		}
		reqURL = p.Endpoint
		req, err = http.NewRequestWithContext(callCtx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return 0, "", nil, "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if p.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
	} else {
		reqURL = p.BuildURL(prompt)
		req, err = http.NewRequestWithContext(callCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			return 0, "", nil, "", err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", nil, reqURL, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return 0, "", nil, reqURL, err
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), data, reqURL, nil
}

// capPrompt respects downstream provider limits: over-long prompts are
// truncated to a shorter budget and given a fixed style suffix.
func capPrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= config.PromptMaxLen {
		return prompt
	}
	capped := string(runes[:config.PromptTruncateLen]) + config.PromptStyleSuffix
	log.Printf("[images] prompt shortened from %d to %d chars", len(runes), len([]rune(capped)))
	return capped
}
