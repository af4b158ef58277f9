// Package images resolves a scene's visual description into an image by
// trying ranked generation providers with retry, backoff, and failover.
package images

import (
	"bytes"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"storyreel/config"
)

// Provider is one external image-generation backend, tried in priority order.
type Provider struct {
	Name string

	// Method selects the wire shape: GET with the prompt URL-encoded into
	// URLTemplate, or POST with a JSON inference body to Endpoint.
	Method      string
	URLTemplate string
	Endpoint    string

	// APIKey is sent as a bearer token on POST providers when set.
	APIKey string

	Timeout    time.Duration
	MaxRetries int
}

// BuildURL substitutes the encoded prompt into a GET provider's template.
func (p Provider) BuildURL(prompt string) string {
	return strings.Replace(p.URLTemplate, "{prompt}", url.PathEscape(prompt), 1)
}

// DefaultProviders returns the ranked provider list. The Hugging Face entry
// only participates when HF_API_TOKEN is configured.
func DefaultProviders() []Provider {
	providers := []Provider{
		{
			Name:        "Pollinations (Flux)",
			Method:      http.MethodGet,
			URLTemplate: "https://image.pollinations.ai/prompt/{prompt}?width=768&height=1024&nologo=true&model=flux",
			Timeout:     15 * time.Second,
			MaxRetries:  config.ImageMaxRetries,
		},
		{
			Name:        "Pollinations (Turbo)",
			Method:      http.MethodGet,
			URLTemplate: "https://image.pollinations.ai/prompt/{prompt}?width=768&height=1024&nologo=true&model=turbo",
			Timeout:     10 * time.Second,
			MaxRetries:  config.ImageMaxRetries,
		},
	}

	if token := strings.TrimSpace(os.Getenv("HF_API_TOKEN")); token != "" {
		providers = append(providers, Provider{
			Name:       "HuggingFace (FLUX.1-schnell)",
			Method:     http.MethodPost,
			Endpoint:   "https://api-inference.huggingface.co/models/black-forest-labs/FLUX.1-schnell",
			APIKey:     token,
			Timeout:    30 * time.Second,
			MaxRetries: config.ImageMaxRetries,
		})
	}
	return providers
}

// inferenceRequest is the POST body accepted by inference-style providers.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Steps  int `json:"steps"`
}

// outcome classifies one provider response into the failover policy's moves.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryTransient
	outcomeRetryWarmup
	outcomeDisableProvider
	outcomeNextProvider
)

// classifyResponse maps status-code classes to failover moves: 200 with a
// recognizable image payload succeeds, 502/503/504/530 are transient, auth
// and quota responses sticky-disable the provider, and a 503 whose body
// reports the model is still loading earns a single delayed retry.
func classifyResponse(status int, contentType string, body []byte) outcome {
	switch {
	case status == http.StatusOK:
		if strings.Contains(contentType, "image") || len(body) > 1000 {
			return outcomeSuccess
		}
		return outcomeNextProvider
	case status == http.StatusPaymentRequired,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusTooManyRequests:
		return outcomeDisableProvider
	case status == http.StatusServiceUnavailable && looksLikeWarmup(body):
		return outcomeRetryWarmup
	case status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout,
		status == 530:
		return outcomeRetryTransient
	default:
		return outcomeNextProvider
	}
}

func looksLikeWarmup(body []byte) bool {
	return bytes.Contains(body, []byte("loading")) || bytes.Contains(body, []byte("estimated_time"))
}
