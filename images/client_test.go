package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	putCalls int
	ref      string
	err      error
}

func (f *fakeStore) PutImage(_ context.Context, data []byte, contentType string) (string, error) {
	f.putCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

func newTestClient(providers []Provider, store ArtifactPutter, fallbacks *FallbackSet) (*Client, *[]time.Duration) {
	slept := []time.Duration{}
	c := NewClient(providers, NewAvailabilityRegistry(providers), store, fallbacks)
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func getProvider(name, serverURL string) Provider {
	return Provider{
		Name:        name,
		Method:      http.MethodGet,
		URLTemplate: serverURL + "/img/{prompt}",
		Timeout:     5 * time.Second,
		MaxRetries:  2,
	}
}

func TestAcquireFirstProviderSuccess(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}))
	defer server.Close()

	c, _ := newTestClient([]Provider{getProvider("p1", server.URL)}, nil, NewFallbackSet(nil))
	ref := c.Acquire(context.Background(), "a castle")

	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
	if !strings.HasPrefix(ref, server.URL+"/img/") {
		t.Errorf("expected request URL as reference, got %q", ref)
	}
}

func TestAcquireRetriesTransientWithBackoff(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes"))
	}))
	defer server.Close()

	c, slept := newTestClient([]Provider{getProvider("p1", server.URL)}, nil, NewFallbackSet(nil))
	ref := c.Acquire(context.Background(), "a forest")

	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
	if len(*slept) != 1 || (*slept)[0] != 1*time.Second {
		t.Errorf("expected one 1s backoff, got %v", *slept)
	}
	if ref == "" {
		t.Error("expected a reference")
	}
}

func TestAcquireExhaustsRetriesThenNextProvider(t *testing.T) {
	firstCalls, secondCalls := 0, 0
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstCalls++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalls++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("ok"))
	}))
	defer second.Close()

	c, _ := newTestClient([]Provider{
		getProvider("p1", first.URL),
		getProvider("p2", second.URL),
	}, nil, NewFallbackSet(nil))
	ref := c.Acquire(context.Background(), "a cave")

	if firstCalls != 2 {
		t.Errorf("first provider got %d calls, want MaxRetries=2", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("second provider got %d calls, want 1", secondCalls)
	}
	if !strings.HasPrefix(ref, second.URL) {
		t.Errorf("expected second provider reference, got %q", ref)
	}
}

func TestAcquireStickyDisableOnQuota(t *testing.T) {
	firstCalls, secondCalls := 0, 0
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstCalls++
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalls++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("ok"))
	}))
	defer second.Close()

	c, _ := newTestClient([]Provider{
		getProvider("p1", first.URL),
		getProvider("p2", second.URL),
	}, nil, NewFallbackSet(nil))

	c.Acquire(context.Background(), "first request")
	c.Acquire(context.Background(), "second request")

	// The quota response disables the provider for the process lifetime, so
	// the second acquisition must not touch it again.
	if firstCalls != 1 {
		t.Errorf("disabled provider got %d calls, want 1", firstCalls)
	}
	if secondCalls != 2 {
		t.Errorf("second provider got %d calls, want 2", secondCalls)
	}
}

func TestAcquireWarmupRetriesOnce(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model is loading","estimated_time":20}`))
	}))
	defer server.Close()

	fallbacks := NewFallbackSet([]string{"https://cdn.example.com/fallback.jpg"})
	c, slept := newTestClient([]Provider{getProvider("p1", server.URL)}, nil, fallbacks)
	ref := c.Acquire(context.Background(), "a ship")

	// One initial call plus exactly one warmup retry, then fail over.
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
	if len(*slept) != 1 {
		t.Errorf("expected one warmup wait, got %v", *slept)
	}
	if ref != "https://cdn.example.com/fallback.jpg" {
		t.Errorf("expected fallback, got %q", ref)
	}
}

func TestAcquireNeverReturnsEmpty(t *testing.T) {
	// Unreachable provider and no fallback pool: the placeholder still gives
	// the render something to show.
	p := getProvider("p1", "http://127.0.0.1:1")
	c, _ := newTestClient([]Provider{p}, nil, NewFallbackSet(nil))

	ref := c.Acquire(context.Background(), "a lonely tower")
	if ref == "" {
		t.Fatal("empty reference")
	}
	if !strings.Contains(ref, "placehold.co") {
		t.Errorf("expected placeholder, got %q", ref)
	}
}

func TestAcquirePersistsRawBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token123" {
			t.Errorf("missing bearer token, got %q", auth)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("rawimagebytes"))
	}))
	defer server.Close()

	store := &fakeStore{ref: "https://bucket.example.com/images/image_abc.png"}
	providers := []Provider{{
		Name:       "post-provider",
		Method:     http.MethodPost,
		Endpoint:   server.URL,
		APIKey:     "token123",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}}
	c, _ := newTestClient(providers, store, NewFallbackSet(nil))

	ref := c.Acquire(context.Background(), "a market square")
	if store.putCalls != 1 {
		t.Errorf("got %d store puts, want 1", store.putCalls)
	}
	if ref != store.ref {
		t.Errorf("got %q, want stored reference", ref)
	}
}

func TestCapPrompt(t *testing.T) {
	short := "a quiet village at dusk"
	if got := capPrompt(short); got != short {
		t.Errorf("short prompt changed: %q", got)
	}

	long := strings.Repeat("x", 200)
	got := capPrompt(long)
	if !strings.HasSuffix(got, "... vertical, cinematic") {
		t.Errorf("missing style suffix: %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("x", 160)) {
		t.Error("expected truncation to 160 runes")
	}
	if strings.HasPrefix(got, strings.Repeat("x", 161)) {
		t.Error("truncation kept too much")
	}
}

func TestBuildURLEscapesPrompt(t *testing.T) {
	p := Provider{URLTemplate: "https://example.com/prompt/{prompt}?model=flux"}
	got := p.BuildURL("a red fox / in snow")
	if strings.Contains(got, " ") {
		t.Errorf("unescaped spaces: %q", got)
	}
	if !strings.Contains(got, "model=flux") {
		t.Errorf("template suffix lost: %q", got)
	}
}

func TestClassifyResponse(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        outcome
	}{
		{"image ok", 200, "image/jpeg", "x", outcomeSuccess},
		{"large body ok", 200, "application/octet-stream", strings.Repeat("b", 1001), outcomeSuccess},
		{"small html 200", 200, "text/html", "<html>error</html>", outcomeNextProvider},
		{"bad gateway", 502, "", "", outcomeRetryTransient},
		{"service unavailable", 503, "", "overloaded", outcomeRetryTransient},
		{"warmup", 503, "", `{"error":"loading"}`, outcomeRetryWarmup},
		{"gateway timeout", 504, "", "", outcomeRetryTransient},
		{"cloudflare 530", 530, "", "", outcomeRetryTransient},
		{"payment required", 402, "", "", outcomeDisableProvider},
		{"unauthorized", 401, "", "", outcomeDisableProvider},
		{"forbidden", 403, "", "", outcomeDisableProvider},
		{"rate limited", 429, "", "", outcomeDisableProvider},
		{"not found", 404, "", "", outcomeNextProvider},
	}
	for _, c := range cases {
		if got := classifyResponse(c.status, c.contentType, []byte(c.body)); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}
