package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyreel/types"
)

// ASRClient talks to a whisper-compatible transcription server. Its absence
// is a supported, non-fatal condition: callers holding a nil client fall
// back to uniform subtitle timing.
type ASRClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

// NewASRClientFromEnv returns a client when WHISPER_API_URL is configured,
// nil otherwise.
func NewASRClientFromEnv() *ASRClient {
	endpoint := strings.TrimSpace(os.Getenv("WHISPER_API_URL"))
	if endpoint == "" {
		return nil
	}
	model := strings.TrimSpace(os.Getenv("WHISPER_MODEL"))
	if model == "" {
		model = "whisper-1"
	}
	return &ASRClient{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		model:      model,
	}
}

type asrResponse struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Segments            []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe sends the audio file for recognition and returns ordered
// segments with a detected-language pair.
func (c *ASRClient) Transcribe(ctx context.Context, audioPath, langHint string) (*types.Transcription, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	_ = mw.WriteField("model", c.model)
	_ = mw.WriteField("response_format", "verbose_json")
	if langHint != "" {
		_ = mw.WriteField("language", langHint)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if key := strings.TrimSpace(os.Getenv("WHISPER_API_KEY")); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed asrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}

	tr := &types.Transcription{
		Language:            parsed.Language,
		LanguageProbability: parsed.LanguageProbability,
	}
	for _, s := range parsed.Segments {
		tr.Segments = append(tr.Segments, types.ASRSegment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}
