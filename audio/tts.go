// Package audio wraps the speech collaborators: text-to-speech synthesis
// with post-synthesis tempo adjustment, and speech recognition.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyreel/config"
)

// ttsChunkLen is the longest text fragment sent in one synthesis request.
const ttsChunkLen = 100

// TTSClient synthesizes narration audio over HTTP, one chunk at a time,
// concatenating the returned MP3 frames.
type TTSClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewTTSClient builds a client against the default synthesis endpoint,
// overridable with TTS_ENDPOINT.
func NewTTSClient() *TTSClient {
	return &TTSClient{
		httpClient: &http.Client{},
		endpoint:   config.GetEnvOrDefault("TTS_ENDPOINT", "https://translate.google.com/translate_tts"),
	}
}

// Synthesize renders text to speech into outPath. A speed other than 1.0 is
// applied after synthesis via a tempo filter bounded to the supported range.
func (c *TTSClient) Synthesize(ctx context.Context, text, lang string, speed float64, outPath string) error {
	chunks := chunkText(text, ttsChunkLen)
	if len(chunks) == 0 {
		return fmt.Errorf("no synthesizable text")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		if err := c.fetchChunk(ctx, chunk, lang, i, len(chunks), out); err != nil {
			out.Close()
			return fmt.Errorf("synthesize chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	if speed != 0 && speed != 1.0 {
		if err := adjustTempo(outPath, speed); err != nil {
			return fmt.Errorf("adjust tempo: %w", err)
		}
	}
	return nil
}

func (c *TTSClient) fetchChunk(ctx context.Context, chunk, lang string, idx, total int, w io.Writer) error {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", chunk)
	params.Set("tl", lang)
	params.Set("client", "tw-ob")
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(len([]rune(chunk))))

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("synthesis returned status %d", resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// chunkText splits text into fragments no longer than max runes, cutting at
// sentence boundaries where possible and at word boundaries otherwise.
func chunkText(text string, max int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current []rune

	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			chunks = append(chunks, s)
		}
		current = current[:0]
	}

	for _, w := range words {
		wr := []rune(w)
		if len(current) > 0 && len(current)+1+len(wr) > max {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, wr...)

		// Prefer sentence boundaries so chunks sound natural.
		if last := wr[len(wr)-1]; (last == '.' || last == '!' || last == '?') && len(current) > max/2 {
			flush()
		}
	}
	flush()
	return chunks
}

// adjustTempo re-encodes the file at the clamped speed ratio.
func adjustTempo(path string, speed float64) error {
	ratio := clampTempo(speed)
	if ratio == 1.0 {
		return nil
	}

	tmp := path + ".tempo.mp3"
	err := ffmpeg.Input(path).
		Audio().
		Filter("atempo", ffmpeg.Args{strconv.FormatFloat(ratio, 'f', 2, 64)}).
		Output(tmp, ffmpeg.KwArgs{"c:a": "libmp3lame"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// clampTempo bounds the speed ratio to what a single tempo filter supports.
func clampTempo(speed float64) float64 {
	switch {
	case speed < config.MinTempo:
		return config.MinTempo
	case speed > config.MaxTempo:
		return config.MaxTempo
	default:
		return speed
	}
}
