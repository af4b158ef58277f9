package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Publisher pushes finished renders to YouTube. It is optional, the pipeline
// works fine without publishing credentials.
type Publisher struct {
	service *youtube.Service
}

// NewPublisherFromEnv builds a Publisher from YOUTUBE_SERVICE_ACCOUNT_FILE,
// returning nil when it is not set.
func NewPublisherFromEnv(ctx context.Context) (*Publisher, error) {
	accountFile := os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE")
	if accountFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(accountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}
	service, err := youtube.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return &Publisher{service: service}, nil
}

// Publish uploads the video as an unlisted short and returns its video ID.
func (p *Publisher) Publish(videoPath, title string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	if title == "" {
		title = "Story Reel"
	}
	if len(title) > 100 {
		title = title[:97] + "..."
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:      title,
			CategoryId: "24",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "unlisted",
			SelfDeclaredMadeForKids: false,
		},
	}

	call := p.service.Videos.Insert([]string{"snippet", "status"}, video).Media(file)
	response, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	log.Printf("uploaded https://youtube.com/shorts/%s", response.Id)
	return response.Id, nil
}
