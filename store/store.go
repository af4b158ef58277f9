// Package store is the durable artifact store: images, narration audio,
// subtitles, and finished videos are written under one bucket and addressed
// by stable public URLs.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"storyreel/config"
)

// fallbackPrefix is where pre-registered fallback images live in the bucket.
const fallbackPrefix = "fallback/"

// Config carries the connection settings for the artifact store. Values fall
// back to the standard AWS config/credential chain where empty.
type Config struct {
	Region  string
	Profile string
	// Endpoint overrides the S3 endpoint for S3-compatible providers.
	Endpoint     string
	UsePathStyle bool
	Bucket       string
	Prefix       string
	// PublicBaseURL is the base under which stored keys are publicly
	// reachable. Derived from the endpoint/bucket when empty.
	PublicBaseURL string
}

// Store wraps the S3 client with artifact-shaped operations.
type Store struct {
	client     *s3.Client
	httpClient *http.Client
	bucket     string
	prefix     string
	publicBase string
}

// New creates a Store. Puts overwrite existing keys, which makes re-runs
// idempotent.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Store{
		client:     client,
		httpClient: &http.Client{},
		bucket:     cfg.Bucket,
		prefix:     prefix,
		publicBase: publicBase(cfg),
	}, nil
}

// NewFromEnv builds a Store from STORE_* environment variables.
// Required: STORE_BUCKET. Optional: STORE_REGION, STORE_PROFILE,
// STORE_ENDPOINT, STORE_PREFIX, STORE_PUBLIC_URL, STORE_USE_PATH_STYLE.
func NewFromEnv(ctx context.Context) (*Store, error) {
	return New(ctx, Config{
		Region:        os.Getenv("STORE_REGION"),
		Profile:       os.Getenv("STORE_PROFILE"),
		Endpoint:      os.Getenv("STORE_ENDPOINT"),
		UsePathStyle:  config.GetEnvBool("STORE_USE_PATH_STYLE", false),
		Bucket:        os.Getenv("STORE_BUCKET"),
		Prefix:        os.Getenv("STORE_PREFIX"),
		PublicBaseURL: os.Getenv("STORE_PUBLIC_URL"),
	})
}

func publicBase(cfg Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}

// PublicURL returns the stable URL for a stored key.
func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Put uploads data under key and returns its stable public URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = s.prefix + key
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PutImage persists generated image bytes under a unique key.
func (s *Store) PutImage(ctx context.Context, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("images/image_%s%s", uuid.NewString(), extForContentType(contentType))
	return s.Put(ctx, key, data, contentType)
}

// PutFile uploads a local file under key.
func (s *Store) PutFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	return s.Put(ctx, key, data, contentType)
}

// Get fetches a stored object's bytes.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Exists reports whether key is present; 404/NotFound is not an error.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

// ListFallbackImages returns the public URLs of all pre-registered fallback
// images in the bucket.
func (s *Store) ListFallbackImages(ctx context.Context) ([]string, error) {
	var urls []string
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix + fallbackPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list fallback images: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil && !strings.HasSuffix(*obj.Key, "/") {
				urls = append(urls, s.PublicURL(*obj.Key))
			}
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return urls, nil
}

// PutFallbackImage registers a fallback image under its file name.
func (s *Store) PutFallbackImage(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	return s.Put(ctx, fallbackPrefix+name, data, contentType)
}

// Download fetches a public URL into a local file.
func (s *Store) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return out.Close()
}

func extForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
