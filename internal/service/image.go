package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/plateful/backend/config"
)

// ImageStore persists recipe images and returns a public URL.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}

// DecodeBase64Image decodes a base64 data URI ("data:image/png;base64,...")
// into raw bytes and its content type. Raw base64 without the data URI
// prefix is treated as PNG.
func DecodeBase64Image(encoded string) ([]byte, string, error) {
	contentType := "image/png"
	payload := encoded

	if strings.HasPrefix(encoded, "data:") {
		header, rest, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		payload = rest
		header = strings.TrimPrefix(header, "data:")
		if mediaType, _, ok := strings.Cut(header, ";"); ok && mediaType != "" {
			contentType = mediaType
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}
	return data, contentType, nil
}

func imageFileName(contentType string) string {
	ext := "png"
	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = "jpg"
	case "image/gif":
		ext = "gif"
	case "image/webp":
		ext = "webp"
	}
	return fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
}

// S3ImageStore stores images in an S3 bucket.
type S3ImageStore struct {
	s3Config *config.S3Config
}

// NewS3ImageStore creates an S3-backed image store.
func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

// Save uploads the image to S3 and returns the public URL.
func (s *S3ImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	fileName := imageFileName(contentType)

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	log.Printf("[ImageStore] Uploaded image to S3: %s", publicURL)
	return publicURL, nil
}

// LocalImageStore writes images to a directory on disk. Used in development
// and tests when no S3 bucket is configured.
type LocalImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore creates a disk-backed image store rooted at dir.
func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{dir: dir, baseURL: baseURL}
}

// Save writes the image under the media directory and returns its URL path.
func (l *LocalImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	fileName := imageFileName(contentType)
	fullPath := filepath.Join(l.dir, filepath.FromSlash(fileName))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return l.baseURL + "/" + fileName, nil
}
