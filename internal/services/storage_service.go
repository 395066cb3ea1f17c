// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/config"
)

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type UploadOptions struct {
	Folder     string
	MaxSize    int64 // in bytes
	ImagesOnly bool
	PublicRead bool
}

// StorageService stores uploaded files in S3 when a bucket is configured and
// on local disk otherwise.
type StorageService struct {
	uploader *s3manager.Uploader
	s3Client *s3.S3
	cfg      config.StorageConfig
}

func NewStorageService(cfg config.StorageConfig) (*StorageService, error) {
	if cfg.S3Bucket == "" {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
		return &StorageService{cfg: cfg}, nil
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		uploader: s3manager.NewUploader(sess),
		s3Client: s3.New(sess),
		cfg:      cfg,
	}, nil
}

func (s *StorageService) AvatarOptions() UploadOptions {
	maxSize := s.cfg.MaxUploadBytes
	if maxSize <= 0 {
		maxSize = 2 * 1024 * 1024
	}
	return UploadOptions{
		Folder:     "avatars",
		MaxSize:    maxSize,
		ImagesOnly: true,
		PublicRead: true,
	}
}

func (s *StorageService) Upload(ctx context.Context, r io.Reader, filename string, size int64, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && size > options.MaxSize {
		return nil, apperror.Validation("file exceeds maximum size of %s", formatUploadSize(options.MaxSize))
	}

	// One extra byte detects bodies that lie about their size.
	limit := options.MaxSize
	if limit <= 0 {
		limit = size
	}
	content, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperror.Infrastructure(err, "failed to read upload")
	}
	if options.MaxSize > 0 && int64(len(content)) > options.MaxSize {
		return nil, apperror.Validation("file exceeds maximum size of %s", formatUploadSize(options.MaxSize))
	}

	mime := mimetype.Detect(content)
	if options.ImagesOnly && !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperror.Validation("file must be an image, got %s", mime.String())
	}

	key := s.generateKey(filename, mime.Extension(), options.Folder)
	if s.uploader != nil {
		return s.uploadToS3(ctx, content, key, mime.String(), options.PublicRead)
	}
	return s.uploadToLocal(content, key, mime.String())
}

func (s *StorageService) uploadToS3(ctx context.Context, content []byte, key, contentType string, publicRead bool) (*UploadResult, error) {
	input := &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	}
	if publicRead {
		input.ACL = aws.String("public-read")
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return nil, apperror.Infrastructure(err, "failed to upload to S3")
	}

	return &UploadResult{
		URL:      s.publicURL(key),
		Key:      key,
		Size:     int64(len(content)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(content []byte, key, contentType string) (*UploadResult, error) {
	target := filepath.Join(s.cfg.UploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, apperror.Infrastructure(err, "failed to prepare upload dir")
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return nil, apperror.Infrastructure(err, "failed to store upload")
	}

	return &UploadResult{
		URL:      s.publicURL(key),
		Key:      key,
		Size:     int64(len(content)),
		MimeType: contentType,
	}, nil
}

// Delete removes a stored object. Missing objects are not an error.
func (s *StorageService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if s.s3Client == nil {
		err := os.Remove(filepath.Join(s.cfg.UploadDir, filepath.FromSlash(key)))
		if err != nil && !os.IsNotExist(err) {
			return apperror.Infrastructure(err, "failed to delete file")
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperror.Infrastructure(err, "failed to delete file from S3")
	}
	return nil
}

// KeyFromURL recovers the storage key from a URL produced by this service.
func (s *StorageService) KeyFromURL(url string) string {
	prefix := s.publicURL("")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

func (s *StorageService) generateKey(originalName, ext, folder string) string {
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(originalName))
	}
	timestamp := time.Now().UTC().Format("20060102")
	name := fmt.Sprintf("%s_%s%s", timestamp, uuid.NewString()[:8], ext)
	if folder != "" {
		return path.Join(folder, name)
	}
	return name
}

func (s *StorageService) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.uploader != nil {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.Region, key)
	}
	return "/uploads/" + key
}

// LocalDir is the directory served under /uploads, empty when files live in S3.
func (s *StorageService) LocalDir() string {
	if s.uploader != nil {
		return ""
	}
	return s.cfg.UploadDir
}
