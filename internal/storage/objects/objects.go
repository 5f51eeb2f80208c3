package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MaxResumeSize is the largest résumé accepted, in bytes
const MaxResumeSize = 5 << 20

const pdfMIME = "application/pdf"

var (
	ErrNotPDF   = errors.New("resume must be a PDF file")
	ErrTooLarge = errors.New("resume must be 5MB or smaller")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Upload is a file received from a client
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLTTL    time.Duration
}

// Storage keeps résumés in an S3-compatible bucket
type Storage struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
	logger *zap.Logger
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		// fixed region skips the bucket location lookup when presigning
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("bucket created", zap.String("bucket", opts.Bucket))
	}

	logger.Info("successfully connected to object storage",
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", opts.Bucket),
	)

	return &Storage{
		client: client,
		bucket: opts.Bucket,
		urlTTL: opts.URLTTL,
		logger: logger,
	}, nil
}

// Upload validates and stores a résumé, returning its object key
func (s *Storage) Upload(ctx context.Context, userID int64, file Upload) (string, error) {
	if err := ValidateResume(file); err != nil {
		return "", err
	}

	key := ResumeKey(userID, file.Filename, time.Now())

	_, err := s.client.PutObject(ctx, s.bucket, key, file.Content, file.Size, minio.PutObjectOptions{
		ContentType: pdfMIME,
	})
	if err != nil {
		s.logger.Error("failed to upload resume",
			zap.Int64("user_id", userID),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("upload resume: %w", err)
	}

	s.logger.Info("resume uploaded",
		zap.Int64("user_id", userID),
		zap.String("key", key),
		zap.Int64("size", file.Size),
	)

	return key, nil
}

// URL returns a time-limited download link
func (s *Storage) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlTTL, nil)
	if err != nil {
		s.logger.Error("failed to sign resume url",
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("sign resume url: %w", err)
	}

	return u.String(), nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Error("failed to remove resume",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("remove resume: %w", err)
	}

	s.logger.Info("resume removed", zap.String("key", key))
	return nil
}

// ValidateResume enforces the PDF and size limits and rewinds the content
func ValidateResume(file Upload) error {
	if file.Content == nil {
		return ErrNotPDF
	}

	if file.Size > MaxResumeSize {
		return ErrTooLarge
	}

	mt, err := mimetype.DetectReader(file.Content)
	if err != nil {
		return fmt.Errorf("detect resume type: %w", err)
	}

	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind resume: %w", err)
	}

	if !mt.Is(pdfMIME) {
		return ErrNotPDF
	}

	return nil
}

// ResumeKey builds "<user_id>/<unix_millis>-<name>"
func ResumeKey(userID int64, filename string, at time.Time) string {
	return fmt.Sprintf("%d/%d-%s", userID, at.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name and replaces anything unusual with "_"
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")

	if base == "" {
		return uuid.NewString() + ".pdf"
	}

	return base
}
