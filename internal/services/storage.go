package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Aquil1401/resume-reviewer/internal/config"
)

// StorageService keeps a copy of uploaded résumés for the history feature.
type StorageService interface {
	// SaveFile stores data and returns the location recorded in history.
	SaveFile(ctx context.Context, fileName string, data []byte) (string, error)
	DeleteFile(ctx context.Context, location string) error
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// ObjectKey builds a unique storage key that keeps a known extension.
func ObjectKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		ext = ".bin"
	}
	return fmt.Sprintf("resumes/%s%s", uuid.New().String(), ext)
}

// NewStorageService picks the backend configured by STORAGE_DRIVER.
func NewStorageService(ctx context.Context, cfg config.StorageConfig) (StorageService, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		local := NewLocalStorage(cfg.UploadPath)
		if err := local.EnsureUploadDir(); err != nil {
			return nil, err
		}
		return local, nil
	}
}

type LocalStorage struct {
	uploadPath string
}

func NewLocalStorage(uploadPath string) *LocalStorage {
	return &LocalStorage{
		uploadPath: uploadPath,
	}
}

func (s *LocalStorage) EnsureUploadDir() error {
	if err := os.MkdirAll(filepath.Join(s.uploadPath, "resumes"), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *LocalStorage) SaveFile(_ context.Context, fileName string, data []byte) (string, error) {
	key := ObjectKey(fileName)
	filePath := s.GetFilePath(key)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filePath, nil
}

func (s *LocalStorage) GetFilePath(key string) string {
	return filepath.Join(s.uploadPath, filepath.FromSlash(key))
}

func (s *LocalStorage) DeleteFile(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// S3Storage writes to any S3-compatible bucket, such as Cloudflare R2.
type S3Storage struct {
	client *s3.Client
	bucket string
}

func NewS3Storage(ctx context.Context, cfg config.S3Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Storage) SaveFile(ctx context.Context, fileName string, data []byte) (string, error) {
	key := ObjectKey(fileName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, location string) error {
	key := strings.TrimPrefix(location, fmt.Sprintf("s3://%s/", s.bucket))

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
