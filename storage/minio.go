// Package storage uploads fetched audio payloads to MinIO object storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"CortexFM/config"
	"CortexFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioStore is the object storage client for audio payloads.
type AudioStore struct {
	client *minio.Client
	bucket string
}

// NewAudioStore connects to MinIO and ensures the audio bucket exists.
func NewAudioStore(cfg *config.Config) (*AudioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created audio bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &AudioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// UploadAudio stores a local audio file under audio/<basename> and returns
// the object key.
func (s *AudioStore) UploadAudio(ctx context.Context, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat audio file: %w", err)
	}

	objectKey := path.Join("audio", path.Base(localPath))
	_, err = s.client.PutObject(ctx, s.bucket, objectKey, f, stat.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio object: %w", err)
	}

	logger.Debug("Uploaded audio payload",
		logger.String("objectKey", objectKey),
		logger.Int64("size", stat.Size()))
	return objectKey, nil
}
