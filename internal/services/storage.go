package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ProofStorage stores manual-transfer proof files and yields a URL the
// admin review screens can load.
type ProofStorage interface {
	UploadProof(ctx context.Context, file io.Reader, header *multipart.FileHeader) (string, error)
}

// MinioProofStorage keeps proofs in a MinIO bucket under uuid keys
type MinioProofStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioProofStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket, publicURL string) (*MinioProofStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}
	return &MinioProofStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *MinioProofStorage) UploadProof(ctx context.Context, file io.Reader, header *multipart.FileHeader) (string, error) {
	objectName := uuid.NewString() + filepath.Ext(header.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, file, header.Size, minio.PutObjectOptions{
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store proof object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
