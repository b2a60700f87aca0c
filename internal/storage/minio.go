package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/oklog/ulid/v2"
)

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// LogoStorage guarda los logos de proyecto en un bucket de MinIO.
type LogoStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioLogoStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*LogoStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
		if err := client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
			return nil, fmt.Errorf("set bucket policy: %w", err)
		}
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}
	return &LogoStorage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// UploadLogo sube el archivo y devuelve su URL pública.
func (s *LogoStorage) UploadLogo(ctx context.Context, projectID, filename, contentType string, size int64, body io.Reader) (string, error) {
	object := logoObjectName(projectID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, object, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.publicURL + "/" + s.bucket + "/" + object, nil
}

// DeleteLogos borra todos los objetos bajo el prefijo del proyecto.
func (s *LogoStorage) DeleteLogos(ctx context.Context, projectID string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    logoPrefix(projectID),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

func logoPrefix(projectID string) string {
	return "projects/" + projectID + "/"
}

func logoObjectName(projectID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return logoPrefix(projectID) + ulid.Make().String() + ext
}
