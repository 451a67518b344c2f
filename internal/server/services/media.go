package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sc "github.com/techconhub/messaging/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// EncryptedMediaResult describes a stored encrypted blob. EncryptedURL is a
// time-limited download link; IV and the original metadata are echoed back so
// the caller can attach them to a message.
type EncryptedMediaResult struct {
	EncryptedURL     string `json:"encryptedUrl"`
	IV               string `json:"iv"`
	OriginalFileName string `json:"originalFileName"`
	MimeType         string `json:"mimeType"`
}

// MediaService stores opaque encrypted blobs in an S3-compatible bucket. The
// server never sees a decryption key; the blob is stored and served exactly
// as uploaded.
type MediaService struct {
	config *sc.Config
}

// NewMediaService constructs a MediaService.
func NewMediaService(config *sc.Config) *MediaService {
	return &MediaService{config: config}
}

// GetRandomStorageKey returns a date-prefixed object key for a new blob.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *MediaService) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// UploadEncrypted stores an already-encrypted blob and returns a presigned
// GET URL valid for the configured TTL. Content type is always
// application/octet-stream regardless of the original media type, since the
// stored bytes are ciphertext.
func (s *MediaService) UploadEncrypted(ctx context.Context, blob []byte, iv, originalName, mimeType string) (*EncryptedMediaResult, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty media payload")
	}
	if iv == "" {
		return nil, fmt.Errorf("missing iv")
	}

	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()
	contentType := "application/octet-stream"

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(blob),
		ContentType: &contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("error storing media: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.MediaURLTTL))
	if err != nil {
		return nil, fmt.Errorf("error presigning media url: %w", err)
	}

	return &EncryptedMediaResult{
		EncryptedURL:     req.URL,
		IV:               iv,
		OriginalFileName: originalName,
		MimeType:         mimeType,
	}, nil
}
