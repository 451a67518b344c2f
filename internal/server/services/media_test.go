package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/techconhub/messaging/internal/server/config"
)

func newMediaService() *MediaService {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.S3Region = "us-east-1"
	cfg.S3RootUser = "minioadmin"
	cfg.S3RootPassword = "minioadmin"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3Bucket = "encrypted-media"
	return NewMediaService(cfg)
}

func stubAWSFactories(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPre := newS3PresignClient
	origPut := putObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		newS3PresignClient = origPre
		putObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func Test_getClient_AppliesEndpointAndRegion(t *testing.T) {
	svc := newMediaService()
	stubAWSFactories(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var capturedBaseEndpoint string
	var pathStyle bool
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		pathStyle = opts.UsePathStyle
		return &s3.Client{}
	}

	c, err := svc.getClient()
	if err != nil {
		t.Fatalf("getClient err: %v", err)
	}
	if c == nil {
		t.Fatalf("nil client")
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}
	if !pathStyle {
		t.Fatalf("expected path-style addressing")
	}
}

func Test_getClient_LoadError(t *testing.T) {
	svc := newMediaService()
	stubAWSFactories(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := svc.getClient(); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func TestUploadEncrypted_Success(t *testing.T) {
	svc := newMediaService()
	stubAWSFactories(t)

	blob := []byte("ciphertext-bytes")

	var storedKey string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if *in.Bucket != "encrypted-media" {
			t.Fatalf("bucket mismatch: %q", *in.Bucket)
		}
		if *in.ContentType != "application/octet-stream" {
			t.Fatalf("content type mismatch: %q", *in.ContentType)
		}
		body, err := io.ReadAll(in.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != string(blob) {
			t.Fatalf("stored bytes differ from upload")
		}
		storedKey = *in.Key
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key != storedKey {
			t.Fatalf("presigned key %q differs from stored key %q", *in.Key, storedKey)
		}
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + *in.Key + "?sig=x"}, nil
	}

	res, err := svc.UploadEncrypted(context.Background(), blob, "base64-iv", "photo.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("UploadEncrypted err: %v", err)
	}
	if !strings.HasPrefix(res.EncryptedURL, "https://s3.local/media/") {
		t.Fatalf("unexpected url: %q", res.EncryptedURL)
	}
	if res.IV != "base64-iv" || res.OriginalFileName != "photo.jpg" || res.MimeType != "image/jpeg" {
		t.Fatalf("metadata not echoed back: %+v", res)
	}
}

func TestUploadEncrypted_PutError(t *testing.T) {
	svc := newMediaService()
	stubAWSFactories(t)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}

	_, err := svc.UploadEncrypted(context.Background(), []byte("x"), "iv", "f", "t")
	if err == nil || !strings.Contains(err.Error(), "put-fail") {
		t.Fatalf("expected put-fail, got %v", err)
	}
}

func TestUploadEncrypted_PresignError(t *testing.T) {
	svc := newMediaService()
	stubAWSFactories(t)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}

	_, err := svc.UploadEncrypted(context.Background(), []byte("x"), "iv", "f", "t")
	if err == nil || !strings.Contains(err.Error(), "presign-fail") {
		t.Fatalf("expected presign-fail, got %v", err)
	}
}

func TestUploadEncrypted_RejectsEmptyInput(t *testing.T) {
	svc := newMediaService()

	if _, err := svc.UploadEncrypted(context.Background(), nil, "iv", "f", "t"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := svc.UploadEncrypted(context.Background(), []byte("x"), "", "f", "t"); err == nil {
		t.Fatalf("expected error for missing iv")
	}
}

func TestGetRandomStorageKey_Unique(t *testing.T) {
	a := GetRandomStorageKey()
	b := GetRandomStorageKey()
	if a == b {
		t.Fatalf("expected unique keys, got %q twice", a)
	}
	if !strings.HasPrefix(a, "media/") {
		t.Fatalf("unexpected key prefix: %q", a)
	}
}
