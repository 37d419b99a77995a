package imagestore

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ready2cook/backend/internal/domain"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client loads AWS credentials from the environment or shared config.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("imagestore: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// S3Store uploads images to a bucket and returns their public URL.
type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
	prefix  string
}

// NewS3Store creates an S3Store. When publicBaseURL is empty the virtual
// hosted URL of the bucket is used.
func NewS3Store(client S3API, bucket, publicBaseURL string) *S3Store {
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: base,
		prefix:  "recipe-images/",
	}
}

// Relocate uploads sourcePath under its base name and removes the local file.
func (s *S3Store) Relocate(ctx context.Context, sourcePath string) (string, error) {
	name, err := imageName(sourcePath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: open image: %v", domain.ErrStorage, err)
	}
	defer f.Close()

	key := s.prefix + name
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: upload image: %v", domain.ErrStorage, err)
	}

	f.Close()
	if err := os.Remove(sourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: remove source image: %v", domain.ErrStorage, err)
	}

	return s.baseURL + "/" + key, nil
}

// Discard deletes an uploaded image. URLs not served by this store are ignored.
func (s *S3Store) Discard(ctx context.Context, location string) error {
	key, ok := strings.CutPrefix(location, s.baseURL+"/")
	if !ok || key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete image: %v", domain.ErrStorage, err)
	}
	return nil
}
