package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedImageType is returned for uploads whose extension is not an image.
var ErrUnsupportedImageType = errors.New("unsupported image type")

// S3Uploader handles image uploads to AWS S3
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader. baseURL is the public prefix
// (CDN or bucket website) that object keys are appended to.
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

// UploadImage stores an image under images/{year}/{month}/{userID}/{unix-nanos}{ext}.
func (u *S3Uploader) UploadImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error) {
	extension := strings.ToLower(filepath.Ext(originalFilename))
	contentType, ok := imageContentType(extension)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageType, extension)
	}

	now := u.now().UTC()
	key := BuildImageKey(now, userID, extension)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(imageData),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000, immutable"),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    PublicURL(u.baseURL, key),
		Bucket: u.bucket,
		Region: u.region,
		Size:   int64(len(imageData)),
	}, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

// BuildImageKey returns the object key for an image uploaded at t.
func BuildImageKey(t time.Time, userID, extension string) string {
	return fmt.Sprintf("images/%d/%02d/%s/%d%s", t.Year(), t.Month(), userID, t.UnixNano(), extension)
}

// PublicURL joins baseURL and key.
func PublicURL(baseURL, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), key)
}

// KeyFromURL recovers the object key from a stored public URL.
func KeyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// IsSupportedImage reports whether filename has an accepted image extension.
func IsSupportedImage(filename string) bool {
	_, ok := imageContentType(strings.ToLower(filepath.Ext(filename)))
	return ok
}

func imageContentType(extension string) (string, bool) {
	switch extension {
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".png":
		return "image/png", true
	case ".gif":
		return "image/gif", true
	case ".webp":
		return "image/webp", true
	case ".heic":
		return "image/heic", true
	default:
		return "", false
	}
}
