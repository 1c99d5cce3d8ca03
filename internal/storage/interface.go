package storage

import "context"

// ImageStore stores post images. Implementations must be safe for concurrent use.
type ImageStore interface {
	UploadImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

var _ ImageStore = (*S3Uploader)(nil)
