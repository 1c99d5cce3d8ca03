package util

import (
	"fmt"
	"io"
	"mime/multipart"
)

// ReadUploadedFile reads an uploaded multipart file into memory, refusing
// anything larger than maxBytes.
func ReadUploadedFile(file *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if file.Size > maxBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", maxBytes)
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", maxBytes)
	}
	return data, nil
}
