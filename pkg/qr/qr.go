package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyContent is returned when the content to encode is empty.
var ErrEmptyContent = errors.New("qr content is empty")

const (
	// DefaultSize is the pixel width/height used when size is not positive.
	DefaultSize = 256

	// maxSize caps image dimensions to keep response payloads reasonable.
	maxSize = 1024
)

// PNG encodes content as a QR code PNG image of the given pixel size.
// Sizes outside (0, 1024] fall back to DefaultSize.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 || size > maxSize {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	return png, nil
}
