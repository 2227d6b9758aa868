package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxPhotoBytes bounds an uploaded photo before encoding.
const DefaultMaxPhotoBytes = 5 << 20

// Upload is a file picked in the registration form.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ImageEncoder turns an uploaded image into a base64 data URI.
type ImageEncoder struct {
	MaxBytes int64
}

// NewImageEncoder returns an encoder accepting photos up to maxBytes
// (DefaultMaxPhotoBytes when maxBytes <= 0).
func NewImageEncoder(maxBytes int64) *ImageEncoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	return &ImageEncoder{MaxBytes: maxBytes}
}

// Encode reads up and returns "data:<mime>;base64,<payload>". The MIME type
// is sniffed from the content, not taken from the filename.
func (e *ImageEncoder) Encode(ctx context.Context, up *Upload) (string, error) {
	if up == nil || up.Content == nil || up.Size == 0 {
		return "", &ValidationError{Fields: []string{"photo"}, Err: ErrPhotoRequired}
	}

	data, err := io.ReadAll(io.LimitReader(up.Content, e.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("catalog: read photo %q: %w", up.Filename, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", &ValidationError{Fields: []string{"photo"}, Err: ErrPhotoRequired}
	}
	if int64(len(data)) > e.MaxBytes {
		return "", &ValidationError{
			Fields: []string{"photo"},
			Err:    fmt.Errorf("photo exceeds %d bytes", e.MaxBytes),
		}
	}

	mime := strings.TrimSpace(strings.SplitN(mimetype.Detect(data).String(), ";", 2)[0])
	if !strings.HasPrefix(mime, "image/") {
		return "", &ValidationError{
			Fields: []string{"photo"},
			Err:    errors.New("photo must be an image, got " + mime),
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
