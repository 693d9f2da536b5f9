package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("only image files are allowed")
	ErrTooLarge = errors.New("image exceeds the upload size limit")
)

// the extension allow list and the sniffed type must both pass
var allowedExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// File is a single uploaded file as received from the transport.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Image is a validated upload ready to be stored under Key.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// Storage persists images and hands back the reference stored on a post.
type Storage interface {
	Save(ctx context.Context, img Image) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Prepare reads and validates f. The storage key is random, never derived
// from the client file name or the clock.
func Prepare(f File, maxBytes int64) (Image, error) {
	if maxBytes > 0 && f.Size > maxBytes {
		return Image{}, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if !allowedExt[ext] {
		return Image{}, ErrNotImage
	}

	r := f.Reader
	if maxBytes > 0 {
		r = io.LimitReader(f.Reader, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)

	var keyExt string
	for m := mt; m != nil; m = m.Parent() {
		if e, ok := allowedMIME[m.String()]; ok {
			keyExt = e
			break
		}
	}

	if keyExt == "" {
		return Image{}, ErrNotImage
	}

	return Image{
		Key:         uuid.NewString() + keyExt,
		ContentType: mt.String(),
		Data:        data,
	}, nil
}
