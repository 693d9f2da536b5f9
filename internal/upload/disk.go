package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type DiskStorage struct {
	dir    string
	prefix string
}

func NewDiskStorage(dir, publicPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStorage{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

func (s *DiskStorage) Dir() string {
	return s.dir
}

func (s *DiskStorage) Save(_ context.Context, img Image) (string, error) {
	dst := filepath.Join(s.dir, filepath.Base(img.Key))

	// O_EXCL so a key can never overwrite another upload
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	if _, err := f.Write(img.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close upload: %w", err)
	}

	return path.Join(s.prefix, img.Key), nil
}

// Delete removes a file previously returned by Save. Unknown references are ignored.
func (s *DiskStorage) Delete(_ context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.prefix+"/") {
		return nil
	}

	name := path.Base(ref)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
