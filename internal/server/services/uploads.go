package services

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/filex"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrInvalidFileType = errors.New("invalid file type")
)

var allowedImageExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageStore keeps uploaded property images on disk.
type ImageStore struct {
	dir string
	now func() time.Time
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir, now: time.Now}
}

func (s *ImageStore) Dir() string { return s.dir }

// Save stores content under a timestamped, sanitised version of filename
// and returns the stored name.
func (s *ImageStore) Save(filename string, content io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", ErrNoFile
	}
	if !allowedImageExt[strings.ToLower(filepath.Ext(base))] {
		return "", ErrInvalidFileType
	}

	safe := strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	name := s.now().Format("20060102_150405") + "_" + safe

	f, err := filex.CreateInDir(s.dir, name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}
