// Package avatar stores profile pictures as square PNG thumbnails.
package avatar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultSize = 256
	// MaxUploadBytes bounds what Save will read from an upload.
	MaxUploadBytes = 5 << 20
)

var (
	ErrInvalidImage = errors.New("avatar is not a supported image")
	ErrInvalidRef   = errors.New("invalid avatar reference")
)

type Store struct {
	dir  string
	size int
}

func NewStore(dir string, size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create avatar directory: %w", err)
	}
	return &Store{dir: dir, size: size}, nil
}

// Save decodes r, center-crops it to a square thumbnail and writes it as
// <ownerID>.png. It returns the file reference to store on the profile.
func (s *Store) Save(ownerID string, r io.Reader) (string, error) {
	img, err := imaging.Decode(io.LimitReader(r, MaxUploadBytes), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	thumb := imaging.Fill(img, s.size, s.size, imaging.Center, imaging.Lanczos)

	ref := filepath.Base(ownerID) + ".png"
	tmp := filepath.Join(s.dir, ref+".tmp.png")
	if err := imaging.Save(thumb, tmp); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, ref)); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish avatar: %w", err)
	}
	return ref, nil
}

// Path resolves a stored reference inside the avatar directory.
func (s *Store) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.dir, ref), nil
}
