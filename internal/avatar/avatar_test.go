package avatar

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func TestSaveCropsToSquare(t *testing.T) {
	s, err := NewStore(t.TempDir(), 64)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	src := imaging.New(400, 200, color.NRGBA{255, 128, 0, 255})
	if err := imaging.Encode(&buf, src, imaging.JPEG); err != nil {
		t.Fatal(err)
	}

	ref, err := s.Save("user-1", &buf)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "user-1.png" {
		t.Fatalf("ref = %q", ref)
	}
	path, err := s.Path(ref)
	if err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open saved avatar: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("expected 64x64, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	s, _ := NewStore(t.TempDir(), 0)
	if _, err := s.Save("user-1", strings.NewReader("definitely not a png")); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	s, _ := NewStore(t.TempDir(), 0)
	for _, ref := range []string{"", "../etc/passwd", "a/b.png", ".hidden"} {
		if _, err := s.Path(ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("Path(%q) expected ErrInvalidRef, got %v", ref, err)
		}
	}
}
