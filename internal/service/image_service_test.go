package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"strings"
	"testing"

	"circles/internal/config"

	"github.com/chai2010/webp"
)

func TestImageServiceUploadAvatar(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5}
	svc := NewImageService(cfg)

	content := noisyPNG(t, 1200, 800)
	img, err := svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:      42,
		Filename:    "avatar.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if img.Width != AvatarSize || img.Height != AvatarSize {
		t.Fatalf("expected %dx%d avatar, got %dx%d", AvatarSize, AvatarSize, img.Width, img.Height)
	}
	if !strings.HasPrefix(img.URL, AvatarURLPrefix+"/") || !strings.HasSuffix(img.URL, ".webp") {
		t.Fatalf("unexpected avatar url %q", img.URL)
	}

	raw, err := os.ReadFile(img.Path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", img.Path, err)
	}
	decoded, err := webp.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("stored avatar is not webp: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != AvatarSize || b.Dy() != AvatarSize {
		t.Fatalf("stored avatar has bounds %v", b)
	}

	// Same content by same user maps to the same file.
	img2, err := svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:      42,
		Filename:    "avatar-copy.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("repeat upload failed: %v", err)
	}
	if img2.URL != img.URL {
		t.Fatalf("expected deduped url %q, got %q", img.URL, img2.URL)
	}
}

func TestImageServiceKeepsSmallAvatarsAtSourceSize(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 1})

	img, err := svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:  3,
		Content: transparentPNG(t, 64, 40),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if img.Width != 40 || img.Height != 40 {
		t.Fatalf("expected centered 40x40 crop, got %dx%d", img.Width, img.Height)
	}
}

func TestImageServiceUploadValidation(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: t.TempDir(), MaxUploadMB: 1})

	_, err := svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:      1,
		Filename:    "bad.txt",
		ContentType: "text/plain",
		Content:     []byte("not an image"),
	})
	assertValidationError(t, err)

	tooLarge := bytes.Repeat([]byte{'a'}, 2*1024*1024)
	_, err = svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:      1,
		Filename:    "huge.png",
		ContentType: "image/png",
		Content:     tooLarge,
	})
	assertValidationError(t, err)

	_, err = svc.UploadAvatar(context.Background(), UploadImageInput{
		UserID:      1,
		ContentType: "image/gif",
		Content:     transparentPNG(t, 8, 8),
	})
	assertValidationError(t, err)
}

func TestSquareCrop(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		w, h       int
		x, y, side int
	}{
		{"Landscape", 1200, 800, 200, 0, 800},
		{"Portrait", 300, 500, 0, 100, 300},
		{"Square", 64, 64, 0, 0, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, side := squareCrop(tt.w, tt.h)
			if x != tt.x || y != tt.y || side != tt.side {
				t.Fatalf("squareCrop(%d, %d) = %d, %d, %d", tt.w, tt.h, x, y, side)
			}
		})
	}
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	src := rand.NewSource(42)
	// #nosec G404: weak random is fine for test image generation
	rng := rand.New(src)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				// #nosec G115: Intn(256) is safe for uint8
				R: uint8(rng.Intn(256)),
				// #nosec G115
				G: uint8(rng.Intn(256)),
				// #nosec G115
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode noisy png: %v", err)
	}
	return buf.Bytes()
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// #nosec G115: modulo 255 is safe for uint8
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 0, B: 0, A: uint8((x + y) % 255)})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode transparent png: %v", err)
	}
	return buf.Bytes()
}
