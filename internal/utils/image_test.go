package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestValidateImageContentType(t *testing.T) {
	valid := []string{"image/jpeg", "image/png", "IMAGE/WEBP", " image/heic "}
	for _, ct := range valid {
		if !ValidateImageContentType(ct) {
			t.Fatalf("expected %q to be allowed", ct)
		}
	}
	invalid := []string{"", "application/pdf", "text/html", "video/mp4"}
	for _, ct := range invalid {
		if ValidateImageContentType(ct) {
			t.Fatalf("expected %q to be rejected", ct)
		}
	}
}

func TestIsHeifFamily(t *testing.T) {
	heic := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	heic = append(heic, make([]byte, 8)...)
	if !isHeifFamily(heic) {
		t.Fatal("expected heic brand to be detected")
	}

	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0, 0, 0, 0, 0}
	if isHeifFamily(jpegHeader) {
		t.Fatal("expected jpeg header to be rejected")
	}
	if isHeifFamily(nil) {
		t.Fatal("expected short payload to be rejected")
	}
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestBuildMenuImageVariants(t *testing.T) {
	data := testJPEG(t, 2000, 1000)

	variants, err := BuildMenuImageVariants(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	display, err := jpeg.Decode(bytes.NewReader(variants.Display))
	if err != nil {
		t.Fatalf("display variant is not a jpeg: %v", err)
	}
	bounds := display.Bounds()
	if bounds.Dx() > menuImageMaxSide || bounds.Dy() > menuImageMaxSide {
		t.Fatalf("display variant exceeds bound: %dx%d", bounds.Dx(), bounds.Dy())
	}

	thumb, err := jpeg.Decode(bytes.NewReader(variants.Thumb))
	if err != nil {
		t.Fatalf("thumb variant is not a jpeg: %v", err)
	}
	tb := thumb.Bounds()
	if tb.Dx() != menuThumbSize || tb.Dy() != menuThumbSize {
		t.Fatalf("expected %dx%d thumb, got %dx%d", menuThumbSize, menuThumbSize, tb.Dx(), tb.Dy())
	}
}

func TestBuildMenuImageVariantsRejectsGarbage(t *testing.T) {
	if _, err := BuildMenuImageVariants(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := BuildMenuImageVariants([]byte("not an image")); err == nil {
		t.Fatal("expected error for non-image payload")
	}
}

func TestDetectContentType(t *testing.T) {
	if got := DetectContentType(testJPEG(t, 10, 10)); got != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", got)
	}
	if got := DetectContentType(nil); got != "" {
		t.Fatalf("expected empty for empty payload, got %s", got)
	}
}
