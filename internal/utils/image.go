package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var allowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
}

const (
	menuImageMaxSide = 1280
	menuThumbSize    = 320
	menuImageQuality = 85
	menuThumbQuality = 80
)

func ValidateImageContentType(contentType string) bool {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if ct == "" {
		return false
	}
	return allowedImageContentTypes[ct]
}

func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return http.DetectContentType(sample)
}

func isHeifFamily(data []byte) bool {
	// HEIC/HEIF commonly use ISO BMFF: [size:4][ftyp:4][brand:4]...
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1", "heif":
		return true
	default:
		return false
	}
}

func decodeAndAutoRotate(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if isHeifFamily(data) {
			if heicImg, heicErr := decodeHEIC(data); heicErr == nil {
				return heicImg, nil
			}
		}
		return nil, err
	}

	// Only JPEGs typically carry EXIF orientation; ignore errors.
	if strings.EqualFold(format, "jpeg") {
		if ex, exErr := exif.Decode(bytes.NewReader(data)); exErr == nil {
			if tag, tagErr := ex.Get(exif.Orientation); tagErr == nil {
				if orient, convErr := tag.Int(0); convErr == nil {
					switch orient {
					case 2:
						img = imaging.FlipH(img)
					case 3:
						img = imaging.Rotate180(img)
					case 4:
						img = imaging.FlipV(img)
					case 5:
						img = imaging.Transpose(img)
					case 6:
						img = imaging.Rotate270(img)
					case 7:
						img = imaging.Transverse(img)
					case 8:
						img = imaging.Rotate90(img)
					}
				}
			}
		}
	}

	return img, nil
}

type MenuImageVariants struct {
	Display []byte
	Thumb   []byte
}

// BuildMenuImageVariants normalizes an uploaded menu photo into the two
// JPEGs the UI serves: a bounded display image and a square thumbnail.
func BuildMenuImageVariants(data []byte) (*MenuImageVariants, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image payload")
	}
	img, err := decodeAndAutoRotate(data)
	if err != nil {
		return nil, err
	}

	display := imaging.Fit(img, menuImageMaxSide, menuImageMaxSide, imaging.Lanczos)
	thumb := imaging.Fill(img, menuThumbSize, menuThumbSize, imaging.Center, imaging.Lanczos)

	var displayBuf bytes.Buffer
	if err := jpeg.Encode(&displayBuf, display, &jpeg.Options{Quality: menuImageQuality}); err != nil {
		return nil, err
	}
	var thumbBuf bytes.Buffer
	if err := jpeg.Encode(&thumbBuf, thumb, &jpeg.Options{Quality: menuThumbQuality}); err != nil {
		return nil, err
	}

	return &MenuImageVariants{Display: displayBuf.Bytes(), Thumb: thumbBuf.Bytes()}, nil
}
