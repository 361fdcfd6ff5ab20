// Package texture normalizes uploaded bitmaps on the write path. Stored
// planet textures are always square JPEGs at the canonical side length so the
// 3D renderer never has to rescale.
package texture

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// Size is the canonical texture side length in pixels.
	Size = 2048

	// AvatarSize is the canonical avatar side length in pixels.
	AvatarSize = 256

	// Quality is the JPEG re-encode quality.
	Quality = 90
)

// Normalize decodes an uploaded texture and returns it as a Size×Size JPEG,
// resizing with a bicubic (Catmull-Rom) filter when the input differs. A
// decode failure is reported to the caller; nothing is written anywhere.
func Normalize(data []byte) ([]byte, error) {
	return normalize(data, Size)
}

// NormalizeAvatar is Normalize at avatar dimensions.
func NormalizeAvatar(data []byte) ([]byte, error) {
	return normalize(data, AvatarSize)
}

func normalize(data []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != size || bounds.Dy() != size {
		img = imaging.Resize(img, size, size, imaging.CatmullRom)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}
	return buf.Bytes(), nil
}
