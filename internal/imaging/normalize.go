package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// maxLongEdge bounds the longer image dimension before the image is sent
	// to the vision model. Enough detail for classification, small enough to
	// keep request payloads cheap.
	maxLongEdge = 1024
	jpegQuality = 85
)

// InvalidImageError means the input bytes could not be decoded as a raster
// image. Callers must not attempt a model invocation with such input.
type InvalidImageError struct {
	Err error
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %v", e.Err)
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// Normalize decodes an arbitrary raster image (JPEG, PNG or WebP),
// downscales it so the long edge is at most 1024 px, and re-encodes it as
// JPEG. The transform is pure; images already within bounds are still
// re-encoded so every model request carries the same payload format.
func Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidImageError{Err: err}
	}

	img := scaleDown(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleDown resizes src so its long edge is at most maxLongEdge, preserving
// aspect ratio. Images already within bounds are returned as is.
func scaleDown(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	long := w
	if h > long {
		long = h
	}
	if long <= maxLongEdge {
		return src
	}

	scale := float64(maxLongEdge) / float64(long)
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
