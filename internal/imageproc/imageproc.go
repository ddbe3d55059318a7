// Package imageproc normalizes uploaded meal photos before analysis.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"strings"

	// Registered decoders
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kamilpajak/nutrilens/internal/vision"
)

// JPEGQuality is used when an image has to be re-encoded.
const JPEGQuality = 85

// Decoders allocate the full pixel buffer from the header, so dimensions are
// checked before decoding.
const (
	MaxSide   = 12000
	MaxPixels = 50_000_000
)

var (
	ErrEmpty             = errors.New("image is empty")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidImage      = errors.New("invalid image data")
)

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Process validates data as a photo and returns it ready for a provider.
// Images whose longer side exceeds maxDim are downscaled and re-encoded as
// JPEG; a maxDim of zero keeps the original size.
func Process(data []byte, maxDim int) (*vision.ProcessedImage, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mimeType := http.DetectContentType(data)
	if !supported[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide || cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}

	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return &vision.ProcessedImage{Data: data, MIMEType: mimeType, Width: w, Height: h, Size: len(data)}, nil
	}

	newW, newH := fitWithin(w, h, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	out := buf.Bytes()
	return &vision.ProcessedImage{Data: out, MIMEType: "image/jpeg", Width: newW, Height: newH, Size: len(out)}, nil
}

// fitWithin scales w x h so the longer side equals maxDim, keeping the
// aspect ratio.
func fitWithin(w, h, maxDim int) (int, int) {
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

// DecodeBase64 decodes a base64 image, with or without a data: URI prefix.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.Contains(s[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
		}
		s = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}
