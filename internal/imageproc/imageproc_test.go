package imageproc

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withPNGSize rewrites the IHDR dimensions of a PNG without touching its pixel
// data.
func withPNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestProcess_KeepsSmallImage(t *testing.T) {
	data := pngBytes(t, 40, 20)

	img, err := Process(data, 100)

	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.Equal(t, len(data), img.Size)
	assert.Equal(t, data, img.Data)
}

func TestProcess_NoLimit(t *testing.T) {
	img, err := Process(pngBytes(t, 300, 200), 0)

	require.NoError(t, err)
	assert.Equal(t, 300, img.Width)
}

func TestProcess_DownscalesLargeImage(t *testing.T) {
	img, err := Process(pngBytes(t, 400, 100), 100)

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 25, img.Height)
	assert.Equal(t, len(img.Data), img.Size)

	decoded, format, err := image.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestProcess_PortraitAspect(t *testing.T) {
	img, err := Process(pngBytes(t, 50, 200), 80)

	require.NoError(t, err)
	assert.Equal(t, 20, img.Width)
	assert.Equal(t, 80, img.Height)
}

func TestProcess_Rejects(t *testing.T) {
	valid := pngBytes(t, 10, 10)

	_, err := Process(nil, 100)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Process([]byte("definitely not an image"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Process(valid[:20], 100)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(1000, 1, 100)
	assert.Equal(t, 100, w)
	assert.Equal(t, 1, h)

	w, h = fitWithin(300, 300, 150)
	assert.Equal(t, 150, w)
	assert.Equal(t, 150, h)
}

func TestDecodeBase64(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	enc := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input string
	}{
		{"plain", enc},
		{"data URI", "data:image/png;base64," + enc},
		{"unpadded", base64.RawStdEncoding.EncodeToString(raw)},
		{"surrounding whitespace", "  " + enc + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}

	_, err := DecodeBase64("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = DecodeBase64("data:image/png," + enc)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeBase64("!!!not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestProcess_RejectsOversizedHeader(t *testing.T) {
	small := pngBytes(t, 2, 2)

	tests := []struct {
		name string
		w, h uint32
	}{
		{"huge square", 20000, 20000},
		{"too wide", MaxSide + 1, 10},
		{"too many pixels", 10000, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(withPNGSize(t, small, tt.w, tt.h), 1568)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidImage)
			assert.Contains(t, err.Error(), "exceeds pixel limit")
		})
	}
}
