package main

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageObject(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		contentType string
		expected    bool
	}{
		{"Image content type", "uploads/photo", "image/png", true},
		{"Image content type with odd extension", "uploads/photo.data", "image/webp", true},
		{"Image extension with generic content type", "uploads/photo.jpg", "application/octet-stream", true},
		{"Uppercase image extension", "uploads/PHOTO.PNG", "application/octet-stream", true},
		{"Non-image content type and extension", "docs/report.pdf", "application/pdf", false},
		{"Text file", "notes.txt", "text/plain", false},
		{"No extension, generic content type", "uploads/blob", "application/octet-stream", false},
		{"Archive", "backup.tar", "application/x-tar", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isImageObject(tt.key, tt.contentType))
		})
	}
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filePath, data, 0o600))
	return filePath
}

func TestInspectImage(t *testing.T) {
	t.Run("PNG", func(t *testing.T) {
		filePath := writeTestFile(t, "img.png", encodeTestPNG(t, 640, 480))

		info, err := inspectImage(filePath)
		require.NoError(t, err)
		assert.Equal(t, 640, info.Width)
		assert.Equal(t, 480, info.Height)
		assert.Equal(t, "PNG", info.Format)
		assert.Equal(t, "NRGBA", info.Mode)
	})

	t.Run("JPEG", func(t *testing.T) {
		var buf bytes.Buffer
		img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
		require.NoError(t, jpeg.Encode(&buf, img, nil))
		filePath := writeTestFile(t, "img.jpg", buf.Bytes())

		info, err := inspectImage(filePath)
		require.NoError(t, err)
		assert.Equal(t, 8, info.Width)
		assert.Equal(t, 4, info.Height)
		assert.Equal(t, "JPEG", info.Format)
		assert.Equal(t, "YCbCr", info.Mode)
	})

	t.Run("GIF", func(t *testing.T) {
		var buf bytes.Buffer
		img := image.NewPaletted(image.Rect(0, 0, 5, 7), palette.Plan9)
		require.NoError(t, gif.Encode(&buf, img, nil))
		filePath := writeTestFile(t, "img.gif", buf.Bytes())

		info, err := inspectImage(filePath)
		require.NoError(t, err)
		assert.Equal(t, 5, info.Width)
		assert.Equal(t, 7, info.Height)
		assert.Equal(t, "GIF", info.Format)
		assert.Equal(t, "Paletted", info.Mode)
	})

	t.Run("Truncated image", func(t *testing.T) {
		data := encodeTestPNG(t, 640, 480)
		filePath := writeTestFile(t, "img.png", data[:8])

		_, err := inspectImage(filePath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode image header")
	})

	t.Run("Not an image", func(t *testing.T) {
		filePath := writeTestFile(t, "img.png", []byte("plain text pretending to be a png"))

		_, err := inspectImage(filePath)
		require.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := inspectImage(filepath.Join(t.TempDir(), "nope.png"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open downloaded image")
	})
}

func TestColorModeName(t *testing.T) {
	assert.Equal(t, "NRGBA", colorModeName(color.NRGBAModel))
	assert.Equal(t, "RGBA", colorModeName(color.RGBAModel))
	assert.Equal(t, "Gray", colorModeName(color.GrayModel))
	assert.Equal(t, "YCbCr", colorModeName(color.YCbCrModel))
	assert.Equal(t, "CMYK", colorModeName(color.CMYKModel))
	assert.Equal(t, "Paletted", colorModeName(color.Palette(palette.Plan9)))
	assert.Equal(t, "Unknown", colorModeName(color.ModelFunc(func(c color.Color) color.Color { return c })))
}
