package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path"
	"strings"

	"github.com/h2non/filetype"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageInfo struct {
	Width  int
	Height int
	Format string
	Mode   string
}

// isImageObject decides whether an object is worth downloading for image
// inspection. The content type is authoritative when present; keys with a
// known image extension are also accepted because uploads frequently arrive
// as application/octet-stream.
func isImageObject(key string, contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(key)), ".")
	if ext == "" {
		return false
	}
	return filetype.GetType(ext).MIME.Type == "image"
}

// inspectImage reads just the image header from the file at the given path
// and reports dimensions, format and color mode. The full pixel data is
// never decoded.
func inspectImage(filePath string) (imageInfo, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return imageInfo{}, fmt.Errorf("failed to open downloaded image: %w", err)
	}
	defer f.Close()

	config, format, err := image.DecodeConfig(f)
	if err != nil {
		return imageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	return imageInfo{
		Width:  config.Width,
		Height: config.Height,
		Format: strings.ToUpper(format),
		Mode:   colorModeName(config.ColorModel),
	}, nil
}

func colorModeName(model color.Model) string {
	switch model {
	case color.RGBAModel:
		return "RGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.AlphaModel:
		return "Alpha"
	case color.Alpha16Model:
		return "Alpha16"
	case color.GrayModel:
		return "Gray"
	case color.Gray16Model:
		return "Gray16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.NYCbCrAModel:
		return "NYCbCrA"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := model.(color.Palette); ok {
		return "Paletted"
	}
	return "Unknown"
}
