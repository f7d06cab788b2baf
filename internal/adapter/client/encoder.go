package client

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// Encoder re-encodes images to delivery constraints: longest side capped,
// transparency kept as PNG, everything else as JPEG at a fixed quality.
type Encoder struct {
	maxDimension int
	jpegQuality  int
}

func NewEncoder(maxDimension, jpegQuality int) *Encoder {
	if maxDimension == 0 {
		maxDimension = 1280
	}
	if jpegQuality == 0 {
		jpegQuality = 90
	}
	return &Encoder{maxDimension: maxDimension, jpegQuality: jpegQuality}
}

// Inspect decodes only the header.
func (e *Encoder) Inspect(data []byte) (entity.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return entity.ImageInfo{}, fmt.Errorf("decode config: %w", err)
	}
	return entity.ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Encode fully decodes, resizes to the maximum dimension preserving aspect
// ratio, and re-encodes. Sources with transparency stay PNG so the background
// survives; opaque sources become JPEG.
func (e *Encoder) Encode(data []byte) (entity.EncodedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.EncodedImage{}, fmt.Errorf("decode: %w", err)
	}

	img = e.resize(img)
	bounds := img.Bounds()

	var buf bytes.Buffer
	format := "jpeg"
	if hasAlpha(img) {
		format = "png"
		if err := png.Encode(&buf, img); err != nil {
			return entity.EncodedImage{}, fmt.Errorf("png encode: %w", err)
		}
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.jpegQuality}); err != nil {
			return entity.EncodedImage{}, fmt.Errorf("jpeg encode: %w", err)
		}
	}

	return entity.EncodedImage{
		Data:   buf.Bytes(),
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func (e *Encoder) resize(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= e.maxDimension && h <= e.maxDimension {
		return img
	}

	scale := float64(e.maxDimension) / float64(w)
	if h > w {
		scale = float64(e.maxDimension) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// hasAlpha reports whether the image carries any transparency. JPEG sources
// always decode opaque, so this only ever keeps PNG for images that need it.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
