package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/jdeng/goheif"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/your-org/moments/internal/metadata"
	"github.com/your-org/moments/internal/models"
)

// ErrUnsupportedImage rejects uploads that do not decode as an image.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

const (
	jpegQuality = 90
	heicQuality = 95

	// DefaultMaxPixels bounds the decoded size of an upload. Compressed size
	// says little about it: a few hundred KB of PNG can expand to gigabytes.
	DefaultMaxPixels = 50_000_000
)

// Normalized is an upload converted to the JPEG every downstream consumer
// reads.
type Normalized struct {
	JPEG   []byte
	Format models.SourceFormat
	// Ext is the extension the original bytes are stored under.
	Ext    string
	Width  int
	Height int
	// Converted is false when the upload already was a JPEG and JPEG holds
	// the original bytes.
	Converted bool
}

// Normalize decodes data and re-encodes it as JPEG. JPEG uploads pass
// through unchanged. Images with more than maxPixels pixels are rejected
// from their header before any pixel data is decoded; maxPixels <= 0 means
// DefaultMaxPixels.
func Normalize(filename string, data []byte, maxPixels int) (*Normalized, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	format := metadata.DetectFormat(filename, data)
	if format == models.SourceFormatHEIC {
		cfg, err := heicConfig(data)
		if err != nil {
			return nil, fmt.Errorf("%w: read heic header: %v", ErrUnsupportedImage, err)
		}
		if err := checkPixels(cfg, maxPixels); err != nil {
			return nil, err
		}
		img, err := decodeHEIC(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode heic: %v", ErrUnsupportedImage, err)
		}
		return encode(img, format, ".heic", heicQuality)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if err := checkPixels(cfg, maxPixels); err != nil {
		return nil, err
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	ext := originalExt(filename, name)
	if name == "jpeg" {
		b := img.Bounds()
		return &Normalized{JPEG: data, Format: format, Ext: ext, Width: b.Dx(), Height: b.Dy()}, nil
	}
	return encode(img, format, ext, jpegQuality)
}

func checkPixels(cfg image.Config, maxPixels int) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

func heicConfig(data []byte) (cfg image.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("heic header panic: %v", r)
		}
	}()
	return goheif.DecodeConfig(bytes.NewReader(data))
}

// decodeHEIC turns decoder panics on malformed containers into errors.
func decodeHEIC(data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("heic decoder panic: %v", r)
		}
	}()
	return goheif.Decode(bytes.NewReader(data))
}

func encode(img image.Image, format models.SourceFormat, ext string, quality int) (*Normalized, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds", ErrUnsupportedImage)
	}

	// flatten transparency onto white; JPEG has no alpha channel
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(flat, flat.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(flat, flat.Bounds(), img, b.Min, xdraw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return &Normalized{
		JPEG:      buf.Bytes(),
		Format:    format,
		Ext:       ext,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Converted: true,
	}, nil
}

func originalExt(filename, decoded string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if decoded == "jpeg" {
		return ".jpg"
	}
	return "." + decoded
}
