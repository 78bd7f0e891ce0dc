package metadata

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/your-org/moments/internal/models"
)

// genericBackend reads standard embedded tags from JPEG/TIFF-style files.
type genericBackend struct{}

func (genericBackend) Read(data []byte) (*exif.Exif, models.ImageProperties, error) {
	var props models.ImageProperties
	cfg, format, cfgErr := image.DecodeConfig(bytes.NewReader(data))
	if cfgErr == nil {
		props = models.ImageProperties{Width: cfg.Width, Height: cfg.Height, Format: strings.ToUpper(format)}
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return nil, props, fmt.Errorf("decode exif: %w", err)
		}
		return x, props, fmt.Errorf("decode exif: %w", err)
	}
	if cfgErr != nil {
		return x, props, fmt.Errorf("decode image config: %w", cfgErr)
	}
	return x, props, nil
}
