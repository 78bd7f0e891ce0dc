package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/your-org/moments/internal/models"
)

var errNoExifBlock = errors.New("no exif block in heic container")

// heicBackend pulls the Exif item out of the HEIF container. The container
// bundles timestamp, GPS and device information in one place, which is why
// this path feeds the persisted rich metadata.
type heicBackend struct{}

func (heicBackend) Read(data []byte) (*exif.Exif, models.ImageProperties, error) {
	props := models.ImageProperties{Format: "HEIC"}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		props.Width, props.Height = cfg.Width, cfg.Height
	}

	raw, err := goheif.ExtractExif(bytes.NewReader(data))
	if err != nil {
		return nil, props, fmt.Errorf("extract heic exif: %w", err)
	}
	block, err := exifBlock(raw)
	if err != nil {
		return nil, props, err
	}

	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return nil, props, fmt.Errorf("decode heic exif: %w", err)
		}
		return x, props, fmt.Errorf("decode heic exif: %w", err)
	}
	return x, props, nil
}

// exifBlock trims the HEIF item prefix so the payload starts at either the
// "Exif\0\0" header or the TIFF byte-order mark.
func exifBlock(raw []byte) ([]byte, error) {
	for _, marker := range [][]byte{[]byte("Exif\x00\x00"), []byte("II*\x00"), []byte("MM\x00*")} {
		if i := bytes.Index(raw, marker); i >= 0 {
			return raw[i:], nil
		}
	}
	return nil, errNoExifBlock
}
