package metadata

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/your-org/moments/internal/models"
)

// Backend reads the EXIF block and image geometry for one source format.
// A backend may return partial results together with an error.
type Backend interface {
	Read(data []byte) (*exif.Exif, models.ImageProperties, error)
}

// Extractor turns raw image bytes into the normalized metadata bundle. Both
// backends share the same field mapping so callers never see the format.
type Extractor struct {
	backends map[models.SourceFormat]Backend
}

func NewExtractor() *Extractor {
	return &Extractor{
		backends: map[models.SourceFormat]Backend{
			models.SourceFormatHEIC:    heicBackend{},
			models.SourceFormatGeneric: genericBackend{},
		},
	}
}

// Extract never fails. Anything that goes wrong, including a panic inside
// a decoder, lands in ExtractionError and whatever was read before the
// failure is kept.
func (e *Extractor) Extract(data []byte, format models.SourceFormat) (md models.Metadata) {
	if format == "" {
		format = models.SourceFormatGeneric
	}
	md.SourceFormat = format

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("metadata extraction panicked", "format", format, "panic", r)
			md.ExtractionError = fmt.Sprintf("panic: %v", r)
		}
	}()

	if len(data) == 0 {
		md.ExtractionError = "empty image data"
		return md
	}

	backend, ok := e.backends[format]
	if !ok {
		backend = e.backends[models.SourceFormatGeneric]
	}

	x, props, err := backend.Read(data)
	md.Image = props
	if x != nil {
		applyExif(x, &md)
	}
	if err != nil {
		md.ExtractionError = err.Error()
	}
	return md
}

func applyExif(x *exif.Exif, md *models.Metadata) {
	md.Device = models.DeviceInfo{
		Make:     tagString(x, exif.Make),
		Model:    tagString(x, exif.Model),
		Software: tagString(x, exif.Software),
	}
	md.Camera = models.CameraSettings{
		FNumber:      tagString(x, exif.FNumber),
		ExposureTime: tagString(x, exif.ExposureTime),
		ISO:          tagString(x, exif.ISOSpeedRatings),
		FocalLength:  tagString(x, exif.FocalLength),
		WhiteBalance: tagString(x, exif.WhiteBalance),
		Flash:        tagString(x, exif.Flash),
	}

	gps := map[string]string{}
	_ = x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		if strings.HasPrefix(string(name), "GPS") && name != exif.GPSInfoIFDPointer {
			gps[string(name)] = tagValue(tag)
		}
		return nil
	}))
	if len(gps) > 0 {
		md.RawGPS = gps
		md.Latitude, md.Longitude = Coordinates(
			gps[string(exif.GPSLatitude)], gps[string(exif.GPSLatitudeRef)],
			gps[string(exif.GPSLongitude)], gps[string(exif.GPSLongitudeRef)],
		)
	}

	md.Timestamp, md.TimestampSource = ResolveTimestamp(
		tagString(x, exif.DateTimeOriginal),
		tagString(x, exif.DateTime),
	)

	if md.Image.Width == 0 || md.Image.Height == 0 {
		md.Image.Width = tagInt(x, exif.PixelXDimension)
		md.Image.Height = tagInt(x, exif.PixelYDimension)
	}
}

type walkFunc func(name exif.FieldName, tag *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error { return f(name, tag) }

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	return tagValue(tag)
}

func tagValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	}
	return strings.Trim(tag.String(), `"`)
}

func tagInt(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}
