package metadata

import (
	"strings"
	"time"
)

// exifDateLayout is the fixed-width EXIF date-time pattern YYYY:MM:DD HH:MM:SS.
const exifDateLayout = "2006:01:02 15:04:05"

const (
	SourceDateTimeOriginal = "DateTimeOriginal"
	SourceDateTime         = "DateTime"
)

// ResolveTimestamp picks the capture time. The original-capture tag wins
// whenever it is present; the generic modification tag is only consulted
// when it is absent. The chosen tag is parsed alone, so a malformed
// original-capture value yields no timestamp rather than falling through.
// EXIF carries no zone; the wall-clock value is kept as UTC.
func ResolveTimestamp(original, modified string) (*time.Time, string) {
	raw, source := cleanTag(original), SourceDateTimeOriginal
	if raw == "" {
		raw, source = cleanTag(modified), SourceDateTime
	}
	if raw == "" {
		return nil, ""
	}

	t, err := time.ParseInLocation(exifDateLayout, raw, time.UTC)
	if err != nil {
		return nil, ""
	}
	return &t, source
}

func cleanTag(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"`+"\x00"))
}
