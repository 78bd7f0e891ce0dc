package models

import "time"

type DeviceInfo struct {
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Software string `json:"software,omitempty"`
}

type CameraSettings struct {
	FNumber      string `json:"f_number,omitempty"`
	ExposureTime string `json:"exposure_time,omitempty"`
	ISO          string `json:"iso,omitempty"`
	FocalLength  string `json:"focal_length,omitempty"`
	WhiteBalance string `json:"white_balance,omitempty"`
	Flash        string `json:"flash,omitempty"`
}

type ImageProperties struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// Metadata is the normalized bundle produced by either extraction backend.
type Metadata struct {
	Device          DeviceInfo        `json:"device_info"`
	Camera          CameraSettings    `json:"camera_settings"`
	RawGPS          map[string]string `json:"raw_gps,omitempty"`
	Latitude        *float64          `json:"latitude,omitempty"`
	Longitude       *float64          `json:"longitude,omitempty"`
	Timestamp       *time.Time        `json:"timestamp,omitempty"`
	TimestampSource string            `json:"timestamp_source,omitempty"`
	Image           ImageProperties   `json:"image_properties"`
	SourceFormat    SourceFormat      `json:"source_format"`
	ExtractionError string            `json:"extraction_error,omitempty"`
}

// HasCoordinates reports whether both decimal coordinates resolved.
func (m *Metadata) HasCoordinates() bool {
	return m != nil && m.Latitude != nil && m.Longitude != nil
}

// Persistable returns the bundle as it may be stored: nil for non-rich
// sources, a sentinel-only bundle when extraction failed, the full bundle
// otherwise.
func (m *Metadata) Persistable() *Metadata {
	if m == nil || !m.SourceFormat.Rich() {
		return nil
	}
	if m.ExtractionError != "" {
		return &Metadata{SourceFormat: m.SourceFormat, ExtractionError: m.ExtractionError}
	}
	return m
}
