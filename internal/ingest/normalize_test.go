package ingest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/your-org/moments/internal/models"
)

func pngBytes(t *testing.T, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
			if transparent {
				c.A = 0
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 5, 5)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeJPEGPassthrough(t *testing.T) {
	t.Parallel()

	data := jpegBytes(t)
	n, err := Normalize("photo.JPG", data, 0)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if n.Converted || !bytes.Equal(n.JPEG, data) || n.Format != models.SourceFormatGeneric || n.Ext != ".jpg" {
		t.Fatalf("unexpected result %+v", n)
	}
}

func TestNormalizeConvertsPNG(t *testing.T) {
	t.Parallel()

	n, err := Normalize("", pngBytes(t, true), 0)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !n.Converted || n.Ext != ".png" || n.Width != 4 || n.Height != 3 {
		t.Fatalf("unexpected result %+v", n)
	}

	img, format, err := image.Decode(bytes.NewReader(n.JPEG))
	if err != nil || format != "jpeg" {
		t.Fatalf("output is not a jpeg: %s %v", format, err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent pixel not flattened to white: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("definitely not an image"),
		"fake heic": []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"),
		"truncated": jpegBytes(t)[:10],
	} {
		if _, err := Normalize("upload.bin", data, 0); !errors.Is(err, ErrUnsupportedImage) {
			t.Fatalf("%s: err = %v, want ErrUnsupportedImage", name, err)
		}
	}
}

// pngHeader returns a PNG whose IHDR claims width x height while carrying a
// single pixel of data. Only a header read can accept it.
func pngHeader(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// signature (8) + IHDR length (4) + type (4), then width and height
	binary.BigEndian.PutUint32(data[16:], width)
	binary.BigEndian.PutUint32(data[20:], height)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestNormalizeRejectsOversizedImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		maxPixels int
	}{
		{"header claims 10 gigapixels", pngHeader(t, 100_000, 100_000), 0},
		{"just over the default budget", pngHeader(t, 10_000, 5_001), 0},
		{"real image over a small budget", pngBytes(t, false), 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Normalize("bomb.png", tt.data, tt.maxPixels)
			if !errors.Is(err, ErrUnsupportedImage) {
				t.Fatalf("err = %v, result %+v; want ErrUnsupportedImage", err, n)
			}
		})
	}

	if _, err := Normalize("ok.png", pngBytes(t, false), 12); err != nil {
		t.Fatalf("image exactly at the budget rejected: %v", err)
	}
}
