package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/your-org/moments/internal/config"
)

func chatServer(t *testing.T, reply string, capture func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capture != nil {
			capture(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req["model"],
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) config.OpenAIConfig {
	return config.OpenAIConfig{APIKey: "sk-test", BaseURL: url, Timeout: 5 * time.Second, MaxImageDim: 16}
}

func TestCompleteSendsSettings(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := chatServer(t, "  food \n", func(req map[string]any) { got = req })
	c := New(testConfig(srv.URL), Options{Model: "gpt-4o-mini", MaxTokens: 15, Temperature: 0.2})

	out, err := c.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "food" {
		t.Fatalf("out = %q, want trimmed reply", out)
	}
	if got["model"] != "gpt-4o-mini" || got["max_tokens"] != float64(15) || got["temperature"] != 0.2 {
		t.Fatalf("unexpected request %v", got)
	}
}

func TestCompleteEmptyReply(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, "   ", nil)
	c := New(testConfig(srv.URL), Options{Model: "m"})
	if _, err := c.Complete(context.Background(), "x"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestDescribeImageSendsDataURL(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := chatServer(t, "Alex shares dinner.", func(req map[string]any) { got = req })
	c := New(testConfig(srv.URL), Options{Model: "gpt-4o"})

	out, err := c.DescribeImage(context.Background(), encodePNG(t, 64, 32), "describe")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if out != "Alex shares dinner." {
		t.Fatalf("out = %q", out)
	}
	raw, _ := json.Marshal(got["messages"])
	if !strings.Contains(string(raw), "data:image/jpeg;base64,") {
		t.Fatalf("image part missing from %s", raw)
	}
}

func TestNewWithoutKey(t *testing.T) {
	t.Parallel()

	if c := New(config.OpenAIConfig{}, Options{}); c != nil {
		t.Fatalf("expected nil client without api key")
	}
}

func TestPrepareImageDownscales(t *testing.T) {
	t.Parallel()

	out, err := prepareImage(encodePNG(t, 64, 32), 16)
	if err != nil {
		t.Fatalf("prepareImage: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" || cfg.Width != 16 || cfg.Height != 8 {
		t.Fatalf("got %s %dx%d, want jpeg 16x8", format, cfg.Width, cfg.Height)
	}
}

func TestPrepareImagePassesSmallJPEG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	out, err := prepareImage(buf.Bytes(), 16)
	if err != nil {
		t.Fatalf("prepareImage: %v", err)
	}
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatalf("small jpeg was re-encoded")
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
