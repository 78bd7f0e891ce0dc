package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/your-org/moments/internal/config"
)

const DefaultBaseURL = "https://api.openai.com/v1"

var ErrEmptyResponse = errors.New("model returned an empty response")

// Options fixes the sampling settings of one Client. Each pipeline step owns
// its own Client so settings never leak between steps.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Client is a single-attempt chat completion client.
type Client struct {
	api         openaigo.Client
	opts        Options
	maxImageDim int
}

// New returns nil when no API key is configured.
func New(cfg config.OpenAIConfig, opts Options) *Client {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	api := openaigo.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return &Client{api: api, opts: opts, maxImageDim: cfg.MaxImageDim}
}

// Complete sends a single user prompt and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, openaigo.UserMessage(prompt))
}

// DescribeImage sends the prompt together with the image. The image is
// downscaled to the configured bound and sent as a JPEG data URL.
func (c *Client) DescribeImage(ctx context.Context, img []byte, prompt string) (string, error) {
	jpegData, err := prepareImage(img, c.maxImageDim)
	if err != nil {
		return "", fmt.Errorf("prepare image: %w", err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
	parts := []openaigo.ChatCompletionContentPartUnionParam{
		openaigo.TextContentPart(prompt),
		openaigo.ImageContentPart(openaigo.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}
	return c.send(ctx, openaigo.UserMessage(parts))
}

func (c *Client) send(ctx context.Context, msg openaigo.ChatCompletionMessageParamUnion) (string, error) {
	params := openaigo.ChatCompletionNewParams{
		Model:    openaigo.ChatModel(c.opts.Model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{msg},
	}
	if c.opts.MaxTokens > 0 {
		params.MaxTokens = openaigo.Int(c.opts.MaxTokens)
	}
	if c.opts.Temperature > 0 {
		params.Temperature = openaigo.Float(c.opts.Temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
