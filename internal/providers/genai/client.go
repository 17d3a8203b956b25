package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"slideflow/internal/domain"
	"slideflow/internal/infra"
)

const systemPrompt = "You are a professional presentation slide visual designer."

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Referer    string
	Title      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client renders slide images through an OpenRouter-compatible chat
// completions endpoint. Without an API key it produces deterministic synthetic
// PNGs so the rest of the pipeline stays usable in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	referer    string
	title      string
	httpClient *http.Client
	logger     *infra.Logger
}

// ServiceError is returned for every failure of the remote image call.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("image generation failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "image generation failed: " + e.Message
}

// Unwrap exposes the underlying cause and lets callers match
// domain.ErrProviderFailure.
func (e *ServiceError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrProviderFailure, e.Err}
	}
	return []error{domain.ErrProviderFailure}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	Modalities      []string      `json:"modalities"`
	MaxOutputTokens int           `json:"max_output_tokens,omitempty"`
}

type chatImage struct {
	Type     string `json:"type"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string      `json:"content"`
			Images  []chatImage `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Code    any    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

var dataURLPattern = regexp.MustCompile(`^data:(image/[^;]+);base64,(.+)$`)

// NewClient constructs a client with sane defaults. Callers may provide a nil
// HTTP client; a reusable one with a connection timeout will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	model := opts.Model
	if model == "" {
		model = "google/gemini-3-pro-image-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		referer:    opts.Referer,
		title:      opts.Title,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured image model identifier.
func (c *Client) Model() string {
	return c.model
}

// Synthetic reports whether the client renders placeholders instead of calling
// the remote API.
func (c *Client) Synthetic() bool {
	return c.apiKey == ""
}

// RenderImage returns the encoded image bytes and their MIME type.
func (c *Client) RenderImage(ctx context.Context, prompt string, width, height int) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &ServiceError{Message: err.Error(), Err: err}
	}
	if c.Synthetic() {
		data := renderSyntheticImage(width, height, deterministicSeed(c.model, prompt, width, height))
		if data == nil {
			return nil, "", errors.New("genai: encode synthetic image")
		}
		c.logger.Debug().
			Str("model", c.model).
			Int("width", width).
			Int("height", height).
			Msg("genai: rendered synthetic slide image")
		return data, "image/png", nil
	}

	start := time.Now()
	data, mime, err := c.remoteRenderImage(ctx, prompt)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("model", c.model).
			Dur("elapsed", time.Since(start)).
			Msg("genai: remote image generation failed")
		return nil, "", err
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("genai: generated remote slide image")
	return data, mime, nil
}

func (c *Client) remoteRenderImage(ctx context.Context, prompt string) ([]byte, string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Modalities:      []string{"image", "text"},
		MaxOutputTokens: 2048,
	}

	var response chatResponse
	if err := c.invoke(ctx, "/chat/completions", payload, &response); err != nil {
		return nil, "", err
	}
	if len(response.Choices) == 0 {
		return nil, "", &ServiceError{Message: "no choices returned from image generation API"}
	}
	images := response.Choices[0].Message.Images
	if len(images) == 0 {
		return nil, "", &ServiceError{Message: "no images returned from image generation API"}
	}
	first := images[0]
	if first.Type == "image_url" {
		if m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(first.ImageURL.URL)); m != nil {
			data, err := base64.StdEncoding.DecodeString(m[2])
			if err != nil {
				return nil, "", &ServiceError{Message: "decode image payload", Err: err}
			}
			if len(data) == 0 {
				return nil, "", &ServiceError{Message: "empty image payload"}
			}
			return data, m[1], nil
		}
	}
	return nil, "", &ServiceError{Message: "image API returned an unsupported payload format"}
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ServiceError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &ServiceError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServiceError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Message: "decode response", Err: err}
	}
	return nil
}

// maxSyntheticSide bounds the long side of a placeholder image.
const maxSyntheticSide = 1920

func renderSyntheticImage(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	width, height = capSize(width, height, maxSyntheticSide)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	// Title band and footer band roughly where a slide keeps its text.
	band := max(24, height/10)
	draw.Draw(img, image.Rect(0, band, width, band*2), &image.Uniform{accent}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, height-band, width, height), &image.Uniform{accent}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// capSize scales width and height down so the long side is at most limit,
// keeping the ratio and at least one pixel per side.
func capSize(width, height, limit int) (int, int) {
	long := max(width, height)
	if long <= limit {
		return width, height
	}
	w := max(1, int(int64(width)*int64(limit)/int64(long)))
	h := max(1, int(int64(height)*int64(limit)/int64(long)))
	return w, h
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
