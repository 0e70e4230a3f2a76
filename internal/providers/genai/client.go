package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/retry"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultTextModel  = "gemini-3-flash-preview"
)

// apiKeyHeader carries the key so it never ends up in URLs or their errors.
const apiKeyHeader = "x-goog-api-key"

// KeySource resolves an API key at call time, e.g. from the credential store.
type KeySource func(ctx context.Context) (string, error)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	KeySource  KeySource
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the Gemini generateContent endpoint. It performs a single
// attempt per call; retries belong to the caller.
type Client struct {
	apiKey     string
	keySource  KeySource
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// Blob is binary inline content.
type Blob struct {
	MimeType string
	Data     []byte
}

// Part is one piece of request content: text or inline data.
type Part struct {
	Text   string
	Inline *Blob
}

// TextPart builds a text part.
func TextPart(s string) Part { return Part{Text: s} }

// InlinePart builds an inline data part.
func InlinePart(mime string, data []byte) Part {
	return Part{Inline: &Blob{MimeType: mime, Data: data}}
}

// Request is a single-turn generateContent request.
type Request struct {
	Parts            []Part
	AspectRatio      string
	ResponseMimeType string
	ResponseSchema   any
}

// Response holds the decoded parts of the first candidate.
type Response struct {
	Texts        []string
	Images       []Blob
	FinishReason string
	BlockReason  string
}

// FirstImage returns the first inline image, or nil.
func (r *Response) FirstImage() *Blob {
	if r == nil || len(r.Images) == 0 {
		return nil
	}
	return &r.Images[0]
}

// Text concatenates the text parts.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Texts, "")
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string             `json:"responseMimeType,omitempty"`
	ResponseSchema   any                `json:"responseSchema,omitempty"`
	ImageConfig      *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. A nil HTTP client is replaced with
// one that has a generous timeout for image generation.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("genai: invalid base url: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		l := infra.NopLogger()
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		keySource:  opts.KeySource,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the default model identifier.
func (c *Client) Model() string {
	return c.model
}

// Configured reports whether a key is available without consulting the
// key source.
func (c *Client) Configured() bool {
	return c.apiKey != "" || c.keySource != nil
}

func (c *Client) resolveKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	if c.keySource != nil {
		key, err := c.keySource(ctx)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("genai: resolve api key: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, nil
		}
	}
	return "", domain.ErrMissingCredential
}

// GenerateContent performs one generateContent call against model (or the
// default model when empty).
func (c *Client) GenerateContent(ctx context.Context, model string, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := c.resolveKey(ctx)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = c.model
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: encodeParts(req.Parts)}},
	}
	if req.AspectRatio != "" || req.ResponseMimeType != "" || req.ResponseSchema != nil {
		cfg := &geminiGenerationConfig{
			ResponseMimeType: req.ResponseMimeType,
			ResponseSchema:   req.ResponseSchema,
		}
		if req.AspectRatio != "" {
			cfg.ImageConfig = &geminiImageConfig{AspectRatio: req.AspectRatio}
		}
		payload.GenerationConfig = cfg
	}

	var raw geminiGenerateContentResponse
	started := time.Now()
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invokeGemini(ctx, key, path, payload, &raw); err != nil {
		return nil, err
	}

	resp := &Response{}
	if raw.PromptFeedback != nil {
		resp.BlockReason = raw.PromptFeedback.BlockReason
	}
	if len(raw.Candidates) > 0 {
		cand := raw.Candidates[0]
		resp.FinishReason = cand.FinishReason
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				resp.Texts = append(resp.Texts, part.Text)
			}
			blob, err := c.decodeInlineAsset(ctx, key, part)
			if err != nil {
				c.logger.Warn().Err(err).Str("model", model).Msg("genai: skipping undecodable part")
				continue
			}
			if blob != nil {
				resp.Images = append(resp.Images, *blob)
			}
		}
	}

	c.logger.Debug().
		Str("model", model).
		Int("images", len(resp.Images)).
		Int("texts", len(resp.Texts)).
		Str("finish_reason", resp.FinishReason).
		Dur("elapsed", time.Since(started)).
		Msg("genai: generateContent completed")

	return resp, nil
}

func encodeParts(parts []Part) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if p.Inline != nil {
			out = append(out, geminiPart{InlineData: &geminiInlineData{
				MimeType: p.Inline.MimeType,
				Data:     base64.StdEncoding.EncodeToString(p.Inline.Data),
			}})
			continue
		}
		out = append(out, geminiPart{Text: p.Text})
	}
	return out
}

func (c *Client) invokeGemini(ctx context.Context, key, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return retry.WithKind(retry.KindNetwork, fmt.Errorf("invoke gemini: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var decoded geminiErrorResponse
		if err := json.Unmarshal(data, &decoded); err == nil && decoded.Error.Message != "" {
			apiErr.Status = decoded.Error.Status
			apiErr.Message = decoded.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return retry.WithKind(retry.KindNetwork, fmt.Errorf("decode gemini response: %w", err))
	}
	return nil
}

func (c *Client) decodeInlineAsset(ctx context.Context, key string, part geminiPart) (*Blob, error) {
	if part.InlineData != nil && part.InlineData.Data != "" {
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("decode inline data: %w", err)
		}
		return &Blob{MimeType: firstNonEmpty(part.InlineData.MimeType, "image/png"), Data: data}, nil
	}

	if part.FileData != nil && part.FileData.FileURI != "" {
		data, mime, err := c.downloadFile(ctx, key, part.FileData.FileURI)
		if err != nil {
			return nil, err
		}
		return &Blob{MimeType: firstNonEmpty(part.FileData.MimeType, mime, "image/png"), Data: data}, nil
	}

	return nil, nil
}

func (c *Client) downloadFile(ctx context.Context, key, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	// only Gemini's own file URIs get the key
	if strings.HasPrefix(target, c.baseURL) {
		req.Header.Set(apiKeyHeader, key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("download file status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
