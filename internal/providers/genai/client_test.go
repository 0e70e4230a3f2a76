package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/retry"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestGenerateContentPayloadAndDecode(t *testing.T) {
	var captured geminiGenerateContentRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[
			{"text":"here you go"},
			{"inlineData":{"mimeType":"image/png","data":"`+base64.StdEncoding.EncodeToString([]byte("png-bytes"))+`"}}
		]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: " secret ", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.GenerateContent(context.Background(), "", Request{
		Parts:       []Part{InlinePart("image/png", []byte{1, 2}), TextPart("make a mug")},
		AspectRatio: "1:1",
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	if gotPath != "/models/"+DefaultImageModel+":generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("key = %q", gotKey)
	}
	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("contents = %+v", captured.Contents)
	}
	if captured.Contents[0].Parts[0].InlineData == nil || captured.Contents[0].Parts[0].InlineData.Data != "AQI=" {
		t.Fatalf("inline part = %+v", captured.Contents[0].Parts[0])
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.ImageConfig == nil || captured.GenerationConfig.ImageConfig.AspectRatio != "1:1" {
		t.Fatalf("generation config = %+v", captured.GenerationConfig)
	}

	img := resp.FirstImage()
	if img == nil || string(img.Data) != "png-bytes" || img.MimeType != "image/png" {
		t.Fatalf("image = %+v", img)
	}
	if resp.Text() != "here you go" || resp.FinishReason != "STOP" {
		t.Fatalf("text = %q finish = %q", resp.Text(), resp.FinishReason)
	}
}

func TestGenerateContentNoImageIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer srv.Close()

	client, _ := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	resp, err := client.GenerateContent(context.Background(), "m", Request{Parts: []Part{TextPart("x")}})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if resp.FirstImage() != nil || resp.BlockReason != "SAFETY" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGenerateContentErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   retry.Kind
	}{
		{"rate limited", 429, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`, retry.KindRateLimited},
		{"quota text", 400, `{"error":{"code":400,"message":"Quota exceeded for metric"}}`, retry.KindRateLimited},
		{"overloaded", 503, `{"error":{"code":503,"message":"The model is overloaded","status":"UNAVAILABLE"}}`, retry.KindServerOverloaded},
		{"internal", 500, `oops`, retry.KindServerOverloaded},
		{"forbidden", 403, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`, retry.KindFatal},
		{"bad key", 400, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, retry.KindFatal},
		{"bad request", 400, `{"error":{"code":400,"message":"invalid image","status":"INVALID_ARGUMENT"}}`, retry.KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client, _ := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
			_, err := client.GenerateContent(context.Background(), "", Request{Parts: []Part{TextPart("x")}})
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.status {
				t.Fatalf("err = %v", err)
			}
			if got := retry.Classify(err); got != tc.want {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGenerateContentTransportErrorIsNetwork(t *testing.T) {
	client, _ := NewClient(Options{
		APIKey: "k",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		})},
	})
	_, err := client.GenerateContent(context.Background(), "", Request{Parts: []Part{TextPart("x")}})
	if retry.Classify(err) != retry.KindNetwork {
		t.Fatalf("err = %v kind = %v", err, retry.Classify(err))
	}
}

func TestGenerateContentKeyStaysOutOfErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	var rawQuery string
	transport := http.DefaultTransport
	client, _ := NewClient(Options{
		APIKey:  "SECRET-KEY-123",
		BaseURL: base,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			rawQuery = r.URL.RawQuery
			return transport.RoundTrip(r)
		})},
	})
	_, err := client.GenerateContent(context.Background(), "", Request{Parts: []Part{TextPart("x")}})
	if err == nil {
		t.Fatalf("expected error from closed server")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") || strings.Contains(rawQuery, "SECRET-KEY-123") {
		t.Fatalf("key leaked: err = %v query = %q", err, rawQuery)
	}
	if retry.Classify(err) != retry.KindNetwork {
		t.Fatalf("kind = %v", retry.Classify(err))
	}
}

func TestGenerateContentMissingKey(t *testing.T) {
	called := false
	client, _ := NewClient(Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			called = true
			return nil, errors.New("unexpected")
		})},
	})
	if client.Configured() {
		t.Fatalf("client without key reports configured")
	}
	_, err := client.GenerateContent(context.Background(), "", Request{})
	if !errors.Is(err, domain.ErrMissingCredential) || called {
		t.Fatalf("err = %v called = %v", err, called)
	}
}

func TestGenerateContentUsesKeySource(t *testing.T) {
	var gotKey string
	client, _ := NewClient(Options{
		KeySource: func(context.Context) (string, error) { return "from-store", nil },
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			gotKey = r.Header.Get("x-goog-api-key")
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"candidates":[]}`)),
				Header:     make(http.Header),
			}, nil
		})},
	})
	if _, err := client.GenerateContent(context.Background(), "", Request{}); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if gotKey != "from-store" {
		t.Fatalf("key = %q", gotKey)
	}

	empty, _ := NewClient(Options{KeySource: func(context.Context) (string, error) { return "", domain.ErrNotFound }})
	if _, err := empty.GenerateContent(context.Background(), "", Request{}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want missing credential", err)
	}
}

func TestGenerateContentCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client, _ := NewClient(Options{APIKey: "k"})
	if _, err := client.GenerateContent(ctx, "", Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
