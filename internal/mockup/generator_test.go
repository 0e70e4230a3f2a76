package mockup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/providers/genai"
	"mockupstudio/internal/retry"
)

type fakeClient struct {
	calls    int
	requests []genai.Request
	models   []string
	respond  func(call int) (*genai.Response, error)
}

func (f *fakeClient) GenerateContent(_ context.Context, model string, req genai.Request) (*genai.Response, error) {
	f.calls++
	f.requests = append(f.requests, req)
	f.models = append(f.models, model)
	return f.respond(f.calls)
}

type kindErr retry.Kind

func (k kindErr) Error() string    { return "transient" }
func (k kindErr) Kind() retry.Kind { return retry.Kind(k) }

func noSleepPolicy(delays *[]time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		Sleep: func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		},
	}
}

func sampleRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Design:         domain.Image{Data: []byte{1, 2, 3}, MimeType: "image/png"},
		Category:       "Caneca de Cerâmica",
		Style:          "Luxo / Premium",
		Placement:      "Frente",
		Color:          "Preto Piano",
		Size:           "Padrão",
		RenderMode:     domain.RenderStandard,
		BackgroundType: domain.BackgroundStudio,
		Material:       "glossy",
	}
}

func imageResponse() *genai.Response {
	return &genai.Response{Images: []genai.Blob{{MimeType: "image/png", Data: []byte("out")}}}
}

func TestGenerateBuildsSingleRequest(t *testing.T) {
	client := &fakeClient{respond: func(int) (*genai.Response, error) { return imageResponse(), nil }}
	var delays []time.Duration
	g := NewGenerator(client, Options{Model: "img-model", Policy: noSleepPolicy(&delays)})

	img, err := g.Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img == nil || string(img.Data) != "out" {
		t.Fatalf("image = %+v", img)
	}
	if client.calls != 1 || client.models[0] != "img-model" {
		t.Fatalf("calls = %d models = %v", client.calls, client.models)
	}
	req := client.requests[0]
	if req.AspectRatio != AspectRatio {
		t.Fatalf("aspect ratio = %q", req.AspectRatio)
	}
	if len(req.Parts) != 2 || req.Parts[0].Inline == nil || req.Parts[1].Text == "" {
		t.Fatalf("parts = %+v", req.Parts)
	}
	text := req.Parts[1].Text
	for _, want := range []string{
		"TASK: Create a Photo Mockup of a Caneca de Cerâmica.",
		"Professional Product Photography",
		"BASE COLOR: Preto Piano.",
		"Acabamento brilhante (glossy)",
		"POSITIONING: Frente.",
		"isolated studio background",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("instruction missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "NOTE:") {
		t.Fatalf("unexpected variation note:\n%s", text)
	}
}

func TestGenerateCustomSceneAddsPart(t *testing.T) {
	client := &fakeClient{respond: func(int) (*genai.Response, error) { return imageResponse(), nil }}
	var delays []time.Duration
	g := NewGenerator(client, Options{Policy: noSleepPolicy(&delays)})

	req := sampleRequest()
	req.BackgroundType = domain.BackgroundCustom
	req.Scene = &domain.Image{Data: []byte{9}, MimeType: "image/jpeg"}
	req.RenderMode = domain.Render3D
	req.VariationNote = "Variação visual única 2."
	if _, err := g.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	parts := client.requests[0].Parts
	if len(parts) != 3 || parts[1].Inline == nil || parts[1].Inline.MimeType != "image/jpeg" {
		t.Fatalf("parts = %+v", parts)
	}
	text := parts[2].Text
	for _, want := range []string{"3D Render", "Octane Render", "INTEGRATION:", "NOTE: Variação visual única 2."} {
		if !strings.Contains(text, want) {
			t.Fatalf("instruction missing %q:\n%s", want, text)
		}
	}
}

func TestCustomWithoutSceneFallsBackToStudio(t *testing.T) {
	req := sampleRequest()
	req.BackgroundType = domain.BackgroundCustom
	text := BuildInstruction(req)
	if !strings.Contains(text, "isolated studio background") || strings.Contains(text, "INTEGRATION") {
		t.Fatalf("instruction:\n%s", text)
	}
}

func TestUnknownCategoryInstruction(t *testing.T) {
	known := sampleRequest()
	unknown := sampleRequest()
	unknown.Category = "Prancha de Surf"
	got := BuildInstruction(unknown)
	if !strings.Contains(got, "Create a Photo Mockup of a Prancha de Surf.") || strings.Contains(got, known.Category) {
		t.Fatalf("instruction:\n%s", got)
	}
	if strings.Count(got, "\n") != strings.Count(BuildInstruction(known), "\n") {
		t.Fatalf("unknown category changed the instruction layout:\n%s", got)
	}
}

func TestBackgroundInstructions(t *testing.T) {
	req := sampleRequest()
	req.BackgroundType = domain.BackgroundSolid
	if text := BuildInstruction(req); !strings.Contains(text, "base color (Preto Piano)") {
		t.Fatalf("solid:\n%s", text)
	}
	req.BackgroundType = domain.BackgroundLifestyle
	if text := BuildInstruction(req); !strings.Contains(text, "lifestyle environment for a Caneca de Cerâmica") {
		t.Fatalf("lifestyle:\n%s", text)
	}
}

func TestMaterialDescriptionDefault(t *testing.T) {
	if got := MaterialDescription("plastic"); got != defaultMaterialDescription {
		t.Fatalf("MaterialDescription = %q", got)
	}
	if got := MaterialDescription(" Leather "); !strings.Contains(got, "couro") {
		t.Fatalf("MaterialDescription = %q", got)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	client := &fakeClient{respond: func(call int) (*genai.Response, error) {
		if call <= 2 {
			return nil, kindErr(retry.KindRateLimited)
		}
		return imageResponse(), nil
	}}
	var delays []time.Duration
	g := NewGenerator(client, Options{Policy: noSleepPolicy(&delays)})

	img, err := g.Generate(context.Background(), sampleRequest())
	if err != nil || img == nil {
		t.Fatalf("Generate = %v, %v", img, err)
	}
	if client.calls != 3 || len(delays) != 2 || delays[1] != 2*delays[0] {
		t.Fatalf("calls = %d delays = %v", client.calls, delays)
	}
}

func TestGenerateSoftFailure(t *testing.T) {
	client := &fakeClient{respond: func(int) (*genai.Response, error) {
		return &genai.Response{Texts: []string{"I cannot do that"}}, nil
	}}
	var delays []time.Duration
	g := NewGenerator(client, Options{Policy: noSleepPolicy(&delays)})

	img, err := g.Generate(context.Background(), sampleRequest())
	if err != nil || img != nil {
		t.Fatalf("Generate = %v, %v; want nil, nil", img, err)
	}
	if client.calls != 1 {
		t.Fatalf("soft failure retried: %d calls", client.calls)
	}
}

func TestGenerateMissingCredentialNotRetried(t *testing.T) {
	client := &fakeClient{respond: func(int) (*genai.Response, error) {
		return nil, domain.ErrMissingCredential
	}}
	var delays []time.Duration
	g := NewGenerator(client, Options{Policy: noSleepPolicy(&delays)})

	_, err := g.Generate(context.Background(), sampleRequest())
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v", err)
	}
	if client.calls != 1 || len(delays) != 0 {
		t.Fatalf("calls = %d delays = %v", client.calls, delays)
	}
}

func TestGenerateRequiresDesign(t *testing.T) {
	g := NewGenerator(&fakeClient{}, Options{})
	req := sampleRequest()
	req.Design = domain.Image{}
	if _, err := g.Generate(context.Background(), req); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCleanImage(t *testing.T) {
	client := &fakeClient{respond: func(int) (*genai.Response, error) { return imageResponse(), nil }}
	var delays []time.Duration
	g := NewGenerator(client, Options{Policy: noSleepPolicy(&delays)})

	img, err := g.CleanImage(context.Background(), domain.Image{Data: []byte{1}, MimeType: "image/png"})
	if err != nil || img == nil {
		t.Fatalf("CleanImage = %v, %v", img, err)
	}
	req := client.requests[0]
	if req.AspectRatio != "" || len(req.Parts) != 2 || req.Parts[1].Text != CleanInstruction {
		t.Fatalf("request = %+v", req)
	}
}
