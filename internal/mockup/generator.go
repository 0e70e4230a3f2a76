// Package mockup turns a resolved generation request into a single call to
// the image model, wrapped in the retry policy.
package mockup

import (
	"context"
	"fmt"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/providers/genai"
	"mockupstudio/internal/retry"
)

// AspectRatio is requested for every mockup.
const AspectRatio = "1:1"

// ContentGenerator is the model transport. *genai.Client satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, req genai.Request) (*genai.Response, error)
}

// Options configures a Generator.
type Options struct {
	Model  string
	Policy retry.Policy
	Logger *infra.Logger
}

// Generator produces mockup images.
type Generator struct {
	client ContentGenerator
	model  string
	policy retry.Policy
	logger *infra.Logger
}

// NewGenerator builds a Generator over client.
func NewGenerator(client ContentGenerator, opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		l := infra.NopLogger()
		logger = &l
	}
	policy := opts.Policy
	if policy.Logger == nil {
		policy.Logger = logger
	}
	model := opts.Model
	if model == "" {
		model = genai.DefaultImageModel
	}
	return &Generator{client: client, model: model, policy: policy, logger: logger}
}

// Generate renders one mockup. A response without an image yields (nil, nil).
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Image, error) {
	if req.Design.Empty() {
		return nil, domain.NewValidationError(domain.CodeMissingDesign, "design image is required")
	}

	parts := []genai.Part{genai.InlinePart(req.Design.MimeType, req.Design.Data)}
	if usesScene(req) {
		parts = append(parts, genai.InlinePart(req.Scene.MimeType, req.Scene.Data))
	}
	parts = append(parts, genai.TextPart(BuildInstruction(req)))

	return g.call(ctx, genai.Request{Parts: parts, AspectRatio: AspectRatio})
}

// CleanImage extracts the design onto a transparent background, with the
// same soft-failure contract as Generate.
func (g *Generator) CleanImage(ctx context.Context, design domain.Image) (*domain.Image, error) {
	if design.Empty() {
		return nil, domain.NewValidationError(domain.CodeMissingDesign, "design image is required")
	}
	return g.call(ctx, genai.Request{Parts: []genai.Part{
		genai.InlinePart(design.MimeType, design.Data),
		genai.TextPart(CleanInstruction),
	}})
}

func (g *Generator) call(ctx context.Context, req genai.Request) (*domain.Image, error) {
	resp, err := retry.Do(ctx, g.policy, func(ctx context.Context) (*genai.Response, error) {
		return g.client.GenerateContent(ctx, g.model, req)
	})
	if err != nil {
		return nil, fmt.Errorf("mockup: generate: %w", err)
	}
	if resp == nil {
		resp = &genai.Response{}
	}
	blob := resp.FirstImage()
	if blob == nil || len(blob.Data) == 0 {
		g.logger.Warn().
			Str("model", g.model).
			Str("finish_reason", resp.FinishReason).
			Str("block_reason", resp.BlockReason).
			Msg("mockup: model returned no image")
		return nil, nil
	}
	return &domain.Image{Data: blob.Data, MimeType: blob.MimeType}, nil
}
