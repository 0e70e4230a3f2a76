// Package voice maps a spoken request onto catalog selections using the
// Gemini text model.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mockupstudio/internal/catalog"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/providers/genai"
	"mockupstudio/internal/retry"
)

// ContentGenerator is the model transport. *genai.Client satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, req genai.Request) (*genai.Response, error)
}

// Vocabulary lists the values the model may choose from.
type Vocabulary struct {
	Categories []string
	Styles     []string
	Colors     []string
}

// CatalogVocabulary returns the full product catalog as a vocabulary.
func CatalogVocabulary() Vocabulary {
	return Vocabulary{
		Categories: catalog.Categories(),
		Styles:     catalog.Styles(),
		Colors:     catalog.Colors(),
	}
}

// Command is an interpreted voice request. Nil fields were not mentioned.
type Command struct {
	Categories []string `json:"categories"`
	Style      *string  `json:"style,omitempty"`
	Color      *string  `json:"color,omitempty"`
	Placement  *string  `json:"placement,omitempty"`
}

// ApplyTo replaces the selected products with the command's categories (mode
// both) and overrides style, color and placement when present.
func (c *Command) ApplyTo(sel *domain.BatchSelection) {
	if c == nil || sel == nil {
		return
	}
	if len(c.Categories) > 0 {
		products := make([]domain.ProductSelection, 0, len(c.Categories))
		for _, name := range c.Categories {
			products = append(products, domain.ProductSelection{Category: name, Mode: domain.ModeBoth})
		}
		sel.Products = products
	}
	if c.Style != nil {
		sel.Params.Style = *c.Style
	}
	if c.Color != nil {
		sel.Params.Color = *c.Color
	}
	if c.Placement != nil {
		sel.Params.Placement = *c.Placement
	}
}

var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"categories": map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"style":      map[string]any{"type": "STRING"},
		"color":      map[string]any{"type": "STRING"},
		"placement":  map[string]any{"type": "STRING"},
	},
}

// Interpreter turns audio clips into Commands.
type Interpreter struct {
	client ContentGenerator
	model  string
	policy retry.Policy
	logger *infra.Logger
}

// Options configures an Interpreter.
type Options struct {
	Model  string
	Policy retry.Policy
	Logger *infra.Logger
}

func NewInterpreter(client ContentGenerator, opts Options) *Interpreter {
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
		model = genai.DefaultTextModel
	}
	return &Interpreter{client: client, model: model, policy: policy, logger: logger}
}

// Interpret sends audio with vocab to the model and returns the parsed command.
// Categories outside vocab are dropped; style and color are snapped to the
// vocabulary spelling when they match case-insensitively.
func (i *Interpreter) Interpret(ctx context.Context, audio domain.Image, vocab Vocabulary) (*Command, error) {
	if audio.Empty() {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "audio clip is required")
	}
	mimeType := audio.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	req := genai.Request{
		Parts: []genai.Part{
			genai.InlinePart(mimeType, audio.Data),
			genai.TextPart(buildPrompt(vocab)),
		},
		ResponseMimeType: "application/json",
		ResponseSchema:   responseSchema,
	}

	cmd, err := retry.Do(ctx, i.policy, func(ctx context.Context) (*Command, error) {
		resp, err := i.client.GenerateContent(ctx, i.model, req)
		if err != nil {
			return nil, err
		}
		return parseCommand(resp.Text())
	})
	if err != nil {
		return nil, fmt.Errorf("voice: interpret: %w", err)
	}
	filtered := cmd.filter(vocab)
	i.logger.Debug().
		Strs("categories", filtered.Categories).
		Int("dropped", len(cmd.Categories)-len(filtered.Categories)).
		Msg("voice: command interpreted")
	return filtered, nil
}

func buildPrompt(vocab Vocabulary) string {
	return fmt.Sprintf(`
    You are a Voice UI assistant for a Mockup App.
    Map the user's audio request to these options:
    - Categories: %s
    - Styles: %s
    - Colors: %s

    Return ONLY a JSON object with:
    { "categories": string[], "style": string|null, "color": string|null, "placement": string|null }
    `, jsonList(vocab.Categories), jsonList(vocab.Styles), jsonList(vocab.Colors))
}

func jsonList(values []string) string {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return string(raw)
}

func parseCommand(text string) (*Command, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, retry.WithKind(retry.KindFatal, fmt.Errorf("voice: empty model response"))
	}
	var cmd Command
	if err := json.Unmarshal([]byte(cleaned), &cmd); err != nil {
		return nil, retry.WithKind(retry.KindFatal, fmt.Errorf("voice: decode command: %w", err))
	}
	return &cmd, nil
}

func (c *Command) filter(vocab Vocabulary) *Command {
	out := &Command{
		Style:     snap(c.Style, vocab.Styles),
		Color:     snap(c.Color, vocab.Colors),
		Placement: trimmed(c.Placement),
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for _, name := range c.Categories {
		match, ok := matchFold(vocab.Categories, name)
		if !ok {
			continue
		}
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		out.Categories = append(out.Categories, match)
	}
	return out
}

func snap(v *string, options []string) *string {
	t := trimmed(v)
	if t == nil {
		return nil
	}
	if match, ok := matchFold(options, *t); ok {
		return &match
	}
	return t
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func matchFold(options []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, opt := range options {
		if strings.EqualFold(opt, name) {
			return opt, true
		}
	}
	return "", false
}
