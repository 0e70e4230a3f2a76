package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"mockupstudio/internal/catalog"
	"mockupstudio/internal/domain"
)

// ImageJSON carries an image as base64 (encoding/json handles []byte).
type ImageJSON struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name,omitempty"`
}

// ProductJSON is one selected product.
type ProductJSON struct {
	Category string `json:"category"`
	Mode     string `json:"mode"`
}

// BatchRequestJSON is the wire contract for starting a batch.
type BatchRequestJSON struct {
	Design         ImageJSON     `json:"design"`
	Products       []ProductJSON `json:"products"`
	VariationCount int           `json:"variation_count"`
	Style          string        `json:"style"`
	Color          string        `json:"color"`
	Material       string        `json:"material"`
	Placement      string        `json:"placement"`
	Size           string        `json:"size"`
	BackgroundType string        `json:"background_type"`
	Scene          *ImageJSON    `json:"scene,omitempty"`
}

const (
	// DefaultVariationCount is applied when the request omits variation_count.
	DefaultVariationCount = 1
	// MaxVariationCount is the most variations one product may request.
	MaxVariationCount = 10
	// DefaultMaterial is the finish used when none is given.
	DefaultMaterial = "matte"
	// DefaultMimeType is assumed for images sent without a MIME type.
	DefaultMimeType = "image/png"
	// DefaultFileName is recorded for designs uploaded without a name.
	DefaultFileName = "design.png"
)

// Normalize fills server defaults. Placement and size are resolved against
// the catalog for single-product requests; multi-product batches replace
// them with generic values at run time.
func (r *BatchRequestJSON) Normalize() {
	if r == nil {
		return
	}
	if r.VariationCount == 0 {
		r.VariationCount = DefaultVariationCount
	}
	if strings.TrimSpace(r.Style) == "" {
		r.Style = catalog.Styles()[0]
	}
	if strings.TrimSpace(r.Color) == "" {
		r.Color = catalog.Colors()[0]
	}
	r.Material = strings.ToLower(strings.TrimSpace(r.Material))
	if r.Material == "" {
		r.Material = DefaultMaterial
	}
	r.BackgroundType = strings.ToLower(strings.TrimSpace(r.BackgroundType))
	if r.BackgroundType == "" {
		r.BackgroundType = string(domain.BackgroundStudio)
	}
	if r.Design.MimeType == "" && len(r.Design.Data) > 0 {
		r.Design.MimeType = DefaultMimeType
	}
	if strings.TrimSpace(r.Design.FileName) == "" {
		r.Design.FileName = DefaultFileName
	}
	if r.Scene != nil && r.Scene.MimeType == "" && len(r.Scene.Data) > 0 {
		r.Scene.MimeType = DefaultMimeType
	}
	for i := range r.Products {
		r.Products[i].Category = strings.TrimSpace(r.Products[i].Category)
		r.Products[i].Mode = string(domain.NormalizeProductMode(r.Products[i].Mode))
	}
	if len(r.Products) == 1 {
		cat := r.Products[0].Category
		r.Placement = catalog.ResolvePlacement(cat, r.Placement)
		r.Size = catalog.ResolveSize(cat, r.Size)
	}
}

// Validate checks the fields the planner does not own. Product list, mode and
// the lower variation bound are enforced when the batch is planned.
func (r BatchRequestJSON) Validate() error {
	if r.VariationCount > MaxVariationCount {
		return domain.NewValidationError(domain.CodeInvalidVariations, "variation count must be at most %d, got %d", MaxVariationCount, r.VariationCount)
	}
	if len(r.Design.Data) == 0 {
		return domain.NewValidationError(domain.CodeMissingDesign, "design image is required")
	}
	if !strings.HasPrefix(r.Design.MimeType, "image/") {
		return domain.NewValidationError(domain.CodeInvalidInput, "design.mime_type must be an image type")
	}
	if !catalog.IsMaterial(r.Material) {
		return domain.NewValidationError(domain.CodeInvalidInput, "material %q is not supported", r.Material)
	}
	if !catalog.IsBackground(r.BackgroundType) {
		return domain.NewValidationError(domain.CodeInvalidInput, "background_type %q is not supported", r.BackgroundType)
	}
	if r.Scene != nil && len(r.Scene.Data) > 0 && !strings.HasPrefix(r.Scene.MimeType, "image/") {
		return domain.NewValidationError(domain.CodeInvalidInput, "scene.mime_type must be an image type")
	}
	return nil
}

// DesignImage returns the design as a domain image.
func (r BatchRequestJSON) DesignImage() domain.Image {
	return domain.Image{Data: r.Design.Data, MimeType: r.Design.MimeType}
}

// ToSelection converts the request into a batch selection.
func (r BatchRequestJSON) ToSelection() domain.BatchSelection {
	products := make([]domain.ProductSelection, len(r.Products))
	for i, p := range r.Products {
		products[i] = domain.ProductSelection{Category: p.Category, Mode: domain.ProductMode(p.Mode)}
	}
	var scene *domain.Image
	if r.Scene != nil && len(r.Scene.Data) > 0 {
		scene = &domain.Image{Data: r.Scene.Data, MimeType: r.Scene.MimeType}
	}
	return domain.BatchSelection{
		Products:       products,
		VariationCount: r.VariationCount,
		Params: domain.BatchParams{
			Style:          r.Style,
			Color:          r.Color,
			Material:       r.Material,
			Placement:      r.Placement,
			Size:           r.Size,
			BackgroundType: domain.BackgroundType(r.BackgroundType),
			Scene:          scene,
		},
	}
}

// ImageFromJSON converts a wire image, returning nil when it carries no data.
func ImageFromJSON(img *ImageJSON) *domain.Image {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	mime := img.MimeType
	if mime == "" {
		mime = DefaultMimeType
	}
	return &domain.Image{Data: img.Data, MimeType: mime}
}

// ImageToJSON converts a domain image for responses.
func ImageToJSON(img *domain.Image) *ImageJSON {
	if img.Empty() {
		return nil
	}
	return &ImageJSON{Data: img.Data, MimeType: img.MimeType}
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
