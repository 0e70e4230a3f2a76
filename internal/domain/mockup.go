package domain

import (
	"strings"
	"time"
)

// RenderMode is the output style of a single job.
type RenderMode string

const (
	RenderStandard RenderMode = "standard"
	Render3D       RenderMode = "3d"
)

// Tag returns the short label appended to result categories.
func (m RenderMode) Tag() string {
	if m == Render3D {
		return "3D"
	}
	return "Foto"
}

// ProductMode is the render mode chosen for a product in a selection.
type ProductMode string

const (
	ModeStandard ProductMode = "standard"
	Mode3D       ProductMode = "3d"
	ModeBoth     ProductMode = "both"
)

// RenderModes expands a product mode into the ordered render modes it produces.
// Unknown modes yield nil.
func (m ProductMode) RenderModes() []RenderMode {
	switch m {
	case ModeStandard:
		return []RenderMode{RenderStandard}
	case Mode3D:
		return []RenderMode{Render3D}
	case ModeBoth:
		return []RenderMode{RenderStandard, Render3D}
	default:
		return nil
	}
}

// NormalizeProductMode sanitizes free-form input. Empty input means both.
func NormalizeProductMode(mode string) ProductMode {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", string(ModeBoth):
		return ModeBoth
	case string(ModeStandard), "foto", "photo":
		return ModeStandard
	case string(Mode3D):
		return Mode3D
	default:
		return ProductMode(mode)
	}
}

// BackgroundType selects how the mockup background is described to the model.
type BackgroundType string

const (
	BackgroundStudio    BackgroundType = "studio"
	BackgroundLifestyle BackgroundType = "lifestyle"
	BackgroundSolid     BackgroundType = "solid"
	BackgroundCustom    BackgroundType = "custom"
)

// Image is a binary image payload with its MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

// Empty reports whether the image carries no bytes.
func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// ProductSelection is one product of a batch selection.
type ProductSelection struct {
	Category string
	Mode     ProductMode
}

// BatchParams are the parameters shared by every job of a batch.
type BatchParams struct {
	Style          string
	Color          string
	Material       string
	Placement      string
	Size           string
	BackgroundType BackgroundType
	Scene          *Image
}

// BatchSelection is the user input for one batch run.
type BatchSelection struct {
	Products       []ProductSelection
	VariationCount int
	Params         BatchParams
}

// MultiProduct reports whether the selection targets more than one product.
func (s BatchSelection) MultiProduct() bool {
	return len(s.Products) > 1
}

// GenerationJob is one (product, render mode, variation) unit of work.
type GenerationJob struct {
	Category   string
	RenderMode RenderMode
	Variation  int // 1-based
	Variations int
}

// Label is the category label stored with results and history records.
func (j GenerationJob) Label() string {
	return j.Category + " (" + j.RenderMode.Tag() + ")"
}

// GenerationRequest is the fully resolved parameter set for one job.
type GenerationRequest struct {
	Design         Image
	Category       string
	Style          string
	Placement      string
	Color          string
	Size           string
	Scene          *Image
	VariationNote  string
	RenderMode     RenderMode
	BackgroundType BackgroundType
	Material       string
}

// GenerationResult is the outcome of a successful job.
type GenerationResult struct {
	Category   string
	Image      *Image
	RenderMode RenderMode
}

// BatchProgress is the derived completion state of a running batch.
type BatchProgress struct {
	Completed int
	Total     int
	Percent   int
}

// HistoryRecord is a durable generated-mockup entry owned by a user.
type HistoryRecord struct {
	ID               string
	OwnerID          string
	Image            Image
	CategoryLabel    string
	CreatedAt        time.Time
	OriginalFileName string
}

// NewHistoryRecord carries the fields a caller supplies when appending.
type NewHistoryRecord struct {
	OwnerID          string
	Image            Image
	CategoryLabel    string
	OriginalFileName string
}
