package handlers

import (
	"net/http"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/domain/jsoncfg"
	"mockupstudio/internal/voice"
)

type voiceRequest struct {
	Audio   jsoncfg.ImageJSON         `json:"audio"`
	Current *jsoncfg.BatchRequestJSON `json:"current,omitempty"`
}

type selectionPreview struct {
	Products  []jsoncfg.ProductJSON `json:"products"`
	Style     string                `json:"style"`
	Color     string                `json:"color"`
	Placement string                `json:"placement"`
}

type voiceResponse struct {
	Command   *voice.Command   `json:"command"`
	Selection selectionPreview `json:"selection"`
}

// VoiceCommand interprets a recorded request and previews it applied to the
// caller's current selection. Nothing is generated.
func (a *App) VoiceCommand(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !a.decode(w, r, &req) {
		return
	}
	if len(req.Audio.Data) == 0 {
		a.fail(w, r, domain.NewValidationError(domain.CodeInvalidInput, "audio is required"))
		return
	}
	cmd, err := a.Voice.Interpret(r.Context(), domain.Image{Data: req.Audio.Data, MimeType: req.Audio.MimeType}, voice.CatalogVocabulary())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var sel domain.BatchSelection
	if req.Current != nil {
		sel = req.Current.ToSelection()
	}
	cmd.ApplyTo(&sel)

	preview := selectionPreview{
		Products:  make([]jsoncfg.ProductJSON, 0, len(sel.Products)),
		Style:     sel.Params.Style,
		Color:     sel.Params.Color,
		Placement: sel.Params.Placement,
	}
	for _, p := range sel.Products {
		preview.Products = append(preview.Products, jsoncfg.ProductJSON{Category: p.Category, Mode: string(p.Mode)})
	}
	a.json(w, http.StatusOK, voiceResponse{Command: cmd, Selection: preview})
}
