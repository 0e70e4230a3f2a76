package handlers

import (
	"net/http"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/domain/jsoncfg"
)

type cleanRequest struct {
	Design jsoncfg.ImageJSON `json:"design"`
}

type imageResponse struct {
	Image *jsoncfg.ImageJSON `json:"image"`
}

// DesignClean removes the background of a design. A model response without
// an image is reported as 422 so the client can keep the original.
func (a *App) DesignClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if !a.decode(w, r, &req) {
		return
	}
	design := jsoncfg.ImageFromJSON(&req.Design)
	if design == nil {
		a.fail(w, r, domain.NewValidationError(domain.CodeMissingDesign, "design is required"))
		return
	}
	img, err := a.Cleaner.CleanImage(r.Context(), *design)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if img.Empty() {
		a.error(w, r, http.StatusUnprocessableEntity, CodeCleanFailed, "")
		return
	}
	a.json(w, http.StatusOK, imageResponse{Image: jsoncfg.ImageToJSON(img)})
}
