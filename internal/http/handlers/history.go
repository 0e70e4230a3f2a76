package handlers

import (
	"net/http"
	"time"

	"mockupstudio/internal/domain/jsoncfg"
	"mockupstudio/pkg/zip"
)

type historyItemDTO struct {
	ID               string             `json:"id"`
	Category         string             `json:"category"`
	OriginalFileName string             `json:"original_filename,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	Image            *jsoncfg.ImageJSON `json:"image"`
}

type historyResponse struct {
	Items []historyItemDTO `json:"items"`
}

// HistoryArchiveFolder names the root folder of history downloads.
const HistoryArchiveFolder = "Historico"

// HistoryList returns the caller's generated mockups, newest first.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	records, err := a.History.ListByOwner(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := historyResponse{Items: make([]historyItemDTO, 0, len(records))}
	for i := range records {
		rec := records[i]
		out.Items = append(out.Items, historyItemDTO{
			ID:               rec.ID,
			Category:         rec.CategoryLabel,
			OriginalFileName: rec.OriginalFileName,
			CreatedAt:        rec.CreatedAt,
			Image:            jsoncfg.ImageToJSON(&rec.Image),
		})
	}
	a.json(w, http.StatusOK, out)
}

// HistoryClear deletes every record of the caller.
func (a *App) HistoryClear(w http.ResponseWriter, r *http.Request) {
	n, err := a.History.DeleteAllByOwner(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"deleted": n})
}

// HistoryArchive downloads the caller's history as a ZIP file.
func (a *App) HistoryArchive(w http.ResponseWriter, r *http.Request) {
	records, err := a.History.ListByOwner(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	assets := make([]zip.Asset, 0, len(records))
	for _, rec := range records {
		assets = append(assets, zip.Asset{Label: rec.CategoryLabel, MIME: rec.Image.MimeType, Data: rec.Image.Data})
	}
	a.writeArchive(w, r, zip.FolderName(HistoryArchiveFolder, a.now()), assets)
}
