package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain/jsoncfg"
	"mockupstudio/internal/middleware"
	"mockupstudio/pkg/zip"
)

type batchStartResponse struct {
	BatchID   string `json:"batch_id"`
	TotalJobs int    `json:"total_jobs"`
	Warning   string `json:"warning,omitempty"`
}

type resultDTO struct {
	Category   string             `json:"category"`
	RenderMode string             `json:"render_mode"`
	Image      *jsoncfg.ImageJSON `json:"image"`
}

type batchStatusResponse struct {
	BatchID    string      `json:"batch_id"`
	State      batch.State `json:"state"`
	Percent    int         `json:"percent"`
	Completed  int         `json:"completed"`
	Total      int         `json:"total"`
	Results    []resultDTO `json:"results"`
	LastError  string      `json:"last_error,omitempty"`
	Warning    string      `json:"warning,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// BatchStart validates and plans a batch, then runs it in the background
// under the caller's session.
func (a *App) BatchStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req jsoncfg.BatchRequestJSON
	if !a.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	run, err := a.Batches.Start(sess, batch.Input{
		Design:           req.DesignImage(),
		OriginalFileName: req.Design.FileName,
		Selection:        req.ToSelection(),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().
		Str("batch_id", run.ID).
		Str("owner_id", run.OwnerID).
		Int("total_jobs", len(run.Plan.Jobs)).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("batch: accepted")
	w.Header().Set("Location", "/v1/batches/"+run.ID)
	a.json(w, http.StatusAccepted, batchStartResponse{
		BatchID:   run.ID,
		TotalJobs: len(run.Plan.Jobs),
		Warning:   run.Plan.Warning,
	})
}

// BatchStatus returns the live or final snapshot of a batch.
func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	run, err := a.Batches.Get(chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toStatus(run.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

// BatchCancel stops a running batch before its next job. Cancelling a
// finished batch is a no-op.
func (a *App) BatchCancel(w http.ResponseWriter, r *http.Request) {
	run, err := a.Batches.Get(chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	run.Cancel()
	w.WriteHeader(http.StatusAccepted)
}

// BatchArchive streams the results of a finished batch as a ZIP file.
func (a *App) BatchArchive(w http.ResponseWriter, r *http.Request) {
	run, err := a.Batches.Get(chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	snap := run.Snapshot()
	if snap.Running() {
		a.error(w, r, http.StatusConflict, CodeBatchRunning, "")
		return
	}
	assets := make([]zip.Asset, 0, len(snap.Results))
	for _, res := range snap.Results {
		if res.Image.Empty() {
			continue
		}
		assets = append(assets, zip.Asset{Label: res.Category, MIME: res.Image.MimeType, Data: res.Image.Data})
	}
	a.writeArchive(w, r, zip.FolderName(run.OriginalFileName, a.now()), assets)
}

func (a *App) writeArchive(w http.ResponseWriter, r *http.Request, folder string, assets []zip.Asset) {
	if len(assets) == 0 {
		a.error(w, r, http.StatusNotFound, CodeNothingToArchive, "")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+folder+`.zip"`)
	if _, err := zip.Write(w, folder, assets); err != nil {
		// headers are gone; the client sees a truncated archive
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("http: archive write failed")
	}
}

func toStatus(s batch.Snapshot, locale string) batchStatusResponse {
	out := batchStatusResponse{
		BatchID:   s.BatchID,
		State:     s.State,
		Percent:   s.Percent,
		Completed: s.Completed,
		Total:     s.Total,
		Results:   make([]resultDTO, 0, len(s.Results)),
		Warning:   s.Warning,
		StartedAt: s.StartedAt,
	}
	if s.LastError != "" {
		out.LastError = Message(locale, s.LastError)
	}
	if !s.FinishedAt.IsZero() {
		at := s.FinishedAt
		out.FinishedAt = &at
	}
	for _, res := range s.Results {
		out.Results = append(out.Results, resultDTO{
			Category:   res.Category,
			RenderMode: string(res.RenderMode),
			Image:      jsoncfg.ImageToJSON(res.Image),
		})
	}
	return out
}
