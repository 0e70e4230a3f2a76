package handlers

import (
	"net/http"
	"time"
)

type sessionResponse struct {
	OwnerID   string    `json:"owner_id"`
	StartedAt time.Time `json:"started_at"`
}

// SessionBegin opens (or returns) the caller's session.
func (a *App) SessionBegin(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Begin(a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sessionResponse{OwnerID: sess.OwnerID, StartedAt: sess.StartedAt})
}

// SessionEnd signs the caller out. A running batch stops before its next job
// and produces no further history records.
func (a *App) SessionEnd(w http.ResponseWriter, r *http.Request) {
	owner := a.currentUserID(r)
	a.Batches.CancelOwner(owner)
	a.Sessions.End(owner)
	w.WriteHeader(http.StatusNoContent)
}
