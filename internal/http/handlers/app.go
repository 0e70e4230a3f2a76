package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/middleware"
	"mockupstudio/internal/session"
	"mockupstudio/internal/voice"
)

// DefaultMaxBodyBytes bounds JSON request bodies carrying base64 images.
const DefaultMaxBodyBytes = 32 << 20

// DesignCleaner removes the background of an uploaded design.
type DesignCleaner interface {
	CleanImage(ctx context.Context, design domain.Image) (*domain.Image, error)
}

// VoiceInterpreter turns an audio clip into a selection command.
type VoiceInterpreter interface {
	Interpret(ctx context.Context, audio domain.Image, vocab voice.Vocabulary) (*voice.Command, error)
}

// App holds the dependencies shared by every handler.
type App struct {
	Logger       zerolog.Logger
	Sessions     *session.Registry
	Batches      *batch.Registry
	History      domain.HistoryStore
	Cleaner      DesignCleaner
	Voice        VoiceInterpreter
	HealthChecks map[string]HealthCheck
	MaxBodyBytes int64
	Now          func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// error writes a localized error body for code.
func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string, detail string) {
	a.json(w, status, errorResponse{Error: errorBody{
		Code:    code,
		Message: Message(middleware.LocaleFromContext(r.Context()), code),
		Detail:  detail,
	}})
}

// fail maps a domain error onto a status code and localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := domain.IsValidation(err); ok {
		a.error(w, r, http.StatusUnprocessableEntity, ve.Code, ve.Message)
		return
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		a.error(w, r, http.StatusConflict, CodeAlreadyRunning, "")
	case errors.Is(err, domain.ErrSessionClosed):
		a.error(w, r, http.StatusUnauthorized, CodeSessionClosed, "")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, r, http.StatusUnauthorized, CodeUnauthorized, "")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, CodeNotFound, "")
	case errors.Is(err, domain.ErrMissingCredential):
		a.error(w, r, http.StatusServiceUnavailable, CodeMissingCredential, "")
	case errors.Is(err, context.Canceled):
		a.error(w, r, http.StatusRequestTimeout, CodeCancelled, "")
	default:
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("http: request failed")
		a.error(w, r, http.StatusInternalServerError, CodeInternal, "")
	}
}

// Unauthorized is the rejection used by the JWT middleware.
func (a *App) Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	a.error(w, r, http.StatusUnauthorized, CodeUnauthorized, err.Error())
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// decode reads a JSON body bounded by MaxBodyBytes.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, r, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "")
			return false
		}
		a.error(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return false
	}
	return true
}

// session returns the caller's active session or writes the rejection.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	owner := a.currentUserID(r)
	if owner == "" {
		a.error(w, r, http.StatusUnauthorized, CodeUnauthorized, "")
		return nil, false
	}
	sess, ok := a.Sessions.Get(owner)
	if !ok {
		a.error(w, r, http.StatusUnauthorized, CodeSessionClosed, "")
		return nil, false
	}
	return sess, true
}
