package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/http/handlers"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/middleware"
	"mockupstudio/internal/session"
	"mockupstudio/internal/storage"
	"mockupstudio/internal/voice"
)

const testSecret = "test-secret"

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Image, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.Image{Data: []byte{byte(n)}, MimeType: "image/png"}, nil
}

type stubCleaner struct {
	img *domain.Image
}

func (c stubCleaner) CleanImage(context.Context, domain.Image) (*domain.Image, error) {
	return c.img, nil
}

type stubVoice struct {
	cmd *voice.Command
}

func (v stubVoice) Interpret(context.Context, domain.Image, voice.Vocabulary) (*voice.Command, error) {
	return v.cmd, nil
}

type testEnv struct {
	handler  http.Handler
	sessions *session.Registry
	gen      *stubGenerator
}

func newTestEnv(t *testing.T, gen *stubGenerator, cleaner stubCleaner, interp stubVoice) *testEnv {
	t.Helper()
	logger := infra.NopLogger()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	history, err := storage.NewHistoryFile(context.Background(), files, storage.HistoryOptions{Logger: logger})
	if err != nil {
		t.Fatalf("NewHistoryFile: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sessions := session.NewRegistry(ctx, logger)
	batches := batch.NewRegistry(func(string) *batch.Orchestrator {
		return batch.New(batch.Options{Generator: gen, History: history, Logger: logger})
	}, time.Minute, logger)

	app := &handlers.App{
		Logger:   logger,
		Sessions: sessions,
		Batches:  batches,
		History:  history,
		Cleaner:  cleaner,
		Voice:    interp,
	}
	return &testEnv{
		handler:  NewRouter(app, Options{Logger: logger, JWTSecret: testSecret, DefaultLocale: "pt"}),
		sessions: sessions,
		gen:      gen,
	}
}

func token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := middleware.SignJWT(testSecret, middleware.TokenClaims{Sub: owner, Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, owner))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type statusBody struct {
	BatchID   string `json:"batch_id"`
	State     string `json:"state"`
	Percent   int    `json:"percent"`
	Total     int    `json:"total"`
	LastError string `json:"last_error"`
	Results   []struct {
		Category string `json:"category"`
		Image    struct {
			Data []byte `json:"data"`
		} `json:"image"`
	} `json:"results"`
}

func batchBody(products ...map[string]string) map[string]any {
	return map[string]any{
		"design":          map[string]any{"data": []byte{9, 9}, "mime_type": "image/png", "file_name": "logo.png"},
		"products":        products,
		"variation_count": 2,
	}
}

func waitState(t *testing.T, e *testEnv, owner, id string) statusBody {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := e.do(t, http.MethodGet, "/v1/batches/"+id, owner, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d body = %s", rec.Code, rec.Body.String())
		}
		body := decode[statusBody](t, rec)
		if body.State != "running" {
			return body
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("batch %s did not finish", id)
	return statusBody{}
}

func TestPublicRoutes(t *testing.T) {
	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{})
	if rec := e.do(t, http.MethodGet, "/v1/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec := e.do(t, http.MethodGet, "/v1/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog = %d", rec.Code)
	}
	cat := decode[struct {
		Products []struct {
			Category   string   `json:"category"`
			Placements []string `json:"placements"`
		} `json:"products"`
		Styles []string `json:"styles"`
	}](t, rec)
	if len(cat.Products) == 0 || len(cat.Styles) == 0 || len(cat.Products[0].Placements) == 0 {
		t.Fatalf("catalog = %+v", cat)
	}
}

func TestAuthRequiredAndLocalized(t *testing.T) {
	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{})

	rec := e.do(t, http.MethodGet, "/v1/history", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[errorEnvelope](t, rec); body.Error.Code != handlers.CodeUnauthorized || body.Error.Message != "Faça login para continuar." {
		t.Fatalf("pt body = %+v", body)
	}

	rec = e.do(t, http.MethodGet, "/v1/history", "", nil, "Accept-Language", "en-US")
	if body := decode[errorEnvelope](t, rec); body.Error.Message != "Sign in to continue." {
		t.Fatalf("en body = %+v", body)
	}
}

func TestBatchLifecycle(t *testing.T) {
	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{})
	owner := "owner-1"

	if rec := e.do(t, http.MethodPost, "/v1/batches", owner, batchBody(map[string]string{"category": "Caneca de Cerâmica", "mode": "both"})); rec.Code != http.StatusUnauthorized {
		t.Fatalf("batch without session = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/v1/session", owner, nil); rec.Code != http.StatusOK {
		t.Fatalf("session = %d", rec.Code)
	}

	rec := e.do(t, http.MethodPost, "/v1/batches", owner, batchBody(map[string]string{"category": "Caneca de Cerâmica", "mode": "both"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start = %d body = %s", rec.Code, rec.Body.String())
	}
	started := decode[struct {
		BatchID   string `json:"batch_id"`
		TotalJobs int    `json:"total_jobs"`
	}](t, rec)
	if started.BatchID == "" || started.TotalJobs != 4 {
		t.Fatalf("started = %+v", started)
	}

	final := waitState(t, e, owner, started.BatchID)
	if final.State != "completed" || final.Percent != 100 || len(final.Results) != 4 {
		t.Fatalf("final = %+v", final)
	}
	if final.Results[0].Category != "Caneca de Cerâmica (Foto)" || final.Results[3].Category != "Caneca de Cerâmica (3D)" {
		t.Fatalf("labels = %q .. %q", final.Results[0].Category, final.Results[3].Category)
	}

	if rec := e.do(t, http.MethodGet, "/v1/batches/"+started.BatchID, "someone-else", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/v1/batches/"+started.BatchID+"/archive", owner, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("archive = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil || len(zr.File) != 4 {
		t.Fatalf("archive entries = %v, %v", zr, err)
	}

	rec = e.do(t, http.MethodGet, "/v1/history", owner, nil)
	history := decode[struct {
		Items []struct {
			Category         string `json:"category"`
			OriginalFileName string `json:"original_filename"`
		} `json:"items"`
	}](t, rec)
	if len(history.Items) != 4 || history.Items[0].OriginalFileName != "logo.png" {
		t.Fatalf("history = %+v", history)
	}
	if rec := e.do(t, http.MethodGet, "/v1/history/archive", owner, nil); rec.Code != http.StatusOK {
		t.Fatalf("history archive = %d", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, "/v1/history", owner, nil)
	if got := decode[map[string]int](t, rec); got["deleted"] != 4 {
		t.Fatalf("deleted = %v", got)
	}
	if rec := e.do(t, http.MethodGet, "/v1/history/archive", owner, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("empty history archive = %d", rec.Code)
	}
}

func TestBatchValidation(t *testing.T) {
	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{})
	owner := "owner-1"
	e.do(t, http.MethodPost, "/v1/session", owner, nil)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{name: "no products", body: batchBody(), code: domain.CodeNoProducts},
		{name: "bad mode", body: batchBody(map[string]string{"category": "Caneca de Cerâmica", "mode": "video"}), code: domain.CodeInvalidMode},
		{name: "missing design", body: map[string]any{"products": []map[string]string{{"category": "Caneca de Cerâmica"}}}, code: domain.CodeMissingDesign},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/v1/batches", owner, tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			if body := decode[errorEnvelope](t, rec); body.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.code)
			}
		})
	}
	if e.gen.calls != 0 {
		t.Fatalf("generator called %d times", e.gen.calls)
	}
}

func TestBatchConflictAndSignOut(t *testing.T) {
	gen := &stubGenerator{gate: make(chan struct{})}
	e := newTestEnv(t, gen, stubCleaner{}, stubVoice{})
	owner := "owner-1"
	e.do(t, http.MethodPost, "/v1/session", owner, nil)

	body := batchBody(map[string]string{"category": "Caneca de Cerâmica", "mode": "standard"})
	rec := e.do(t, http.MethodPost, "/v1/batches", owner, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start = %d", rec.Code)
	}
	id := decode[struct {
		BatchID string `json:"batch_id"`
	}](t, rec).BatchID

	if rec := e.do(t, http.MethodPost, "/v1/batches", owner, body); rec.Code != http.StatusConflict {
		t.Fatalf("second start = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/v1/batches/"+id+"/archive", owner, nil); rec.Code != http.StatusConflict {
		t.Fatalf("archive while running = %d", rec.Code)
	}

	if rec := e.do(t, http.MethodDelete, "/v1/session", owner, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("sign out = %d", rec.Code)
	}
	final := waitState(t, e, owner, id)
	if final.State != "cancelled" {
		t.Fatalf("final = %+v", final)
	}
	if final.LastError != "Lote cancelado." {
		t.Fatalf("last error = %q", final.LastError)
	}
}

func TestDesignClean(t *testing.T) {
	design := map[string]any{"design": map[string]any{"data": []byte{1}, "mime_type": "image/png"}}

	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{})
	rec := e.do(t, http.MethodPost, "/v1/designs/clean", "owner-1", design)
	if rec.Code != http.StatusUnprocessableEntity || decode[errorEnvelope](t, rec).Error.Code != handlers.CodeCleanFailed {
		t.Fatalf("soft failure = %d %s", rec.Code, rec.Body.String())
	}

	e = newTestEnv(t, &stubGenerator{}, stubCleaner{img: &domain.Image{Data: []byte{7}, MimeType: "image/png"}}, stubVoice{})
	rec = e.do(t, http.MethodPost, "/v1/designs/clean", "owner-1", design)
	if rec.Code != http.StatusOK {
		t.Fatalf("clean = %d", rec.Code)
	}
	out := decode[struct {
		Image struct {
			Data []byte `json:"data"`
		} `json:"image"`
	}](t, rec)
	if len(out.Image.Data) != 1 || out.Image.Data[0] != 7 {
		t.Fatalf("image = %+v", out)
	}
}

func TestVoiceCommand(t *testing.T) {
	color := "Preto Piano"
	e := newTestEnv(t, &stubGenerator{}, stubCleaner{}, stubVoice{cmd: &voice.Command{Categories: []string{"Moletom Hoodie"}, Color: &color}})
	rec := e.do(t, http.MethodPost, "/v1/voice", "owner-1", map[string]any{
		"audio":   map[string]any{"data": []byte("ogg"), "mime_type": "audio/ogg"},
		"current": map[string]any{"style": "Estúdio Minimalista Clean", "products": []map[string]string{{"category": "Boné", "mode": "3d"}}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("voice = %d %s", rec.Code, rec.Body.String())
	}
	out := decode[struct {
		Selection struct {
			Products []struct {
				Category string `json:"category"`
				Mode     string `json:"mode"`
			} `json:"products"`
			Style string `json:"style"`
			Color string `json:"color"`
		} `json:"selection"`
	}](t, rec)
	if len(out.Selection.Products) != 1 || out.Selection.Products[0].Mode != "both" || out.Selection.Color != color || out.Selection.Style != "Estúdio Minimalista Clean" {
		t.Fatalf("selection = %+v", out.Selection)
	}

	if rec := e.do(t, http.MethodPost, "/v1/voice", "owner-1", map[string]any{}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing audio = %d", rec.Code)
	}
}
