package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
)

const historyIndexKey = "history/index.json"

type historyEntry struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	CategoryLabel    string    `json:"category"`
	OriginalFileName string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	ImageKey         string    `json:"image_key"`
	Size             int       `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryOptions bounds a HistoryFile. Zero values mean unbounded.
type HistoryOptions struct {
	MaxRecords int
	MaxBytes   int
	Logger     infra.Logger
	Now        func() time.Time
}

// HistoryFile is a domain.HistoryStore kept as a JSON index plus one image
// file per record. When a bound is reached the oldest records are evicted
// first, across all owners.
type HistoryFile struct {
	files *FileStore
	opts  HistoryOptions

	mu      sync.Mutex
	entries []historyEntry // oldest first
	bytes   int
}

var _ domain.HistoryStore = (*HistoryFile)(nil)

// NewHistoryFile loads (or initializes) the index stored in files.
func NewHistoryFile(ctx context.Context, files *FileStore, opts HistoryOptions) (*HistoryFile, error) {
	if files == nil {
		return nil, errors.New("storage: file store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &HistoryFile{files: files, opts: opts}

	raw, err := files.Read(ctx, historyIndexKey)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return h, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(raw, &h.entries); err != nil {
		// a corrupt index is replaced rather than blocking startup
		opts.Logger.Warn().Err(err).Msg("history: discarding unreadable index")
		h.entries = nil
		return h, nil
	}
	for _, e := range h.entries {
		h.bytes += e.Size
	}
	return h, nil
}

// Append stores rec, evicting the oldest records if a bound would be exceeded.
func (h *HistoryFile) Append(ctx context.Context, rec domain.NewHistoryRecord) (*domain.HistoryRecord, error) {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if rec.Image.Empty() {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "history image is empty")
	}
	size := len(rec.Image.Data)
	if h.opts.MaxBytes > 0 && size > h.opts.MaxBytes {
		return nil, domain.ErrStorageFull
	}

	id := uuid.NewString()
	entry := historyEntry{
		ID:               id,
		OwnerID:          rec.OwnerID,
		CategoryLabel:    rec.CategoryLabel,
		OriginalFileName: rec.OriginalFileName,
		MimeType:         rec.Image.MimeType,
		Size:             size,
		CreatedAt:        h.opts.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key, err := h.files.Write(ctx, imageKey(rec.OwnerID, id, rec.Image.MimeType), rec.Image.Data)
	if err != nil {
		return nil, err
	}
	entry.ImageKey = key

	previous, previousBytes := h.entries, h.bytes
	evicted := h.evictLocked(1, size)
	h.entries = append(h.entries, entry)
	h.bytes += size
	if err := h.saveLocked(ctx); err != nil {
		h.entries, h.bytes = previous, previousBytes
		_ = h.files.Delete(ctx, key)
		return nil, err
	}
	for _, e := range evicted {
		if err := h.files.Delete(ctx, e.ImageKey); err != nil {
			h.opts.Logger.Warn().Err(err).Str("record_id", e.ID).Msg("history: evicted image not removed")
		}
	}
	if len(evicted) > 0 {
		h.opts.Logger.Info().Int("evicted", len(evicted)).Msg("history: storage full, removed oldest records")
	}

	out := toRecord(entry, rec.Image.Data)
	return &out, nil
}

// evictLocked drops the oldest entries until n more records of size bytes fit.
func (h *HistoryFile) evictLocked(n, size int) []historyEntry {
	var evicted []historyEntry
	for len(h.entries) > 0 {
		overCount := h.opts.MaxRecords > 0 && len(h.entries)+n > h.opts.MaxRecords
		overBytes := h.opts.MaxBytes > 0 && h.bytes+size > h.opts.MaxBytes
		if !overCount && !overBytes {
			break
		}
		oldest := h.entries[0]
		h.entries = h.entries[1:]
		h.bytes -= oldest.Size
		evicted = append(evicted, oldest)
	}
	return evicted
}

// ListByOwner returns the owner's records, newest first.
func (h *HistoryFile) ListByOwner(ctx context.Context, ownerID string) ([]domain.HistoryRecord, error) {
	h.mu.Lock()
	var owned []historyEntry
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].OwnerID == ownerID {
			owned = append(owned, h.entries[i])
		}
	}
	h.mu.Unlock()

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	out := make([]domain.HistoryRecord, 0, len(owned))
	for _, e := range owned {
		data, err := h.files.Read(ctx, e.ImageKey)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				h.opts.Logger.Warn().Str("record_id", e.ID).Msg("history: image file missing, skipping record")
				continue
			}
			return nil, err
		}
		out = append(out, toRecord(e, data))
	}
	return out, nil
}

// DeleteAllByOwner removes every record of the owner and returns the count.
func (h *HistoryFile) DeleteAllByOwner(ctx context.Context, ownerID string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.entries[:0:0]
	var removed []historyEntry
	bytes := 0
	for _, e := range h.entries {
		if e.OwnerID == ownerID {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
		bytes += e.Size
	}
	if len(removed) == 0 {
		return 0, nil
	}

	previous, previousBytes := h.entries, h.bytes
	h.entries, h.bytes = kept, bytes
	if err := h.saveLocked(ctx); err != nil {
		h.entries, h.bytes = previous, previousBytes
		return 0, err
	}
	for _, e := range removed {
		if err := h.files.Delete(ctx, e.ImageKey); err != nil {
			h.opts.Logger.Warn().Err(err).Str("record_id", e.ID).Msg("history: image not removed")
		}
	}
	return len(removed), nil
}

func (h *HistoryFile) saveLocked(ctx context.Context) error {
	raw, err := json.Marshal(h.entries)
	if err != nil {
		return fmt.Errorf("history: encode index: %w", err)
	}
	if _, err := h.files.Replace(ctx, historyIndexKey, raw); err != nil {
		return err
	}
	return nil
}

func toRecord(e historyEntry, data []byte) domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:               e.ID,
		OwnerID:          e.OwnerID,
		Image:            domain.Image{Data: data, MimeType: e.MimeType},
		CategoryLabel:    e.CategoryLabel,
		CreatedAt:        e.CreatedAt,
		OriginalFileName: e.OriginalFileName,
	}
}

func imageKey(ownerID, id, mimeType string) string {
	return "history/" + url.PathEscape(ownerID) + "/" + id + ExtensionFor(mimeType)
}

// ExtensionFor returns the file extension used for an image MIME type.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
