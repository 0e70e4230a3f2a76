package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/sqlinline"
)

// MockupRepositoryPG implements domain.HistoryStore on the generated_mockups table.
type MockupRepositoryPG struct {
	sql infra.SQLExecutor
}

var _ domain.HistoryStore = (*MockupRepositoryPG)(nil)

// NewMockupRepository constructs a repository over an executor, normally an
// *infra.SQLRunner wrapping the pool.
func NewMockupRepository(sql infra.SQLExecutor) *MockupRepositoryPG {
	return &MockupRepositoryPG{sql: sql}
}

// EnsureSchema creates the tables used by the service when they are missing.
func (r *MockupRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEnsureMockupSchema)
	return err
}

// Append inserts a new record and returns it with the database timestamp.
func (r *MockupRepositoryPG) Append(ctx context.Context, rec domain.NewHistoryRecord) (*domain.HistoryRecord, error) {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if rec.Image.Empty() {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "history image is empty")
	}
	mimeType := rec.Image.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	out := &domain.HistoryRecord{
		ID:               uuid.NewString(),
		OwnerID:          rec.OwnerID,
		Image:            domain.Image{Data: rec.Image.Data, MimeType: mimeType},
		CategoryLabel:    rec.CategoryLabel,
		OriginalFileName: rec.OriginalFileName,
	}
	err := r.sql.QueryRow(ctx, sqlinline.QInsertMockup,
		out.ID, out.OwnerID, out.Image.Data, mimeType, out.CategoryLabel, out.OriginalFileName,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns the owner's records, newest first.
func (r *MockupRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.HistoryRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListMockupsByUser, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Image.Data, &rec.Image.MimeType, &rec.CategoryLabel, &rec.OriginalFileName, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAllByOwner removes every record of the owner.
func (r *MockupRepositoryPG) DeleteAllByOwner(ctx context.Context, ownerID string) (int, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteMockupsByUser, ownerID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
