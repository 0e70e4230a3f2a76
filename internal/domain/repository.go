package domain

import "context"

// HistoryStore persists generated mockups per owner. Implementations are
// selected at process start: a local file-backed store or Postgres.
type HistoryStore interface {
	Append(ctx context.Context, rec NewHistoryRecord) (*HistoryRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]HistoryRecord, error)
	DeleteAllByOwner(ctx context.Context, ownerID string) (int, error)
}
