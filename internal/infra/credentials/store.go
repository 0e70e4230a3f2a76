package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"mockupstudio/internal/infra"
	"mockupstudio/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
)

// Store reads and writes provider tokens kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

// Token returns the trimmed token of provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetGeminiAPIKey stores key. A non-empty label is kept in the token properties.
func (s *Store) SetGeminiAPIKey(ctx context.Context, key, label string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	var props map[string]any
	if label = strings.TrimSpace(label); label != "" {
		props = map[string]any{"label": label}
	}
	return s.upsert(ctx, ProviderGemini, key, props)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// KeySource resolves the Gemini key for the generation client. A stored key
// wins over fallback; lookups are cached for ttl so each job does not hit the
// database.
func (s *Store) KeySource(fallback string, ttl time.Duration) func(context.Context) (string, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	fallback = strings.TrimSpace(fallback)
	c := cache.New(ttl, 2*ttl)
	return func(ctx context.Context) (string, error) {
		if v, ok := c.Get(ProviderGemini); ok {
			return v.(string), nil
		}
		key, err := s.GeminiAPIKey(ctx)
		if err != nil {
			if fallback != "" {
				return fallback, nil
			}
			return "", err
		}
		if key == "" {
			key = fallback
		}
		c.Set(ProviderGemini, key, cache.DefaultExpiration)
		return key, nil
	}
}
