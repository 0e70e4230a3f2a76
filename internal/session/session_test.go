package session

import (
	"context"
	"errors"
	"testing"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
)

func TestBeginIsIdempotent(t *testing.T) {
	r := NewRegistry(context.Background(), infra.NopLogger())
	a, err := r.Begin("owner-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	b, _ := r.Begin(" owner-1 ")
	if a != b {
		t.Fatalf("Begin returned a new session for a live owner")
	}
	if got, ok := r.Get("owner-1"); !ok || got != a {
		t.Fatalf("Get = %v, %v", got, ok)
	}
}

func TestEndCancelsContext(t *testing.T) {
	r := NewRegistry(context.Background(), infra.NopLogger())
	s, _ := r.Begin("owner-1")
	if !r.End("owner-1") {
		t.Fatalf("End reported no live session")
	}
	if s.Active() {
		t.Fatalf("session still active after End")
	}
	if !errors.Is(s.Context().Err(), context.Canceled) {
		t.Fatalf("ctx err = %v", s.Context().Err())
	}
	if _, ok := r.Get("owner-1"); ok {
		t.Fatalf("ended session still registered")
	}
	if r.End("owner-1") {
		t.Fatalf("second End reported a live session")
	}

	next, _ := r.Begin("owner-1")
	if next == s || !next.Active() {
		t.Fatalf("Begin after End must create a fresh session")
	}
}

func TestBeginRejectsBlankOwner(t *testing.T) {
	r := NewRegistry(context.Background(), infra.NopLogger())
	if _, err := r.Begin("  "); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
}

func TestEndAll(t *testing.T) {
	r := NewRegistry(context.Background(), infra.NopLogger())
	a, _ := r.Begin("a")
	b, _ := r.Begin("b")
	r.EndAll()
	if a.Active() || b.Active() {
		t.Fatalf("sessions survive EndAll")
	}
}

func TestNilSessionIsInactive(t *testing.T) {
	var s *Session
	if s.Active() {
		t.Fatalf("nil session reports active")
	}
}
