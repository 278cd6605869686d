package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

type fakeSessionStore struct {
	sessions map[string]*domain.Session
	getErr   error
	created  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.sessions[id], nil
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, id, ownerIdentity string) (*domain.Session, error) {
	if id == "" {
		id = "generated-1"
	}
	s := &domain.Session{ID: id, OwnerIdentity: ownerIdentity}
	f.sessions[id] = s
	f.created = append(f.created, id)
	return s, nil
}

func TestResolveIdentity(t *testing.T) {
	if got := ResolveIdentity("  v123  ", "10.0.0.1", "curl/8"); got != "tok:v123" {
		t.Fatalf("token identity = %q", got)
	}

	anon := ResolveIdentity("", "10.0.0.1", "curl/8")
	if !strings.HasPrefix(anon, "anon:") || len(anon) != len("anon:")+16 {
		t.Fatalf("anon identity = %q", anon)
	}
	if again := ResolveIdentity("", "10.0.0.1", "curl/8"); again != anon {
		t.Fatalf("anon identity must be stable: %q vs %q", anon, again)
	}
	if other := ResolveIdentity("", "10.0.0.2", "curl/8"); other == anon {
		t.Fatalf("different address must yield a different identity")
	}
	// A plain-whitespace token falls back to the anon namespace.
	if got := ResolveIdentity("   ", "10.0.0.1", "curl/8"); got != anon {
		t.Fatalf("whitespace token = %q, want %q", got, anon)
	}
}

func TestGuard_Ensure(t *testing.T) {
	store := newFakeSessionStore()
	g := &Guard{Sessions: store}
	ctx := context.Background()

	// Empty id creates a fresh session bound to the caller.
	s, err := g.Ensure(ctx, "", "tok:v1")
	if err != nil {
		t.Fatalf("Ensure empty id: %v", err)
	}
	if s.ID != "generated-1" || s.OwnerIdentity != "tok:v1" {
		t.Fatalf("created session = %+v", s)
	}

	// Unseen client-chosen id creates a session under that id.
	s, err = g.Ensure(ctx, "client-id", "tok:v1")
	if err != nil {
		t.Fatalf("Ensure unseen id: %v", err)
	}
	if s.ID != "client-id" || s.OwnerIdentity != "tok:v1" {
		t.Fatalf("created session = %+v", s)
	}

	// The owner gets the existing session back without a new create.
	before := len(store.created)
	s, err = g.Ensure(ctx, "client-id", "tok:v1")
	if err != nil || s.ID != "client-id" {
		t.Fatalf("Ensure existing: %+v, %v", s, err)
	}
	if len(store.created) != before {
		t.Fatalf("existing session must not be recreated")
	}

	// Any other identity is refused.
	if _, err := g.Ensure(ctx, "client-id", "tok:other"); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("err = %v, want ErrOwnerMismatch", err)
	}
	if _, err := g.Ensure(ctx, "client-id", "anon:1234567890abcdef"); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("err = %v, want ErrOwnerMismatch", err)
	}

	// Store failures propagate untouched.
	store.getErr = errors.New("db down")
	if _, err := g.Ensure(ctx, "client-id", "tok:v1"); err == nil || err.Error() != "db down" {
		t.Fatalf("err = %v", err)
	}
}
