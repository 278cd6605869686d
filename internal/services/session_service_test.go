package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// fakeSessionRepo records the paging arguments it was called with.
type fakeSessionRepo struct {
	sessions []domain.Session
	messages []domain.Message
	owned    *domain.Session

	countSessions int64
	countMessages int64
	err           error

	gotOffset int
	gotLimit  int
	gotPinned bool
	deleted   string
}

func (f *fakeSessionRepo) CountSessions(ctx context.Context, db *gorm.DB, owner string) (int64, error) {
	return f.countSessions, f.err
}

func (f *fakeSessionRepo) ListSessionsPage(ctx context.Context, db *gorm.DB, owner string, offset, limit int) ([]domain.Session, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.sessions, f.err
}

func (f *fakeSessionRepo) GetOwnedSession(ctx context.Context, db *gorm.DB, id, owner string) (*domain.Session, error) {
	if f.owned == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.owned, nil
}

func (f *fakeSessionRepo) CountMessages(db *gorm.DB, sessionID string) (int64, error) {
	return f.countMessages, f.err
}

func (f *fakeSessionRepo) ListMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.messages, f.err
}

func (f *fakeSessionRepo) SetSessionPinned(ctx context.Context, db *gorm.DB, id, owner string, pinned bool) error {
	if f.owned == nil {
		return gorm.ErrRecordNotFound
	}
	f.gotPinned = pinned
	return nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, db *gorm.DB, id, owner string) error {
	if f.owned == nil {
		return gorm.ErrRecordNotFound
	}
	f.deleted = id
	return nil
}

func TestSessionService_ListPage(t *testing.T) {
	db := newTestDB(t, "sesssvc-list")
	repo := &fakeSessionRepo{
		countSessions: 45,
		sessions:      []domain.Session{{ID: "a"}, {ID: "b"}},
	}
	svc := &SessionService{DB: db, Repo: repo}

	items, total, err := svc.ListPage(context.Background(), "tok:v1", 3, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 45 || len(items) != 2 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if repo.gotOffset != 20 || repo.gotLimit != 10 {
		t.Fatalf("paging args = (%d, %d)", repo.gotOffset, repo.gotLimit)
	}

	// Out-of-range paging inputs fall back to page 1, size 20.
	if _, _, err := svc.ListPage(context.Background(), "tok:v1", 0, -1); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if repo.gotOffset != 0 || repo.gotLimit != 20 {
		t.Fatalf("clamped paging args = (%d, %d)", repo.gotOffset, repo.gotLimit)
	}
}

func TestSessionService_ListPage_EmptySkipsQuery(t *testing.T) {
	db := newTestDB(t, "sesssvc-empty")
	repo := &fakeSessionRepo{countSessions: 0, gotLimit: -1}
	svc := &SessionService{DB: db, Repo: repo}

	items, total, err := svc.ListPage(context.Background(), "tok:v1", 1, 20)
	if err != nil || total != 0 {
		t.Fatalf("ListPage: total=%d err=%v", total, err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("empty result must be a non-nil empty slice, got %v", items)
	}
	if repo.gotLimit != -1 {
		t.Fatalf("page query must be skipped when the count is zero")
	}
}

func TestSessionService_Messages(t *testing.T) {
	db := newTestDB(t, "sesssvc-msgs")
	repo := &fakeSessionRepo{
		owned:         &domain.Session{ID: "s1", OwnerIdentity: "tok:v1"},
		countMessages: 3,
		messages:      []domain.Message{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}},
	}
	svc := &SessionService{DB: db, Repo: repo}

	items, total, err := svc.Messages(context.Background(), "tok:v1", "s1", 1, 50)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
}

func TestSessionService_Messages_UnknownSession(t *testing.T) {
	db := newTestDB(t, "sesssvc-missing")
	svc := &SessionService{DB: db, Repo: &fakeSessionRepo{}}

	_, _, err := svc.Messages(context.Background(), "tok:v1", "missing", 1, 20)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionService_SetPinnedAndDelete(t *testing.T) {
	db := newTestDB(t, "sesssvc-pin")
	repo := &fakeSessionRepo{owned: &domain.Session{ID: "s1"}}
	svc := &SessionService{DB: db, Repo: repo}
	ctx := context.Background()

	if err := svc.SetPinned(ctx, "tok:v1", "s1", true); err != nil {
		t.Fatalf("SetPinned: %v", err)
	}
	if !repo.gotPinned {
		t.Fatalf("pinned flag not forwarded")
	}
	if err := svc.Delete(ctx, "tok:v1", "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.deleted != "s1" {
		t.Fatalf("deleted = %q", repo.deleted)
	}

	missing := &SessionService{DB: db, Repo: &fakeSessionRepo{}}
	if err := missing.SetPinned(ctx, "tok:v1", "s1", true); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("SetPinned err = %v", err)
	}
	if err := missing.Delete(ctx, "tok:v1", "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}
