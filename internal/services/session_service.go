// Package services – SessionService
//
// This file implements SessionService, which manages session listing,
// history retrieval, pinning, and deletion for a resolved owner identity.
// Ownership rules are enforced here so handlers stay transport-thin.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionRepo defines the repository contract required by SessionService.
type SessionRepo interface {
	// CountSessions returns the total number of sessions for pagination.
	CountSessions(ctx context.Context, db *gorm.DB, ownerIdentity string) (int64, error)

	// ListSessionsPage returns a page of sessions, pinned first.
	ListSessionsPage(ctx context.Context, db *gorm.DB, ownerIdentity string, offset, limit int) ([]domain.Session, error)

	// GetOwnedSession fetches a session enforcing ownership.
	GetOwnedSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) (*domain.Session, error)

	// CountMessages / ListMessagesPage page through a session's history.
	CountMessages(db *gorm.DB, sessionID string) (int64, error)
	ListMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error)

	// SetSessionPinned flips the pinned flag enforcing ownership.
	SetSessionPinned(ctx context.Context, db *gorm.DB, id, ownerIdentity string, pinned bool) error

	// DeleteSession removes a session and its messages enforcing ownership.
	DeleteSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) error
}

// SessionService provides session-level operations for one owner identity.
type SessionService struct {
	DB   *gorm.DB
	Repo SessionRepo
}

// ListPage returns a page of the identity's sessions plus the total count.
func (s *SessionService) ListPage(ctx context.Context, identity string, page, pageSize int) ([]domain.Session, int64, error) {
	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("page_size", pageSize)),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize)
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountSessions(ctx, s.DB, identity)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}

	items, err := s.Repo.ListSessionsPage(ctx, s.DB, identity, offset, pageSize)
	return items, total, err
}

// Messages returns a page of a session's history, enforcing ownership.
func (s *SessionService) Messages(ctx context.Context, identity, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "Messages",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if _, err := s.Repo.GetOwnedSession(ctx, s.DB, sessionID, identity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, err
	}

	page, pageSize = clampPage(page, pageSize)
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountMessages(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := s.Repo.ListMessagesPage(s.DB.WithContext(ctx), sessionID, offset, pageSize)
	return items, total, err
}

// SetPinned flips the pinned flag of an owned session.
func (s *SessionService) SetPinned(ctx context.Context, identity, sessionID string, pinned bool) error {
	err := s.Repo.SetSessionPinned(ctx, s.DB, sessionID, identity, pinned)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Delete removes an owned session and cascades its messages.
func (s *SessionService) Delete(ctx context.Context, identity, sessionID string) error {
	err := s.Repo.DeleteSession(ctx, s.DB, sessionID, identity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// clampPage applies the service-wide pagination defaults.
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
