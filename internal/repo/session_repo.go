// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a session is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service layer
// and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSession inserts a new Session row bound to ownerIdentity. An empty
// id generates a fresh UUID; a client-supplied id is kept so the caller can
// keep referencing it.
func CreateSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) (*domain.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := &domain.Session{
		ID:            id,
		OwnerIdentity: ownerIdentity,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by id. Unseen ids return (nil, nil) so the
// guard can distinguish "create" from "reject".
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOwnedSession fetches a session by id ensuring it belongs to
// ownerIdentity, or ErrNotFound.
func GetOwnedSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND owner_identity = ?", id, ownerIdentity).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSessions returns the total number of sessions owned by ownerIdentity.
func CountSessions(ctx context.Context, db *gorm.DB, ownerIdentity string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("owner_identity = ?", ownerIdentity).
		Count(&total).Error
	return total, err
}

// ListSessionsPage returns a page of sessions for ownerIdentity, pinned
// sessions first, then most recent activity.
func ListSessionsPage(ctx context.Context, db *gorm.DB, ownerIdentity string, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("owner_identity = ?", ownerIdentity).
		Order("pinned desc, last_message_at desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TouchSession records turn activity: bumps the conversation sequence
// number and updates the last-message timestamp and preview.
func TouchSession(ctx context.Context, db *gorm.DB, id, preview string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_message_at":      now,
			"last_message_preview": preview,
			"message_seq":          gorm.Expr("message_seq + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSessionPinned flips the pinned flag, enforcing ownership.
func SetSessionPinned(ctx context.Context, db *gorm.DB, id, ownerIdentity string, pinned bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND owner_identity = ?", id, ownerIdentity).
		Update("pinned", pinned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session and all of its messages, enforcing
// ownership. The two deletes run in one transaction so the cascade cannot
// be observed half-applied.
func DeleteSession(ctx context.Context, db *gorm.DB, id, ownerIdentity string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_identity = ?", id, ownerIdentity).Delete(&domain.Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("session_id = ?", id).Delete(&domain.Message{}).Error
	})
}
