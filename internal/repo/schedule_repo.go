// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SchedulePreference model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// CreateSchedulePreference inserts a preference row and returns its
// generated id.
func CreateSchedulePreference(ctx context.Context, db *gorm.DB, p *domain.SchedulePreference) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return "", err
	}
	return p.ID, nil
}

// GetSchedulePreference fetches a preference by id.
func GetSchedulePreference(ctx context.Context, db *gorm.DB, id string) (*domain.SchedulePreference, error) {
	var p domain.SchedulePreference
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
