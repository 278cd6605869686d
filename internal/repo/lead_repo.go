// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model,
// including the phone-variant matching used by enrollment verification.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// CreateLead inserts a fully populated lead row.
func CreateLead(ctx context.Context, db *gorm.DB, l *domain.Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}

// FindLeadsByName returns leads whose full name contains nameSub
// (case-insensitive), most recent first.
func FindLeadsByName(ctx context.Context, db *gorm.DB, nameSub string) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Where("full_name LIKE ?", "%"+nameSub+"%").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// FindLeadsByPhoneVariants tries each phone variant in order against the
// stored phone column and returns the rows of the first variant that
// matches anything. Stored phone formats are inconsistent (with or without
// country code or trunk prefix), which is why the caller passes the raw
// string, the digits-only form, and a trailing-digits form.
func FindLeadsByPhoneVariants(ctx context.Context, db *gorm.DB, variants []string, nameFilter string) ([]domain.Lead, error) {
	for _, v := range variants {
		if v == "" {
			continue
		}
		q := db.WithContext(ctx).Where("phone LIKE ?", "%"+v+"%")
		if nameFilter != "" {
			q = q.Where("full_name LIKE ?", "%"+nameFilter+"%")
		}
		var out []domain.Lead
		if err := q.Order("created_at desc").Find(&out).Error; err != nil {
			return nil, err
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}
