// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the read-only
// Certificate model, plus the startup seeding helper.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// FindCertificate resolves an order code plus a fuzzy course-name substring
// to a certificate record. The order code narrows the candidate set in SQL;
// the course match is accent- and case-insensitive and therefore applied in
// memory. Returns (nil, nil) when nothing matches.
func FindCertificate(ctx context.Context, db *gorm.DB, orderCode, courseNameSub string) (*domain.Certificate, error) {
	var rows []domain.Certificate
	err := db.WithContext(ctx).
		Where("order_code = ?", orderCode).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if textutil.ContainsNormalized(rows[i].CourseName, courseNameSub) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// SeedCertificates upserts the given records keyed by (order_code,
// course_name). Safe to run on every startup.
func SeedCertificates(ctx context.Context, db *gorm.DB, records []domain.Certificate) error {
	for _, rec := range records {
		var existing domain.Certificate
		err := db.WithContext(ctx).
			Where("order_code = ? AND course_name = ?", rec.OrderCode, rec.CourseName).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			updates := map[string]any{"status": rec.Status, "last_updated": rec.LastUpdated}
			if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
