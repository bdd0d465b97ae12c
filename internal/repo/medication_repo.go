// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Medication model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// CreateMedication inserts a new medication row. Description may be nil.
func CreateMedication(ctx context.Context, db *gorm.DB, name string, description *string) (*domain.Medication, error) {
	m := &domain.Medication{
		Name:        name,
		Description: description,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CountMedications returns the total number of medication rows.
func CountMedications(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Medication{}).Count(&total).Error
	return total, err
}

// ListMedicationsPage returns a paginated slice of medications ordered by
// name ascending. Prescriptions are not loaded.
func ListMedicationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Medication, error) {
	var out []domain.Medication
	err := db.WithContext(ctx).
		Order("name asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMedication fetches a single medication by id, or ErrNotFound.
func GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error) {
	var m domain.Medication
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMedication persists all fields of an existing medication row.
func SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return db.WithContext(ctx).Save(m).Error
}

// DeleteMedication removes a medication row. Referencing prescriptions are
// intentionally left untouched.
func DeleteMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return db.WithContext(ctx).Delete(&domain.Medication{}, "id = ?", m.ID).Error
}
