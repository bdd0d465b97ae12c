// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Prescription model.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// CreatePrescription inserts a new prescription row. Associations are omitted
// from the insert: the caller sets PatientID/MedicationID (both already
// resolved to existing rows) and may attach Patient/Medication pointers for
// the response without re-saving them.
func CreatePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// GetPrescription fetches a prescription by id, or ErrNotFound.
func GetPrescription(ctx context.Context, db *gorm.DB, id int) (*domain.Prescription, error) {
	var p domain.Prescription
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPrescriptionWithRefs fetches a prescription by id with its patient and
// medication loaded. Used when replaying an idempotent create, so the replay
// body matches the original response shape.
func GetPrescriptionWithRefs(ctx context.Context, db *gorm.DB, id int) (*domain.Prescription, error) {
	var p domain.Prescription
	err := db.WithContext(ctx).
		Preload("Patient").
		Preload("Medication").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPrescriptions returns the total number of prescriptions owned by the
// given patient.
func CountPrescriptions(ctx context.Context, db *gorm.DB, patientID int) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Prescription{}).
		Where("patient_id = ?", patientID).
		Count(&total).Error
	return total, err
}

// DeletePrescription removes a prescription row.
func DeletePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	return db.WithContext(ctx).Delete(&domain.Prescription{}, "id = ?", p.ID).Error
}
