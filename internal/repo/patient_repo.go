// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Patient model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a patient is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.PatientService) which enforces business rules such as
// not-found error messages and partial-update semantics.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePatient inserts a new patient row. The integer primary key is
// assigned by the database and written back into the returned struct.
func CreatePatient(ctx context.Context, db *gorm.DB, firstName, lastName string, dateOfBirth domain.Date) (*domain.Patient, error) {
	p := &domain.Patient{
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dateOfBirth,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CountPatients returns the total number of patient rows.
func CountPatients(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Patient{}).Count(&total).Error
	return total, err
}

// ListPatientsPage returns a paginated slice of patients ordered by id
// descending (most recently created first). Each patient's prescriptions and
// their medications are eagerly loaded. Use CountPatients to obtain the total
// for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*limit).
func ListPatientsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Patient, error) {
	var out []domain.Patient
	err := db.WithContext(ctx).
		Preload("Prescriptions.Medication").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Prescriptions == nil {
			out[i].Prescriptions = []domain.Prescription{}
		}
	}
	return out, nil
}

// GetPatient fetches a single patient by id with prescriptions and their
// medications preloaded. If the record does not exist, it returns ErrNotFound.
func GetPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error) {
	var p domain.Patient
	err := db.WithContext(ctx).
		Preload("Prescriptions.Medication").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if p.Prescriptions == nil {
		p.Prescriptions = []domain.Prescription{}
	}
	return &p, nil
}

// FindPatient fetches a patient by id without preloading associations.
// Used for existence checks (e.g. before inserting a prescription).
func FindPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error) {
	var p domain.Patient
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePatient persists all fields of an existing patient row. GORM refreshes
// UpdatedAt as part of the save.
func SavePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	return db.WithContext(ctx).Omit("Prescriptions").Save(p).Error
}

// DeletePatient removes a patient row. The prescriptions FK constraint
// (ON DELETE CASCADE; the foreign_keys pragma rides the connection DSN)
// removes the patient's prescriptions in the same statement.
func DeletePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	return db.WithContext(ctx).Delete(&domain.Patient{}, "id = ?", p.ID).Error
}
