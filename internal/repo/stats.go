// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// MedicationsStats returns aggregate metadata for the medications table: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
// Together they form an exact freshness signal for the flat medications list.
//
// When there are no medications, the returned count is 0 and maxUpdatedAt is nil.
func MedicationsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Medication{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// PatientListStats aggregates freshness signals for the patient list. The list
// nests prescriptions and their medications, so any mutation in the three
// tables must change the signal: row counts for each table plus the latest
// mutation timestamp among them.
type PatientListStats struct {
	Patients      int64
	Prescriptions int64
	Medications   int64
	// MaxUpdatedAt is the newest of patients.updated_at,
	// prescriptions.created_at, and medications.updated_at; nil when all
	// three tables are empty.
	MaxUpdatedAt *time.Time
}

// PatientsStats returns the aggregate metadata backing the patient list ETag.
func PatientsStats(ctx context.Context, db *gorm.DB) (PatientListStats, error) {
	var s PatientListStats

	if err := db.WithContext(ctx).Model(&domain.Patient{}).Count(&s.Patients).Error; err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).Model(&domain.Prescription{}).Count(&s.Prescriptions).Error; err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).Model(&domain.Medication{}).Count(&s.Medications).Error; err != nil {
		return s, err
	}

	var max time.Time
	for _, src := range []struct {
		model any
		col   string
	}{
		{&domain.Patient{}, "updated_at"},
		{&domain.Prescription{}, "created_at"},
		{&domain.Medication{}, "updated_at"},
	} {
		var row struct {
			TS time.Time
		}
		q := db.WithContext(ctx).Model(src.model).
			Select(src.col + " AS ts").
			Order(src.col + " DESC").
			Limit(1)
		if err := q.Scan(&row).Error; err != nil {
			return s, err
		}
		if row.TS.After(max) {
			max = row.TS
		}
	}
	if !max.IsZero() {
		s.MaxUpdatedAt = &max
	}
	return s, nil
}
