// Package services – PrescriptionService
//
// This file implements the PrescriptionService. Creation resolves both
// foreign references before inserting: first the patient, then the
// medication, each failing with its own not-found error. The three database
// round trips (two lookups plus the insert) are deliberately not wrapped in a
// transaction; the storage layer's foreign keys still reject an insert racing
// a concurrent parent deletion.
//
// Prescriptions have no list or update operation: they are only visible
// nested under a patient.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// PrescriptionRepo defines the repository contract required by
// PrescriptionService.
type PrescriptionRepo interface {
	// FindPatient fetches a patient by id without associations.
	FindPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error)

	// GetMedication fetches a medication by id.
	GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error)

	// CreatePrescription inserts a prescription row.
	CreatePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error

	// GetPrescription fetches a prescription by id.
	GetPrescription(ctx context.Context, db *gorm.DB, id int) (*domain.Prescription, error)

	// DeletePrescription removes a prescription row.
	DeletePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error
}

// CreatePrescriptionInput carries the scalar fields of a new prescription.
type CreatePrescriptionInput struct {
	MedicationID int
	Dosage       string
	Frequency    string
	StartDate    domain.Date
	EndDate      *domain.Date
}

// PrescriptionService provides prescription creation and deletion.
type PrescriptionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the prescription repository used by this service.
	Repo PrescriptionRepo
}

// NewPrescriptionService constructs a PrescriptionService.
func NewPrescriptionService(db *gorm.DB, r PrescriptionRepo) *PrescriptionService {
	return &PrescriptionService{DB: db, Repo: r}
}

// Create validates that both the patient and the medication exist, then
// persists the prescription and returns it with both references attached.
// StartDate/EndDate ordering is not validated.
func (s *PrescriptionService) Create(ctx context.Context, patientID int, in CreatePrescriptionInput) (*domain.Prescription, error) {
	patient, err := s.Repo.FindPatient(ctx, s.DB, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrescriptionPatient
		}
		return nil, err
	}

	medication, err := s.Repo.GetMedication(ctx, s.DB, in.MedicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrescriptionMedication
		}
		return nil, err
	}

	p := &domain.Prescription{
		PatientID:    patient.ID,
		MedicationID: medication.ID,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Patient:      patient,
		Medication:   medication,
	}
	if err := s.Repo.CreatePrescription(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches a prescription by id. A missing row yields the generic,
// message-less not-found error.
func (s *PrescriptionService) Get(ctx context.Context, id int) (*domain.Prescription, error) {
	p, err := s.Repo.GetPrescription(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a prescription by id. The patient id from the route is
// accepted by the handler but plays no part in the lookup.
func (s *PrescriptionService) Delete(ctx context.Context, id int) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Repo.DeletePrescription(ctx, s.DB, p)
}
