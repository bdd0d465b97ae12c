// Package services – MedicationService
//
// This file implements the MedicationService: creation, paginated listing
// ordered by name, merge-style partial updates, and deletion. Deletion does
// not check for referencing prescriptions; it always succeeds and leaves
// them pointing at the removed row.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/utils"
)

// MedicationRepo defines the repository contract required by MedicationService.
type MedicationRepo interface {
	// CreateMedication inserts a new medication row.
	CreateMedication(ctx context.Context, db *gorm.DB, name string, description *string) (*domain.Medication, error)

	// CountMedications returns the total number of medications for pagination.
	CountMedications(ctx context.Context, db *gorm.DB) (int64, error)

	// ListMedicationsPage returns a page of medications ordered by name.
	ListMedicationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Medication, error)

	// GetMedication fetches a medication by id.
	GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error)

	// SaveMedication persists all fields of an existing medication row.
	SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error

	// DeleteMedication removes a medication row.
	DeleteMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error
}

// UpdateMedicationInput carries the optional fields of a partial medication
// update. A nil Name means "leave unchanged". Description is only applied
// when DescriptionSet is true; this keeps "description": null (clear the
// value) distinct from an absent key.
type UpdateMedicationInput struct {
	Name           *string
	Description    *string
	DescriptionSet bool
}

// MedicationService provides medication-level operations.
type MedicationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the medication repository used by this service.
	Repo MedicationRepo
}

// NewMedicationService constructs a MedicationService.
func NewMedicationService(db *gorm.DB, r MedicationRepo) *MedicationService {
	return &MedicationService{DB: db, Repo: r}
}

// Create registers a new medication. No duplicate-name check is performed.
func (s *MedicationService) Create(ctx context.Context, name string, description *string) (*domain.Medication, error) {
	return s.Repo.CreateMedication(ctx, s.DB, name, description)
}

// ListPage returns a page of medications ordered by name ascending, wrapped
// in the pagination envelope. Prescriptions are not loaded.
func (s *MedicationService) ListPage(ctx context.Context, page, limit int) (utils.Page[domain.Medication], error) {
	total, err := s.Repo.CountMedications(ctx, s.DB)
	if err != nil {
		return utils.Page[domain.Medication]{}, err
	}

	offset := (page - 1) * limit
	items, err := s.Repo.ListMedicationsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return utils.Page[domain.Medication]{}, err
	}
	return utils.Paginate(items, total, page, limit), nil
}

// Get fetches a medication by id. A missing row yields a NotFoundError
// naming the id.
func (s *MedicationService) Get(ctx context.Context, id int) (*domain.Medication, error) {
	m, err := s.Repo.GetMedication(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicationNotFound(id)
		}
		return nil, err
	}
	return m, nil
}

// Update merges the provided fields over the stored record: any field present
// in the input overwrites, absent fields are untouched.
func (s *MedicationService) Update(ctx context.Context, id int, in UpdateMedicationInput) (*domain.Medication, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.DescriptionSet {
		m.Description = in.Description
	}

	if err := s.Repo.SaveMedication(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a medication. Prescriptions referencing it are neither
// checked nor touched; they keep their medication_id.
func (s *MedicationService) Delete(ctx context.Context, id int) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Repo.DeleteMedication(ctx, s.DB, m)
}
