// Package services – PatientService
//
// This file implements the PatientService, which manages the patient
// lifecycle: creation, paginated listing with nested prescriptions, partial
// updates, and deletion (which cascades to the patient's prescriptions at the
// storage layer). Service-level errors (NotFoundError) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/utils"
)

// PatientRepo defines the repository contract required by PatientService.
// Implementations are responsible for persistence of patient aggregates.
type PatientRepo interface {
	// CreatePatient inserts a new patient row.
	CreatePatient(ctx context.Context, db *gorm.DB, firstName, lastName string, dateOfBirth domain.Date) (*domain.Patient, error)

	// CountPatients returns the total number of patients for pagination.
	CountPatients(ctx context.Context, db *gorm.DB) (int64, error)

	// ListPatientsPage returns a page of patients (id descending) with
	// prescriptions and their medications preloaded.
	ListPatientsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Patient, error)

	// GetPatient fetches a patient by id with nested prescriptions loaded.
	GetPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error)

	// SavePatient persists all fields of an existing patient row.
	SavePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error

	// DeletePatient removes a patient row (cascading to prescriptions).
	DeletePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error
}

// UpdatePatientInput carries the optional fields of a partial patient update.
// A nil field means "leave unchanged".
type UpdatePatientInput struct {
	FirstName *string
	LastName  *string
	BirthDate *domain.Date
}

// PatientService provides patient-level operations. It enforces not-found
// semantics and partial-update rules on top of the repository.
type PatientService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the patient repository used by this service.
	Repo PatientRepo
}

// NewPatientService constructs a PatientService.
func NewPatientService(db *gorm.DB, r PatientRepo) *PatientService {
	return &PatientService{DB: db, Repo: r}
}

// Create registers a new patient and returns the persisted record.
func (s *PatientService) Create(ctx context.Context, firstName, lastName string, birthDate domain.Date) (*domain.Patient, error) {
	return s.Repo.CreatePatient(ctx, s.DB, firstName, lastName, birthDate)
}

// ListPage returns a page of patients ordered by id descending, each with its
// prescriptions (and their medications) nested, wrapped in the pagination
// envelope. Page and limit are used as given; the handler layer validates
// them.
func (s *PatientService) ListPage(ctx context.Context, page, limit int) (utils.Page[domain.Patient], error) {
	total, err := s.Repo.CountPatients(ctx, s.DB)
	if err != nil {
		return utils.Page[domain.Patient]{}, err
	}

	offset := (page - 1) * limit
	items, err := s.Repo.ListPatientsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return utils.Page[domain.Patient]{}, err
	}
	return utils.Paginate(items, total, page, limit), nil
}

// Get fetches a patient by id including nested prescriptions. A missing row
// yields a NotFoundError naming the id.
func (s *PatientService) Get(ctx context.Context, id int) (*domain.Patient, error) {
	p, err := s.Repo.GetPatient(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

// Update applies a partial update: only fields present in the input overwrite
// the stored record. The not-found error from Get propagates unchanged.
func (s *PatientService) Update(ctx context.Context, id int, in UpdatePatientInput) (*domain.Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.BirthDate != nil {
		p.DateOfBirth = *in.BirthDate
	}

	if err := s.Repo.SavePatient(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a patient and, via the storage-layer cascade, all of its
// prescriptions. The not-found error from Get propagates unchanged.
func (s *PatientService) Delete(ctx context.Context, id int) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Repo.DeletePatient(ctx, s.DB, p)
}
