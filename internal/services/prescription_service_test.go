package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

// ----- Fake repo -----

type fakeRxRepo struct {
	findPatientID int
	patient       *domain.Patient
	patientErr    error

	getMedID int
	med      *domain.Medication
	medErr   error

	created   *domain.Prescription
	createErr error

	getRxID int
	rx      *domain.Prescription
	rxErr   error

	deleted   *domain.Prescription
	deleteErr error
}

func (r *fakeRxRepo) FindPatient(ctx context.Context, db *gorm.DB, id int) (*domain.Patient, error) {
	r.findPatientID = id
	return r.patient, r.patientErr
}

func (r *fakeRxRepo) GetMedication(ctx context.Context, db *gorm.DB, id int) (*domain.Medication, error) {
	r.getMedID = id
	return r.med, r.medErr
}

func (r *fakeRxRepo) CreatePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	r.created = p
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = 55
	return nil
}

func (r *fakeRxRepo) GetPrescription(ctx context.Context, db *gorm.DB, id int) (*domain.Prescription, error) {
	r.getRxID = id
	return r.rx, r.rxErr
}

func (r *fakeRxRepo) DeletePrescription(ctx context.Context, db *gorm.DB, p *domain.Prescription) error {
	r.deleted = p
	return r.deleteErr
}

// ----- Tests -----

func rxInput() CreatePrescriptionInput {
	end := domain.NewDate(2024, time.January, 10)
	return CreatePrescriptionInput{
		MedicationID: 2,
		Dosage:       "500mg",
		Frequency:    "Every 8 hours",
		StartDate:    domain.NewDate(2024, time.January, 1),
		EndDate:      &end,
	}
}

func TestPrescriptionService_Create_Success(t *testing.T) {
	patient := &domain.Patient{ID: 1, FirstName: "Ada"}
	med := &domain.Medication{ID: 2, Name: "Ibuprofen"}
	r := &fakeRxRepo{patient: patient, med: med}
	s := NewPrescriptionService(nil, r)

	p, err := s.Create(context.Background(), 1, rxInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.findPatientID != 1 || r.getMedID != 2 {
		t.Fatalf("lookups = patient %d, medication %d", r.findPatientID, r.getMedID)
	}
	if p.ID != 55 || p.PatientID != 1 || p.MedicationID != 2 {
		t.Fatalf("unexpected prescription: %+v", p)
	}
	if p.Dosage != "500mg" || p.Frequency != "Every 8 hours" {
		t.Fatalf("fields not carried: %+v", p)
	}
	// Both references are attached for the response.
	if p.Patient != patient || p.Medication != med {
		t.Fatalf("references not attached: %+v", p)
	}
}

func TestPrescriptionService_Create_PatientMissing(t *testing.T) {
	r := &fakeRxRepo{patientErr: gorm.ErrRecordNotFound}
	s := NewPrescriptionService(nil, r)

	_, err := s.Create(context.Background(), 1, rxInput())
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "Patient not found" {
		t.Fatalf("expected \"Patient not found\", got %v", err)
	}
	// The medication lookup never runs.
	if r.getMedID != 0 {
		t.Fatalf("medication looked up despite missing patient")
	}
}

func TestPrescriptionService_Create_MedicationMissing(t *testing.T) {
	r := &fakeRxRepo{
		patient: &domain.Patient{ID: 1},
		medErr:  gorm.ErrRecordNotFound,
	}
	s := NewPrescriptionService(nil, r)

	_, err := s.Create(context.Background(), 1, rxInput())
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "Medication not found" {
		t.Fatalf("expected \"Medication not found\", got %v", err)
	}
}

func TestPrescriptionService_Create_RepoErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")

	s := NewPrescriptionService(nil, &fakeRxRepo{patientErr: boom})
	if _, err := s.Create(context.Background(), 1, rxInput()); !errors.Is(err, boom) {
		t.Fatalf("expected raw patient error, got %v", err)
	}

	s = NewPrescriptionService(nil, &fakeRxRepo{
		patient: &domain.Patient{ID: 1}, med: &domain.Medication{ID: 2}, createErr: boom,
	})
	if _, err := s.Create(context.Background(), 1, rxInput()); !errors.Is(err, boom) {
		t.Fatalf("expected raw create error, got %v", err)
	}
}

func TestPrescriptionService_Get(t *testing.T) {
	rx := &domain.Prescription{ID: 55}
	s := NewPrescriptionService(nil, &fakeRxRepo{rx: rx})

	got, err := s.Get(context.Background(), 55)
	if err != nil || got != rx {
		t.Fatalf("Get = (%v, %v)", got, err)
	}

	s = NewPrescriptionService(nil, &fakeRxRepo{rxErr: gorm.ErrRecordNotFound})
	_, err = s.Get(context.Background(), 55)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	// Deliberately message-less: renders as the generic reason phrase.
	if nf.Error() != "Not Found" {
		t.Fatalf("unexpected message: %q", nf.Error())
	}
}

func TestPrescriptionService_Delete(t *testing.T) {
	rx := &domain.Prescription{ID: 55}
	r := &fakeRxRepo{rx: rx}
	s := NewPrescriptionService(nil, r)

	if err := s.Delete(context.Background(), 55); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.deleted != rx {
		t.Fatalf("expected loaded record to be deleted")
	}

	s = NewPrescriptionService(nil, &fakeRxRepo{rxErr: gorm.ErrRecordNotFound})
	err := s.Delete(context.Background(), 56)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "Not Found" {
		t.Fatalf("expected generic not-found, got %v", err)
	}
}
