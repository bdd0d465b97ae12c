package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

func newRxRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("rx_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(WithConnPragmas(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&domain.Patient{}, &domain.Medication{}, &domain.Prescription{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedRxRefs(t *testing.T, db *gorm.DB) (*domain.Patient, *domain.Medication) {
	t.Helper()
	p, err := CreatePatient(context.Background(), db, "Ada", "L", domain.NewDate(1990, time.May, 17))
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	m, err := CreateMedication(context.Background(), db, "Ibuprofen", nil)
	if err != nil {
		t.Fatalf("seed medication: %v", err)
	}
	return p, m
}

func TestCreatePrescription_AssignsIDAndSkipsAssociationSaves(t *testing.T) {
	db := newRxRepoDB(t)
	p, m := seedRxRefs(t, db)

	end := domain.NewDate(2024, time.January, 10)
	rx := &domain.Prescription{
		PatientID:    p.ID,
		MedicationID: m.ID,
		Dosage:       "500mg",
		Frequency:    "Every 8 hours",
		StartDate:    domain.NewDate(2024, time.January, 1),
		EndDate:      &end,
		// Attached for the response only; must not be re-saved.
		Patient:    p,
		Medication: m,
	}
	if err := CreatePrescription(context.Background(), db, rx); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	if rx.ID == 0 {
		t.Fatalf("expected assigned id, got %+v", rx)
	}

	// Attaching the refs must not have duplicated them.
	var patients, meds int64
	db.Model(&domain.Patient{}).Count(&patients)
	db.Model(&domain.Medication{}).Count(&meds)
	if patients != 1 || meds != 1 {
		t.Fatalf("association rows duplicated: patients=%d medications=%d", patients, meds)
	}

	got, err := GetPrescription(context.Background(), db, rx.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if got.Dosage != "500mg" || got.Frequency != "Every 8 hours" {
		t.Fatalf("unexpected prescription: %+v", got)
	}
	if got.StartDate.String() != "2024-01-01" || got.EndDate == nil || got.EndDate.String() != "2024-01-10" {
		t.Fatalf("dates not persisted: %+v", got)
	}
}

func TestCreatePrescription_NilEndDate(t *testing.T) {
	db := newRxRepoDB(t)
	p, m := seedRxRefs(t, db)

	rx := &domain.Prescription{
		PatientID:    p.ID,
		MedicationID: m.ID,
		Dosage:       "10mg",
		Frequency:    "Daily",
		StartDate:    domain.NewDate(2024, time.February, 1),
	}
	if err := CreatePrescription(context.Background(), db, rx); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	got, err := GetPrescription(context.Background(), db, rx.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if got.EndDate != nil {
		t.Fatalf("expected nil EndDate, got %v", got.EndDate)
	}
}

func TestGetPrescription_NotFound(t *testing.T) {
	db := newRxRepoDB(t)
	if _, err := GetPrescription(context.Background(), db, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPrescriptionWithRefs_PreloadsBoth(t *testing.T) {
	db := newRxRepoDB(t)
	p, m := seedRxRefs(t, db)

	rx := &domain.Prescription{
		PatientID:    p.ID,
		MedicationID: m.ID,
		Dosage:       "500mg",
		Frequency:    "Every 8 hours",
		StartDate:    domain.NewDate(2024, time.January, 1),
	}
	if err := CreatePrescription(context.Background(), db, rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetPrescriptionWithRefs(context.Background(), db, rx.ID)
	if err != nil {
		t.Fatalf("GetPrescriptionWithRefs: %v", err)
	}
	if got.Patient == nil || got.Patient.ID != p.ID {
		t.Fatalf("patient not preloaded: %+v", got.Patient)
	}
	if got.Medication == nil || got.Medication.Name != "Ibuprofen" {
		t.Fatalf("medication not preloaded: %+v", got.Medication)
	}
}

func TestCountPrescriptions_PerPatient(t *testing.T) {
	db := newRxRepoDB(t)
	p, m := seedRxRefs(t, db)
	other, err := CreatePatient(context.Background(), db, "Bob", "B", domain.NewDate(1985, time.March, 3))
	if err != nil {
		t.Fatalf("seed other: %v", err)
	}

	for _, pid := range []int{p.ID, p.ID, other.ID} {
		rx := &domain.Prescription{
			PatientID:    pid,
			MedicationID: m.ID,
			Dosage:       "d",
			Frequency:    "f",
			StartDate:    domain.NewDate(2024, time.January, 1),
		}
		if err := CreatePrescription(context.Background(), db, rx); err != nil {
			t.Fatalf("seed rx for %d: %v", pid, err)
		}
	}

	total, err := CountPrescriptions(context.Background(), db, p.ID)
	if err != nil {
		t.Fatalf("CountPrescriptions: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 for patient %d, got %d", p.ID, total)
	}
}

func TestDeletePrescription(t *testing.T) {
	db := newRxRepoDB(t)
	p, m := seedRxRefs(t, db)

	rx := &domain.Prescription{
		PatientID:    p.ID,
		MedicationID: m.ID,
		Dosage:       "500mg",
		Frequency:    "Every 8 hours",
		StartDate:    domain.NewDate(2024, time.January, 1),
	}
	if err := CreatePrescription(context.Background(), db, rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := DeletePrescription(context.Background(), db, rx); err != nil {
		t.Fatalf("DeletePrescription: %v", err)
	}
	if _, err := GetPrescription(context.Background(), db, rx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected prescription gone, got %v", err)
	}
	// Neither reference is touched.
	if _, err := FindPatient(context.Background(), db, p.ID); err != nil {
		t.Fatalf("patient should survive: %v", err)
	}
	if _, err := GetMedication(context.Background(), db, m.ID); err != nil {
		t.Fatalf("medication should survive: %v", err)
	}
}
