package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-clinic-backend/internal/domain"
)

func newStatsDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestMedicationsStats_EmptyTable(t *testing.T) {
	db := newStatsDB(t, &domain.Medication{})

	count, maxUpdated, err := MedicationsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("MedicationsStats: %v", err)
	}
	if count != 0 || maxUpdated != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxUpdated)
	}
}

func TestMedicationsStats_Error_NoTable(t *testing.T) {
	db := newStatsDB(t /* no migrations */)
	if _, _, err := MedicationsStats(context.Background(), db); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestMedicationsStats_CountAndMaxUpdatedAt(t *testing.T) {
	db := newStatsDB(t, &domain.Medication{})

	// Seed with explicit UpdatedAt values so the max is deterministic.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		m := domain.Medication{
			Name:      fmt.Sprintf("med-%d", i),
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	count, maxUpdated, err := MedicationsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("MedicationsStats: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	if maxUpdated == nil {
		t.Fatalf("expected non-nil maxUpdatedAt")
	}
	want := base.Add(3 * time.Hour)
	if !maxUpdated.Equal(want) {
		t.Fatalf("maxUpdatedAt = %v; want %v", maxUpdated, want)
	}

	// Touching a row moves the freshness signal forward.
	var m domain.Medication
	if err := db.First(&m, "name = ?", "med-1").Error; err != nil {
		t.Fatalf("load med-1: %v", err)
	}
	m.Name = "med-1-renamed"
	if err := SaveMedication(context.Background(), db, &m); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, after, err := MedicationsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("MedicationsStats after save: %v", err)
	}
	if after == nil || !after.After(want) {
		t.Fatalf("expected freshness to advance past %v, got %v", want, after)
	}
}

func TestPatientsStats_EmptyTables(t *testing.T) {
	db := newStatsDB(t, &domain.Patient{}, &domain.Medication{}, &domain.Prescription{})

	s, err := PatientsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("PatientsStats: %v", err)
	}
	if s.Patients != 0 || s.Prescriptions != 0 || s.Medications != 0 || s.MaxUpdatedAt != nil {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}

func TestPatientsStats_Error_NoTable(t *testing.T) {
	db := newStatsDB(t /* no migrations */)
	if _, err := PatientsStats(context.Background(), db); err == nil {
		t.Fatalf("expected error when tables missing")
	}
}

func TestPatientsStats_CountsAndMaxAcrossTables(t *testing.T) {
	db := newStatsDB(t, &domain.Patient{}, &domain.Medication{}, &domain.Prescription{})

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dob, _ := domain.ParseDate("1990-05-17")
	p := domain.Patient{
		FirstName: "Ada", LastName: "Lovelace", DateOfBirth: dob,
		CreatedAt: base, UpdatedAt: base.Add(1 * time.Hour),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	m := domain.Medication{Name: "Aspirin", CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed medication: %v", err)
	}
	start, _ := domain.ParseDate("2024-01-01")
	rx := domain.Prescription{
		PatientID: p.ID, MedicationID: m.ID,
		Dosage: "100mg", Frequency: "Daily", StartDate: start,
		CreatedAt: base.Add(3 * time.Hour),
	}
	if err := db.Create(&rx).Error; err != nil {
		t.Fatalf("seed prescription: %v", err)
	}

	s, err := PatientsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("PatientsStats: %v", err)
	}
	if s.Patients != 1 || s.Prescriptions != 1 || s.Medications != 1 {
		t.Fatalf("counts: %+v", s)
	}
	// The prescription carries the newest timestamp.
	want := base.Add(3 * time.Hour)
	if s.MaxUpdatedAt == nil || !s.MaxUpdatedAt.Equal(want) {
		t.Fatalf("MaxUpdatedAt = %v; want %v", s.MaxUpdatedAt, want)
	}

	// Deleting the prescription changes the count even though no timestamp
	// moves forward.
	if err := DeletePrescription(context.Background(), db, &rx); err != nil {
		t.Fatalf("delete prescription: %v", err)
	}
	s2, err := PatientsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("PatientsStats after delete: %v", err)
	}
	if s2.Prescriptions != 0 {
		t.Fatalf("expected prescription count 0, got %d", s2.Prescriptions)
	}
}
