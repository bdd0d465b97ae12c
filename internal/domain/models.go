// Package domain defines the persistence models for patients, medications,
// and the prescriptions linking them. These types are mapped with GORM and
// form the core data layer of the clinic application.
package domain

import (
	"time"
)

// Patient represents a registered patient. A patient owns zero or more
// prescriptions; deleting a patient cascades to its prescriptions at the
// storage layer.
//
// Fields:
//   - ID: auto-assigned integer primary key, immutable after creation.
//   - FirstName / LastName: required name parts.
//   - DateOfBirth: calendar date, no time component.
//   - Prescriptions: owned prescriptions; only populated when preloaded.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Patient struct {
	ID          int    `json:"id"          gorm:"primaryKey;autoIncrement"`
	FirstName   string `json:"firstName"   gorm:"type:varchar(255);not null"`
	LastName    string `json:"lastName"    gorm:"type:varchar(255);not null"`
	DateOfBirth Date   `json:"dateOfBirth" gorm:"type:date;not null"`

	// Prescriptions owned by this patient, cascade-deleted with it.
	Prescriptions []Prescription `json:"prescriptions,omitempty" gorm:"foreignKey:PatientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Patient.
func (Patient) TableName() string { return "patients" }

// Medication represents a prescribable drug. Medications are referenced by
// prescriptions but do not own them: deleting a medication does not remove
// prescriptions that point at it.
//
// Fields:
//   - ID: auto-assigned integer primary key.
//   - Name: required medication name; no uniqueness constraint.
//   - Description: optional free text (null when absent).
//   - CreatedAt: timestamp managed by GORM.
//   - UpdatedAt: freshness column for conditional list responses; not part
//     of the JSON contract.
type Medication struct {
	ID          int       `json:"id"          gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name"        gorm:"type:varchar(255);not null"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName returns the database table name for Medication.
func (Medication) TableName() string { return "medications" }

// Prescription links exactly one patient with exactly one medication for a
// treatment period. Both references must resolve to existing rows at creation
// time; they are not re-validated afterward.
//
// Fields:
//   - ID: auto-assigned integer primary key.
//   - PatientID / MedicationID: scalar foreign keys (hidden from JSON; the
//     associated objects are rendered instead when loaded).
//   - Dosage / Frequency: required free-text instructions (e.g. "500mg",
//     "Every 8 hours").
//   - StartDate: first day of the treatment.
//   - EndDate: optional last day of the treatment.
//   - CreatedAt: timestamp managed by GORM.
type Prescription struct {
	ID           int    `json:"id"        gorm:"primaryKey;autoIncrement"`
	PatientID    int    `json:"-"         gorm:"not null;index"`
	MedicationID int    `json:"-"         gorm:"not null;index"`
	Dosage       string `json:"dosage"    gorm:"type:varchar(255);not null"`
	Frequency    string `json:"frequency" gorm:"type:varchar(255);not null"`
	StartDate    Date   `json:"startDate" gorm:"type:date;not null"`
	EndDate      *Date  `json:"endDate"   gorm:"type:date"`

	// Patient is the owning patient. Prescriptions are cascade-deleted if
	// their patient is removed. Only serialized when loaded.
	Patient *Patient `json:"patient,omitempty" gorm:"foreignKey:PatientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Medication is the prescribed drug. No schema constraint: medication
	// deletion must succeed and leave prescriptions in place, so an enforced
	// FK here would reject it.
	Medication *Medication `json:"medication,omitempty" gorm:"foreignKey:MedicationID;references:ID;constraint:-"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the database table name for Prescription.
func (Prescription) TableName() string { return "prescriptions" }
