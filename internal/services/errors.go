// Package services defines the business logic for patients, medications, and
// prescriptions. This file centralizes the service-level error types so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into HTTP status codes and response envelopes is performed once, at the
// handler boundary.
package services

import "fmt"

// NotFoundError indicates that a requested or referenced record does not
// exist. Message is the human-readable reason rendered to clients; when empty,
// callers fall back to a generic "Not Found".
type NotFoundError struct {
	Message string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "Not Found"
	}
	return e.Message
}

// ErrPatientNotFound reports a missing patient by id, e.g.
// "Patient with id 42 not found".
func ErrPatientNotFound(id int) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("Patient with id %d not found", id)}
}

// ErrMedicationNotFound reports a missing medication by id, e.g.
// "Medication with id 42 not found".
func ErrMedicationNotFound(id int) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("Medication with id %d not found", id)}
}

// Referential errors raised during prescription creation. These deliberately
// carry no id, matching the public API contract.
var (
	ErrPrescriptionPatient    = &NotFoundError{Message: "Patient not found"}
	ErrPrescriptionMedication = &NotFoundError{Message: "Medication not found"}
)

// ErrPrescriptionNotFound is the generic, message-less not-found returned when
// deleting a prescription that does not exist.
var ErrPrescriptionNotFound = &NotFoundError{}
