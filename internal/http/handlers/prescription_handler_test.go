package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/http/middleware"
	"github.com/tbourn/go-clinic-backend/internal/repo"
	"github.com/tbourn/go-clinic-backend/internal/services"
)

func rxBody(medicationID int) map[string]any {
	return map[string]any{
		"medicationId": medicationID,
		"dosage":       "500mg",
		"frequency":    "Every 8 hours",
		"startDate":    "2024-01-01",
		"endDate":      "2024-01-10",
	}
}

func TestCreatePrescription_Success(t *testing.T) {
	r, _ := newClinicRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Ibuprofen")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", patientID), rxBody(medID), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "success" {
		t.Fatalf("envelope: %v", body)
	}
	data := body["data"].(map[string]any)
	if data["dosage"] != "500mg" || data["frequency"] != "Every 8 hours" {
		t.Fatalf("unexpected data: %v", data)
	}
	if data["startDate"] != "2024-01-01" || data["endDate"] != "2024-01-10" {
		t.Fatalf("dates: %v", data)
	}
	// Scalar FKs stay hidden; the resolved objects are rendered instead.
	if _, leaked := data["patientId"]; leaked {
		t.Fatalf("patientId must not serialize: %v", data)
	}
	patient := data["patient"].(map[string]any)
	if int(patient["id"].(float64)) != patientID {
		t.Fatalf("patient ref: %v", patient)
	}
	medication := data["medication"].(map[string]any)
	if medication["name"] != "Ibuprofen" {
		t.Fatalf("medication ref: %v", medication)
	}
}

func TestCreatePrescription_OptionalEndDate(t *testing.T) {
	r, _ := newClinicRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")

	body := rxBody(medID)
	delete(body, "endDate")
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", patientID), body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	if data["endDate"] != nil {
		t.Fatalf("expected null endDate, got %v", data["endDate"])
	}
}

func TestCreatePrescription_ValidationErrors(t *testing.T) {
	r, _ := newClinicRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")
	base := fmt.Sprintf("/patients/%d/prescriptions", patientID)

	for _, tc := range []struct {
		name    string
		mutate  func(m map[string]any)
		message string
	}{
		{"missing medicationId", func(m map[string]any) { delete(m, "medicationId") }, "Invalid data or missing required fields"},
		{"empty dosage", func(m map[string]any) { m["dosage"] = "" }, "Invalid data or missing required fields"},
		{"missing startDate", func(m map[string]any) { delete(m, "startDate") }, "Invalid data or missing required fields"},
		{"bad startDate", func(m map[string]any) { m["startDate"] = "01-01-2024" }, "Invalid data or missing required fields"},
		{"bad endDate", func(m map[string]any) { m["endDate"] = "soon" }, "Invalid data or missing required fields"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body := rxBody(medID)
			tc.mutate(body)
			w := doJSON(t, r, http.MethodPost, base, body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body %s", w.Code, w.Body.String())
			}
			det := errorDetail(t, decodeBody(t, w))
			if det["message"] != tc.message {
				t.Fatalf("detail: %v", det)
			}
		})
	}

	// Non-numeric patient segment.
	w := doJSON(t, r, http.MethodPost, "/patients/abc/prescriptions", rxBody(medID), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	det := errorDetail(t, decodeBody(t, w))
	if det["message"] != "Validation failed (numeric string is expected)" {
		t.Fatalf("detail: %v", det)
	}
}

func TestCreatePrescription_MissingRefs(t *testing.T) {
	r, _ := newClinicRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")

	w := doJSON(t, r, http.MethodPost, "/patients/9999/prescriptions", rxBody(medID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	det := errorDetail(t, decodeBody(t, w))
	if det["message"] != "Patient not found" {
		t.Fatalf("detail: %v", det)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", patientID), rxBody(9999), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	det = errorDetail(t, decodeBody(t, w))
	if det["message"] != "Medication not found" {
		t.Fatalf("detail: %v", det)
	}
}

func TestDeletePrescription_SuccessAndNotFound(t *testing.T) {
	r, _ := newClinicRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", patientID), rxBody(medID), nil)
	rxID := int(decodeBody(t, w)["data"].(map[string]any)["id"].(float64))

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/patients/%d/prescriptions/%d", patientID, rxID), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "success" || body["data"] != nil {
		t.Fatalf("envelope: %v", body)
	}

	// Removal is idempotent in effect but signals 404 on a missing id, with no
	// resource detail in the message.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/patients/%d/prescriptions/%d", patientID, rxID), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	det := errorDetail(t, decodeBody(t, w))
	if det["message"] != "Not Found" || det["error"] != "Not Found" {
		t.Fatalf("detail: %v", det)
	}

	// Both path ids are validated as numeric.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/patients/%d/prescriptions/zzz", patientID), nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

// ---------- idempotency ----------

// newIdempotentRouter wires the prescription route behind the validating
// middleware so the handler sees the stashed key, mirroring production wiring.
func newIdempotentRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newClinicDB(t)
	h := New(
		services.NewPatientService(db, testPatientRepo{}),
		services.NewMedicationService(db, testMedicationRepo{}),
		services.NewPrescriptionService(db, testRxRepo{}),
	)

	lookup := func(ctx context.Context, patientID int, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, patientID, key, now)
		return rec != nil && err == nil, nil
	}

	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.POST("/patients", h.CreatePatient)
	r.POST("/medications", h.CreateMedication)
	r.POST("/patients/:id/prescriptions", h.CreatePrescription)
	return r, db
}

func TestCreatePrescription_IdempotentReplay(t *testing.T) {
	r, db := newIdempotentRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Ibuprofen")
	path := fmt.Sprintf("/patients/%d/prescriptions", patientID)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "retry-abc-123"}

	// First request stores the result.
	w := doJSON(t, r, http.MethodPost, path, rxBody(medID), hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatal("first request must not be a replay")
	}
	firstID := int(decodeBody(t, w)["data"].(map[string]any)["id"].(float64))

	// Retry with the same key replays the stored prescription.
	w = doJSON(t, r, http.MethodPost, path, rxBody(medID), hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay status = %d body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("expected Idempotency-Replayed header")
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	if int(data["id"].(float64)) != firstID {
		t.Fatalf("replay returned a different prescription: %v", data)
	}
	if data["medication"].(map[string]any)["name"] != "Ibuprofen" {
		t.Fatalf("replay must include refs: %v", data)
	}

	var cnt int64
	if err := db.Model(&domain.Prescription{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected a single prescription, got %d", cnt)
	}

	// A different key creates a second prescription.
	w = doJSON(t, r, http.MethodPost, path, rxBody(medID), map[string]string{
		middleware.HeaderIdempotencyKey: "retry-def-456",
	})
	if w.Code != http.StatusCreated || w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("status = %d replayed = %q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	db.Model(&domain.Prescription{}).Count(&cnt)
	if cnt != 2 {
		t.Fatalf("expected 2 prescriptions, got %d", cnt)
	}
}

func TestCreatePrescription_IdempotencyKeyScopedToPatient(t *testing.T) {
	r, db := newIdempotentRouter(t)
	p1 := seedPatient(t, r)
	p2 := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "shared-key"}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", p1), rxBody(medID), hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	// Same key for another patient is a fresh create, not a replay.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", p2), rxBody(medID), hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatal("keys must be scoped per patient")
	}

	var cnt int64
	db.Model(&domain.Prescription{}).Count(&cnt)
	if cnt != 2 {
		t.Fatalf("expected 2 prescriptions, got %d", cnt)
	}
}

func TestCreatePrescription_InvalidIdempotencyKey(t *testing.T) {
	r, _ := newIdempotentRouter(t)
	patientID := seedPatient(t, r)
	medID := seedMedication(t, r, "Aspirin")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/patients/%d/prescriptions", patientID), rxBody(medID), map[string]string{
		middleware.HeaderIdempotencyKey: "bad key with spaces",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	det := errorDetail(t, decodeBody(t, w))
	if det["message"] != "invalid Idempotency-Key" {
		t.Fatalf("detail: %v", det)
	}
}
