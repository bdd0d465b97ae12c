// Prescription HTTP handlers.
//
// This file exposes REST endpoints for prescriptions, which live nested under
// their owning patient:
//   - POST   /patients/{patientId}/prescriptions                    (create)
//   - DELETE /patients/{patientId}/prescriptions/{prescriptionId}   (delete)
//
// There is no list or update endpoint: prescriptions are only visible nested
// under patient responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (patient, key), the handler returns the recorded
// prescription and sets `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/http/middleware"
	"github.com/tbourn/go-clinic-backend/internal/repo"
	"github.com/tbourn/go-clinic-backend/internal/services"
)

//
// DTOs
//

// CreatePrescriptionRequest is the JSON payload for creating a prescription.
type CreatePrescriptionRequest struct {
	// MedicationID references an existing medication.
	MedicationID int `json:"medicationId" binding:"required,gt=0" example:"1"`
	// Dosage is the prescribed dose, e.g. "500mg".
	Dosage string `json:"dosage" binding:"required,min=1" example:"500mg"`
	// Frequency is the intake schedule, e.g. "Every 8 hours".
	Frequency string `json:"frequency" binding:"required,min=1" example:"Every 8 hours"`
	// StartDate is the first day of the treatment (ISO-8601 date).
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02" example:"2024-01-01"`
	// EndDate optionally sets the last day of the treatment.
	EndDate *string `json:"endDate" binding:"omitempty,datetime=2006-01-02" example:"2024-01-10"`
}

//
// Handlers
//

// CreatePrescription godoc
// @ID          createPrescription
// @Summary     Create prescription
// @Description Creates a new medical prescription for a patient, associating a medication with dosage, frequency and treatment period.
// @Description Supports idempotency via the Idempotency-Key header (same key for the same patient → same result).
// @Tags        Prescriptions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"
// @Param       patientId        path    int     true   "ID of the patient to assign the prescription to"  example(1)
// @Param       body             body    handlers.CreatePrescriptionRequest  true  "Prescription data (medication, dosage, frequency, dates)"
//
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Prescription}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid data"
// @Failure     404  {object}  handlers.ErrorResponse  "Patient or medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients/{patientId}/prescriptions [post]
func (h *Handlers) CreatePrescription(c *gin.Context) {
	ctx := c.Request.Context()

	patientID, okID := intParam(c, "id")
	if !okID {
		return
	}

	var req CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMessage(c, http.StatusBadRequest, "Invalid data or missing required fields")
		return
	}

	startDate, err := domain.ParseDate(req.StartDate)
	if err != nil {
		failMessage(c, http.StatusBadRequest, "startDate must be an ISO-8601 date")
		return
	}
	var endDate *domain.Date
	if req.EndDate != nil {
		d, err := domain.ParseDate(*req.EndDate)
		if err != nil {
			failMessage(c, http.StatusBadRequest, "endDate must be an ISO-8601 date")
			return
		}
		endDate = &d
	}

	db := h.rxDB()

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, patientID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetPrescriptionWithRefs(ctx, db, rec.PrescriptionID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	p, err := h.rxSvc.Create(ctx, patientID, services.CreatePrescriptionInput{
		MedicationID: req.MedicationID,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && db != nil {
		ttl := 24 * time.Hour
		_, _ = repo.CreateIdempotency(ctx, db, patientID, idemKey, p.ID, http.StatusCreated, ttl)
	}

	ok(c, http.StatusCreated, p)
}

// DeletePrescription godoc
// @ID          deletePrescription
// @Summary     Delete prescription
// @Description Removes a medical prescription from the system. The patient id is validated as numeric but the lookup is by prescription id alone.
// @Tags        Prescriptions
// @Produce     json
//
// @Param       patientId       path  int  true  "Patient ID (used in the route)"  example(1)
// @Param       prescriptionId  path  int  true  "ID of the prescription to delete"  example(1)
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ID"
// @Failure     404  {object}  handlers.ErrorResponse  "Prescription not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients/{patientId}/prescriptions/{prescriptionId} [delete]
func (h *Handlers) DeletePrescription(c *gin.Context) {
	if _, okID := intParam(c, "id"); !okID {
		return
	}
	prescriptionID, okID := intParam(c, "prescriptionId")
	if !okID {
		return
	}

	if err := h.rxSvc.Delete(c.Request.Context(), prescriptionID); err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// rxDB exposes the DB handle of the concrete prescription service for the
// idempotency side channel. Returns nil when handlers are wired with a stub.
func (h *Handlers) rxDB() *gorm.DB {
	if svc, isConcrete := h.rxSvc.(*services.PrescriptionService); isConcrete {
		return svc.DB
	}
	return nil
}
