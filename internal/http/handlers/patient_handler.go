// Patient HTTP handlers.
//
// This file exposes REST endpoints for patient resources:
//   - POST   /patients        (create)
//   - GET    /patients        (list, paginated, nested prescriptions)
//   - GET    /patients/{id}   (fetch one)
//   - PATCH  /patients/{id}   (partial update)
//   - DELETE /patients/{id}   (delete, cascades to prescriptions)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into the uniform response envelopes. Request bodies
// are strict: unknown fields are rejected at decode time.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-clinic-backend/internal/domain"
	"github.com/tbourn/go-clinic-backend/internal/repo"
	"github.com/tbourn/go-clinic-backend/internal/services"
	"github.com/tbourn/go-clinic-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// PatientService defines patient lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PatientService interface {
	// Create registers a new patient.
	Create(ctx context.Context, firstName, lastName string, birthDate domain.Date) (*domain.Patient, error)
	// ListPage returns a page of patients wrapped in the pagination envelope.
	ListPage(ctx context.Context, page, limit int) (utils.Page[domain.Patient], error)
	// Get fetches a patient by id with nested prescriptions.
	Get(ctx context.Context, id int) (*domain.Patient, error)
	// Update applies a partial update.
	Update(ctx context.Context, id int, in services.UpdatePatientInput) (*domain.Patient, error)
	// Delete removes a patient and its prescriptions.
	Delete(ctx context.Context, id int) error
}

// MedicationService defines medication lifecycle operations consumed by HTTP
// handlers.
type MedicationService interface {
	// Create registers a new medication.
	Create(ctx context.Context, name string, description *string) (*domain.Medication, error)
	// ListPage returns a page of medications wrapped in the pagination envelope.
	ListPage(ctx context.Context, page, limit int) (utils.Page[domain.Medication], error)
	// Get fetches a medication by id.
	Get(ctx context.Context, id int) (*domain.Medication, error)
	// Update merges the provided fields over the stored record.
	Update(ctx context.Context, id int, in services.UpdateMedicationInput) (*domain.Medication, error)
	// Delete removes a medication.
	Delete(ctx context.Context, id int) error
}

// PrescriptionService defines prescription operations consumed by HTTP
// handlers. Prescriptions have no list or update endpoints.
type PrescriptionService interface {
	// Create resolves both references and persists the prescription.
	Create(ctx context.Context, patientID int, in services.CreatePrescriptionInput) (*domain.Prescription, error)
	// Delete removes a prescription by id.
	Delete(ctx context.Context, id int) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for patients, medications, and
// prescriptions. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	patientSvc PatientService
	medSvc     MedicationService
	rxSvc      PrescriptionService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(patientSvc PatientService, medSvc MedicationService, rxSvc PrescriptionService) *Handlers {
	return &Handlers{patientSvc: patientSvc, medSvc: medSvc, rxSvc: rxSvc}
}

//
// DTOs
//

// CreatePatientRequest is the JSON payload for registering a patient.
type CreatePatientRequest struct {
	// FirstName is the patient's given name.
	FirstName string `json:"firstName" binding:"required,min=1" example:"Guido"`
	// LastName is the patient's family name.
	LastName string `json:"lastName" binding:"required,min=1" example:"Lastname"`
	// BirthDate is the date of birth as an ISO-8601 date string.
	BirthDate string `json:"birthDate" binding:"required,datetime=2006-01-02" example:"1999-01-01"`
}

// UpdatePatientRequest is the JSON payload for partially updating a patient.
// Absent fields leave the stored values unchanged.
type UpdatePatientRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1" example:"Guido"`
	LastName  *string `json:"lastName"  binding:"omitempty,min=1" example:"Lastname"`
	BirthDate *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02" example:"1999-01-01"`
}

//
// Helpers
//

// pageQuery parses and bounds the page and limit query params, applying the
// documented defaults (page 1, limit 10) and a hard cap so a single request
// cannot load the whole table.
func pageQuery(c *gin.Context) (page, limit int) {
	const (
		defaultPage  = 1
		defaultLimit = 10
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = defaultPage
	}
	limit = utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return
}

//
// Handlers
//

// CreatePatient godoc
// @ID          createPatient
// @Summary     Create patient
// @Description Registers a new patient with first name, last name and date of birth.
// @Tags        Patients
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreatePatientRequest  true  "Create patient payload"
//
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Patient}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid data or missing required fields"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients [post]
func (h *Handlers) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMessage(c, http.StatusBadRequest, "Invalid data or missing required fields")
		return
	}
	// The binding tag already guarantees the layout.
	birthDate, err := domain.ParseDate(req.BirthDate)
	if err != nil {
		failMessage(c, http.StatusBadRequest, "birthDate must be an ISO-8601 date")
		return
	}

	p, err := h.patientSvc.Create(c.Request.Context(), req.FirstName, req.LastName, birthDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPatients godoc
// @ID          listPatients
// @Summary     List patients
// @Description Retrieves patients with pagination, most recently created first, each with nested prescriptions. Defaults to page 1 with 10 records.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Patients
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false  "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object}  handlers.SuccessResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients [get]
func (h *Handlers) ListPatients(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit := pageQuery(c)

	// ETag pre-check (best effort). The patient list nests prescriptions and
	// medications, so the signal aggregates all three tables.
	if svc, isConcrete := h.patientSvc.(*services.PatientService); isConcrete && svc.DB != nil {
		if st, err := repo.PatientsStats(ctx, svc.DB); err == nil {
			var ts int64
			if st.MaxUpdatedAt != nil {
				ts = st.MaxUpdatedAt.Unix()
			}
			etag := fmt.Sprintf(`W/"patients:%d:%d:%d:%d:%d:%d"`,
				st.Patients, st.Prescriptions, st.Medications, ts, page, limit)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	res, err := h.patientSvc.ListPage(ctx, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetPatient godoc
// @ID          getPatient
// @Summary     Get patient by ID
// @Description Returns a specific patient by numeric ID, including nested prescriptions.
// @Tags        Patients
// @Produce     json
//
// @Param       id  path  int  true  "Patient ID"  example(1)
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Patient}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ID"
// @Failure     404  {object}  handlers.ErrorResponse  "Patient not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients/{id} [get]
func (h *Handlers) GetPatient(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	p, err := h.patientSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePatient godoc
// @ID          updatePatient
// @Summary     Update patient
// @Description Partially updates an existing patient. Only sent fields are modified.
// @Tags        Patients
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Patient ID"  example(1)
// @Param       body  body  handlers.UpdatePatientRequest  true  "Fields to update"
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Patient}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid data"
// @Failure     404  {object}  handlers.ErrorResponse  "Patient not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients/{id} [patch]
func (h *Handlers) UpdatePatient(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMessage(c, http.StatusBadRequest, "Invalid data")
		return
	}

	in := services.UpdatePatientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.BirthDate != nil {
		d, err := domain.ParseDate(*req.BirthDate)
		if err != nil {
			failMessage(c, http.StatusBadRequest, "birthDate must be an ISO-8601 date")
			return
		}
		in.BirthDate = &d
	}

	p, err := h.patientSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePatient godoc
// @ID          deletePatient
// @Summary     Delete patient
// @Description Removes a patient. Associated prescriptions are deleted in cascade.
// @Tags        Patients
// @Produce     json
//
// @Param       id  path  int  true  "Patient ID"  example(1)
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ID"
// @Failure     404  {object}  handlers.ErrorResponse  "Patient not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /patients/{id} [delete]
func (h *Handlers) DeletePatient(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	if err := h.patientSvc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}
