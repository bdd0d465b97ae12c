// Medication HTTP handlers.
//
// This file exposes REST endpoints for medication resources:
//   - POST   /medications        (create)
//   - GET    /medications        (list, paginated, ETag support)
//   - GET    /medications/{id}   (fetch one)
//   - PATCH  /medications/{id}   (partial update)
//   - DELETE /medications/{id}   (delete; referencing prescriptions are not checked)
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-clinic-backend/internal/repo"
	"github.com/tbourn/go-clinic-backend/internal/services"
)

//
// DTOs
//

// CreateMedicationRequest is the JSON payload for registering a medication.
type CreateMedicationRequest struct {
	// Name is the medication name.
	Name string `json:"name" binding:"required,min=1" example:"Ibuprofen"`
	// Description optionally describes the medication.
	Description *string `json:"description" binding:"omitempty" example:"Nonsteroidal anti-inflammatory drug"`
}

// NullableString distinguishes an explicit JSON null from an absent key,
// which a plain *string cannot: both decode to nil. Set reports whether the
// key appeared in the payload at all.
type NullableString struct {
	Value *string
	Set   bool
}

// UnmarshalJSON records presence and treats a literal null as a nil value.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// UpdateMedicationRequest is the JSON payload for partially updating a
// medication. Absent fields leave the stored values unchanged; sending
// "description": null clears the stored description.
type UpdateMedicationRequest struct {
	Name        *string        `json:"name"        binding:"omitempty,min=1" example:"Ibuprofen"`
	Description NullableString `json:"description" swaggertype:"string"      example:"Nonsteroidal anti-inflammatory drug"`
}

//
// Handlers
//

// CreateMedication godoc
// @ID          createMedication
// @Summary     Create medication
// @Description Registers a new medication with a name and optional description.
// @Tags        Medications
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateMedicationRequest  true  "Create medication payload"
//
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Medication}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid data or missing required fields"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications [post]
func (h *Handlers) CreateMedication(c *gin.Context) {
	var req CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMessage(c, http.StatusBadRequest, "Invalid data or missing required fields")
		return
	}

	m, err := h.medSvc.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ListMedications godoc
// @ID          listMedications
// @Summary     List medications
// @Description Retrieves medications with pagination, ordered by name. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Medications
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
// @Router      /medications [get]
func (h *Handlers) ListMedications(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit := pageQuery(c)

	// ETag pre-check (best effort). The medications list is flat, so row
	// count plus the updated_at high-water mark identify it exactly.
	var db *gorm.DB
	if svc, isConcrete := h.medSvc.(*services.MedicationService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.MedicationsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"medications:%d:%d:%d:%d"`, count, ts, page, limit)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	res, err := h.medSvc.ListPage(ctx, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetMedication godoc
// @ID          getMedication
// @Summary     Get medication by ID
// @Description Returns a specific medication by numeric ID.
// @Tags        Medications
// @Produce     json
//
// @Param       id  path  int  true  "Medication ID"  example(1)
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Medication}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ID"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [get]
func (h *Handlers) GetMedication(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	m, err := h.medSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMedication godoc
// @ID          updateMedication
// @Summary     Update medication
// @Description Partially updates an existing medication. Only sent fields are modified.
// @Tags        Medications
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Medication ID"  example(1)
// @Param       body  body  handlers.UpdateMedicationRequest  true  "Fields to update"
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Medication}
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid data"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [patch]
func (h *Handlers) UpdateMedication(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	var req UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMessage(c, http.StatusBadRequest, "Invalid data")
		return
	}

	m, err := h.medSvc.Update(c.Request.Context(), id, services.UpdateMedicationInput{
		Name:           req.Name,
		Description:    req.Description.Value,
		DescriptionSet: req.Description.Set,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMedication godoc
// @ID          deleteMedication
// @Summary     Delete medication
// @Description Removes a medication. Prescriptions referencing it are left in place.
// @Tags        Medications
// @Produce     json
//
// @Param       id  path  int  true  "Medication ID"  example(1)
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ID"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /medications/{id} [delete]
func (h *Handlers) DeleteMedication(c *gin.Context) {
	id, okID := intParam(c, "id")
	if !okID {
		return
	}

	if err := h.medSvc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}
