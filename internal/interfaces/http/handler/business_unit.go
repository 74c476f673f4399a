package handler

import (
	"encoding/json"
	"net/http"

	appinvoicing "github.com/flechaamarilla/mdm/internal/application/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// BusinessUnitHandler administers business units, their field mappings and tickets
type BusinessUnitHandler struct {
	BaseHandler
	service *appinvoicing.BusinessUnitService
}

// NewBusinessUnitHandler creates a new BusinessUnitHandler
func NewBusinessUnitHandler(service *appinvoicing.BusinessUnitService) *BusinessUnitHandler {
	return &BusinessUnitHandler{service: service}
}

// List godoc
// @ID           listBusinessUnits
// @Summary      List business units
// @Tags         business-units
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /business-units [get]
func (h *BusinessUnitHandler) List(c *gin.Context) {
	units, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, units)
}

// Get godoc
// @ID           getBusinessUnit
// @Summary      Get a business unit
// @Tags         business-units
// @Produce      json
// @Param        id path string true "Business unit ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /business-units/{id} [get]
func (h *BusinessUnitHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	unit, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Create godoc
// @ID           createBusinessUnit
// @Summary      Create a business unit
// @Description  Names are unique. Optional mappings are created with the unit.
// @Tags         business-units
// @Accept       json
// @Produce      json
// @Param        request body appinvoicing.BusinessUnitRequest true "Business unit"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /business-units [post]
func (h *BusinessUnitHandler) Create(c *gin.Context) {
	var req appinvoicing.BusinessUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	unit, err := h.service.CreateWithMappings(c.Request.Context(), req, req.Mappings)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, unit)
}

// Update godoc
// @ID           updateBusinessUnit
// @Summary      Update a business unit
// @Tags         business-units
// @Accept       json
// @Produce      json
// @Param        id path string true "Business unit ID" format(uuid)
// @Param        request body appinvoicing.BusinessUnitRequest true "Business unit"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /business-units/{id} [put]
func (h *BusinessUnitHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.BusinessUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	unit, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Delete godoc
// @ID           deleteBusinessUnit
// @Summary      Delete a business unit and its mappings
// @Tags         business-units
// @Param        id path string true "Business unit ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Router       /business-units/{id} [delete]
func (h *BusinessUnitHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetMappings godoc
// @ID           getBusinessUnitMappings
// @Summary      Get the source to standard field lookup of a unit
// @Tags         business-units
// @Produce      json
// @Param        id path string true "Business unit ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /business-units/{id}/mappings [get]
func (h *BusinessUnitHandler) GetMappings(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	mappings, err := h.service.GetFieldMappings(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mappings)
}

// AddMapping godoc
// @ID           addBusinessUnitMapping
// @Summary      Add a field mapping
// @Tags         business-units
// @Accept       json
// @Produce      json
// @Param        id path string true "Business unit ID" format(uuid)
// @Param        request body appinvoicing.FieldMappingRequest true "Mapping"
// @Success      201 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /business-units/{id}/mappings [post]
func (h *BusinessUnitHandler) AddMapping(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.FieldMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	mapping, err := h.service.AddFieldMapping(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, mapping)
}

// RemoveMapping godoc
// @ID           removeBusinessUnitMapping
// @Summary      Remove a field mapping
// @Tags         business-units
// @Param        id path string true "Business unit ID" format(uuid)
// @Param        mappingId path string true "Mapping ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Router       /business-units/{id}/mappings/{mappingId} [delete]
func (h *BusinessUnitHandler) RemoveMapping(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	mappingID, ok := h.parseUUIDParam(c, "mappingId")
	if !ok {
		return
	}
	if err := h.service.RemoveFieldMapping(c.Request.Context(), id, mappingID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PutTicket godoc
// @ID           putTicket
// @Summary      Store or replace a ticket payload
// @Description  The body is the raw ticket JSON document as produced by the point of sale
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        businessUnitId path string true "Business unit ID" format(uuid)
// @Param        token path string true "Ticket token"
// @Success      200 {object} dto.Response
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /tickets/{businessUnitId}/{token} [put]
func (h *BusinessUnitHandler) PutTicket(c *gin.Context) {
	buID, ok := h.parseUUIDParam(c, "businessUnitId")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !json.Valid(body) {
		h.Error(c, http.StatusBadRequest, shared.ErrInvalidPayload.Code, "Ticket payload must be a JSON document")
		return
	}

	ticket, err := h.service.PutTicket(c.Request.Context(), buID, c.Param("token"), json.RawMessage(body))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if ticket.Created {
		h.Created(c, ticket)
		return
	}
	h.Success(c, ticket)
}
