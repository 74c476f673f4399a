package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appinvoicing "github.com/flechaamarilla/mdm/internal/application/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message attributes set on invoice-requests publications
const (
	AttrBusinessUnitID = "businessUnitId"
	AttrTicketToken    = "ticketToken"
)

// InvoiceHandler converts invoice requests synchronously or queues them
type InvoiceHandler struct {
	BaseHandler
	service   *appinvoicing.InvoiceService
	publisher shared.MessagePublisher
	topic     string
}

// NewInvoiceHandler creates a new InvoiceHandler. Queued requests are
// published to topic.
func NewInvoiceHandler(service *appinvoicing.InvoiceService, publisher shared.MessagePublisher, topic string) *InvoiceHandler {
	return &InvoiceHandler{service: service, publisher: publisher, topic: topic}
}

// QueuedResponse identifies a queued invoice request
type QueuedResponse struct {
	MessageID string `json:"messageId"`
}

func (h *InvoiceHandler) bindRequest(c *gin.Context) (invoicing.InvoiceRequest, bool) {
	var req invoicing.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return req, false
	}
	if req.BusinessUnitID == uuid.Nil || req.TicketToken == "" {
		h.BadRequest(c, "unidadNegocio and tokenTicket are required")
		return req, false
	}
	return req, true
}

// Process godoc
// @ID           processInvoiceRequest
// @Summary      Convert an invoice request into a standard invoice
// @Description  Resolves the business unit and ticket and maps ticket items through the unit's field mappings.
// @Description  An unknown business unit or ticket yields 400.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicing.InvoiceRequest true "Invoice request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /invoices/process [post]
func (h *InvoiceHandler) Process(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	invoice, err := h.service.ProcessInvoiceRequest(c.Request.Context(), req)
	if err != nil {
		// unresolvable business unit or ticket answers 400
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && dto.IsNotFound(domainErr.Code) {
			h.Error(c, http.StatusBadRequest, domainErr.Code, domainErr.Message)
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Queue godoc
// @ID           queueInvoiceRequest
// @Summary      Queue an invoice request
// @Description  Publishes the request on the invoice-requests topic; the result appears on invoice-data
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicing.InvoiceRequest true "Invoice request"
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /invoices/queue [post]
func (h *InvoiceHandler) Queue(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	id, err := h.publisher.Publish(c.Request.Context(), h.topic, data, map[string]string{
		AttrBusinessUnitID: req.BusinessUnitID.String(),
		AttrTicketToken:    req.TicketToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.L(c.Request.Context()).Info("invoice request queued",
		zap.String("message_id", id),
		zap.String("business_unit_id", req.BusinessUnitID.String()),
	)
	h.Accepted(c, QueuedResponse{MessageID: id})
}
