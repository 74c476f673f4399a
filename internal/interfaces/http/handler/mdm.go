package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	appmdm "github.com/flechaamarilla/mdm/internal/application/mdm"
	"github.com/flechaamarilla/mdm/internal/application/upload"
	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/dto"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// MDMHandler exposes record submission, synchronous ingest, uploads, CFDI
// generation and golden record listings.
type MDMHandler struct {
	BaseHandler
	producer  *appmdm.ProducerService
	ingest    *appmdm.IngestService
	cfdi      *appmdm.CfdiService
	query     *appmdm.QueryService
	uploads   *upload.Service
	maxUpload int64
}

// NewMDMHandler creates a new MDMHandler
func NewMDMHandler(
	producer *appmdm.ProducerService,
	ingest *appmdm.IngestService,
	cfdi *appmdm.CfdiService,
	query *appmdm.QueryService,
	uploads *upload.Service,
	maxUpload int64,
) *MDMHandler {
	return &MDMHandler{
		producer:  producer,
		ingest:    ingest,
		cfdi:      cfdi,
		query:     query,
		uploads:   uploads,
		maxUpload: maxUpload,
	}
}

// SubmitResponse carries the batch a submitted record was published under
type SubmitResponse struct {
	BatchID string `json:"batchId"`
}

// IngestRequest is a raw record processed synchronously
type IngestRequest struct {
	EntityType string         `json:"entityType" binding:"required,entity_type"`
	TenantID   string         `json:"tenantId" binding:"required,max=64"`
	Source     string         `json:"source"`
	BatchID    string         `json:"batchId"`
	Data       map[string]any `json:"data" binding:"required"`
}

// GenerateCfdiRequest is the body of the CFDI generation endpoint
type GenerateCfdiRequest struct {
	CustomerRFC string `json:"customerRfc" binding:"required"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PostalCode  string `json:"postalCode"`
	TicketToken string `json:"ticketToken" binding:"required"`
	PaymentForm string `json:"paymentForm"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	TaxRegime   string `json:"taxRegime"`
	CfdiUsage   string `json:"cfdiUsage"`
}

func (r GenerateCfdiRequest) toDomain() invoicing.CfdiRequest {
	return invoicing.CfdiRequest{
		CustomerRFC: r.CustomerRFC,
		Name:        r.Name,
		Email:       r.Email,
		PostalCode:  r.PostalCode,
		TicketToken: r.TicketToken,
		PaymentForm: r.PaymentForm,
		Date:        r.Date,
		Time:        r.Time,
		TaxRegime:   r.TaxRegime,
		CfdiUsage:   r.CfdiUsage,
	}
}

// stringifyRecord flattens a decoded JSON object into string fields.
// Numbers keep their shortest decimal form, null becomes "" and nested
// values are re-encoded as JSON.
func stringifyRecord(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

func (h *MDMHandler) bindRecord(c *gin.Context) (map[string]string, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, err)
		return nil, false
	}
	if len(body) == 0 {
		h.BadRequest(c, "Record must contain at least one field")
		return nil, false
	}
	return stringifyRecord(body), true
}

type submitFunc func(ctx context.Context, tenantID string, data map[string]string) (string, error)

func (h *MDMHandler) submit(c *gin.Context, fn submitFunc) {
	data, ok := h.bindRecord(c)
	if !ok {
		return
	}
	batchID, err := fn(c.Request.Context(), c.Param(middleware.TenantParam), data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, SubmitResponse{BatchID: batchID})
}

// SubmitIssuer godoc
// @ID           submitIssuer
// @Summary      Submit an issuer record
// @Description  Publishes the record on the raw-data topic and returns its batch
// @Tags         mdm
// @Accept       json
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Param        request body object true "Issuer fields"
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /mdm/issuer/{tenantId} [post]
func (h *MDMHandler) SubmitIssuer(c *gin.Context) {
	h.submit(c, h.producer.SubmitIssuer)
}

// SubmitReceiver godoc
// @ID           submitReceiver
// @Summary      Submit a receiver record
// @Tags         mdm
// @Accept       json
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Success      202 {object} dto.Response
// @Router       /mdm/receiver/{tenantId} [post]
func (h *MDMHandler) SubmitReceiver(c *gin.Context) {
	h.submit(c, h.producer.SubmitReceiver)
}

// SubmitProduct godoc
// @ID           submitProduct
// @Summary      Submit a product record
// @Tags         mdm
// @Accept       json
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Success      202 {object} dto.Response
// @Router       /mdm/product/{tenantId} [post]
func (h *MDMHandler) SubmitProduct(c *gin.Context) {
	h.submit(c, h.producer.SubmitProduct)
}

// Upload godoc
// @ID           uploadRecords
// @Summary      Upload a CSV or XLSX file of records
// @Description  Every row is published under one batch; per-row publish failures are listed
// @Tags         mdm
// @Accept       multipart/form-data
// @Produce      json
// @Param        entityType path string true "ISSUER, RECEIVER or PRODUCT"
// @Param        tenantId path string true "Tenant"
// @Param        file formData file true "CSV or XLSX file"
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Router       /mdm/upload/{entityType}/{tenantId} [post]
func (h *MDMHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Uploaded file exceeds maximum allowed size")
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.uploads.Process(c.Request.Context(), c.Param("entityType"), c.Param(middleware.TenantParam), fh.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, result)
}

// Ingest godoc
// @ID           ingestRecord
// @Summary      Ingest a raw record synchronously
// @Description  Cleans, scores and upserts the record, returning the processed envelope
// @Tags         mdm
// @Accept       json
// @Produce      json
// @Param        request body IngestRequest true "Raw record"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /mdm/ingest [post]
func (h *MDMHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	entityType, err := mdm.ParseEntityType(req.EntityType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	source := req.Source
	if source == "" {
		source = mdm.SourceAPICall
	}

	raw := mdm.NewRawRecord(entityType, req.TenantID, source, req.BatchID, stringifyRecord(req.Data))
	processed, err := h.ingest.Ingest(c.Request.Context(), raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, processed)
}

// GenerateCfdi godoc
// @ID           generateCfdi
// @Summary      Generate a CFDI document
// @Description  Assembles a CFDI from the tenant's issuer, the (possibly new) receiver and the ticket's products
// @Tags         mdm
// @Accept       json
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Param        request body GenerateCfdiRequest true "Invoice request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /mdm/generate-cfdi/{tenantId} [post]
func (h *MDMHandler) GenerateCfdi(c *gin.Context) {
	var req GenerateCfdiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	doc, err := h.cfdi.GenerateCfdi(c.Request.Context(), c.Param(middleware.TenantParam), req.toDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ListIssuers godoc
// @ID           listIssuers
// @Summary      List issuers of a tenant
// @Tags         mdm
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(50)
// @Success      200 {object} dto.Response
// @Router       /mdm/issuers/{tenantId} [get]
func (h *MDMHandler) ListIssuers(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}
	page, err := h.query.ListIssuers(c.Request.Context(), c.Param(middleware.TenantParam), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// ListReceivers godoc
// @ID           listReceivers
// @Summary      List receivers of a tenant
// @Tags         mdm
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Success      200 {object} dto.Response
// @Router       /mdm/receivers/{tenantId} [get]
func (h *MDMHandler) ListReceivers(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}
	page, err := h.query.ListReceivers(c.Request.Context(), c.Param(middleware.TenantParam), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// ListProducts godoc
// @ID           listProducts
// @Summary      List products of a tenant
// @Tags         mdm
// @Produce      json
// @Param        tenantId path string true "Tenant"
// @Success      200 {object} dto.Response
// @Router       /mdm/products/{tenantId} [get]
func (h *MDMHandler) ListProducts(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}
	page, err := h.query.ListProducts(c.Request.Context(), c.Param(middleware.TenantParam), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}
