package router

import (
	"net/http"

	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/dto"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/handler"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Health        *handler.HealthHandler
	MDM           *handler.MDMHandler
	BusinessUnits *handler.BusinessUnitHandler
	Invoices      *handler.InvoiceHandler
}

// EngineConfig tunes the middleware chain
type EngineConfig struct {
	Tracing       middleware.TracingConfig
	CORS          middleware.CORSConfig
	MaxBodySize   int64
	MaxUploadSize int64
}

// NewEngine builds the gin engine with the shared middleware chain and every route
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.TenantContext(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, g := range domainGroups(cfg, h) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

func domainGroups(cfg EngineConfig, h Handlers) []*DomainGroup {
	bodyLimit := middleware.BodyLimit(cfg.MaxBodySize)
	var groups []*DomainGroup

	if h.MDM != nil {
		mdmGroup := NewDomainGroup("mdm", "/mdm").Use(bodyLimit)
		mdmGroup.POST("/issuer/:tenantId", h.MDM.SubmitIssuer)
		mdmGroup.POST("/receiver/:tenantId", h.MDM.SubmitReceiver)
		mdmGroup.POST("/product/:tenantId", h.MDM.SubmitProduct)
		mdmGroup.POST("/ingest", h.MDM.Ingest)
		mdmGroup.POST("/generate-cfdi/:tenantId", h.MDM.GenerateCfdi)
		mdmGroup.GET("/issuers/:tenantId", h.MDM.ListIssuers)
		mdmGroup.GET("/receivers/:tenantId", h.MDM.ListReceivers)
		mdmGroup.GET("/products/:tenantId", h.MDM.ListProducts)

		// multipart bodies are bounded by the upload limit instead
		uploadGroup := NewDomainGroup("upload", "/mdm/upload").Use(middleware.BodyLimit(cfg.MaxUploadSize + multipartOverhead))
		uploadGroup.POST("/:entityType/:tenantId", h.MDM.Upload)

		groups = append(groups, mdmGroup, uploadGroup)
	}

	if h.BusinessUnits != nil {
		bu := NewDomainGroup("business-units", "/business-units").Use(bodyLimit)
		bu.GET("", h.BusinessUnits.List)
		bu.POST("", h.BusinessUnits.Create)
		bu.GET("/:id", h.BusinessUnits.Get)
		bu.PUT("/:id", h.BusinessUnits.Update)
		bu.DELETE("/:id", h.BusinessUnits.Delete)
		bu.GET("/:id/mappings", h.BusinessUnits.GetMappings)
		bu.POST("/:id/mappings", h.BusinessUnits.AddMapping)
		bu.DELETE("/:id/mappings/:mappingId", h.BusinessUnits.RemoveMapping)

		tickets := NewDomainGroup("tickets", "/tickets").Use(bodyLimit)
		tickets.PUT("/:businessUnitId/:token", h.BusinessUnits.PutTicket)

		groups = append(groups, bu, tickets)
	}

	if h.Invoices != nil {
		inv := NewDomainGroup("invoices", "/invoices").Use(bodyLimit)
		inv.POST("/process", h.Invoices.Process)
		inv.POST("/queue", h.Invoices.Queue)
		groups = append(groups, inv)
	}

	return groups
}

// multipartOverhead leaves room for form boundaries and part headers
const multipartOverhead = 64 << 10
