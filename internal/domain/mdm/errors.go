package mdm

import "github.com/flechaamarilla/mdm/internal/domain/shared"

// Error codes raised by the mdm domain
const (
	CodeUnknownEntityType = "UNKNOWN_ENTITY_TYPE"
	CodeIssuerNotFound    = "ISSUER_NOT_FOUND"
)

var (
	// ErrUnknownEntityType is returned when a raw record names an unsupported entity type
	ErrUnknownEntityType = shared.NewDomainError(CodeUnknownEntityType, "Unknown entity type")

	// ErrIssuerNotFound is returned when a tenant has no issuer on file
	ErrIssuerNotFound = shared.NewDomainError(CodeIssuerNotFound, "No issuer found for tenant")
)
