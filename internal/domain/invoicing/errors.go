package invoicing

import "github.com/flechaamarilla/mdm/internal/domain/shared"

// Error codes raised by the invoicing domain
const (
	CodeBusinessUnitNotFound = "BUSINESS_UNIT_NOT_FOUND"
	CodeBusinessUnitExists   = "BUSINESS_UNIT_EXISTS"
	CodeTicketNotFound       = "TICKET_NOT_FOUND"
	CodeMappingNotFound      = "MAPPING_NOT_FOUND"
)

var (
	ErrBusinessUnitNotFound = shared.NewDomainError(CodeBusinessUnitNotFound, "Business unit not found")
	ErrBusinessUnitExists   = shared.NewDomainError(CodeBusinessUnitExists, "A business unit with this name already exists")
	ErrTicketNotFound       = shared.NewDomainError(CodeTicketNotFound, "Ticket not found for business unit")
	ErrMappingNotFound      = shared.NewDomainError(CodeMappingNotFound, "Field mapping not found")
)
