package dto

import (
	"net/http"

	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
)

// Transport error codes, format ERR_<DESCRIPTION>. Domain errors keep their
// own codes on the wire.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
)

// Shared domain codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:        http.StatusNotFound,

	// invalid argument -> 400
	CodeInvalidInput:          http.StatusBadRequest,
	CodeInvalidPayload:        http.StatusBadRequest,
	mdm.CodeUnknownEntityType: http.StatusBadRequest,

	// not found -> 404
	CodeNotFound:                       http.StatusNotFound,
	mdm.CodeIssuerNotFound:             http.StatusNotFound,
	invoicing.CodeBusinessUnitNotFound: http.StatusNotFound,
	invoicing.CodeTicketNotFound:       http.StatusNotFound,
	invoicing.CodeMappingNotFound:      http.StatusNotFound,

	// conflicts -> 409
	CodeAlreadyExists:                http.StatusConflict,
	CodeConcurrencyConflict:          http.StatusConflict,
	invoicing.CodeBusinessUnitExists: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether code maps to 404
func IsNotFound(code string) bool {
	return GetHTTPStatus(code) == http.StatusNotFound
}
