package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
)

// TicketPayload is a decoded ticket document of arbitrary shape
type TicketPayload map[string]any

// DecodeTicketPayload decodes JSON keeping numbers as json.Number
func DecodeTicketPayload(raw []byte) (TicketPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload TicketPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, shared.WrapDomainError("INVALID_PAYLOAD", "Ticket payload must be a JSON object", err)
	}
	return payload, nil
}

// Ticket is a point-of-sale document referenced by an opaque token
type Ticket struct {
	shared.BaseEntity
	BusinessUnitID uuid.UUID
	Token          string
	Payload        json.RawMessage
}

// NewTicket validates and creates a ticket
func NewTicket(businessUnitID uuid.UUID, token string, payload json.RawMessage) (*Ticket, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Ticket token is required")
	}
	if _, err := DecodeTicketPayload(payload); err != nil {
		return nil, err
	}
	return &Ticket{
		BaseEntity:     shared.NewBaseEntity(),
		BusinessUnitID: businessUnitID,
		Token:          token,
		Payload:        payload,
	}, nil
}

// Replace swaps the payload of an existing ticket
func (t *Ticket) Replace(payload json.RawMessage) error {
	if _, err := DecodeTicketPayload(payload); err != nil {
		return err
	}
	t.Payload = payload
	t.UpdatedAt = time.Now()
	return nil
}

// TicketProvider resolves ticket payloads. It returns ErrTicketNotFound when
// the token is unknown for the business unit.
type TicketProvider interface {
	GetTicketPayload(ctx context.Context, token string, businessUnitID uuid.UUID) (TicketPayload, error)
}
