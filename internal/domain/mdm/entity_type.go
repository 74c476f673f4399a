package mdm

import (
	"fmt"
	"strings"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
)

// EntityType identifies the kind of master record carried by a raw record
type EntityType string

const (
	EntityTypeIssuer   EntityType = "ISSUER"
	EntityTypeReceiver EntityType = "RECEIVER"
	EntityTypeProduct  EntityType = "PRODUCT"
)

// AllEntityTypes lists the supported entity types
func AllEntityTypes() []EntityType {
	return []EntityType{EntityTypeIssuer, EntityTypeReceiver, EntityTypeProduct}
}

// IsValid reports whether t is one of the supported entity types
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeIssuer, EntityTypeReceiver, EntityTypeProduct:
		return true
	}
	return false
}

// String returns the wire form of the entity type
func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType accepts any casing and surrounding whitespace
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError(CodeUnknownEntityType, fmt.Sprintf("Unknown entity type: %s", s))
	}
	return t, nil
}
