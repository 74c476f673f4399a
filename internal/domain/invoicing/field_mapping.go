package invoicing

import (
	"strings"
	"time"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
)

// Standard concept attributes a source field can be mapped onto
const (
	StandardProductCode = "claveProdServ"
	StandardDescription = "descripcion"
	StandardQuantity    = "cantidad"
	StandardUnit        = "unidad"
	StandardUnitPrice   = "valorUnitario"
	StandardAmount      = "importe"
)

// standardSynonyms accepts English names for the standard attributes
var standardSynonyms = map[string]string{
	"productCode": StandardProductCode,
	"description": StandardDescription,
	"quantity":    StandardQuantity,
	"unit":        StandardUnit,
	"unitPrice":   StandardUnitPrice,
	"amount":      StandardAmount,
}

// CanonicalStandardField resolves a standard field name or one of its English synonyms.
// It reports false for names that are not standard concept attributes.
func CanonicalStandardField(name string) (string, bool) {
	switch name {
	case StandardProductCode, StandardDescription, StandardQuantity, StandardUnit, StandardUnitPrice, StandardAmount:
		return name, true
	}
	if canonical, ok := standardSynonyms[name]; ok {
		return canonical, true
	}
	return "", false
}

// FieldMapping maps one source field of a business unit's ticket schema onto a standard field
type FieldMapping struct {
	ID                uuid.UUID
	BusinessUnitID    uuid.UUID
	SourceFieldName   string
	StandardFieldName string
	CreatedAt         time.Time
}

// NewFieldMapping validates and creates a mapping. Unknown standard names are
// accepted and later ignored by the transformer.
func NewFieldMapping(businessUnitID uuid.UUID, source, standard string) (*FieldMapping, error) {
	source = strings.TrimSpace(source)
	standard = strings.TrimSpace(standard)
	if source == "" || standard == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and standard field names are required")
	}
	return &FieldMapping{
		ID:                uuid.New(),
		BusinessUnitID:    businessUnitID,
		SourceFieldName:   source,
		StandardFieldName: standard,
		CreatedAt:         time.Now(),
	}, nil
}

// MappingPair is one resolved source to standard entry
type MappingPair struct {
	Source   string
	Standard string
}

// MappingSet is an ordered source to standard lookup. A repeated source keeps
// its first position but takes the last standard name.
type MappingSet struct {
	pairs []MappingPair
	index map[string]int
}

// NewMappingSet builds a set from mappings in their stored order
func NewMappingSet(mappings []FieldMapping) *MappingSet {
	s := &MappingSet{index: make(map[string]int, len(mappings))}
	for _, m := range mappings {
		s.Put(m.SourceFieldName, m.StandardFieldName)
	}
	return s
}

// MappingSetFromMap builds a set from a plain map, ordered by source name
func MappingSetFromMap(m map[string]string) *MappingSet {
	s := &MappingSet{index: make(map[string]int, len(m))}
	for _, source := range sortedKeys(m) {
		s.Put(source, m[source])
	}
	return s
}

// Put adds or replaces the standard field for source
func (s *MappingSet) Put(source, standard string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[source]; ok {
		s.pairs[i].Standard = standard
		return
	}
	s.index[source] = len(s.pairs)
	s.pairs = append(s.pairs, MappingPair{Source: source, Standard: standard})
}

// Pairs returns the entries in order
func (s *MappingSet) Pairs() []MappingPair {
	if s == nil {
		return nil
	}
	return s.pairs
}

// Len returns the number of distinct source fields
func (s *MappingSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// ToMap returns the lookup as a plain map
func (s *MappingSet) ToMap() map[string]string {
	out := make(map[string]string, s.Len())
	for _, p := range s.Pairs() {
		out[p.Source] = p.Standard
	}
	return out
}
