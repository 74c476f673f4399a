package invoicing

import (
	"sort"
	"strings"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
)

// BusinessUnit bundles the emitter identity, invoice defaults and the field
// mappings used to read its tickets. It owns its mappings.
type BusinessUnit struct {
	shared.BaseEntity
	Name            string
	Description     string
	RFCEmitter      string
	EmitterName     string
	DefaultCurrency string
	Series          string
	Mappings        []FieldMapping
}

// BusinessUnitAttributes carries the editable fields of a business unit
type BusinessUnitAttributes struct {
	Name            string
	Description     string
	RFCEmitter      string
	EmitterName     string
	DefaultCurrency string
	Series          string
}

func (a BusinessUnitAttributes) validate() error {
	required := []struct{ field, value string }{
		{"name", a.Name},
		{"rfcEmitter", a.RFCEmitter},
		{"emitterName", a.EmitterName},
		{"defaultCurrency", a.DefaultCurrency},
		{"series", a.Series},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return shared.NewDomainError("INVALID_INPUT", r.field+" is required")
		}
	}
	return nil
}

// NewBusinessUnit validates attributes and creates a business unit without mappings
func NewBusinessUnit(attrs BusinessUnitAttributes) (*BusinessUnit, error) {
	if err := attrs.validate(); err != nil {
		return nil, err
	}
	bu := &BusinessUnit{BaseEntity: shared.NewBaseEntity()}
	bu.assign(attrs)
	return bu, nil
}

// Update replaces the editable attributes
func (b *BusinessUnit) Update(attrs BusinessUnitAttributes) error {
	if err := attrs.validate(); err != nil {
		return err
	}
	b.assign(attrs)
	b.Touch()
	return nil
}

func (b *BusinessUnit) assign(attrs BusinessUnitAttributes) {
	b.Name = strings.TrimSpace(attrs.Name)
	b.Description = attrs.Description
	b.RFCEmitter = strings.ToUpper(strings.TrimSpace(attrs.RFCEmitter))
	b.EmitterName = strings.TrimSpace(attrs.EmitterName)
	b.DefaultCurrency = strings.ToUpper(strings.TrimSpace(attrs.DefaultCurrency))
	b.Series = strings.TrimSpace(attrs.Series)
}

// AddMapping appends a mapping owned by this unit
func (b *BusinessUnit) AddMapping(source, standard string) (*FieldMapping, error) {
	m, err := NewFieldMapping(b.ID, source, standard)
	if err != nil {
		return nil, err
	}
	b.Mappings = append(b.Mappings, *m)
	return m, nil
}

// AddMappings appends mappings from a plain map in source-name order
func (b *BusinessUnit) AddMappings(mappings map[string]string) error {
	for _, source := range sortedKeys(mappings) {
		if _, err := b.AddMapping(source, mappings[source]); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMapping drops the mapping with the given ID
func (b *BusinessUnit) RemoveMapping(id uuid.UUID) error {
	for i, m := range b.Mappings {
		if m.ID == id {
			b.Mappings = append(b.Mappings[:i], b.Mappings[i+1:]...)
			return nil
		}
	}
	return ErrMappingNotFound
}

// MappingSet returns the unit's lookup with last-wins semantics for repeated sources
func (b *BusinessUnit) MappingSet() *MappingSet {
	return NewMappingSet(b.Mappings)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
