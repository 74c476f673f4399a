package invoicing

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// FolioGenerator produces invoice folio numbers. Uniqueness is best effort.
type FolioGenerator interface {
	Next() string
}

// UUIDFolioGenerator derives "10" followed by up to four digits from the low half of a random UUID
type UUIDFolioGenerator struct{}

// Next returns a new folio
func (UUIDFolioGenerator) Next() string {
	id := uuid.New()
	low := binary.BigEndian.Uint64(id[8:])
	return fmt.Sprintf("10%d", low%10000)
}

// RandomFolioGenerator returns a five digit folio in [10000, 99999]
type RandomFolioGenerator struct{}

// Next returns a new folio
func (RandomFolioGenerator) Next() string {
	return fmt.Sprintf("%d", 10000+rand.IntN(90000))
}

// FixedFolioGenerator always returns the same folio
type FixedFolioGenerator string

// Next returns the fixed folio
func (f FixedFolioGenerator) Next() string {
	return string(f)
}
