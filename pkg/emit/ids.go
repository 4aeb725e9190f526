package emit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/viscosimeter/pkg/kicad/sexp"
)

// IDGenerator hands out opaque record identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random (version 4) UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// maxIDAttempts bounds retries when a generator repeats itself.
const maxIDAttempts = 16

// idPool guarantees that no identifier is used twice within one document.
type idPool struct {
	gen  IDGenerator
	seen map[string]struct{}
}

func newIDPool(gen IDGenerator) *idPool {
	return &idPool{gen: gen, seen: make(map[string]struct{})}
}

func (p *idPool) next() (sexp.UUID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := p.gen.NewID()
		if id == "" {
			continue
		}
		if _, used := p.seen[id]; used {
			continue
		}
		p.seen[id] = struct{}{}
		return sexp.UUID(id), nil
	}
	return "", fmt.Errorf("emit: identifier generator produced no fresh id after %d attempts", maxIDAttempts)
}
