package gen

import (
	"github.com/google/uuid"
)

type UUIDGenerator func() uuid.UUID

// UUID returns a generator of random (v4) identifiers. Record identifiers are
// opaque to callers, so no ordering or timestamp encoding is wanted.
func UUID() UUIDGenerator {
	return func() uuid.UUID {
		return uuid.New()
	}
}

func (g UUIDGenerator) Next() uuid.UUID {
	if g == nil {
		return uuid.Nil
	}

	return g()
}
