// Package idgen provides document identifier generators.
package idgen

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure UUID implements the interface.
var _ driven.IDGenerator = UUID{}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new UUID string.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Fixed returns the same id every time. Useful for exercising duplicate-id
// handling.
type Fixed string

// NewID returns the fixed id.
func (f Fixed) NewID() string {
	return string(f)
}
