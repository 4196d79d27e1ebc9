package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/wire"
)

// Sentinel errors returned by graph operations.
var (
	// ErrRejectedReference marks an insert that references a resource not
	// present in the graph.
	ErrRejectedReference = errors.New("referenced resource not in graph")

	// ErrNotFound marks a remove of an identifier the graph does not hold.
	ErrNotFound = errors.New("resource not found")
)

// RefError reports which reference an insert was rejected for.
type RefError struct {
	// Kind is the kind of the resource being inserted.
	Kind wire.ResourceType

	// RefKind is the kind of the missing referenced resource.
	RefKind wire.ResourceType

	// RefID is the identifier of the missing referenced resource.
	RefID uuid.UUID
}

// Error describes the rejected reference.
func (e *RefError) Error() string {
	return fmt.Sprintf("insert %s: %s %s: %v", e.Kind, e.RefKind, e.RefID, ErrRejectedReference)
}

// Unwrap makes RefError match ErrRejectedReference under errors.Is.
func (*RefError) Unwrap() error {
	return ErrRejectedReference
}
