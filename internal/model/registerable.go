package model

import (
	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Registerable is the uniform contract every resource kind implements so the
// registration driver can handle all six kinds without branching.
//
// ToWire panics on an API version outside apiver.Supported(): the supported
// set is fixed at build time, so an unsupported version is a programming
// error, not an input error.
type Registerable interface {
	// ResourceID returns the resource's unique identifier.
	ResourceID() uuid.UUID

	// Kind returns the resource kind tag used in registration envelopes.
	Kind() wire.ResourceType

	// RegistryPath returns the registry path segment for this resource,
	// e.g. "nodes/<id>", used for DELETE operations.
	RegistryPath() string

	// ToWire maps the resource to the payload shape of the given API version.
	ToWire(v apiver.Version) wire.Payload
}

// RegistrationRequest wraps a resource's wire payload in the envelope the
// registration API expects.
func RegistrationRequest(r Registerable, v apiver.Version) wire.Envelope {
	return wire.Envelope{
		Type: r.Kind(),
		Data: r.ToWire(v),
	}
}

// EventKind classifies a resource change event.
type EventKind string

// Resource change event kinds.
const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event is a single resource change, consumed by the update propagator.
type Event struct {
	Kind     EventKind
	Resource Registerable
}
