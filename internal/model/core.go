// Package model holds the node's in-memory resource graph: the six IS-04
// resource kinds, their builders, and the per-kind collections with
// referential-integrity checks on insert.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// taiOffset is the TAI-UTC offset applied to version stamps. IS-04 version
// stamps count TAI seconds; the offset has been 37s since 2017 and this node
// does not track leap-second announcements.
const taiOffset = 37 * time.Second

// VersionStamp is a monotonically-advancing resource version in TAI
// seconds:nanoseconds form.
type VersionStamp struct {
	Seconds int64
	Nanos   int64
}

// StampNow returns a version stamp for the current instant.
func StampNow() VersionStamp {
	now := time.Now().Add(taiOffset)
	return VersionStamp{
		Seconds: now.Unix(),
		Nanos:   int64(now.Nanosecond()),
	}
}

// String formats the stamp as "<seconds>:<nanoseconds>".
func (v VersionStamp) String() string {
	return fmt.Sprintf("%d:%d", v.Seconds, v.Nanos)
}

// Core carries the attributes shared by every resource kind.
type Core struct {
	ID          uuid.UUID
	Version     VersionStamp
	Label       string
	Description string
	Tags        map[string][]string
}

// BumpVersion advances the version stamp. Callers replace a resource under
// its existing ID to express an update; the graph never bumps versions
// itself.
func (c *Core) BumpVersion() {
	c.Version = StampNow()
}

// TagsOrEmpty returns the tag map, never nil, for wire payloads that require
// a tags object.
func (c *Core) TagsOrEmpty() map[string][]string {
	if c.Tags == nil {
		return map[string][]string{}
	}
	return c.Tags
}

// coreBuilder accumulates the shared attributes during resource construction.
type coreBuilder struct {
	core Core
}

func newCoreBuilder(label string) coreBuilder {
	return coreBuilder{
		core: Core{
			ID:      uuid.New(),
			Version: StampNow(),
			Label:   label,
			Tags:    map[string][]string{},
		},
	}
}

func (b *coreBuilder) description(d string) {
	b.core.Description = d
}

func (b *coreBuilder) tag(key string, values ...string) {
	b.core.Tags[key] = append(b.core.Tags[key], values...)
}

func (b *coreBuilder) build() Core {
	return b.core
}
