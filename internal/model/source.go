package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Source is the origin of an essence within a device.
type Source struct {
	Core     Core
	Format   Format
	DeviceID uuid.UUID
	Parents  []uuid.UUID
}

// SourceBuilder assembles a Source. The owning device is required at
// construction time.
type SourceBuilder struct {
	core     coreBuilder
	format   Format
	deviceID uuid.UUID
	parents  []uuid.UUID
}

// NewSourceBuilder starts building a source owned by the given device.
func NewSourceBuilder(label string, device *Device, format Format) *SourceBuilder {
	return &SourceBuilder{
		core:     newCoreBuilder(label),
		format:   format,
		deviceID: device.Core.ID,
	}
}

// Description sets the free-text description.
func (b *SourceBuilder) Description(d string) *SourceBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *SourceBuilder) Tag(key string, values ...string) *SourceBuilder {
	b.core.tag(key, values...)
	return b
}

// Parent records a parent source identifier.
func (b *SourceBuilder) Parent(id uuid.UUID) *SourceBuilder {
	b.parents = append(b.parents, id)
	return b
}

// Build returns the source.
func (b *SourceBuilder) Build() *Source {
	return &Source{
		Core:     b.core.build(),
		Format:   b.format,
		DeviceID: b.deviceID,
		Parents:  b.parents,
	}
}

// ResourceID returns the source's identifier.
func (s *Source) ResourceID() uuid.UUID { return s.Core.ID }

// Kind returns the source envelope tag.
func (*Source) Kind() wire.ResourceType { return wire.TypeSource }

// RegistryPath returns the source's registry path segment.
func (s *Source) RegistryPath() string {
	return fmt.Sprintf("sources/%s", s.Core.ID)
}

// ToWire maps the source to the payload shape of the given API version.
func (s *Source) ToWire(v apiver.Version) wire.Payload {
	parents := uuidStrings(s.Parents)

	switch v {
	case apiver.V1_0:
		return wire.SourceV1_0{
			ID:          s.Core.ID.String(),
			Version:     s.Core.Version.String(),
			Label:       s.Core.Label,
			Description: s.Core.Description,
			Format:      string(s.Format),
			Caps:        map[string]any{},
			Tags:        s.Core.TagsOrEmpty(),
			DeviceID:    s.DeviceID.String(),
			Parents:     parents,
		}
	case apiver.V1_3:
		payload := wire.SourceV1_3{
			ID:          s.Core.ID.String(),
			Version:     s.Core.Version.String(),
			Label:       s.Core.Label,
			Description: s.Core.Description,
			Format:      string(s.Format),
			Caps:        map[string]any{},
			Tags:        s.Core.TagsOrEmpty(),
			DeviceID:    s.DeviceID.String(),
			Parents:     parents,
		}
		if s.Format == FormatAudio {
			payload.Channels = wire.PlaceholderAudioChannels()
		}
		return payload
	default:
		panic(unsupportedVersion(v))
	}
}
