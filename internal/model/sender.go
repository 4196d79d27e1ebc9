package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Sender is a device's outbound transmission of a flow.
type Sender struct {
	Core         Core
	FlowID       uuid.UUID
	DeviceID     uuid.UUID
	Transport    Transport
	ManifestHref string
}

// SenderBuilder assembles a Sender. The owning device and carried flow are
// required at construction time.
type SenderBuilder struct {
	core         coreBuilder
	flowID       uuid.UUID
	deviceID     uuid.UUID
	transport    Transport
	manifestHref string
}

// NewSenderBuilder starts building a sender on the given device carrying the
// given flow.
func NewSenderBuilder(label string, device *Device, flow *Flow, transport Transport) *SenderBuilder {
	return &SenderBuilder{
		core:      newCoreBuilder(label),
		flowID:    flow.Core.ID,
		deviceID:  device.Core.ID,
		transport: transport,
	}
}

// Description sets the free-text description.
func (b *SenderBuilder) Description(d string) *SenderBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *SenderBuilder) Tag(key string, values ...string) *SenderBuilder {
	b.core.tag(key, values...)
	return b
}

// Manifest sets the transport manifest locator.
func (b *SenderBuilder) Manifest(href string) *SenderBuilder {
	b.manifestHref = href
	return b
}

// Build returns the sender.
func (b *SenderBuilder) Build() *Sender {
	return &Sender{
		Core:         b.core.build(),
		FlowID:       b.flowID,
		DeviceID:     b.deviceID,
		Transport:    b.transport,
		ManifestHref: b.manifestHref,
	}
}

// ResourceID returns the sender's identifier.
func (s *Sender) ResourceID() uuid.UUID { return s.Core.ID }

// Kind returns the sender envelope tag.
func (*Sender) Kind() wire.ResourceType { return wire.TypeSender }

// RegistryPath returns the sender's registry path segment.
func (s *Sender) RegistryPath() string {
	return fmt.Sprintf("senders/%s", s.Core.ID)
}

// ToWire maps the sender to the payload shape of the given API version.
func (s *Sender) ToWire(v apiver.Version) wire.Payload {
	switch v {
	case apiver.V1_0:
		var tags map[string][]string
		if len(s.Core.Tags) > 0 {
			tags = s.Core.Tags
		}
		return wire.SenderV1_0{
			ID:           s.Core.ID.String(),
			Version:      s.Core.Version.String(),
			Label:        s.Core.Label,
			Description:  s.Core.Description,
			FlowID:       s.FlowID.String(),
			Transport:    string(s.Transport),
			Tags:         tags,
			DeviceID:     s.DeviceID.String(),
			ManifestHref: s.ManifestHref,
		}
	case apiver.V1_3:
		flowID := s.FlowID.String()
		var manifest *string
		if s.ManifestHref != "" {
			manifest = &s.ManifestHref
		}
		return wire.SenderV1_3{
			ID:                s.Core.ID.String(),
			Version:           s.Core.Version.String(),
			Label:             s.Core.Label,
			Description:       s.Core.Description,
			Tags:              s.Core.TagsOrEmpty(),
			FlowID:            &flowID,
			Transport:         string(s.Transport),
			DeviceID:          s.DeviceID.String(),
			ManifestHref:      manifest,
			InterfaceBindings: []string{},
			Subscription:      wire.SenderSubscription{},
		}
	default:
		panic(unsupportedVersion(v))
	}
}
