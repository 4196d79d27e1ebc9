package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Device is a logical processing unit owned by a node.
type Device struct {
	Core      Core
	Type      DeviceKind
	NodeID    uuid.UUID
	Senders   []uuid.UUID
	Receivers []uuid.UUID
}

// DeviceBuilder assembles a Device. The owning node is required at
// construction time; only its identifier is retained.
type DeviceBuilder struct {
	core   coreBuilder
	kind   DeviceKind
	nodeID uuid.UUID
}

// NewDeviceBuilder starts building a device owned by the given node.
func NewDeviceBuilder(label string, node *Node, kind DeviceKind) *DeviceBuilder {
	return &DeviceBuilder{
		core:   newCoreBuilder(label),
		kind:   kind,
		nodeID: node.Core.ID,
	}
}

// Description sets the free-text description.
func (b *DeviceBuilder) Description(d string) *DeviceBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *DeviceBuilder) Tag(key string, values ...string) *DeviceBuilder {
	b.core.tag(key, values...)
	return b
}

// Build returns the device.
func (b *DeviceBuilder) Build() *Device {
	return &Device{
		Core:   b.core.build(),
		Type:   b.kind,
		NodeID: b.nodeID,
	}
}

// ResourceID returns the device's identifier.
func (d *Device) ResourceID() uuid.UUID { return d.Core.ID }

// Kind returns the device envelope tag.
func (*Device) Kind() wire.ResourceType { return wire.TypeDevice }

// RegistryPath returns the device's registry path segment.
func (d *Device) RegistryPath() string {
	return fmt.Sprintf("devices/%s", d.Core.ID)
}

// ToWire maps the device to the payload shape of the given API version.
func (d *Device) ToWire(v apiver.Version) wire.Payload {
	senders := uuidStrings(d.Senders)
	receivers := uuidStrings(d.Receivers)

	switch v {
	case apiver.V1_0:
		return wire.DeviceV1_0{
			ID:        d.Core.ID.String(),
			Version:   d.Core.Version.String(),
			Label:     d.Core.Label,
			Type:      string(d.Type),
			NodeID:    d.NodeID.String(),
			Senders:   senders,
			Receivers: receivers,
		}
	case apiver.V1_3:
		return wire.DeviceV1_3{
			ID:          d.Core.ID.String(),
			Version:     d.Core.Version.String(),
			Label:       d.Core.Label,
			Description: d.Core.Description,
			Tags:        d.Core.TagsOrEmpty(),
			Type:        string(d.Type),
			NodeID:      d.NodeID.String(),
			Senders:     senders,
			Receivers:   receivers,
			Controls:    []any{},
		}
	default:
		panic(unsupportedVersion(v))
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
