package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Receiver is a device's inbound subscription point, optionally bound to a
// sender.
type Receiver struct {
	Core      Core
	Format    Format
	DeviceID  uuid.UUID
	Transport Transport

	// Subscription is the identifier of the sender this receiver is
	// subscribed to, if any.
	Subscription *uuid.UUID
}

// ReceiverBuilder assembles a Receiver. The owning device is required at
// construction time.
type ReceiverBuilder struct {
	core         coreBuilder
	format       Format
	deviceID     uuid.UUID
	transport    Transport
	subscription *uuid.UUID
}

// NewReceiverBuilder starts building a receiver on the given device.
func NewReceiverBuilder(label string, device *Device, format Format, transport Transport) *ReceiverBuilder {
	return &ReceiverBuilder{
		core:      newCoreBuilder(label),
		format:    format,
		deviceID:  device.Core.ID,
		transport: transport,
	}
}

// Description sets the free-text description.
func (b *ReceiverBuilder) Description(d string) *ReceiverBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *ReceiverBuilder) Tag(key string, values ...string) *ReceiverBuilder {
	b.core.tag(key, values...)
	return b
}

// SubscribeTo sets the active subscription to a sender.
func (b *ReceiverBuilder) SubscribeTo(senderID uuid.UUID) *ReceiverBuilder {
	b.subscription = &senderID
	return b
}

// Build returns the receiver.
func (b *ReceiverBuilder) Build() *Receiver {
	return &Receiver{
		Core:         b.core.build(),
		Format:       b.format,
		DeviceID:     b.deviceID,
		Transport:    b.transport,
		Subscription: b.subscription,
	}
}

// ResourceID returns the receiver's identifier.
func (r *Receiver) ResourceID() uuid.UUID { return r.Core.ID }

// Kind returns the receiver envelope tag.
func (*Receiver) Kind() wire.ResourceType { return wire.TypeReceiver }

// RegistryPath returns the receiver's registry path segment.
func (r *Receiver) RegistryPath() string {
	return fmt.Sprintf("receivers/%s", r.Core.ID)
}

// ToWire maps the receiver to the payload shape of the given API version.
func (r *Receiver) ToWire(v apiver.Version) wire.Payload {
	var senderID *string
	if r.Subscription != nil {
		s := r.Subscription.String()
		senderID = &s
	}

	switch v {
	case apiver.V1_0:
		return wire.ReceiverV1_0{
			ID:           r.Core.ID.String(),
			Version:      r.Core.Version.String(),
			Label:        r.Core.Label,
			Description:  r.Core.Description,
			Format:       string(r.Format),
			Caps:         map[string]any{},
			Tags:         r.Core.TagsOrEmpty(),
			DeviceID:     r.DeviceID.String(),
			Transport:    string(r.Transport),
			Subscription: wire.SubscriptionV1_0{SenderID: senderID},
		}
	case apiver.V1_3:
		return wire.ReceiverV1_3{
			ID:                r.Core.ID.String(),
			Version:           r.Core.Version.String(),
			Label:             r.Core.Label,
			Description:       r.Core.Description,
			Format:            string(r.Format),
			Tags:              r.Core.TagsOrEmpty(),
			DeviceID:          r.DeviceID.String(),
			Transport:         string(r.Transport),
			InterfaceBindings: []string{},
			Caps:              wire.ReceiverCaps{},
			Subscription: wire.ReceiverSubscription{
				Active:   senderID != nil,
				SenderID: senderID,
			},
		}
	default:
		panic(unsupportedVersion(v))
	}
}
