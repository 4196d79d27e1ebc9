package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Rational is a numerator/denominator rate descriptor. A zero denominator
// means "unset" and is serialized as an integer rate.
type Rational struct {
	Numerator   int64
	Denominator int64
}

func (r *Rational) toWire() *wire.Rational {
	if r == nil {
		return nil
	}
	out := &wire.Rational{Numerator: r.Numerator}
	if r.Denominator != 0 {
		den := r.Denominator
		out.Denominator = &den
	}
	return out
}

// Flow is a concrete, parameterized instance of a source's essence.
type Flow struct {
	Core       Core
	Format     Format
	SourceID   uuid.UUID
	DeviceID   uuid.UUID
	Parents    []uuid.UUID
	GrainRate  *Rational
	SampleRate *Rational
}

// FlowBuilder assembles a Flow. The owning source and device are required at
// construction time; the format is inherited from the source.
type FlowBuilder struct {
	core       coreBuilder
	format     Format
	sourceID   uuid.UUID
	deviceID   uuid.UUID
	parents    []uuid.UUID
	grainRate  *Rational
	sampleRate *Rational
}

// NewFlowBuilder starts building a flow carrying the given source's essence
// on the given device.
func NewFlowBuilder(label string, source *Source, device *Device) *FlowBuilder {
	return &FlowBuilder{
		core:     newCoreBuilder(label),
		format:   source.Format,
		sourceID: source.Core.ID,
		deviceID: device.Core.ID,
	}
}

// Description sets the free-text description.
func (b *FlowBuilder) Description(d string) *FlowBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *FlowBuilder) Tag(key string, values ...string) *FlowBuilder {
	b.core.tag(key, values...)
	return b
}

// Parent records a parent flow identifier.
func (b *FlowBuilder) Parent(id uuid.UUID) *FlowBuilder {
	b.parents = append(b.parents, id)
	return b
}

// GrainRate sets the flow's grain rate descriptor.
func (b *FlowBuilder) GrainRate(r Rational) *FlowBuilder {
	b.grainRate = &r
	return b
}

// SampleRate sets the flow's sample rate descriptor (audio flows).
func (b *FlowBuilder) SampleRate(r Rational) *FlowBuilder {
	b.sampleRate = &r
	return b
}

// Build returns the flow.
func (b *FlowBuilder) Build() *Flow {
	return &Flow{
		Core:       b.core.build(),
		Format:     b.format,
		SourceID:   b.sourceID,
		DeviceID:   b.deviceID,
		Parents:    b.parents,
		GrainRate:  b.grainRate,
		SampleRate: b.sampleRate,
	}
}

// ResourceID returns the flow's identifier.
func (f *Flow) ResourceID() uuid.UUID { return f.Core.ID }

// Kind returns the flow envelope tag.
func (*Flow) Kind() wire.ResourceType { return wire.TypeFlow }

// RegistryPath returns the flow's registry path segment.
func (f *Flow) RegistryPath() string {
	return fmt.Sprintf("flows/%s", f.Core.ID)
}

// ToWire maps the flow to the payload shape of the given API version.
// Fields the model does not track are filled from wire's placeholder
// defaults.
func (f *Flow) ToWire(v apiver.Version) wire.Payload {
	parents := uuidStrings(f.Parents)

	switch v {
	case apiver.V1_0:
		return wire.FlowV1_0{
			ID:          f.Core.ID.String(),
			Version:     f.Core.Version.String(),
			Label:       f.Core.Label,
			Description: f.Core.Description,
			Format:      string(f.Format),
			Tags:        f.Core.TagsOrEmpty(),
			SourceID:    f.SourceID.String(),
			Parents:     parents,
		}
	case apiver.V1_3:
		switch f.Format {
		case FormatVideo:
			return wire.FlowVideoV1_3{
				ID:          f.Core.ID.String(),
				Version:     f.Core.Version.String(),
				Label:       f.Core.Label,
				Description: f.Core.Description,
				Format:      string(f.Format),
				Tags:        f.Core.TagsOrEmpty(),
				SourceID:    f.SourceID.String(),
				DeviceID:    f.DeviceID.String(),
				Parents:     parents,
				GrainRate:   f.GrainRate.toWire(),
				MediaType:   wire.PlaceholderVideoMediaType,
				FrameWidth:  wire.PlaceholderFrameWidth,
				FrameHeight: wire.PlaceholderFrameHeight,
				Colorspace:  wire.PlaceholderColorspace,
			}
		case FormatAudio:
			sampleRate := f.SampleRate.toWire()
			if sampleRate == nil {
				sampleRate = &wire.Rational{Numerator: wire.PlaceholderAudioSampleRate}
			}
			return wire.FlowAudioV1_3{
				ID:          f.Core.ID.String(),
				Version:     f.Core.Version.String(),
				Label:       f.Core.Label,
				Description: f.Core.Description,
				Format:      string(f.Format),
				Tags:        f.Core.TagsOrEmpty(),
				SourceID:    f.SourceID.String(),
				DeviceID:    f.DeviceID.String(),
				Parents:     parents,
				GrainRate:   f.GrainRate.toWire(),
				SampleRate:  *sampleRate,
				MediaType:   wire.PlaceholderAudioMediaType,
			}
		default:
			return wire.FlowDataV1_3{
				ID:          f.Core.ID.String(),
				Version:     f.Core.Version.String(),
				Label:       f.Core.Label,
				Description: f.Core.Description,
				Format:      string(f.Format),
				Tags:        f.Core.TagsOrEmpty(),
				SourceID:    f.SourceID.String(),
				DeviceID:    f.DeviceID.String(),
				Parents:     parents,
				MediaType:   wire.PlaceholderDataMediaType,
			}
		}
	default:
		panic(unsupportedVersion(v))
	}
}
