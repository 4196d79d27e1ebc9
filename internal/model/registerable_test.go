package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

func TestRegistryPaths(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	device := NewDeviceBuilder("dev", node, DeviceGeneric).Build()
	source := NewSourceBuilder("src", device, FormatAudio).Build()
	flow := NewFlowBuilder("flow", source, device).Build()
	sender := NewSenderBuilder("snd", device, flow, TransportRTP).Build()
	receiver := NewReceiverBuilder("rcv", device, FormatAudio, TransportRTP).Build()

	assert.Equal(t, "nodes/"+node.Core.ID.String(), node.RegistryPath())
	assert.Equal(t, "devices/"+device.Core.ID.String(), device.RegistryPath())
	assert.Equal(t, "sources/"+source.Core.ID.String(), source.RegistryPath())
	assert.Equal(t, "flows/"+flow.Core.ID.String(), flow.RegistryPath())
	assert.Equal(t, "senders/"+sender.Core.ID.String(), sender.RegistryPath())
	assert.Equal(t, "receivers/"+receiver.Core.ID.String(), receiver.RegistryPath())
}

func TestRegistrationRequest_EnvelopeTags(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	device := NewDeviceBuilder("dev", node, DevicePipeline).Build()

	req := RegistrationRequest(node, apiver.V1_3)
	assert.Equal(t, wire.TypeNode, req.Type)
	require.IsType(t, wire.NodeV1_3{}, req.Data)

	req = RegistrationRequest(device, apiver.V1_0)
	assert.Equal(t, wire.TypeDevice, req.Type)
	require.IsType(t, wire.DeviceV1_0{}, req.Data)
}

func TestToWire_UnsupportedVersionPanics(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	assert.Panics(t, func() {
		node.ToWire(apiver.Version{Major: 1, Minor: 2})
	})
}

func TestToWire_FlowPlaceholders(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	device := NewDeviceBuilder("dev", node, DeviceGeneric).Build()

	videoSource := NewSourceBuilder("vsrc", device, FormatVideo).Build()
	videoFlow := NewFlowBuilder("vflow", videoSource, device).Build()
	payload := videoFlow.ToWire(apiver.V1_3)
	video, ok := payload.(wire.FlowVideoV1_3)
	require.True(t, ok)
	assert.Equal(t, wire.PlaceholderFrameWidth, video.FrameWidth)
	assert.Equal(t, wire.PlaceholderFrameHeight, video.FrameHeight)
	assert.Equal(t, wire.PlaceholderVideoMediaType, video.MediaType)

	audioSource := NewSourceBuilder("asrc", device, FormatAudio).Build()
	audioFlow := NewFlowBuilder("aflow", audioSource, device).
		SampleRate(Rational{Numerator: 48000}).
		Build()
	audio, ok := audioFlow.ToWire(apiver.V1_3).(wire.FlowAudioV1_3)
	require.True(t, ok)
	assert.Equal(t, int64(48000), audio.SampleRate.Numerator)

	// Data flows serialize with the generic shape rather than panicking.
	dataSource := NewSourceBuilder("dsrc", device, FormatData).Build()
	dataFlow := NewFlowBuilder("dflow", dataSource, device).Build()
	data, ok := dataFlow.ToWire(apiver.V1_3).(wire.FlowDataV1_3)
	require.True(t, ok)
	assert.Equal(t, wire.PlaceholderDataMediaType, data.MediaType)
}

func TestToWire_AudioSourceChannels(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	device := NewDeviceBuilder("dev", node, DeviceGeneric).Build()

	audio := NewSourceBuilder("asrc", device, FormatAudio).Build()
	payload, ok := audio.ToWire(apiver.V1_3).(wire.SourceV1_3)
	require.True(t, ok)
	assert.Len(t, payload.Channels, 2)

	video := NewSourceBuilder("vsrc", device, FormatVideo).Build()
	payload, ok = video.ToWire(apiver.V1_3).(wire.SourceV1_3)
	require.True(t, ok)
	assert.Empty(t, payload.Channels)
}

func TestToWire_ReceiverSubscription(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	device := NewDeviceBuilder("dev", node, DeviceGeneric).Build()
	source := NewSourceBuilder("src", device, FormatVideo).Build()
	flow := NewFlowBuilder("flow", source, device).Build()
	sender := NewSenderBuilder("snd", device, flow, TransportRTPMulticast).Build()

	bound := NewReceiverBuilder("rcv", device, FormatVideo, TransportRTPMulticast).
		SubscribeTo(sender.Core.ID).
		Build()
	payload, ok := bound.ToWire(apiver.V1_3).(wire.ReceiverV1_3)
	require.True(t, ok)
	assert.True(t, payload.Subscription.Active)
	require.NotNil(t, payload.Subscription.SenderID)
	assert.Equal(t, sender.Core.ID.String(), *payload.Subscription.SenderID)

	unbound := NewReceiverBuilder("rcv2", device, FormatVideo, TransportRTP).Build()
	payload, ok = unbound.ToWire(apiver.V1_3).(wire.ReceiverV1_3)
	require.True(t, ok)
	assert.False(t, payload.Subscription.Active)
	assert.Nil(t, payload.Subscription.SenderID)
}

func TestNodeBuilder_InvalidHref(t *testing.T) {
	t.Parallel()

	_, err := NewNodeBuilder("node", "not a url").Build()
	require.Error(t, err)

	_, err = NewNodeBuilder("node", "/relative/only").Build()
	require.Error(t, err)
}

func TestVersionStampAdvances(t *testing.T) {
	t.Parallel()

	node := buildTestNode(t)
	before := node.Core.Version
	node.Core.BumpVersion()
	after := node.Core.Version

	assert.GreaterOrEqual(t, after.Seconds, before.Seconds)
	assert.NotEqual(t, before.String(), "")
}
