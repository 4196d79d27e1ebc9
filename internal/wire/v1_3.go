package wire

// Shapes for API v1.3.

// NodeClock is an entry in a v1.3 node's clocks list.
type NodeClock struct {
	Name    string `json:"name"`
	RefType string `json:"ref_type"`
}

// NodeAPIEndpoint describes one endpoint the node's query API listens on.
type NodeAPIEndpoint struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Protocol      string `json:"protocol"`
	Authorization *bool  `json:"authorization,omitempty"`
}

// NodeAPI describes the node's query API in the v1.3 node payload.
type NodeAPI struct {
	Versions  []string          `json:"versions"`
	Endpoints []NodeAPIEndpoint `json:"endpoints"`
}

// NodeServiceV1_3 extends NodeService with the v1.3 authorization flag.
type NodeServiceV1_3 struct {
	Href          string `json:"href"`
	Type          string `json:"type"`
	Authorization *bool  `json:"authorization,omitempty"`
}

// NodeV1_3 is the v1.3 node payload.
type NodeV1_3 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	Href        string              `json:"href"`
	Hostname    *string             `json:"hostname,omitempty"`
	Caps        map[string]any      `json:"caps"`
	API         NodeAPI             `json:"api"`
	Clocks      []NodeClock         `json:"clocks"`
	Interfaces  []any               `json:"interfaces"`
	Services    []NodeServiceV1_3   `json:"services"`
}

// DeviceV1_3 is the v1.3 device payload.
type DeviceV1_3 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Tags        map[string][]string `json:"tags"`
	Type        string              `json:"type"`
	NodeID      string              `json:"node_id"`
	Senders     []string            `json:"senders"`
	Receivers   []string            `json:"receivers"`
	Controls    []any               `json:"controls"`
}

// Rational is a numerator/denominator pair used for grain and sample rates.
type Rational struct {
	Numerator   int64  `json:"numerator"`
	Denominator *int64 `json:"denominator,omitempty"`
}

// AudioChannel is one channel in a v1.3 audio source.
type AudioChannel struct {
	Label  string  `json:"label"`
	Symbol *string `json:"symbol,omitempty"`
}

// SourceV1_3 is the v1.3 source payload. Channels is populated only for
// audio sources.
type SourceV1_3 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Format      string              `json:"format"`
	Caps        map[string]any      `json:"caps"`
	Tags        map[string][]string `json:"tags"`
	DeviceID    string              `json:"device_id"`
	Parents     []string            `json:"parents"`
	ClockName   *string             `json:"clock_name"`
	GrainRate   *Rational           `json:"grain_rate,omitempty"`
	Channels    []AudioChannel      `json:"channels,omitempty"`
}

// FlowVideoV1_3 is the v1.3 coded-video flow payload.
type FlowVideoV1_3 struct {
	ID                     string              `json:"id"`
	Version                string              `json:"version"`
	Label                  string              `json:"label"`
	Description            string              `json:"description"`
	Format                 string              `json:"format"`
	Tags                   map[string][]string `json:"tags"`
	SourceID               string              `json:"source_id"`
	DeviceID               string              `json:"device_id"`
	Parents                []string            `json:"parents"`
	GrainRate              *Rational           `json:"grain_rate,omitempty"`
	MediaType              string              `json:"media_type"`
	FrameWidth             int64               `json:"frame_width"`
	FrameHeight            int64               `json:"frame_height"`
	Colorspace             string              `json:"colorspace"`
	InterlaceMode          *string             `json:"interlace_mode,omitempty"`
	TransferCharacteristic *string             `json:"transfer_characteristic,omitempty"`
}

// FlowAudioV1_3 is the v1.3 coded-audio flow payload.
type FlowAudioV1_3 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Format      string              `json:"format"`
	Tags        map[string][]string `json:"tags"`
	SourceID    string              `json:"source_id"`
	DeviceID    string              `json:"device_id"`
	Parents     []string            `json:"parents"`
	GrainRate   *Rational           `json:"grain_rate,omitempty"`
	SampleRate  Rational            `json:"sample_rate"`
	MediaType   string              `json:"media_type"`
}

// FlowDataV1_3 is the v1.3 generic data flow payload.
type FlowDataV1_3 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Format      string              `json:"format"`
	Tags        map[string][]string `json:"tags"`
	SourceID    string              `json:"source_id"`
	DeviceID    string              `json:"device_id"`
	Parents     []string            `json:"parents"`
	MediaType   string              `json:"media_type"`
}

// SenderSubscription is a v1.3 sender subscription.
type SenderSubscription struct {
	Active     bool    `json:"active"`
	ReceiverID *string `json:"receiver_id"`
}

// SenderV1_3 is the v1.3 sender payload.
type SenderV1_3 struct {
	ID                string              `json:"id"`
	Version           string              `json:"version"`
	Label             string              `json:"label"`
	Description       string              `json:"description"`
	Tags              map[string][]string `json:"tags"`
	FlowID            *string             `json:"flow_id"`
	Transport         string              `json:"transport"`
	DeviceID          string              `json:"device_id"`
	ManifestHref      *string             `json:"manifest_href"`
	InterfaceBindings []string            `json:"interface_bindings"`
	Caps              map[string]any      `json:"caps,omitempty"`
	Subscription      SenderSubscription  `json:"subscription"`
}

// ReceiverSubscription is a v1.3 receiver subscription.
type ReceiverSubscription struct {
	Active   bool    `json:"active"`
	SenderID *string `json:"sender_id"`
}

// ReceiverCaps constrains what a receiver accepts.
type ReceiverCaps struct {
	MediaTypes []string `json:"media_types,omitempty"`
}

// ReceiverV1_3 is the v1.3 receiver payload.
type ReceiverV1_3 struct {
	ID                string               `json:"id"`
	Version           string               `json:"version"`
	Label             string               `json:"label"`
	Description       string               `json:"description"`
	Format            string               `json:"format"`
	Tags              map[string][]string  `json:"tags"`
	DeviceID          string               `json:"device_id"`
	Transport         string               `json:"transport"`
	InterfaceBindings []string             `json:"interface_bindings"`
	Caps              ReceiverCaps         `json:"caps"`
	Subscription      ReceiverSubscription `json:"subscription"`
}
