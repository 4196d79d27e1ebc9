package wire

// Shapes for API v1.0. The v1.0 schema has no description on nodes and
// devices and carries flat subscription objects.

// NodeService is a service advertised in a node's services list.
type NodeService struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// NodeV1_0 is the v1.0 node payload.
type NodeV1_0 struct {
	ID       string              `json:"id"`
	Version  string              `json:"version"`
	Label    string              `json:"label"`
	Href     string              `json:"href"`
	Hostname *string             `json:"hostname,omitempty"`
	Caps     map[string]any      `json:"caps"`
	Services []NodeService       `json:"services"`
}

// DeviceV1_0 is the v1.0 device payload.
type DeviceV1_0 struct {
	ID        string   `json:"id"`
	Version   string   `json:"version"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	NodeID    string   `json:"node_id"`
	Senders   []string `json:"senders"`
	Receivers []string `json:"receivers"`
}

// SourceV1_0 is the v1.0 source payload.
type SourceV1_0 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Format      string              `json:"format"`
	Caps        map[string]any      `json:"caps"`
	Tags        map[string][]string `json:"tags"`
	DeviceID    string              `json:"device_id"`
	Parents     []string            `json:"parents"`
}

// FlowV1_0 is the v1.0 flow payload.
type FlowV1_0 struct {
	ID          string              `json:"id"`
	Version     string              `json:"version"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Format      string              `json:"format"`
	Tags        map[string][]string `json:"tags"`
	SourceID    string              `json:"source_id"`
	Parents     []string            `json:"parents"`
}

// SenderV1_0 is the v1.0 sender payload.
type SenderV1_0 struct {
	ID           string              `json:"id"`
	Version      string              `json:"version"`
	Label        string              `json:"label"`
	Description  string              `json:"description"`
	FlowID       string              `json:"flow_id"`
	Transport    string              `json:"transport"`
	Tags         map[string][]string `json:"tags,omitempty"`
	DeviceID     string              `json:"device_id"`
	ManifestHref string              `json:"manifest_href"`
}

// SubscriptionV1_0 is the flat v1.0 receiver subscription.
type SubscriptionV1_0 struct {
	SenderID *string `json:"sender_id"`
}

// ReceiverV1_0 is the v1.0 receiver payload.
type ReceiverV1_0 struct {
	ID           string              `json:"id"`
	Version      string              `json:"version"`
	Label        string              `json:"label"`
	Description  string              `json:"description"`
	Format       string              `json:"format"`
	Caps         map[string]any      `json:"caps"`
	Tags         map[string][]string `json:"tags"`
	DeviceID     string              `json:"device_id"`
	Transport    string              `json:"transport"`
	Subscription SubscriptionV1_0    `json:"subscription"`
}
