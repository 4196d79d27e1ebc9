// Package wire defines the versioned payload shapes the registration protocol
// puts on the wire. Each resource kind has one struct per supported API
// version; the mapping from internal resources to these shapes lives with the
// resources themselves and is a pure function.
package wire

// ResourceType is the kind tag carried in a registration envelope.
type ResourceType string

// Resource kind tags as they appear in registration requests.
const (
	TypeNode     ResourceType = "node"
	TypeDevice   ResourceType = "device"
	TypeSource   ResourceType = "source"
	TypeFlow     ResourceType = "flow"
	TypeSender   ResourceType = "sender"
	TypeReceiver ResourceType = "receiver"
)

// Payload is a version-tagged wire shape, one of the structs in this package.
type Payload any

// Envelope wraps a payload in the body the registration API expects for
// POST {base}/resource.
type Envelope struct {
	Type ResourceType `json:"type"`
	Data Payload      `json:"data"`
}
