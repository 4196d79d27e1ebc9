package model

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/wire"
)

// Service is an additional service a node advertises in its own payload.
type Service struct {
	Href string
	Type string
}

// Node is the local host being advertised and registered. It is the root of
// the resource graph; every device references exactly one node.
type Node struct {
	Core     Core
	Href     *url.URL
	Hostname string
	Services []Service
}

// NodeBuilder assembles a Node.
type NodeBuilder struct {
	core     coreBuilder
	href     string
	hostname string
	services []Service
}

// NewNodeBuilder starts building a node with the given label and the URL the
// node's query API is reachable at.
func NewNodeBuilder(label, href string) *NodeBuilder {
	return &NodeBuilder{
		core: newCoreBuilder(label),
		href: href,
	}
}

// Description sets the free-text description.
func (b *NodeBuilder) Description(d string) *NodeBuilder {
	b.core.description(d)
	return b
}

// Tag appends values under a tag key.
func (b *NodeBuilder) Tag(key string, values ...string) *NodeBuilder {
	b.core.tag(key, values...)
	return b
}

// Hostname sets the optional hostname.
func (b *NodeBuilder) Hostname(h string) *NodeBuilder {
	b.hostname = h
	return b
}

// Service appends an advertised service.
func (b *NodeBuilder) Service(s Service) *NodeBuilder {
	b.services = append(b.services, s)
	return b
}

// Build validates the href and returns the node.
func (b *NodeBuilder) Build() (*Node, error) {
	href, err := url.Parse(b.href)
	if err != nil {
		return nil, fmt.Errorf("invalid node href %q: %w", b.href, err)
	}
	if href.Scheme == "" || href.Host == "" {
		return nil, fmt.Errorf("node href %q must be an absolute URL", b.href)
	}

	return &Node{
		Core:     b.core.build(),
		Href:     href,
		Hostname: b.hostname,
		Services: b.services,
	}, nil
}

// ResourceID returns the node's identifier.
func (n *Node) ResourceID() uuid.UUID { return n.Core.ID }

// Kind returns the node envelope tag.
func (*Node) Kind() wire.ResourceType { return wire.TypeNode }

// RegistryPath returns the node's registry path segment.
func (n *Node) RegistryPath() string {
	return fmt.Sprintf("nodes/%s", n.Core.ID)
}

// ToWire maps the node to the payload shape of the given API version.
func (n *Node) ToWire(v apiver.Version) wire.Payload {
	var hostname *string
	if n.Hostname != "" {
		hostname = &n.Hostname
	}

	switch v {
	case apiver.V1_0:
		services := make([]wire.NodeService, 0, len(n.Services))
		for _, s := range n.Services {
			services = append(services, wire.NodeService{Href: s.Href, Type: s.Type})
		}
		return wire.NodeV1_0{
			ID:       n.Core.ID.String(),
			Version:  n.Core.Version.String(),
			Label:    n.Core.Label,
			Href:     n.Href.String(),
			Hostname: hostname,
			Caps:     map[string]any{},
			Services: services,
		}
	case apiver.V1_3:
		services := make([]wire.NodeServiceV1_3, 0, len(n.Services))
		for _, s := range n.Services {
			services = append(services, wire.NodeServiceV1_3{Href: s.Href, Type: s.Type})
		}

		port := 80
		if p := n.Href.Port(); p != "" {
			fmt.Sscanf(p, "%d", &port)
		}
		noAuth := false

		return wire.NodeV1_3{
			ID:          n.Core.ID.String(),
			Version:     n.Core.Version.String(),
			Label:       n.Core.Label,
			Description: n.Core.Description,
			Tags:        n.Core.TagsOrEmpty(),
			Href:        n.Href.String(),
			Hostname:    hostname,
			Caps:        map[string]any{},
			API: wire.NodeAPI{
				Versions: []string{v.String()},
				Endpoints: []wire.NodeAPIEndpoint{{
					Host:          n.Href.Hostname(),
					Port:          port,
					Protocol:      n.Href.Scheme,
					Authorization: &noAuth,
				}},
			},
			Clocks: []wire.NodeClock{{
				Name:    wire.PlaceholderClockName,
				RefType: wire.PlaceholderClockRefType,
			}},
			Interfaces: []any{},
			Services:   services,
		}
	default:
		panic(unsupportedVersion(v))
	}
}

func unsupportedVersion(v apiver.Version) string {
	return fmt.Sprintf("model: unsupported API version %s", v)
}
