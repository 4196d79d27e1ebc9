package model

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/wire"
)

// Graph is the node's resource graph: one independently-locked collection
// per resource kind, with cross-kind referential checks on insert.
//
// Locking is per kind only; there is no global transaction. Insert validates
// references by read-locking the dependency collections before write-locking
// the target collection. A referenced resource removed between the check and
// the insert is a benign race resolved in favor of the insert; the next bulk
// registration pass repairs any resulting inconsistency at the registry.
type Graph struct {
	nodesMu sync.RWMutex
	nodes   map[uuid.UUID]*Node

	devicesMu sync.RWMutex
	devices   map[uuid.UUID]*Device

	sourcesMu sync.RWMutex
	sources   map[uuid.UUID]*Source

	flowsMu sync.RWMutex
	flows   map[uuid.UUID]*Flow

	sendersMu sync.RWMutex
	senders   map[uuid.UUID]*Sender

	receiversMu sync.RWMutex
	receivers   map[uuid.UUID]*Receiver

	events chan<- Event
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithEvents makes the graph publish a change event for every successful
// insert and remove. Sends are non-blocking: if the channel is full the
// event is dropped with a warning, on the grounds that a full bulk
// re-registration will reconcile the registry anyway.
func WithEvents(ch chan<- Event) GraphOption {
	return func(g *Graph) {
		g.events = ch
	}
}

// NewGraph creates an empty resource graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes:     make(map[uuid.UUID]*Node),
		devices:   make(map[uuid.UUID]*Device),
		sources:   make(map[uuid.UUID]*Source),
		flows:     make(map[uuid.UUID]*Flow),
		senders:   make(map[uuid.UUID]*Sender),
		receivers: make(map[uuid.UUID]*Receiver),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// InsertNode adds or replaces a node. Nodes have no references to validate.
func (g *Graph) InsertNode(n *Node) error {
	g.nodesMu.Lock()
	_, existed := g.nodes[n.Core.ID]
	g.nodes[n.Core.ID] = n
	g.nodesMu.Unlock()

	g.publish(changeKind(existed), n)
	return nil
}

// InsertDevice adds or replaces a device after checking its owning node is
// present.
func (g *Graph) InsertDevice(d *Device) error {
	g.nodesMu.RLock()
	_, ok := g.nodes[d.NodeID]
	g.nodesMu.RUnlock()
	if !ok {
		return &RefError{Kind: wire.TypeDevice, RefKind: wire.TypeNode, RefID: d.NodeID}
	}

	g.devicesMu.Lock()
	_, existed := g.devices[d.Core.ID]
	g.devices[d.Core.ID] = d
	g.devicesMu.Unlock()

	g.publish(changeKind(existed), d)
	return nil
}

// InsertSource adds or replaces a source after checking its owning device is
// present.
func (g *Graph) InsertSource(s *Source) error {
	g.devicesMu.RLock()
	_, ok := g.devices[s.DeviceID]
	g.devicesMu.RUnlock()
	if !ok {
		return &RefError{Kind: wire.TypeSource, RefKind: wire.TypeDevice, RefID: s.DeviceID}
	}

	g.sourcesMu.Lock()
	_, existed := g.sources[s.Core.ID]
	g.sources[s.Core.ID] = s
	g.sourcesMu.Unlock()

	g.publish(changeKind(existed), s)
	return nil
}

// InsertFlow adds or replaces a flow after checking its owning device and
// source are present.
func (g *Graph) InsertFlow(f *Flow) error {
	g.devicesMu.RLock()
	_, deviceOK := g.devices[f.DeviceID]
	g.devicesMu.RUnlock()
	if !deviceOK {
		return &RefError{Kind: wire.TypeFlow, RefKind: wire.TypeDevice, RefID: f.DeviceID}
	}

	g.sourcesMu.RLock()
	_, sourceOK := g.sources[f.SourceID]
	g.sourcesMu.RUnlock()
	if !sourceOK {
		return &RefError{Kind: wire.TypeFlow, RefKind: wire.TypeSource, RefID: f.SourceID}
	}

	g.flowsMu.Lock()
	_, existed := g.flows[f.Core.ID]
	g.flows[f.Core.ID] = f
	g.flowsMu.Unlock()

	g.publish(changeKind(existed), f)
	return nil
}

// InsertSender adds or replaces a sender after checking its owning device
// and carried flow are present.
func (g *Graph) InsertSender(s *Sender) error {
	g.devicesMu.RLock()
	_, deviceOK := g.devices[s.DeviceID]
	g.devicesMu.RUnlock()
	if !deviceOK {
		return &RefError{Kind: wire.TypeSender, RefKind: wire.TypeDevice, RefID: s.DeviceID}
	}

	g.flowsMu.RLock()
	_, flowOK := g.flows[s.FlowID]
	g.flowsMu.RUnlock()
	if !flowOK {
		return &RefError{Kind: wire.TypeSender, RefKind: wire.TypeFlow, RefID: s.FlowID}
	}

	g.sendersMu.Lock()
	_, existed := g.senders[s.Core.ID]
	g.senders[s.Core.ID] = s
	g.sendersMu.Unlock()

	g.publish(changeKind(existed), s)
	return nil
}

// InsertReceiver adds or replaces a receiver after checking its owning
// device is present.
func (g *Graph) InsertReceiver(r *Receiver) error {
	g.devicesMu.RLock()
	_, ok := g.devices[r.DeviceID]
	g.devicesMu.RUnlock()
	if !ok {
		return &RefError{Kind: wire.TypeReceiver, RefKind: wire.TypeDevice, RefID: r.DeviceID}
	}

	g.receiversMu.Lock()
	_, existed := g.receivers[r.Core.ID]
	g.receivers[r.Core.ID] = r
	g.receiversMu.Unlock()

	g.publish(changeKind(existed), r)
	return nil
}

// RemoveNode removes a node. Owned devices are left in place; there is no
// cascading delete.
func (g *Graph) RemoveNode(id uuid.UUID) error {
	g.nodesMu.Lock()
	n, ok := g.nodes[id]
	delete(g.nodes, id)
	g.nodesMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, n)
	return nil
}

// RemoveDevice removes a device.
func (g *Graph) RemoveDevice(id uuid.UUID) error {
	g.devicesMu.Lock()
	d, ok := g.devices[id]
	delete(g.devices, id)
	g.devicesMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, d)
	return nil
}

// RemoveSource removes a source.
func (g *Graph) RemoveSource(id uuid.UUID) error {
	g.sourcesMu.Lock()
	s, ok := g.sources[id]
	delete(g.sources, id)
	g.sourcesMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, s)
	return nil
}

// RemoveFlow removes a flow.
func (g *Graph) RemoveFlow(id uuid.UUID) error {
	g.flowsMu.Lock()
	f, ok := g.flows[id]
	delete(g.flows, id)
	g.flowsMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, f)
	return nil
}

// RemoveSender removes a sender.
func (g *Graph) RemoveSender(id uuid.UUID) error {
	g.sendersMu.Lock()
	s, ok := g.senders[id]
	delete(g.senders, id)
	g.sendersMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, s)
	return nil
}

// RemoveReceiver removes a receiver.
func (g *Graph) RemoveReceiver(id uuid.UUID) error {
	g.receiversMu.Lock()
	r, ok := g.receivers[id]
	delete(g.receivers, id)
	g.receiversMu.Unlock()

	if !ok {
		return ErrNotFound
	}
	g.publish(EventRemoved, r)
	return nil
}

// Nodes returns a point-in-time snapshot of the node collection. Resources
// are treated as immutable once inserted; updates replace the entry.
func (g *Graph) Nodes() map[uuid.UUID]*Node {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	return copyMap(g.nodes)
}

// Devices returns a point-in-time snapshot of the device collection.
func (g *Graph) Devices() map[uuid.UUID]*Device {
	g.devicesMu.RLock()
	defer g.devicesMu.RUnlock()
	return copyMap(g.devices)
}

// Sources returns a point-in-time snapshot of the source collection.
func (g *Graph) Sources() map[uuid.UUID]*Source {
	g.sourcesMu.RLock()
	defer g.sourcesMu.RUnlock()
	return copyMap(g.sources)
}

// Flows returns a point-in-time snapshot of the flow collection.
func (g *Graph) Flows() map[uuid.UUID]*Flow {
	g.flowsMu.RLock()
	defer g.flowsMu.RUnlock()
	return copyMap(g.flows)
}

// Senders returns a point-in-time snapshot of the sender collection.
func (g *Graph) Senders() map[uuid.UUID]*Sender {
	g.sendersMu.RLock()
	defer g.sendersMu.RUnlock()
	return copyMap(g.senders)
}

// Receivers returns a point-in-time snapshot of the receiver collection.
func (g *Graph) Receivers() map[uuid.UUID]*Receiver {
	g.receiversMu.RLock()
	defer g.receiversMu.RUnlock()
	return copyMap(g.receivers)
}

func (g *Graph) publish(kind EventKind, r Registerable) {
	if g.events == nil {
		return
	}
	select {
	case g.events <- Event{Kind: kind, Resource: r}:
	default:
		slog.Warn("Resource event channel full, dropping event",
			"kind", kind,
			"resource", r.RegistryPath())
	}
}

func changeKind(existed bool) EventKind {
	if existed {
		return EventUpdated
	}
	return EventAdded
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
