// Package registration drives the node's relationship with a registration
// API: ordered bulk registration of the resource graph, periodic
// heartbeating with amnesia recovery, and incremental propagation of
// resource changes.
package registration
