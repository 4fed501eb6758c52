// File: api/events.go
// Package api defines core event types for the SPS channel layer.
// License: Apache-2.0

package api

// EventKind distinguishes connection-event directions.
type EventKind int32

const (
	// KindConnected is reported when a remote peer opens an SPS channel.
	KindConnected EventKind = iota
	// KindDisconnected is reported when an SPS channel is torn down.
	KindDisconnected
)

// String returns a human-readable kind name.
func (k EventKind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionEvent is the fully correlated view of one logical
// connect or disconnect, merged from the command-side and
// mux-side partial reports. Immutable once constructed.
type ConnectionEvent struct {
	ConnHandle int32     // command transport's connection handle
	Address    string    // remote device address
	Kind       EventKind // connected or disconnected
	Channel    int32     // mux data channel id
	MTU        int32     // max bytes per channel write
}

// ConnectionStatusCallback receives correlated connection events.
// It is always invoked from the dispatch worker, never from a
// transport callback context.
type ConnectionStatusCallback func(ev ConnectionEvent)

// DataAvailableCallback signals the empty-to-non-empty transition of a
// channel's receive buffer. Invoked from the dispatch worker.
type DataAvailableCallback func(channel int32)
