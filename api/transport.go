// File: api/transport.go
// License: Apache-2.0
//
// Contracts the SPS core consumes from its two transports: the
// command/response transport (AT-style, carries unsolicited
// notifications) and the binary multiplexing transport (carries
// per-channel connection and data events).

package api

import "time"

// FieldReader reads typed fields sequentially from a notification
// or a command response.
type FieldReader interface {
	// ReadInt reads the next field as an integer.
	ReadInt() (int32, error)

	// ReadString reads the next field as a string.
	ReadString() (string, error)
}

// NotificationHandler handles one unsolicited notification. It runs on
// the command transport's callback context and must not block.
type NotificationHandler func(r FieldReader)

// Request describes one locked request/response transaction.
type Request struct {
	// Command is the request verb, e.g. "AT+UDCP=".
	Command string

	// Args are written in order after the verb. Supported kinds
	// are int32 and string.
	Args []any

	// ResponsePrefix names the expected response line. Empty means
	// the command produces no payload beyond its final status.
	ResponsePrefix string
}

// Response reads typed fields from a transaction response.
type Response = FieldReader

// CommandTransport is the command/response side of the link. The
// transport owns its own lock; Transact holds it for the whole
// request/response exchange.
type CommandTransport interface {
	// AddNotification registers a handler for an unsolicited
	// notification identified by prefix.
	AddNotification(prefix string, h NotificationHandler) error

	// RemoveNotification unregisters a previously added handler.
	RemoveNotification(prefix string) error

	// Transact issues a locked request/response transaction.
	Transact(req Request) (Response, error)
}

// ConnectionHandler receives the mux-side partial view of a
// connection event. Runs on the mux transport's event context.
type ConnectionHandler func(kind EventKind, channel, mtu int32, address string)

// DataHandler receives inbound bytes for one channel. Runs on the mux
// transport's data context; the data slice is only valid for the call.
type DataHandler func(channel int32, data []byte)

// MuxTransport is the binary multiplexing side of the link.
type MuxTransport interface {
	// SetConnectionHandler installs the connection-event hook.
	// A nil handler clears it.
	SetConnectionHandler(h ConnectionHandler) error

	// SetDataHandler installs the per-channel data hook.
	// A nil handler clears it.
	SetDataHandler(h DataHandler) error

	// Write sends data on a channel, blocking up to timeout.
	Write(channel int32, data []byte, timeout time.Duration) (int, error)
}
