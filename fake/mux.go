// File: fake/mux.go
// License: Apache-2.0

package fake

import (
	"sync"
	"time"

	"github.com/Kerr-srl/ubxlib/api"
)

// WriteOp records one MuxTransport.Write call.
type WriteOp struct {
	Channel int32
	Data    []byte
	Timeout time.Duration
}

// MuxTransport is a fake api.MuxTransport. Tests inject connection and
// data events with Connection and Data, and inspect writes.
type MuxTransport struct {
	mu          sync.Mutex
	connHandler api.ConnectionHandler
	dataHandler api.DataHandler
	writes      []WriteOp

	connErr  error
	dataErr  error
	writeErr error
}

// NewMuxTransport creates an empty fake mux transport.
func NewMuxTransport() *MuxTransport {
	return &MuxTransport{}
}

// SetConnectionHandler implements api.MuxTransport.
func (t *MuxTransport) SetConnectionHandler(h api.ConnectionHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connErr != nil {
		return t.connErr
	}
	t.connHandler = h
	return nil
}

// SetDataHandler implements api.MuxTransport.
func (t *MuxTransport) SetDataHandler(h api.DataHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dataErr != nil {
		return t.dataErr
	}
	t.dataHandler = h
	return nil
}

// Write implements api.MuxTransport.
func (t *MuxTransport) Write(channel int32, data []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.writes = append(t.writes, WriteOp{Channel: channel, Data: cp, Timeout: timeout})
	return len(data), nil
}

// Connection injects a mux-side connection event. Returns false when
// no handler is installed.
func (t *MuxTransport) Connection(kind api.EventKind, channel, mtu int32, address string) bool {
	t.mu.Lock()
	h := t.connHandler
	t.mu.Unlock()
	if h == nil {
		return false
	}
	h(kind, channel, mtu, address)
	return true
}

// Data injects inbound bytes for a channel. Returns false when no
// handler is installed.
func (t *MuxTransport) Data(channel int32, data []byte) bool {
	t.mu.Lock()
	h := t.dataHandler
	t.mu.Unlock()
	if h == nil {
		return false
	}
	h(channel, data)
	return true
}

// HasConnectionHandler reports whether a connection hook is installed.
func (t *MuxTransport) HasConnectionHandler() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connHandler != nil
}

// HasDataHandler reports whether a data hook is installed.
func (t *MuxTransport) HasDataHandler() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dataHandler != nil
}

// Writes returns every recorded write, oldest first.
func (t *MuxTransport) Writes() []WriteOp {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]WriteOp, len(t.writes))
	copy(out, t.writes)
	return out
}

// FailSetConnectionHandler makes SetConnectionHandler fail with err.
func (t *MuxTransport) FailSetConnectionHandler(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connErr = err
}

// FailSetDataHandler makes SetDataHandler fail with err.
func (t *MuxTransport) FailSetDataHandler(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dataErr = err
}

// FailWrite makes Write fail with err.
func (t *MuxTransport) FailWrite(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}
