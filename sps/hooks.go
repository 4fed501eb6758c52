// File: sps/hooks.go
// License: Apache-2.0
//
// Transport-facing hooks. These run on the command/mux callback
// contexts and must return quickly: they only mutate correlation
// state under the lock or push bytes into a channel's own FIFO, then
// hand everything else to the dispatch worker.

package sps

import (
	"go.uber.org/zap"

	"github.com/Kerr-srl/ubxlib/api"
)

// aclConnectedHandler handles +UUBTACLC:. The notification carries
// the connection handle, the link type and the remote address; only
// the handle feeds correlation, the rest is drained to keep the
// command transport's parser aligned.
func (m *Manager) aclConnectedHandler(inst *instance) api.NotificationHandler {
	return func(r api.FieldReader) {
		connHandle, err := r.ReadInt()
		if err != nil {
			m.log.Warn("malformed connect notification", zap.Error(err))
			return
		}
		_, _ = r.ReadInt()    // link type, always GATT
		_, _ = r.ReadString() // address, the mux event's copy is used

		m.mu.Lock()
		if inst.connCb != nil {
			m.commandPartial(inst, connHandle)
		}
		m.mu.Unlock()
	}
}

// aclDisconnectedHandler handles +UUBTACLD:, which carries the
// connection handle only.
func (m *Manager) aclDisconnectedHandler(inst *instance) api.NotificationHandler {
	return func(r api.FieldReader) {
		connHandle, err := r.ReadInt()
		if err != nil {
			m.log.Warn("malformed disconnect notification", zap.Error(err))
			return
		}

		m.mu.Lock()
		if inst.connCb != nil {
			m.commandPartial(inst, connHandle)
		}
		m.mu.Unlock()
	}
}

// muxConnectionHook receives the mux-side partial view.
func (m *Manager) muxConnectionHook(inst *instance) api.ConnectionHandler {
	return func(kind api.EventKind, channel, mtu int32, address string) {
		m.mu.Lock()
		if inst.connCb != nil {
			m.transportPartial(inst, kind, channel, mtu, address)
		}
		m.mu.Unlock()
	}
}

// muxDataHook buffers inbound bytes and raises at most one ready
// record per empty-to-non-empty transition. The channel lookup uses
// the shared lock; the push itself only takes the FIFO's own lock, so
// the data path never holds m.mu while copying.
func (m *Manager) muxDataHook(inst *instance) api.DataHandler {
	return func(channel int32, data []byte) {
		m.mu.Lock()
		c := m.reg.find(inst, channel)
		gw := m.gw
		enabled := inst.dataCb != nil
		m.mu.Unlock()

		if c == nil || !enabled {
			m.log.Debug("data for unknown channel dropped",
				zap.Int32("channel", channel), zap.Int("bytes", len(data)))
			return
		}

		ready, dropped := c.rx.Push(data)
		if dropped > 0 {
			m.log.Warn("rx buffer full, dropping bytes",
				zap.Int32("channel", channel), zap.Int("dropped", dropped))
		}
		if ready && gw != nil {
			gw.notify(record{kind: recordData, inst: inst, channel: channel})
		}
	}
}
