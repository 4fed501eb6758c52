// File: sps/sps.go
// Package sps provides managed bidirectional byte-stream channels
// (Serial Port Service) over a short-range radio link.
// License: Apache-2.0
//
// The Manager correlates the two partial views of every connection
// event, keeps a bounded registry of live channels with per-channel
// receive FIFOs, and decouples transport callback contexts from user
// callbacks through a dispatch worker. One process-wide lock guards
// registry and correlation state; no I/O runs while it is held.

package sps

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kerr-srl/ubxlib/api"
	"github.com/Kerr-srl/ubxlib/config"
)

// Notification prefixes and command verbs of the SPS profile.
const (
	urcACLConnected    = "+UUBTACLC:"
	urcACLDisconnected = "+UUBTACLD:"
	cmdConnect         = "AT+UDCP="
	respConnect        = "+UDCP:"
	cmdDisconnect      = "AT+UDCPC="
	addressScheme      = "sps://"
)

// Manager owns all SPS channel state. Construct with New, release
// with Close.
type Manager struct {
	mu   sync.Mutex
	cfg  *config.Config
	log  *zap.Logger
	reg  *registry
	gw   *gateway // lazy, nil until a callback subscribes
	subs int      // enabled callbacks across all instances

	insts  map[api.Handle]*instance
	next   api.Handle
	closed bool
}

// New constructs a Manager. cfg nil means defaults; log nil disables
// logging.
func New(cfg *config.Config, log *zap.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Sanitize()
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:   cfg,
		log:   log,
		reg:   newRegistry(cfg.MaxChannels),
		insts: make(map[api.Handle]*instance),
	}
}

// Attach binds one link instance (its command and mux transports) and
// returns the handle used by all other operations.
func (m *Manager) Attach(cmd api.CommandTransport, mux api.MuxTransport, mode api.LinkMode) (api.Handle, error) {
	if cmd == nil || mux == nil {
		return 0, api.NewError(api.ErrCodeInvalidParameter, "nil transport")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, api.ErrNotInitialised
	}
	m.next++
	h := m.next
	m.insts[h] = &instance{handle: h, cmd: cmd, mux: mux, mode: mode}
	return h, nil
}

// Detach disables any callbacks still registered for the instance,
// drops its channels and queued records, and releases the handle.
func (m *Manager) Detach(h api.Handle) error {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if inst.connCb != nil {
		m.disableConnectionLocked(inst)
	}
	if inst.dataCb != nil {
		m.disableDataLocked(inst)
	}
	m.reg.deleteInstance(inst)
	delete(m.insts, h)
	toClose := m.takeIdleGatewayLocked()
	m.mu.Unlock()

	if toClose != nil {
		toClose.close()
	}
	return nil
}

// SetLinkMode updates the operating mode used by Connect validation.
func (m *Manager) SetLinkMode(h api.Handle, mode api.LinkMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		return err
	}
	inst.mode = mode
	return nil
}

// SetConnectionStatusCallback enables or disables connection-event
// delivery. Enabling (non-nil cb, none set) registers both connection
// notifications and the mux connection hook; a partial failure rolls
// all three back. Disabling (nil cb, one set) unregisters all three,
// drops the pending correlation slot and any queued connection
// records. Any other combination is an invalid parameter.
func (m *Manager) SetConnectionStatusCallback(h api.Handle, cb api.ConnectionStatusCallback) error {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	var toClose *gateway
	switch {
	case cb != nil && inst.connCb == nil:
		err = m.enableConnectionLocked(inst, cb)
	case cb == nil && inst.connCb != nil:
		m.disableConnectionLocked(inst)
		toClose = m.takeIdleGatewayLocked()
	default:
		err = api.NewError(api.ErrCodeInvalidParameter, "callback already in requested state")
	}
	m.mu.Unlock()

	if toClose != nil {
		toClose.close()
	}
	return err
}

func (m *Manager) enableConnectionLocked(inst *instance, cb api.ConnectionStatusCallback) error {
	err := inst.cmd.AddNotification(urcACLConnected, m.aclConnectedHandler(inst))
	if err == nil {
		err = inst.cmd.AddNotification(urcACLDisconnected, m.aclDisconnectedHandler(inst))
	}
	if err == nil {
		err = inst.mux.SetConnectionHandler(m.muxConnectionHook(inst))
	}
	if err != nil {
		// Best-effort rollback so no dangling hook survives.
		_ = inst.cmd.RemoveNotification(urcACLConnected)
		_ = inst.cmd.RemoveNotification(urcACLDisconnected)
		_ = inst.mux.SetConnectionHandler(nil)
		return err
	}
	inst.connCb = cb
	m.subs++
	m.ensureGatewayLocked()
	return nil
}

func (m *Manager) disableConnectionLocked(inst *instance) {
	_ = inst.cmd.RemoveNotification(urcACLConnected)
	_ = inst.cmd.RemoveNotification(urcACLDisconnected)
	_ = inst.mux.SetConnectionHandler(nil)
	inst.connCb = nil
	inst.pending = pendingConn{}
	if m.gw != nil {
		m.gw.discard(func(rec record) bool {
			if rec.kind != recordConnection || rec.inst != inst {
				return false
			}
			// The worker removes a channel after delivering its
			// disconnect; a discarded disconnect must not leak it.
			if rec.ev.Kind == api.KindDisconnected {
				m.reg.delete(inst, rec.ev.Channel)
			}
			return true
		})
	}
	m.subs--
}

// Connect requests an SPS session to the given address. Valid only in
// a connectable link mode. Returns the connection handle reported by
// the command transport.
func (m *Manager) Connect(h api.Handle, address string) (int32, error) {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	if !inst.mode.Connectable() {
		m.mu.Unlock()
		return 0, api.NewError(api.ErrCodeInvalidMode, "link not in a connectable mode")
	}
	cmd := inst.cmd
	m.mu.Unlock()

	m.log.Debug("requesting sps connection", zap.String("address", address))
	resp, err := cmd.Transact(api.Request{
		Command:        cmdConnect,
		Args:           []any{addressScheme + address},
		ResponsePrefix: respConnect,
	})
	if err != nil {
		return 0, err
	}
	return resp.ReadInt()
}

// Disconnect closes the session identified by connHandle.
func (m *Manager) Disconnect(h api.Handle, connHandle int32) error {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	cmd := inst.cmd
	m.mu.Unlock()

	m.log.Debug("requesting sps disconnect", zap.Int32("connHandle", connHandle))
	_, err = cmd.Transact(api.Request{
		Command: cmdDisconnect,
		Args:    []any{connHandle},
	})
	return err
}

// Send writes data to a channel, blocking at most the channel's send
// timeout.
func (m *Manager) Send(h api.Handle, channelID int32, data []byte) error {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	c := m.reg.find(inst, channelID)
	if c == nil {
		m.mu.Unlock()
		return api.NewError(api.ErrCodeInvalidParameter, "unknown channel").
			WithContext("channel", channelID)
	}
	mux, timeout := inst.mux, c.sendTimeout
	m.mu.Unlock()

	_, err = mux.Write(channelID, data, timeout)
	return err
}

// Receive moves up to len(buf) buffered bytes into buf. Non-blocking;
// returns 0 when nothing is buffered.
func (m *Manager) Receive(h api.Handle, channelID int32, buf []byte) (int, error) {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	c := m.reg.find(inst, channelID)
	m.mu.Unlock()
	if c == nil {
		return 0, api.NewError(api.ErrCodeInvalidParameter, "unknown channel").
			WithContext("channel", channelID)
	}
	return c.rx.Pop(buf), nil
}

// SetSendTimeout overrides the per-channel send timeout.
func (m *Manager) SetSendTimeout(h api.Handle, channelID int32, timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		return err
	}
	c := m.reg.find(inst, channelID)
	if c == nil {
		return api.NewError(api.ErrCodeInvalidParameter, "unknown channel").
			WithContext("channel", channelID)
	}
	c.sendTimeout = timeout
	return nil
}

// SetDataAvailableCallback enables or disables data-ready delivery,
// symmetric to SetConnectionStatusCallback. Enabling starts the
// dispatch worker if it is not already running; disabling discards
// queued data records and stops the worker once nothing subscribes.
func (m *Manager) SetDataAvailableCallback(h api.Handle, cb api.DataAvailableCallback) error {
	m.mu.Lock()
	inst, err := m.instanceLocked(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	var toClose *gateway
	switch {
	case cb != nil && inst.dataCb == nil:
		inst.dataCb = cb
		m.subs++
		m.ensureGatewayLocked()
		if err = inst.mux.SetDataHandler(m.muxDataHook(inst)); err != nil {
			inst.dataCb = nil
			m.subs--
			toClose = m.takeIdleGatewayLocked()
		}
	case cb == nil && inst.dataCb != nil:
		m.disableDataLocked(inst)
		toClose = m.takeIdleGatewayLocked()
	default:
		err = api.NewError(api.ErrCodeInvalidParameter, "callback already in requested state")
	}
	m.mu.Unlock()

	if toClose != nil {
		toClose.close()
	}
	return err
}

func (m *Manager) disableDataLocked(inst *instance) {
	_ = inst.mux.SetDataHandler(nil)
	inst.dataCb = nil
	if m.gw != nil {
		m.gw.discard(func(rec record) bool {
			return rec.kind == recordData && rec.inst == inst
		})
	}
	m.subs--
}

// ServerHandles reports the GATT attribute handles of the remote SPS
// server. Not supported by externally connected modules.
func (m *Manager) ServerHandles(h api.Handle, channelID int32) (api.ServerHandles, error) {
	return api.ServerHandles{}, api.ErrNotImplemented
}

// PresetServerHandles seeds remote server handles to skip discovery.
// Not supported by externally connected modules.
func (m *Manager) PresetServerHandles(h api.Handle, handles api.ServerHandles) error {
	return api.ErrNotImplemented
}

// DisableFlowControlOnNext disables credit-based flow control for the
// next connection. Not supported by externally connected modules.
func (m *Manager) DisableFlowControlOnNext(h api.Handle) error {
	return api.ErrNotImplemented
}

// Close tears down the dispatch worker, unregisters every hook and
// clears the registry. The Manager must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return api.ErrNotInitialised
	}
	m.closed = true
	for _, inst := range m.insts {
		if inst.connCb != nil {
			m.disableConnectionLocked(inst)
		}
		if inst.dataCb != nil {
			m.disableDataLocked(inst)
		}
	}
	m.reg.deleteAll()
	gw := m.gw
	m.gw = nil
	m.mu.Unlock()

	if gw != nil {
		gw.close()
	}
	return nil
}

// instanceLocked resolves a handle. Caller holds m.mu.
func (m *Manager) instanceLocked(h api.Handle) (*instance, error) {
	if m.closed {
		return nil, api.ErrNotInitialised
	}
	inst, ok := m.insts[h]
	if !ok {
		return nil, api.NewError(api.ErrCodeInvalidParameter, "unknown instance handle").
			WithContext("handle", h)
	}
	return inst, nil
}

// ensureGatewayLocked lazily starts the dispatch worker.
func (m *Manager) ensureGatewayLocked() {
	if m.gw == nil {
		m.gw = newGateway(m.cfg.QueueDepth, m.dispatch, m.log)
	}
}

// takeIdleGatewayLocked detaches the gateway once the last subscriber
// is gone. The caller closes it after releasing m.mu, since the worker
// may be blocked acquiring it.
func (m *Manager) takeIdleGatewayLocked() *gateway {
	if m.subs > 0 || m.gw == nil {
		return nil
	}
	gw := m.gw
	m.gw = nil
	return gw
}

// dispatch delivers one dequeued record on the worker context. The
// callback registration is re-read here: a record that outlived its
// callback is dropped. Disconnect events remove the channel only
// after the callback has returned.
func (m *Manager) dispatch(rec record) {
	switch rec.kind {
	case recordData:
		m.mu.Lock()
		cb := rec.inst.dataCb
		m.mu.Unlock()
		if cb != nil {
			cb(rec.channel)
		}
	case recordConnection:
		m.mu.Lock()
		cb := rec.inst.connCb
		m.mu.Unlock()
		if cb != nil {
			cb(rec.ev)
		}
		if rec.ev.Kind == api.KindDisconnected {
			m.mu.Lock()
			m.reg.delete(rec.inst, rec.ev.Channel)
			m.mu.Unlock()
		}
	}
}
