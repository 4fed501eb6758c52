// File: sps/correlator.go
// License: Apache-2.0
//
// Connection-event correlation. Each logical connect/disconnect is
// reported twice: the command transport's notification carries only
// the connection handle, the mux transport's event carries kind,
// channel, MTU and address. The two arrive in either order on
// different contexts; whichever lands first parks in the instance's
// pending slot, the second completes it and exactly one event is
// emitted.

package sps

import (
	"go.uber.org/zap"

	"github.com/Kerr-srl/ubxlib/api"
)

// pendingConn is the inline correlation slot. The zero value is the
// empty slot. A second report from the same side before completion
// overwrites that side's fields, so the newest report wins.
type pendingConn struct {
	haveCmd    bool
	haveMux    bool
	connHandle int32
	kind       api.EventKind
	channel    int32
	mtu        int32
	address    string
}

func (p *pendingConn) complete() bool {
	return p.haveCmd && p.haveMux
}

// commandPartial records the command-side half of a connection event.
// Called from the notification handlers with m.mu held.
func (m *Manager) commandPartial(inst *instance, connHandle int32) {
	inst.pending.haveCmd = true
	inst.pending.connHandle = connHandle
	if inst.pending.complete() {
		m.completeCorrelation(inst)
	}
}

// transportPartial records the mux-side half. Called from the mux
// connection hook with m.mu held.
func (m *Manager) transportPartial(inst *instance, kind api.EventKind, channel, mtu int32, address string) {
	inst.pending.haveMux = true
	inst.pending.kind = kind
	inst.pending.channel = channel
	inst.pending.mtu = mtu
	inst.pending.address = address
	if inst.pending.complete() {
		m.completeCorrelation(inst)
	}
}

// completeCorrelation builds the merged event, creates the channel for
// a connect before the event is queued (the callback may assume it
// exists) and hands the event to the gateway. The slot is cleared in
// every path, so a failure here costs one notification and nothing
// else.
func (m *Manager) completeCorrelation(inst *instance) {
	p := inst.pending
	inst.pending = pendingConn{}

	ev := api.ConnectionEvent{
		ConnHandle: p.connHandle,
		Address:    p.address,
		Kind:       p.kind,
		Channel:    p.channel,
		MTU:        p.mtu,
	}

	if ev.Kind == api.KindConnected {
		if _, err := m.reg.create(inst, ev.Channel, m.cfg.RingCapacity, m.cfg.SendTimeout); err != nil {
			m.log.Warn("dropping connection event, channel create failed",
				zap.Int32("channel", ev.Channel), zap.Error(err))
			return
		}
	}

	if m.gw == nil || !m.gw.notify(record{kind: recordConnection, inst: inst, channel: ev.Channel, ev: ev}) {
		// Undo the create so a later retry does not hit the
		// uniqueness invariant.
		if ev.Kind == api.KindConnected {
			m.reg.delete(inst, ev.Channel)
		}
		m.log.Warn("dropping connection event, dispatch unavailable",
			zap.Int32("channel", ev.Channel), zap.String("kind", ev.Kind.String()))
	}
}
