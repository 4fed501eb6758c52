// File: sps/registry.go
// License: Apache-2.0
//
// Keyed registry of live SPS channels. One entry per
// (instance, channel id) pair, bounded per instance. The registry is
// not self-locking: every method runs under the manager lock.

package sps

import (
	"time"

	"github.com/Kerr-srl/ubxlib/api"
	"github.com/Kerr-srl/ubxlib/internal/ring"
)

type channelKey struct {
	inst *instance
	id   int32
}

type registry struct {
	maxPerInstance int
	channels       map[channelKey]*channel
}

func newRegistry(maxPerInstance int) *registry {
	return &registry{
		maxPerInstance: maxPerInstance,
		channels:       make(map[channelKey]*channel),
	}
}

// create adds a channel with a fresh receive buffer and the default
// send timeout. Fails without mutating the registry when the instance
// already holds the configured maximum, or when the pair exists.
func (r *registry) create(inst *instance, id int32, ringCap int, timeout time.Duration) (*channel, error) {
	key := channelKey{inst, id}
	if _, ok := r.channels[key]; ok {
		return nil, api.NewError(api.ErrCodeAllocation, "channel already exists").
			WithContext("channel", id)
	}
	if r.count(inst) >= r.maxPerInstance {
		return nil, api.NewError(api.ErrCodeAllocation, "max channels reached").
			WithContext("max", r.maxPerInstance)
	}
	c := &channel{
		inst:        inst,
		id:          id,
		rx:          ring.New(ringCap),
		sendTimeout: timeout,
	}
	r.channels[key] = c
	return c, nil
}

// find returns the channel for (inst, id), or nil.
func (r *registry) find(inst *instance, id int32) *channel {
	return r.channels[channelKey{inst, id}]
}

// delete removes the channel for (inst, id) if present.
func (r *registry) delete(inst *instance, id int32) {
	delete(r.channels, channelKey{inst, id})
}

// deleteInstance removes every channel owned by inst.
func (r *registry) deleteInstance(inst *instance) {
	for key := range r.channels {
		if key.inst == inst {
			delete(r.channels, key)
		}
	}
}

// deleteAll clears the registry. Used at module teardown only.
func (r *registry) deleteAll() {
	clear(r.channels)
}

// count returns the number of live channels owned by inst.
func (r *registry) count(inst *instance) int {
	n := 0
	for key := range r.channels {
		if key.inst == inst {
			n++
		}
	}
	return n
}
