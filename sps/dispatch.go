// File: sps/dispatch.go
// License: Apache-2.0
//
// Dispatch gateway: a bounded FIFO serviced by one worker goroutine.
// Transport callbacks enqueue records and return immediately; user
// callbacks only ever run on the worker. A full queue drops the new
// record (drop-newest) rather than blocking the producer.

package sps

import (
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/Kerr-srl/ubxlib/api"
)

type recordKind uint8

const (
	recordData recordKind = iota
	recordConnection
)

// record is one queued dispatch item. For recordData only inst and
// channel are set; recordConnection also carries the correlated event.
type record struct {
	kind    recordKind
	inst    *instance
	channel int32
	ev      api.ConnectionEvent
}

type gateway struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int
	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	log      *zap.Logger
	deliver  func(record)
}

func newGateway(capacity int, deliver func(record), log *zap.Logger) *gateway {
	g := &gateway{
		q:        queue.New(),
		capacity: capacity,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
		deliver:  deliver,
	}
	go g.run()
	return g
}

// notify enqueues one record. Never blocks; when the queue is at
// capacity the record is dropped and false returned.
func (g *gateway) notify(rec record) bool {
	g.mu.Lock()
	if g.q.Length() >= g.capacity {
		g.mu.Unlock()
		g.log.Warn("dispatch queue full, dropping record",
			zap.Int32("channel", rec.channel))
		return false
	}
	g.q.Add(rec)
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
	return true
}

// discard removes every queued record matching keep==false semantics:
// records for which match returns true are dropped without delivery.
func (g *gateway) discard(match func(record) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.q.Length()
	for i := 0; i < n; i++ {
		rec := g.q.Remove().(record)
		if !match(rec) {
			g.q.Add(rec)
		}
	}
}

// close stops the worker and drops anything still queued. It waits for
// an in-flight delivery to return; callbacks are never interrupted.
func (g *gateway) close() {
	close(g.quit)
	<-g.done
	g.mu.Lock()
	for g.q.Length() > 0 {
		g.q.Remove()
	}
	g.mu.Unlock()
}

// run dequeues one record at a time and hands it to deliver. The
// delivery path re-checks callback registration; a record enqueued
// before a callback was cleared is silently discarded there.
func (g *gateway) run() {
	defer close(g.done)
	for {
		for {
			select {
			case <-g.quit:
				return
			default:
			}
			g.mu.Lock()
			if g.q.Length() == 0 {
				g.mu.Unlock()
				break
			}
			rec := g.q.Remove().(record)
			g.mu.Unlock()
			g.deliver(rec)
		}
		select {
		case <-g.wake:
		case <-g.quit:
			return
		}
	}
}
