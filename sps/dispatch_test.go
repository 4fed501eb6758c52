package sps

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func collectGateway(capacity int) (*gateway, chan record) {
	delivered := make(chan record, 64)
	g := newGateway(capacity, func(rec record) { delivered <- rec }, zap.NewNop())
	return g, delivered
}

// gatedGateway blocks every delivery until the test sends on gate.
func gatedGateway(capacity int) (*gateway, chan record, chan struct{}) {
	delivered := make(chan record, 64)
	gate := make(chan struct{})
	g := newGateway(capacity, func(rec record) {
		<-gate
		delivered <- rec
	}, zap.NewNop())
	return g, delivered, gate
}

func TestGatewayDeliversInOrder(t *testing.T) {
	g, delivered := collectGateway(16)
	defer g.close()

	for ch := int32(0); ch < 5; ch++ {
		if !g.notify(record{kind: recordData, channel: ch}) {
			t.Fatalf("notify %d rejected", ch)
		}
	}
	for want := int32(0); want < 5; want++ {
		select {
		case rec := <-delivered:
			if rec.channel != want {
				t.Errorf("out of order: got %d, want %d", rec.channel, want)
			}
		case <-time.After(time.Second):
			t.Fatal("delivery timed out")
		}
	}
}

func TestGatewayDropsNewestWhenFull(t *testing.T) {
	g, delivered, gate := gatedGateway(2)

	g.notify(record{channel: 0}) // in flight, blocks the worker
	waitInFlight(t, g)
	if !g.notify(record{channel: 1}) || !g.notify(record{channel: 2}) {
		t.Fatal("queue rejected records below capacity")
	}
	if g.notify(record{channel: 3}) {
		t.Error("full queue must drop the new record")
	}

	close(gate)
	for i := 0; i < 3; i++ {
		select {
		case <-delivered:
		case <-time.After(time.Second):
			t.Fatal("delivery timed out")
		}
	}
	g.close()
}

func TestGatewayDiscardMatching(t *testing.T) {
	g, delivered, gate := gatedGateway(8)

	g.notify(record{kind: recordData, channel: 0})
	waitInFlight(t, g)
	g.notify(record{kind: recordData, channel: 1})
	g.notify(record{kind: recordConnection, channel: 2})
	g.notify(record{kind: recordData, channel: 3})

	g.discard(func(rec record) bool { return rec.kind == recordData })
	close(gate)

	var got []int32
	for i := 0; i < 2; i++ {
		select {
		case rec := <-delivered:
			got = append(got, rec.channel)
		case <-time.After(200 * time.Millisecond):
		}
	}
	// The in-flight record and the one non-matching record survive.
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("got %v, want [0 2]", got)
	}
	g.close()
}

func TestGatewayCloseDiscardsQueued(t *testing.T) {
	g, delivered, gate := gatedGateway(8)

	g.notify(record{channel: 0})
	waitInFlight(t, g)
	g.notify(record{channel: 1})
	g.notify(record{channel: 2})

	closed := make(chan struct{})
	go func() {
		g.close()
		close(closed)
	}()
	<-g.quit    // wait until close() has signalled shutdown
	close(gate) // let the in-flight delivery finish

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not return")
	}

	<-delivered // the in-flight record was delivered
	select {
	case rec := <-delivered:
		t.Errorf("queued record %d delivered after close", rec.channel)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitInFlight waits until the worker has dequeued the first record.
func waitInFlight(t *testing.T, g *gateway) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		g.mu.Lock()
		n := g.q.Length()
		g.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("worker never dequeued")
		}
		time.Sleep(time.Millisecond)
	}
}
