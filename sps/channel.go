// File: sps/channel.go
// License: Apache-2.0

package sps

import (
	"time"

	"github.com/Kerr-srl/ubxlib/api"
	"github.com/Kerr-srl/ubxlib/internal/ring"
)

// channel is the per-connection state for one SPS data channel:
// the receive FIFO and the send timeout. Created on a correlated
// connect event, removed after the matching disconnect callback.
type channel struct {
	inst        *instance
	id          int32
	rx          *ring.Buffer
	sendTimeout time.Duration // guarded by the manager lock
}

// instance is one attached link owner. The pending correlation slot
// lives inline here so completing or storing a partial never
// allocates. All fields are guarded by the manager lock.
type instance struct {
	handle  api.Handle
	cmd     api.CommandTransport
	mux     api.MuxTransport
	mode    api.LinkMode
	connCb  api.ConnectionStatusCallback
	dataCb  api.DataAvailableCallback
	pending pendingConn
}
