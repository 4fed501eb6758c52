// File: api/types.go
// License: Apache-2.0

package api

// Handle identifies one attached link instance.
type Handle int32

// LinkMode is the operating mode of the underlying link.
type LinkMode int32

const (
	// LinkModeCommand: the link accepts configuration commands only.
	LinkModeCommand LinkMode = iota
	// LinkModeData: raw data pass-through, no command channel.
	LinkModeData
	// LinkModeExtended: multiplexed commands and data on one link.
	LinkModeExtended
)

// Connectable reports whether new SPS sessions may be requested
// in this mode.
func (m LinkMode) Connectable() bool {
	return m == LinkModeCommand || m == LinkModeExtended
}

// ServerHandles are the GATT attribute handles of a remote SPS server.
// Reserved for modules that expose them; see Manager.ServerHandles.
type ServerHandles struct {
	Service      uint16
	FifoValue    uint16
	FifoCCC      uint16
	CreditsValue uint16
	CreditsCCC   uint16
}
