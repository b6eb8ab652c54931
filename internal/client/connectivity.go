package client

import "sync/atomic"

// Monitor reports whether the API is currently reachable.
type Monitor interface {
	Online() bool
}

// Observer is implemented by monitors that learn from request outcomes.
type Observer interface {
	// Observe records whether the last request reached the server.
	Observe(reached bool)
}

// TransportMonitor derives connectivity from request outcomes: any HTTP reply
// marks the API online, a transport failure marks it offline.
type TransportMonitor struct {
	offline atomic.Bool
}

// NewTransportMonitor starts in the online state.
func NewTransportMonitor() *TransportMonitor {
	return &TransportMonitor{}
}

func (m *TransportMonitor) Online() bool { return !m.offline.Load() }

func (m *TransportMonitor) Observe(reached bool) { m.offline.Store(!reached) }

// StaticMonitor always reports the same state.
type StaticMonitor bool

const (
	AlwaysOnline  StaticMonitor = true
	AlwaysOffline StaticMonitor = false
)

func (s StaticMonitor) Online() bool { return bool(s) }
