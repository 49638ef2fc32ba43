// Package loopback is an in-process, channel-based stand-in for
// edgetransport.Transport, used by the test suite and by single-process
// demos in place of a real network transport. A receiver registers
// itself under its id when started; a sender's Connect resolves that id
// directly instead of dialing a real host:port pair.
package loopback

import (
	"context"
	"sync"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

var (
	registryMu sync.Mutex
	registry   = map[string]*Transport{}
)

// Factory builds loopback Transports.
type Factory struct{}

// NewFactory returns an edgetransport.Factory backed by in-process loopback.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(id string, connectType edgetransport.ConnectType, role edgetransport.Role) (edgetransport.Transport, error) {
	if id == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "loopback.Create", "id must not be empty")
	}
	return &Transport{id: id, role: role}, nil
}

// Transport is one loopback endpoint.
type Transport struct {
	id   string
	role edgetransport.Role

	mu     sync.Mutex
	cb     func(edgetransport.Message)
	peer   *Transport
	closed bool
}

// Start registers a receiver under its id; senders need no listening step.
func (t *Transport) Start(ctx context.Context) error {
	if t.role == edgetransport.RoleReceiver {
		registryMu.Lock()
		registry[t.id] = t
		registryMu.Unlock()
	}
	return nil
}

// Connect resolves the peer by the id passed as host; port is unused.
func (t *Transport) Connect(ctx context.Context, host string, port int) error {
	if t.role != edgetransport.RoleSender {
		return nil
	}
	registryMu.Lock()
	peer, ok := registry[host]
	registryMu.Unlock()
	if !ok {
		return mlerrors.New(mlerrors.TryAgain, "loopback.Connect", "no receiver registered for "+host)
	}

	t.mu.Lock()
	t.peer = peer
	t.mu.Unlock()
	return nil
}

// Send delivers m synchronously to the connected peer's callback.
func (t *Transport) Send(ctx context.Context, m edgetransport.Message) error {
	t.mu.Lock()
	peer := t.peer
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return mlerrors.New(mlerrors.InvalidParameter, "loopback.Send", "transport closed")
	}
	if peer == nil {
		return mlerrors.New(mlerrors.TryAgain, "loopback.Send", "not connected")
	}

	peer.mu.Lock()
	cb := peer.cb
	peer.mu.Unlock()
	if cb != nil {
		cb(m)
	}
	return nil
}

// SetEventCallback registers the handler invoked for every received Message.
func (t *Transport) SetEventCallback(cb func(edgetransport.Message)) {
	t.mu.Lock()
	t.cb = cb
	t.mu.Unlock()
}

// Close releases the transport, deregistering a receiver's id.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	if t.role == edgetransport.RoleReceiver {
		registryMu.Lock()
		delete(registry, t.id)
		registryMu.Unlock()
	}
	return nil
}
