// Package edgetransport is the narrow interface this module requires
// from an external edge-transport layer: per-offloading-handle
// create/connect/send/release plus untyped info fields and an ordered
// list of byte blobs per message. Grounded on the same narrow-interface
// pattern as pipelineruntime and the teacher's pkg/storage.Storage.
package edgetransport

import "context"

// ConnectType mirrors the connect_type discriminant.
type ConnectType int

const (
	ConnectTCP ConnectType = iota
	ConnectUDP
	ConnectP2P
)

// Role distinguishes which side of an offloading pair a Transport plays.
type Role int

const (
	RoleSender Role = iota
	RoleReceiver
)

// Message is one edge data unit: untyped string->string info fields plus
// an ordered list of byte blobs.
type Message struct {
	Info  map[string]string
	Blobs [][]byte
}

// Transport is one endpoint of an offloading connection.
type Transport interface {
	// Start begins accepting or initiating connections per the Role and
	// ConnectType given at construction time.
	Start(ctx context.Context) error
	// Connect establishes the peer connection (sender role only for
	// connection-oriented transports; a no-op for listener-style receivers).
	Connect(ctx context.Context, host string, port int) error
	// Send transmits a Message to the connected peer.
	Send(ctx context.Context, m Message) error
	// SetEventCallback registers the handler invoked for every Message
	// this endpoint receives.
	SetEventCallback(cb func(Message))
	// Close releases the transport and any underlying connection.
	Close() error
}

// Factory constructs a Transport for the given id/connect-type/role,
// mirroring a create(id, connect_type, role) -> edge call.
type Factory interface {
	Create(id string, connectType ConnectType, role Role) (Transport, error)
}
