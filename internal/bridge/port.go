package bridge

import (
	"context"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// ConnectionPort is the physical link to the panel. ReadLine blocks until a
// full line arrives and returns an error once the peer goes away; Close must
// unblock a pending ReadLine.
type ConnectionPort interface {
	Open(ctx context.Context) error
	Close() error
	WriteLine(text string, confidential bool) error
	ReadLine() (string, error)
}

// Consumer is a downstream thing that receives routed events.
type Consumer interface {
	Identity() types.Identity
	// Ready reports whether the consumer is initialised and online.
	Ready() bool
	HandleMessage(msg dsc.Message)
}

// PanelMessageSink is implemented by the panel consumer to receive the
// description of every decoded line.
type PanelMessageSink interface {
	PanelMessage(description string)
}

type ConsumerRegistry interface {
	Find(id types.Identity) (Consumer, bool)
	Consumers() []Consumer
}

// DiscoveryHook is told about events for things that have no consumer yet.
type DiscoveryHook interface {
	Discovered(id types.Identity, msg dsc.Message)
}

// StatusListener is notified whenever the session changes state.
type StatusListener interface {
	BridgeStatusChanged(state State, reason string)
}
