// Package things holds the per-entity consumers events are routed to, the
// registry that indexes them and the discovery hook that creates them.
package things

import (
	"sync"

	"github.com/daemonp/dsc2mqtt/internal/bridge"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// Publisher pushes thing state out of the process, normally over MQTT.
type Publisher interface {
	PublishState(id types.Identity, state interface{})
	PublishPanelMessage(message string)
	PublishBridgeState(state string, reason string)
}

// Announcer advertises a thing to a home automation controller.
type Announcer interface {
	Announce(thing Thing)
}

// Store persists discovered things between runs.
type Store interface {
	Save(data *types.CacheData) error
}

type Thing interface {
	bridge.Consumer
	Name() string
	SetName(name string)
	// State returns a JSON friendly snapshot.
	State() interface{}
}

type base struct {
	mu       sync.Mutex
	id       types.Identity
	name     string
	registry *Registry
}

func (b *base) Identity() types.Identity {
	return b.id
}

func (b *base) Ready() bool {
	return b.registry.Online()
}

func (b *base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

func (b *base) setName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}
