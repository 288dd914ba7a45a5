package things

import (
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// Discovery creates things for events nobody has claimed yet.
type Discovery struct {
	registry  *Registry
	announcer Announcer
	store     Store
	log       *log.Logger
}

// NewDiscovery returns a discovery hook. announcer and store may be nil.
func NewDiscovery(registry *Registry, announcer Announcer, store Store, logger *log.Logger) *Discovery {
	return &Discovery{
		registry:  registry,
		announcer: announcer,
		store:     store,
		log:       logger,
	}
}

func (d *Discovery) Discovered(id types.Identity, msg dsc.Message) {
	thing, created := d.registry.Add(id)
	if created {
		d.log.Info("Discovered %s", id)
		if d.announcer != nil {
			d.announcer.Announce(thing)
		}
		d.Persist()
	}
	thing.HandleMessage(msg)
}

// AnnounceAll re-advertises every known thing.
func (d *Discovery) AnnounceAll() {
	if d.announcer == nil {
		return
	}
	for _, thing := range d.registry.Things() {
		d.announcer.Announce(thing)
	}
}

// Persist saves the registry to the store, if there is one.
func (d *Discovery) Persist() {
	if d.store == nil {
		return
	}
	if err := d.store.Save(d.registry.CacheData()); err != nil {
		d.log.Error("Failed to save cache: %v", err)
	}
}
