package things

import (
	"sort"
	"sync"
	"time"

	"github.com/daemonp/dsc2mqtt/internal/bridge"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/types"
	"github.com/daemonp/dsc2mqtt/internal/util"
)

// Registry indexes things by identity and tracks whether the bridge they
// hang off is online.
type Registry struct {
	mu         sync.RWMutex
	things     map[string]Thing
	configured map[string]bool
	labels     map[int]string
	online     bool

	publisher Publisher
	log       *log.Logger
	now       func() time.Time
}

func NewRegistry(publisher Publisher, logger *log.Logger) *Registry {
	return &Registry{
		things:     map[string]Thing{},
		configured: map[string]bool{},
		labels:     map[int]string{},
		publisher:  publisher,
		log:        logger,
		now:        time.Now,
	}
}

func (r *Registry) Find(id types.Identity) (bridge.Consumer, bool) {
	thing, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return thing, true
}

func (r *Registry) Get(id types.Identity) (Thing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thing, ok := r.things[id.Key()]
	return thing, ok
}

func (r *Registry) Consumers() []bridge.Consumer {
	things := r.Things()
	out := make([]bridge.Consumer, len(things))
	for i, t := range things {
		out[i] = t
	}
	return out
}

// Things returns every registered thing ordered by key.
func (r *Registry) Things() []Thing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.things))
	for k := range r.things {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Thing, len(keys))
	for i, k := range keys {
		out[i] = r.things[k]
	}
	return out
}

// Add returns the thing for id, creating it when it does not exist yet. The
// second result reports whether it was created.
func (r *Registry) Add(id types.Identity) (Thing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if thing, ok := r.things[id.Key()]; ok {
		return thing, false
	}

	name := id.String()
	if label, ok := r.labels[labelNumber(id)]; ok {
		name = label
	}

	var thing Thing
	switch id.Kind {
	case types.KindPanel:
		thing = newPanel(r, name)
	case types.KindKeypad:
		thing = newKeypad(r, name)
	case types.KindPartition:
		thing = newPartition(r, id, name)
	default:
		thing = newZone(r, id, name)
	}
	r.things[id.Key()] = thing
	r.log.Debug("Registered %s as %q", id, name)
	return thing, true
}

// Configure registers a thing with a name from the config file. Configured
// names are never replaced by panel labels.
func (r *Registry) Configure(id types.Identity, name, deviceClass string) Thing {
	thing, _ := r.Add(id)
	if name != "" {
		r.mu.Lock()
		r.configured[id.Key()] = true
		r.mu.Unlock()
		thing.SetName(name)
	}
	if zone, ok := thing.(*Zone); ok && deviceClass != "" {
		zone.setDeviceClass(deviceClass)
	}
	return thing
}

// SetLabel records a label broadcast by the panel and renames the matching
// thing unless it was named in the config.
func (r *Registry) SetLabel(number int, label string) {
	label = util.Normalize(label)
	if label == "" {
		return
	}

	r.mu.Lock()
	r.labels[number] = label
	id, ok := labelIdentity(number)
	var thing Thing
	if ok && !r.configured[id.Key()] {
		thing = r.things[id.Key()]
	}
	r.mu.Unlock()

	if thing != nil && thing.Name() != label {
		r.log.Debug("Naming %s %q from panel label", id, label)
		thing.SetName(label)
	}
}

func (r *Registry) Labels() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]string, len(r.labels))
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}

func (r *Registry) Online() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online
}

func (r *Registry) BridgeStatusChanged(state bridge.State, reason string) {
	r.mu.Lock()
	r.online = state == bridge.StateOnline
	r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.PublishBridgeState(string(state), reason)
	}
}

// CacheData snapshots the registry for persistence.
func (r *Registry) CacheData() *types.CacheData {
	data := &types.CacheData{
		Labels:     r.Labels(),
		LastUpdate: r.now(),
	}
	for _, t := range r.Things() {
		data.Things = append(data.Things, types.CachedThing{
			Identity: t.Identity(),
			Name:     t.Name(),
		})
	}
	return data
}

// Restore recreates things and labels saved by CacheData.
func (r *Registry) Restore(data *types.CacheData) {
	if data == nil {
		return
	}
	r.mu.Lock()
	for n, label := range data.Labels {
		r.labels[n] = label
	}
	r.mu.Unlock()

	for _, cached := range data.Things {
		if !cached.Identity.Valid() {
			continue
		}
		thing, created := r.Add(cached.Identity)
		if created && cached.Name != "" {
			thing.SetName(cached.Name)
		}
	}
	r.log.Info("Restored %d things from cache", len(data.Things))
}

func (r *Registry) publish(t Thing) {
	if r.publisher != nil {
		r.publisher.PublishState(t.Identity(), t.State())
	}
}

func (r *Registry) publishPanelMessage(message string) {
	if r.publisher != nil {
		r.publisher.PublishPanelMessage(message)
	}
}

// Panel labels 1-64 name zones and 101-108 name partitions.
func labelIdentity(number int) (types.Identity, bool) {
	switch {
	case number >= 1 && number <= 64:
		return types.ZoneIdentity(0, number), true
	case number >= 101 && number <= 108:
		return types.PartitionIdentity(number - 100), true
	default:
		return types.Identity{}, false
	}
}

func labelNumber(id types.Identity) int {
	switch id.Kind {
	case types.KindZone:
		return id.Zone
	case types.KindPartition:
		return id.Partition + 100
	default:
		return 0
	}
}
