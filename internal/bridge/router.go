package bridge

import (
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// Router hands decoded events to the consumer that owns them.
type Router struct {
	registry  ConsumerRegistry
	discovery DiscoveryHook
	metrics   *Metrics
	log       *log.Logger
}

func NewRouter(registry ConsumerRegistry, discovery DiscoveryHook, metrics *Metrics, logger *log.Logger) *Router {
	return &Router{
		registry:  registry,
		discovery: discovery,
		metrics:   metrics,
		log:       logger,
	}
}

// IdentityFor derives the consumer identity an event belongs to. Command
// responses and unknown codes have none.
func IdentityFor(msg dsc.Message) (types.Identity, bool) {
	switch msg.Category {
	case dsc.PanelEvent:
		return types.PanelIdentity(), true
	case dsc.KeypadEvent:
		return types.KeypadIdentity(), true
	case dsc.PartitionEvent:
		return types.PartitionIdentity(msg.Partition), true
	case dsc.ZoneEvent:
		return types.ZoneIdentity(msg.Partition, msg.Zone), true
	default:
		return types.Identity{}, false
	}
}

// Route forwards msg to its consumer. When no consumer is registered the
// discovery hook is notified instead. The returned bool reports whether an
// existing consumer received the event.
func (r *Router) Route(msg dsc.Message) (types.Identity, bool) {
	id, ok := IdentityFor(msg)
	if !ok {
		r.log.Debug("Not routing %s", msg.Code)
		return id, false
	}
	if !id.Valid() {
		r.log.Warn("Dropping %s: no valid %s in payload %q", msg.Code, id.Kind, msg.Data)
		r.metrics.routed(id.Kind, "invalid")
		return id, false
	}

	if consumer, found := r.registry.Find(id); found {
		r.log.Trace("Routing %s to %s", msg.Code, id)
		consumer.HandleMessage(msg)
		r.metrics.routed(id.Kind, "delivered")
		return id, true
	}

	r.log.Debug("No consumer for %s, notifying discovery", id)
	r.metrics.routed(id.Kind, "discovered")
	if r.discovery != nil {
		r.discovery.Discovered(id, msg)
	}
	return id, false
}

// PanelMessage sends a line description to the panel consumer, if any.
func (r *Router) PanelMessage(description string) {
	consumer, found := r.registry.Find(types.PanelIdentity())
	if !found {
		return
	}
	if sink, ok := consumer.(PanelMessageSink); ok {
		sink.PanelMessage(description)
	}
}
