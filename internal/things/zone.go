package things

import (
	"time"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type ZoneState struct {
	Number      int       `json:"number"`
	Partition   int       `json:"partition,omitempty"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Open        bool      `json:"open"`
	Alarm       bool      `json:"alarm"`
	Tamper      bool      `json:"tamper"`
	Fault       bool      `json:"fault"`
	LastChanged time.Time `json:"last_changed"`
	LastEvent   string    `json:"last_event,omitempty"`
}

type Zone struct {
	base
	deviceClass string
	partition   int
	status      types.ZoneState
	alarm       bool
	tamper      bool
	fault       bool
	lastChanged time.Time
	lastEvent   string
}

func newZone(r *Registry, id types.Identity, name string) *Zone {
	return &Zone{
		base:      base{id: id, name: name, registry: r},
		partition: id.Partition,
	}
}

// DeviceClass is the configured Home Assistant device class, if any.
func (z *Zone) DeviceClass() string {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.deviceClass
}

func (z *Zone) setDeviceClass(class string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.deviceClass = class
}

func (z *Zone) HandleMessage(msg dsc.Message) {
	z.mu.Lock()
	z.lastEvent = msg.Description
	if msg.Partition > 0 {
		z.partition = msg.Partition
	}

	switch msg.Code {
	case dsc.ZoneOpen:
		z.setStatus(types.ZoneStateOpen)
	case dsc.ZoneRestored:
		z.setStatus(types.ZoneStateClosed)
	case dsc.ZoneAlarm:
		z.alarm = true
	case dsc.ZoneAlarmRestore:
		z.alarm = false
	case dsc.ZoneTamper:
		z.tamper = true
	case dsc.ZoneTamperRestore:
		z.tamper = false
	case dsc.ZoneFault:
		z.fault = true
	case dsc.ZoneFaultRestore:
		z.fault = false
	}
	z.mu.Unlock()

	z.registry.publish(z)
}

func (z *Zone) setStatus(s types.ZoneState) {
	if z.status != s {
		z.status = s
		z.lastChanged = z.registry.now()
	}
}

func (z *Zone) SetName(name string) {
	z.setName(name)
	z.registry.publish(z)
}

func (z *Zone) State() interface{} {
	z.mu.Lock()
	defer z.mu.Unlock()

	return ZoneState{
		Number:      z.id.Zone,
		Partition:   z.partition,
		Name:        z.name,
		Status:      z.status.String(),
		Open:        z.status == types.ZoneStateOpen,
		Alarm:       z.alarm,
		Tamper:      z.tamper,
		Fault:       z.fault,
		LastChanged: z.lastChanged,
		LastEvent:   z.lastEvent,
	}
}
