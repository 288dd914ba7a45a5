package things

import (
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type PartitionState struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	AlarmState string `json:"alarm_state"`
	ArmMode    string `json:"arm_mode,omitempty"`
	Ready      bool   `json:"ready"`
	Alarm      bool   `json:"alarm"`
	Chime      bool   `json:"chime"`
	LastUser   string `json:"last_user,omitempty"`
	LastEvent  string `json:"last_event,omitempty"`
}

type Partition struct {
	base
	status    types.PartitionState
	mode      dsc.ArmMode
	ready     bool
	alarm     bool
	chime     bool
	lastUser  string
	lastEvent string
}

func newPartition(r *Registry, id types.Identity, name string) *Partition {
	return &Partition{
		base: base{id: id, name: name, registry: r},
		mode: dsc.ArmModeNone,
	}
}

func (p *Partition) HandleMessage(msg dsc.Message) {
	p.mu.Lock()
	p.lastEvent = msg.Description

	switch msg.Code {
	case dsc.PartitionReady, dsc.PartitionReadyForceArm:
		p.status = types.PartitionStateReady
		p.ready = true
	case dsc.PartitionNotReady:
		p.status = types.PartitionStateNotReady
		p.ready = false
	case dsc.PartitionArmed:
		p.mode = msg.Mode
		p.ready = false
		switch msg.Mode {
		case dsc.ArmModeStay, dsc.ArmModeZeroEntryStay:
			p.status = types.PartitionStateArmedStay
		default:
			p.status = types.PartitionStateArmedAway
		}
	case dsc.PartitionInAlarm:
		p.status = types.PartitionStateInAlarm
		p.alarm = true
	case dsc.PartitionDisarmed:
		p.status = types.PartitionStateDisarmed
		p.mode = dsc.ArmModeNone
		p.alarm = false
	case dsc.ExitDelayInProgress:
		p.status = types.PartitionStateExitDelay
	case dsc.EntryDelayInProgress:
		p.status = types.PartitionStateEntryDelay
	case dsc.PartitionBusy:
		p.status = types.PartitionStateBusy
	case dsc.ChimeEnabled:
		p.chime = true
	case dsc.ChimeDisabled:
		p.chime = false
	case dsc.UserClosing, dsc.UserOpening:
		p.lastUser = msg.User
	}
	p.mu.Unlock()

	p.registry.publish(p)
}

func (p *Partition) SetName(name string) {
	p.setName(name)
	p.registry.publish(p)
}

func (p *Partition) State() interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := PartitionState{
		Number:     p.id.Partition,
		Name:       p.name,
		Status:     p.status.String(),
		AlarmState: alarmState(p.status),
		Ready:      p.ready,
		Alarm:      p.alarm,
		Chime:      p.chime,
		LastUser:   p.lastUser,
		LastEvent:  p.lastEvent,
	}
	if p.mode != dsc.ArmModeNone {
		state.ArmMode = p.mode.String()
	}
	return state
}

// alarmState maps a partition state onto the alarm panel vocabulary used by
// Home Assistant.
func alarmState(s types.PartitionState) string {
	switch s {
	case types.PartitionStateArmedAway:
		return "armed_away"
	case types.PartitionStateArmedStay:
		return "armed_home"
	case types.PartitionStateExitDelay:
		return "arming"
	case types.PartitionStateEntryDelay:
		return "pending"
	case types.PartitionStateInAlarm:
		return "triggered"
	default:
		return "disarmed"
	}
}
