package types

import (
	"fmt"
	"time"
)

// Kind is the class of downstream thing an event is routed to.
type Kind int

const (
	KindPanel Kind = iota
	KindPartition
	KindZone
	KindKeypad
)

func (k Kind) String() string {
	switch k {
	case KindPanel:
		return "panel"
	case KindPartition:
		return "partition"
	case KindZone:
		return "zone"
	case KindKeypad:
		return "keypad"
	default:
		return fmt.Sprintf("Unknown Kind(%d)", k)
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "panel":
		return KindPanel, nil
	case "partition":
		return KindPartition, nil
	case "zone":
		return KindZone, nil
	case "keypad":
		return KindKeypad, nil
	default:
		return 0, fmt.Errorf("unknown thing kind %q", s)
	}
}

// Identity keys a thing in the registry. Panel and keypad are singletons,
// partitions are keyed by partition number and zones by zone number.
type Identity struct {
	Kind      Kind `json:"kind"`
	Partition int  `json:"partition,omitempty"`
	Zone      int  `json:"zone,omitempty"`
}

func PanelIdentity() Identity {
	return Identity{Kind: KindPanel}
}

func KeypadIdentity() Identity {
	return Identity{Kind: KindKeypad}
}

func PartitionIdentity(partition int) Identity {
	return Identity{Kind: KindPartition, Partition: partition}
}

func ZoneIdentity(partition, zone int) Identity {
	return Identity{Kind: KindZone, Partition: partition, Zone: zone}
}

// Valid reports whether the identity carries the numbers its kind needs.
func (i Identity) Valid() bool {
	switch i.Kind {
	case KindPanel, KindKeypad:
		return true
	case KindPartition:
		return i.Partition >= 1 && i.Partition <= 8
	case KindZone:
		return i.Zone >= 1
	default:
		return false
	}
}

// Key is the registry key for the identity. Zone numbers are unique per
// install so the partition is not part of a zone key.
func (i Identity) Key() string {
	switch i.Kind {
	case KindPartition:
		return fmt.Sprintf("partition-%d", i.Partition)
	case KindZone:
		return fmt.Sprintf("zone-%d", i.Zone)
	default:
		return i.Kind.String()
	}
}

func (i Identity) String() string {
	switch i.Kind {
	case KindPartition:
		return fmt.Sprintf("Partition %d", i.Partition)
	case KindZone:
		if i.Partition > 0 {
			return fmt.Sprintf("Zone %d (Partition %d)", i.Zone, i.Partition)
		}
		return fmt.Sprintf("Zone %d", i.Zone)
	case KindPanel:
		return "Panel"
	case KindKeypad:
		return "Keypad"
	default:
		return i.Kind.String()
	}
}

type PartitionState int

const (
	PartitionStateUnknown PartitionState = iota
	PartitionStateReady
	PartitionStateNotReady
	PartitionStateArmedAway
	PartitionStateArmedStay
	PartitionStateExitDelay
	PartitionStateEntryDelay
	PartitionStateInAlarm
	PartitionStateDisarmed
	PartitionStateBusy
)

func (p PartitionState) String() string {
	switch p {
	case PartitionStateReady:
		return "Ready"
	case PartitionStateNotReady:
		return "Not Ready"
	case PartitionStateArmedAway:
		return "Armed Away"
	case PartitionStateArmedStay:
		return "Armed Stay"
	case PartitionStateExitDelay:
		return "Exit Delay"
	case PartitionStateEntryDelay:
		return "Entry Delay"
	case PartitionStateInAlarm:
		return "In Alarm"
	case PartitionStateDisarmed:
		return "Disarmed"
	case PartitionStateBusy:
		return "Busy"
	default:
		return "Unknown"
	}
}

type ZoneState int

const (
	ZoneStateUnknown ZoneState = iota
	ZoneStateClosed
	ZoneStateOpen
)

func (z ZoneState) String() string {
	switch z {
	case ZoneStateClosed:
		return "Closed"
	case ZoneStateOpen:
		return "Open"
	default:
		return "Unknown"
	}
}

// CachedThing is a thing persisted between runs.
type CachedThing struct {
	Identity Identity `json:"identity"`
	Name     string   `json:"name"`
}

type CacheData struct {
	Things     []CachedThing  `json:"things"`
	Labels     map[int]string `json:"labels,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
}
