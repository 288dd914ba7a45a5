package mqtt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daemonp/dsc2mqtt/internal/types"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) BridgeState() string {
	return fmt.Sprintf("%s/bridge/state", t.prefix)
}

func (t *Topics) BridgeCommand() string {
	return fmt.Sprintf("%s/bridge/command", t.prefix)
}

func (t *Topics) BridgeReset() string {
	return fmt.Sprintf("%s/bridge/reset", t.prefix)
}

func (t *Topics) BridgeDateTime() string {
	return fmt.Sprintf("%s/bridge/datetime", t.prefix)
}

func (t *Topics) Panel() string {
	return fmt.Sprintf("%s/panel", t.prefix)
}

func (t *Topics) PanelMessage() string {
	return fmt.Sprintf("%s/panel/message", t.prefix)
}

func (t *Topics) Keypad() string {
	return fmt.Sprintf("%s/keypad", t.prefix)
}

func (t *Topics) KeypadCommand() string {
	return fmt.Sprintf("%s/keypad/command", t.prefix)
}

func (t *Topics) Partition(number int) string {
	return fmt.Sprintf("%s/partition/%d", t.prefix, number)
}

func (t *Topics) PartitionCommand(number int) string {
	return fmt.Sprintf("%s/partition/%d/command", t.prefix, number)
}

// PartitionCommands is the wildcard subscription for every partition command topic.
func (t *Topics) PartitionCommands() string {
	return fmt.Sprintf("%s/partition/+/command", t.prefix)
}

func (t *Topics) Zone(number int) string {
	return fmt.Sprintf("%s/zone/%d", t.prefix, number)
}

// State returns the state topic for a thing.
func (t *Topics) State(id types.Identity) string {
	switch id.Kind {
	case types.KindPartition:
		return t.Partition(id.Partition)
	case types.KindZone:
		return t.Zone(id.Zone)
	case types.KindKeypad:
		return t.Keypad()
	default:
		return t.Panel()
	}
}

// ParsePartitionCommand extracts the partition number from a partition
// command topic.
func (t *Topics) ParsePartitionCommand(topic string) (int, bool) {
	rest := strings.TrimPrefix(topic, t.prefix+"/partition/")
	if rest == topic || !strings.HasSuffix(rest, "/command") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, "/command"))
	if err != nil || n < 1 || n > 8 {
		return 0, false
	}
	return n, true
}
