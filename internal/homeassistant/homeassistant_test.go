package homeassistant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/dsc2mqtt/internal/config"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/mqtt"
	"github.com/daemonp/dsc2mqtt/internal/things"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type fakeMQTT struct {
	topics    *mqtt.Topics
	published map[string]map[string]interface{}
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{
		topics:    mqtt.NewTopics("dsc2mqtt"),
		published: map[string]map[string]interface{}{},
	}
}

func (f *fakeMQTT) GetPrefix() string    { return "dsc2mqtt" }
func (f *fakeMQTT) Topics() *mqtt.Topics { return f.topics }
func (f *fakeMQTT) Publish(topic string, payload interface{}, retain bool) {
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload.([]byte), &decoded); err == nil {
		f.published[topic] = decoded
	}
}

func setup(discovery bool) (*HomeAssistant, *fakeMQTT, *things.Registry) {
	client := newFakeMQTT()
	ha := New(&config.HomeAssistantConfig{Discovery: discovery, Prefix: "homeassistant"}, client, log.Nop())
	return ha, client, things.NewRegistry(nil, log.Nop())
}

func TestAnnouncePartition(t *testing.T) {
	ha, client, registry := setup(true)
	thing := registry.Configure(types.PartitionIdentity(1), "House", "")

	ha.Announce(thing)

	cfg, ok := client.published["homeassistant/alarm_control_panel/dsc2mqtt/partition_1/config"]
	require.True(t, ok)
	assert.Equal(t, "House", cfg["name"])
	assert.Equal(t, "dsc2mqtt_partition_1", cfg["unique_id"])
	assert.Equal(t, "dsc2mqtt/partition/1", cfg["state_topic"])
	assert.Equal(t, "dsc2mqtt/partition/1/command", cfg["command_topic"])
	assert.Equal(t, "arm_stay", cfg["payload_arm_home"])
	assert.Equal(t, "dsc2mqtt/status", cfg["availability_topic"])
}

func TestAnnounceZone(t *testing.T) {
	ha, client, registry := setup(true)
	guessed := registry.Configure(types.ZoneIdentity(1, 3), "Kitchen Window", "")
	configured := registry.Configure(types.ZoneIdentity(1, 4), "Kitchen Window 2", "vibration")

	ha.Announce(guessed)
	ha.Announce(configured)

	cfg := client.published["homeassistant/binary_sensor/dsc2mqtt/zone_3/config"]
	require.NotNil(t, cfg)
	assert.Equal(t, "window", cfg["device_class"])
	assert.Equal(t, "dsc2mqtt/zone/3", cfg["state_topic"])

	cfg = client.published["homeassistant/binary_sensor/dsc2mqtt/zone_4/config"]
	require.NotNil(t, cfg)
	assert.Equal(t, "vibration", cfg["device_class"])
}

func TestAnnouncePanelAndKeypad(t *testing.T) {
	ha, client, registry := setup(true)
	panel, _ := registry.Add(types.PanelIdentity())
	keypad, _ := registry.Add(types.KeypadIdentity())

	ha.Announce(panel)
	ha.Announce(keypad)

	assert.Contains(t, client.published, "homeassistant/sensor/dsc2mqtt/panel/config")
	assert.Contains(t, client.published, "homeassistant/sensor/dsc2mqtt/keypad/config")

	bridge := client.published["homeassistant/binary_sensor/dsc2mqtt/bridge/config"]
	require.NotNil(t, bridge)
	assert.Equal(t, "connectivity", bridge["device_class"])
	assert.Equal(t, "dsc2mqtt/bridge/state", bridge["state_topic"])
}

func TestAnnounceDisabled(t *testing.T) {
	ha, client, registry := setup(false)
	thing, _ := registry.Add(types.PartitionIdentity(1))

	ha.Announce(thing)
	assert.Empty(t, client.published)
}

func TestGetDeviceClass(t *testing.T) {
	tests := map[string]string{
		"Hall PIR":       "motion",
		"Front Door":     "door",
		"Bedroom Window": "window",
		"Smoke Detector": "smoke",
		"Basement Flood": "moisture",
		"Lounge Glass":   "vibration",
		"Zone 12":        "motion",
	}
	for name, want := range tests {
		assert.Equal(t, want, getDeviceClass(name, ""), name)
	}
	assert.Equal(t, "garage_door", getDeviceClass("Front Door", "garage_door"))
}
