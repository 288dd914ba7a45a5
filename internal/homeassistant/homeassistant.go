package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/dsc2mqtt/internal/config"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/mqtt"
	"github.com/daemonp/dsc2mqtt/internal/things"
	"github.com/daemonp/dsc2mqtt/internal/types"
	"github.com/daemonp/dsc2mqtt/internal/util"
)

type HomeAssistant struct {
	config *config.HomeAssistantConfig
	mqtt   mqtt.MQTTClient
	log    *log.Logger
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config: cfg,
		mqtt:   mqttClient,
		log:    logger,
	}
}

// Announce publishes the discovery config for thing.
func (ha *HomeAssistant) Announce(thing things.Thing) {
	if !ha.config.Discovery {
		return
	}

	id := thing.Identity()
	ha.log.Debug("Publishing Home Assistant config for %s", id)

	switch id.Kind {
	case types.KindPartition:
		ha.publishPartitionConfig(thing)
	case types.KindZone:
		ha.publishZoneConfig(thing)
	case types.KindKeypad:
		ha.publishKeypadConfig(thing)
	case types.KindPanel:
		ha.publishPanelConfig(thing)
	}
}

func (ha *HomeAssistant) device() map[string]interface{} {
	return map[string]interface{}{
		"identifiers":  []string{ha.mqtt.GetPrefix()},
		"name":         "DSC Alarm",
		"manufacturer": "DSC",
		"model":        "PowerSeries",
	}
}

func (ha *HomeAssistant) base(thing things.Thing, objectId string) map[string]interface{} {
	return map[string]interface{}{
		"name":               thing.Name(),
		"unique_id":          fmt.Sprintf("%s_%s", util.Slugify(ha.mqtt.GetPrefix()), objectId),
		"availability_topic": ha.mqtt.Topics().Status(),
		"device":             ha.device(),
	}
}

func (ha *HomeAssistant) publishPartitionConfig(thing things.Thing) {
	n := thing.Identity().Partition
	objectId := fmt.Sprintf("partition_%d", n)

	config := ha.base(thing, objectId)
	config["state_topic"] = ha.mqtt.Topics().Partition(n)
	config["command_topic"] = ha.mqtt.Topics().PartitionCommand(n)
	config["value_template"] = "{{ value_json.alarm_state }}"
	config["payload_disarm"] = "disarm"
	config["payload_arm_home"] = "arm_stay"
	config["payload_arm_away"] = "arm_away"
	config["payload_arm_night"] = "arm_zero_entry_delay"
	config["code_arm_required"] = false
	config["code_disarm_required"] = false

	ha.publishConfig("alarm_control_panel", objectId, "", config)
}

func (ha *HomeAssistant) publishZoneConfig(thing things.Thing) {
	n := thing.Identity().Zone
	objectId := fmt.Sprintf("zone_%d", n)

	var configured string
	if zone, ok := thing.(*things.Zone); ok {
		configured = zone.DeviceClass()
	}

	config := ha.base(thing, objectId)
	config["state_topic"] = ha.mqtt.Topics().Zone(n)
	config["value_template"] = "{{ 'ON' if value_json.open else 'OFF' }}"
	config["json_attributes_topic"] = ha.mqtt.Topics().Zone(n)

	ha.publishConfig("binary_sensor", objectId, getDeviceClass(thing.Name(), configured), config)
}

func (ha *HomeAssistant) publishKeypadConfig(thing things.Thing) {
	config := ha.base(thing, "keypad")
	config["state_topic"] = ha.mqtt.Topics().Keypad()
	config["value_template"] = "{{ value_json.last_event }}"
	config["json_attributes_topic"] = ha.mqtt.Topics().Keypad()
	config["icon"] = "mdi:dialpad"

	ha.publishConfig("sensor", "keypad", "", config)
}

func (ha *HomeAssistant) publishPanelConfig(thing things.Thing) {
	config := ha.base(thing, "panel")
	config["state_topic"] = ha.mqtt.Topics().PanelMessage()
	config["json_attributes_topic"] = ha.mqtt.Topics().Panel()
	config["icon"] = "mdi:shield-home"
	ha.publishConfig("sensor", "panel", "", config)

	bridge := ha.base(thing, "bridge")
	bridge["name"] = "Bridge"
	bridge["state_topic"] = ha.mqtt.Topics().BridgeState()
	bridge["value_template"] = "{{ value_json.state }}"
	bridge["payload_on"] = "online"
	bridge["payload_off"] = "offline"
	ha.publishConfig("binary_sensor", "bridge", "connectivity", bridge)
}

func (ha *HomeAssistant) publishConfig(component, objectId, deviceClass string, config map[string]interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, ha.mqtt.GetPrefix(), objectId)

	if deviceClass != "" {
		config["device_class"] = deviceClass
	}

	payload, err := json.Marshal(config)
	if err != nil {
		ha.log.Error("Failed to marshal Home Assistant config: %v", err)
		return
	}

	ha.mqtt.Publish(topic, payload, true)
}
