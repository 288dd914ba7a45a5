package things

import (
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type PanelState struct {
	Name      string          `json:"name"`
	Message   string          `json:"message,omitempty"`
	LastEvent string          `json:"last_event,omitempty"`
	PanelTime string          `json:"panel_time,omitempty"`
	Installer bool            `json:"installer_mode"`
	Troubles  map[string]bool `json:"troubles"`
	Alarms    map[string]bool `json:"alarms"`
}

type condition struct {
	key    string
	active bool
}

var troubleCodes = map[dsc.Code]condition{
	dsc.PanelBatteryTrouble:             {"battery", true},
	dsc.PanelBatteryTroubleRestore:      {"battery", false},
	dsc.PanelACTrouble:                  {"ac_power", true},
	dsc.PanelACRestore:                  {"ac_power", false},
	dsc.SystemBellTrouble:               {"bell", true},
	dsc.SystemBellTroubleRestore:        {"bell", false},
	dsc.TLMLine1Trouble:                 {"tlm_line_1", true},
	dsc.TLMLine1TroubleRestore:          {"tlm_line_1", false},
	dsc.TLMLine2Trouble:                 {"tlm_line_2", true},
	dsc.TLMLine2TroubleRestore:          {"tlm_line_2", false},
	dsc.FTCTrouble:                      {"ftc", true},
	dsc.GeneralDeviceLowBattery:         {"device_low_battery", true},
	dsc.GeneralDeviceLowBatteryRestore:  {"device_low_battery", false},
	dsc.WirelessKeyLowBattery:           {"wireless_key_low_battery", true},
	dsc.WirelessKeyLowBatteryRestore:    {"wireless_key_low_battery", false},
	dsc.HandheldKeypadLowBattery:        {"keypad_low_battery", true},
	dsc.HandheldKeypadLowBatteryRestore: {"keypad_low_battery", false},
	dsc.GeneralSystemTamper:             {"tamper", true},
	dsc.GeneralSystemTamperRestore:      {"tamper", false},
	dsc.HomeAutomationTrouble:           {"home_automation", true},
	dsc.HomeAutomationTroubleRestore:    {"home_automation", false},
	dsc.TroubleLEDOn:                    {"trouble_led", true},
	dsc.TroubleLEDOff:                   {"trouble_led", false},
	dsc.FireTroubleAlarm:                {"fire", true},
	dsc.FireTroubleAlarmRestore:         {"fire", false},
	dsc.KeybusFault:                     {"keybus", true},
	dsc.KeybusFaultRestore:              {"keybus", false},
}

var alarmCodes = map[dsc.Code]condition{
	dsc.DuressAlarm:            {"duress", true},
	dsc.FireKeyAlarm:           {"fire_key", true},
	dsc.FireKeyRestored:        {"fire_key", false},
	dsc.AuxiliaryKeyAlarm:      {"auxiliary_key", true},
	dsc.AuxiliaryKeyRestored:   {"auxiliary_key", false},
	dsc.PanicKeyAlarm:          {"panic_key", true},
	dsc.PanicKeyRestored:       {"panic_key", false},
	dsc.AuxiliaryInputAlarm:    {"auxiliary_input", true},
	dsc.AuxiliaryInputRestored: {"auxiliary_input", false},
}

// Panel tracks system wide troubles and receives every line description.
type Panel struct {
	base
	message   string
	lastEvent string
	panelTime string
	installer bool
	troubles  map[string]bool
	alarms    map[string]bool
}

func newPanel(r *Registry, name string) *Panel {
	return &Panel{
		base:     base{id: types.PanelIdentity(), name: name, registry: r},
		troubles: map[string]bool{},
		alarms:   map[string]bool{},
	}
}

func (p *Panel) HandleMessage(msg dsc.Message) {
	if msg.Code == dsc.BroadcastLabels {
		p.registry.SetLabel(msg.LabelNumber, msg.Label)
	}

	p.mu.Lock()
	p.lastEvent = msg.Description
	if c, ok := troubleCodes[msg.Code]; ok {
		p.troubles[c.key] = c.active
	}
	if c, ok := alarmCodes[msg.Code]; ok {
		p.alarms[c.key] = c.active
	}
	switch msg.Code {
	case dsc.TimeDateBroadcast:
		if !msg.Timestamp.IsZero() {
			p.panelTime = msg.Timestamp.Format("2006-01-02T15:04")
		}
	case dsc.SystemInInstallerMode:
		p.installer = true
	}
	p.mu.Unlock()

	p.registry.publish(p)
}

func (p *Panel) PanelMessage(description string) {
	p.mu.Lock()
	p.message = description
	p.mu.Unlock()

	p.registry.publishPanelMessage(description)
}

func (p *Panel) SetName(name string) {
	p.setName(name)
	p.registry.publish(p)
}

func (p *Panel) State() interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := PanelState{
		Name:      p.name,
		Message:   p.message,
		LastEvent: p.lastEvent,
		PanelTime: p.panelTime,
		Installer: p.installer,
		Troubles:  make(map[string]bool, len(p.troubles)),
		Alarms:    make(map[string]bool, len(p.alarms)),
	}
	for k, v := range p.troubles {
		state.Troubles[k] = v
	}
	for k, v := range p.alarms {
		state.Alarms[k] = v
	}
	return state
}
