package things

import (
	"strconv"
	"strings"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// ledNames are the keypad LEDs in bit order for 510/511 and in 1-based order
// for 903.
var ledNames = []string{"ready", "armed", "memory", "bypass", "trouble", "program", "fire", "backlight", "ac"}

type KeypadState struct {
	Name      string          `json:"name"`
	LEDs      map[string]bool `json:"leds"`
	Flashing  map[string]bool `json:"flashing"`
	LCD       []string        `json:"lcd,omitempty"`
	LastEvent string          `json:"last_event,omitempty"`
}

type Keypad struct {
	base
	leds      map[string]bool
	flashing  map[string]bool
	lcd       [2]string
	lastEvent string
}

func newKeypad(r *Registry, name string) *Keypad {
	return &Keypad{
		base:     base{id: types.KeypadIdentity(), name: name, registry: r},
		leds:     map[string]bool{},
		flashing: map[string]bool{},
	}
}

func (k *Keypad) HandleMessage(msg dsc.Message) {
	k.mu.Lock()
	k.lastEvent = msg.Description

	switch msg.Code {
	case dsc.KeypadLEDState:
		setBits(k.leds, msg.Data)
	case dsc.KeypadLEDFlashState:
		setBits(k.flashing, msg.Data)
	case dsc.LEDStatus:
		k.setLED(msg.Data)
	case dsc.LCDUpdate:
		k.setLCD(msg.Data)
	}
	k.mu.Unlock()

	k.registry.publish(k)
}

// setBits decodes a two hex digit LED bitmap.
func setBits(into map[string]bool, data string) {
	if len(data) < 2 {
		return
	}
	bits, err := strconv.ParseUint(data[:2], 16, 8)
	if err != nil {
		return
	}
	for i := 0; i < 8; i++ {
		into[ledNames[i]] = bits&(1<<i) != 0
	}
}

// setLED applies a 903 payload: LED number then 0 off, 1 on, 2 flashing.
func (k *Keypad) setLED(data string) {
	if len(data) < 2 {
		return
	}
	n := int(data[0] - '0')
	if n < 1 || n > len(ledNames) {
		return
	}
	name := ledNames[n-1]
	switch data[1] {
	case '0':
		k.leds[name] = false
		k.flashing[name] = false
	case '1':
		k.leds[name] = true
		k.flashing[name] = false
	case '2':
		k.leds[name] = true
		k.flashing[name] = true
	}
}

// setLCD applies a 901 payload: line, 2 digit column, 2 digit length, text.
func (k *Keypad) setLCD(data string) {
	if len(data) < 5 {
		return
	}
	line := int(data[0] - '0')
	if line < 0 || line > 1 {
		return
	}
	k.lcd[line] = strings.TrimSpace(data[5:])
}

func (k *Keypad) SetName(name string) {
	k.setName(name)
	k.registry.publish(k)
}

func (k *Keypad) State() interface{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	state := KeypadState{
		Name:      k.name,
		LEDs:      make(map[string]bool, len(k.leds)),
		Flashing:  make(map[string]bool, len(k.flashing)),
		LastEvent: k.lastEvent,
	}
	for n, v := range k.leds {
		state.LEDs[n] = v
	}
	for n, v := range k.flashing {
		state.Flashing[n] = v
	}
	if k.lcd[0] != "" || k.lcd[1] != "" {
		state.LCD = []string{k.lcd[0], k.lcd[1]}
	}
	return state
}
