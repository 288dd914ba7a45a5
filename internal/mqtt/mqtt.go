package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/daemonp/dsc2mqtt/internal/config"
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/types"
	"github.com/daemonp/dsc2mqtt/internal/util"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"

	publishQueueSize = 1024
)

// Commander is the bridge session as seen from MQTT command topics.
type Commander interface {
	SendCommand(code dsc.Code, args ...string) error
	Reset(ctx context.Context, on bool) error
	SyncTime() error
	Dialect() dsc.Dialect
}

type MQTT struct {
	config    *config.MQTTConfig
	commander Commander
	log       *log.Logger
	client    mqtt.Client
	topics    *Topics

	mu        sync.Mutex
	onConnect []func()

	// Publishes are queued so callers holding the bridge lock never
	// wait on the broker.
	queue chan outbound
	stop  chan struct{}
	done  chan struct{}
}

type outbound struct {
	topic   string
	message interface{}
	retain  bool
}

func NewMQTT(cfg *config.MQTTConfig, commander Commander, logger *log.Logger) *MQTT {
	return &MQTT{
		config:    cfg,
		commander: commander,
		log:       logger,
		topics:    NewTopics(cfg.Prefix),
		queue:     make(chan outbound, publishQueueSize),
	}
}

// OnConnect registers fn to run after every (re)connect to the broker.
func (m *MQTT) OnConnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = append(m.onConnect, fn)
}

func (m *MQTT) clientID() string {
	if m.config.ClientID != "" {
		return m.config.ClientID
	}
	return fmt.Sprintf("%s-%s", m.config.Prefix, uuid.NewString()[:8])
}

func (m *MQTT) Connect() error {
	opts, err := m.clientOptions()
	if err != nil {
		return err
	}

	m.startQueue()
	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s", opts.Servers[0])
	return nil
}

func (m *MQTT) clientOptions() (*mqtt.ClientOptions, error) {
	host, port, err := ParseBroker(m.config.Host, m.config.Port)
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(m.clientID())
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetKeepAlive(time.Duration(m.config.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	// Command handlers take the bridge lock; each runs on its own goroutine
	// so a waiting handler cannot stall acknowledgements.
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(m.handleConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), true)
	return opts, nil
}

func (m *MQTT) handleConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.publishNow(m.topics.Status(), onlinePayload, true)
	m.subscribeTopics()

	m.mu.Lock()
	hooks := append([]func(){}, m.onConnect...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) subscribeTopics() {
	topics := []string{
		m.topics.PartitionCommands(),
		m.topics.KeypadCommand(),
		m.topics.BridgeCommand(),
		m.topics.BridgeReset(),
		m.topics.BridgeDateTime(),
	}

	for _, topic := range topics {
		token := m.client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
		if token.Wait() && token.Error() != nil {
			m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
		} else {
			m.log.Debug("Subscribed to topic: %s", topic)
		}
	}
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := strings.TrimSpace(string(msg.Payload()))

	m.log.Debug("Received message on topic %s", topic)

	var err error
	switch topic {
	case m.topics.KeypadCommand():
		err = m.handleKeypadCommand(payload)
	case m.topics.BridgeCommand():
		err = m.handleBridgeCommand(payload)
	case m.topics.BridgeReset():
		err = m.handleReset(payload)
	case m.topics.BridgeDateTime():
		err = m.commander.SyncTime()
	default:
		partition, ok := m.topics.ParsePartitionCommand(topic)
		if !ok {
			m.log.Warning("Received message on unknown topic: %s", topic)
			return
		}
		err = m.handlePartitionCommand(partition, payload)
	}

	if err != nil {
		m.log.Error("Command on %s failed: %v", topic, err)
	}
}

var partitionCommands = map[string]dsc.Code{
	"arm_away":             dsc.PartitionArmAway,
	"arm_stay":             dsc.PartitionArmStay,
	"arm_home":             dsc.PartitionArmStay,
	"arm_zero_entry_delay": dsc.PartitionArmZeroEntryDelay,
	"arm_night":            dsc.PartitionArmZeroEntryDelay,
	"arm_code":             dsc.PartitionArmWithUserCode,
	"disarm":               dsc.PartitionDisarm,
}

func (m *MQTT) handlePartitionCommand(partition int, command string) error {
	code, ok := partitionCommands[strings.ToLower(command)]
	if !ok {
		return fmt.Errorf("unknown partition command %q", command)
	}
	return m.commander.SendCommand(code, fmt.Sprint(partition))
}

// handleKeypadCommand sends keys as a single sequence where the dialect
// allows it and one keystroke at a time otherwise.
func (m *MQTT) handleKeypadCommand(keys string) error {
	if keys == "" {
		return fmt.Errorf("empty keypad command")
	}
	if len(keys) == 1 {
		return m.commander.SendCommand(dsc.KeyStroke, keys)
	}
	if m.commander.Dialect() == dsc.EnvisalinkTPI && len(keys) <= 6 {
		return m.commander.SendCommand(dsc.KeySequence, keys)
	}
	for _, key := range keys {
		if err := m.commander.SendCommand(dsc.KeyStroke, string(key)); err != nil {
			return err
		}
	}
	return nil
}

// handleBridgeCommand takes a raw "CCC[,arg...]" command.
func (m *MQTT) handleBridgeCommand(payload string) error {
	fields := util.Split(payload)
	if len(fields) == 0 || fields[0] == "" {
		return fmt.Errorf("empty bridge command")
	}
	return m.commander.SendCommand(dsc.Code(fields[0]), fields[1:]...)
}

func (m *MQTT) handleReset(payload string) error {
	switch strings.ToUpper(payload) {
	case "ON":
		return m.commander.Reset(context.Background(), true)
	case "OFF":
		return m.commander.Reset(context.Background(), false)
	default:
		return fmt.Errorf("reset expects ON or OFF, got %q", payload)
	}
}

func (m *MQTT) PublishState(id types.Identity, state interface{}) {
	m.Publish(m.topics.State(id), state, true)
}

func (m *MQTT) PublishPanelMessage(message string) {
	m.Publish(m.topics.PanelMessage(), message, false)
}

func (m *MQTT) PublishBridgeState(state string, reason string) {
	m.Publish(m.topics.BridgeState(), map[string]string{
		"state":  state,
		"reason": reason,
	}, true)
}

// enqueue never blocks. When the queue is full the update is dropped; the
// next state change for the same thing supersedes it anyway.
func (m *MQTT) enqueue(topic string, message interface{}, retain bool) {
	select {
	case m.queue <- outbound{topic: topic, message: message, retain: retain}:
	default:
		m.log.Warn("Publish queue full, dropping message for %s", topic)
	}
}

func (m *MQTT) startQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.drain(m.stop, m.done)
}

// stopQueue publishes whatever is still queued and stops the drain goroutine.
func (m *MQTT) stopQueue() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *MQTT) drain(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case out := <-m.queue:
			m.publishNow(out.topic, out.message, out.retain)
		case <-stop:
			for {
				select {
				case out := <-m.queue:
					m.publishNow(out.topic, out.message, out.retain)
				default:
					return
				}
			}
		}
	}
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

// Publish queues a message for the broker. It never blocks.
func (m *MQTT) Publish(topic string, message interface{}, retain bool) {
	m.enqueue(topic, message, retain)
}

// publishNow sends strings as they are and everything else as JSON, and
// waits for the broker to take the message.
func (m *MQTT) publishNow(topic string, message interface{}, retain bool) {
	if m.client == nil || !m.client.IsConnected() {
		m.log.Trace("Not connected, dropping message for %s", topic)
		return
	}

	var payload []byte
	switch v := message.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		var err error
		payload, err = json.Marshal(message)
		if err != nil {
			m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
			return
		}
	}

	token := m.client.Publish(topic, byte(m.config.QOS), retain || m.config.Retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

func (m *MQTT) Close() {
	m.stopQueue()
	if m.client != nil && m.client.IsConnected() {
		m.publishNow(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}
