package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
)

var (
	ErrNotConnected = errors.New("not connected to panel")
	ErrTransport    = errors.New("transport error")
)

// ConfigurationError keeps the session offline until the configuration is fixed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

type State string

const (
	StateOffline    State = "offline"
	StateConnecting State = "connecting"
	StateOnline     State = "online"
)

const (
	eventConnect = "connect"
	eventLogin   = "login"
	eventDrop    = "drop"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultLoginTimeout   = 30 * time.Second

	minPollPeriod = 1
	maxPollPeriod = 15
)

type Options struct {
	Dialect     dsc.Dialect
	Credentials dsc.Credentials

	// PollPeriod is the number of minutes between Poll commands, clamped to 1-15.
	PollPeriod     int
	PollInterval   time.Duration
	ConnectTimeout time.Duration
	LoginTimeout   time.Duration

	// SuppressAcknowledgements keeps 500 and 550 lines off the panel message channel.
	SuppressAcknowledgements bool

	Listener StatusListener
	Metrics  *Metrics
	Logger   *log.Logger

	Now   func() time.Time
	Sleep func(time.Duration)
}

// ClampPollPeriod forces a poll period in minutes into the range the panel accepts.
func ClampPollPeriod(minutes int) int {
	if minutes < minPollPeriod {
		return minPollPeriod
	}
	if minutes > maxPollPeriod {
		return maxPollPeriod
	}
	return minutes
}

// Snapshot is a point in time view of the session.
type Snapshot struct {
	State     State     `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	Dialect   string    `json:"dialect"`
	Connected bool      `json:"connected"`
	Consumers int       `json:"consumers"`
	LastPoll  time.Time `json:"last_poll"`
}

// Session owns the connection to one panel. Every state change, read and
// write is serialised on mu.
type Session struct {
	mu       sync.Mutex
	opts     Options
	port     ConnectionPort
	registry ConsumerRegistry
	router   *Router
	machine  *fsm.FSM
	log      *log.Logger
	metrics  *Metrics

	configErr     error
	loginRejected bool
	held          bool
	reason        string

	connected   bool
	generation  int
	connectedAt time.Time
	lastPoll    time.Time

	consumerCount    int
	consumersChanged bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(port ConnectionPort, registry ConsumerRegistry, discovery DiscoveryHook, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	opts.PollPeriod = ClampPollPeriod(opts.PollPeriod)

	s := &Session{
		opts:     opts,
		port:     port,
		registry: registry,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
	s.router = NewRouter(registry, discovery, opts.Metrics, opts.Logger)
	s.configErr = opts.validate(port)
	if s.configErr != nil {
		s.reason = s.configErr.Error()
	}

	s.machine = fsm.NewFSM(
		string(StateOffline),
		fsm.Events{
			{Name: eventConnect, Src: []string{string(StateOffline)}, Dst: string(StateConnecting)},
			{Name: eventLogin, Src: []string{string(StateConnecting)}, Dst: string(StateOnline)},
			{Name: eventDrop, Src: []string{string(StateConnecting), string(StateOnline)}, Dst: string(StateOffline)},
		},
		fsm.Callbacks{
			"enter_state": s.enterState,
		},
	)
	return s
}

func (o Options) validate(port ConnectionPort) error {
	if port == nil {
		return &ConfigurationError{Reason: "no connection port configured"}
	}
	if o.Dialect == dsc.EnvisalinkTPI && o.Credentials.Password == "" {
		return &ConfigurationError{Reason: "envisalink requires a password"}
	}
	return nil
}

// Start connects to the panel and runs the poll loop until Close is called
// or ctx is cancelled.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	if s.configErr != nil {
		s.log.Error("Bridge will stay offline: %v", s.configErr)
		s.notify(StateOffline, s.reason)
	} else {
		_ = s.connectLocked(ctx)
	}
	s.mu.Unlock()

	go s.pollLoop(ctx, s.done)
}

// Run starts the session and blocks until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Close()
	return nil
}

// Close stops the poll loop, then closes the port.
func (s *Session) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = true
	reason := "shutdown"
	if s.configErr != nil {
		reason = s.configErr.Error()
	}
	s.disconnectLocked(reason)
}

func (s *Session) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Session) poll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		if s.held || s.loginRejected || s.configErr != nil {
			return
		}
		if err := s.connectLocked(ctx); err != nil {
			return
		}
	}

	if n := len(s.registry.Consumers()); n != s.consumerCount {
		s.log.Debug("Consumer count changed from %d to %d", s.consumerCount, n)
		s.consumerCount = n
		s.consumersChanged = true
	}

	now := s.opts.Now()
	if s.state() == StateConnecting && now.Sub(s.connectedAt) > s.opts.LoginTimeout {
		s.log.Warn("Panel did not complete login within %s", s.opts.LoginTimeout)
		s.disconnectLocked("login timed out")
		return
	}
	if s.state() != StateOnline {
		return
	}

	if int(now.Sub(s.lastPoll)/time.Minute) >= s.opts.PollPeriod {
		if err := s.sendLocked(dsc.Command{Code: dsc.Poll}); err != nil {
			return
		}
		s.lastPoll = now
	}

	if s.consumersChanged && s.consumersReady() {
		s.log.Debug("Consumers changed, requesting status report")
		if err := s.sendLocked(dsc.Command{Code: dsc.StatusReport}); err == nil {
			s.consumersChanged = false
		}
	}
}

func (s *Session) consumersReady() bool {
	for _, c := range s.registry.Consumers() {
		if !c.Ready() {
			return false
		}
	}
	return true
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if s.configErr != nil {
		return s.configErr
	}

	s.reason = ""
	s.transition(ctx, eventConnect)
	s.log.Info("Connecting to panel (%s)", s.opts.Dialect)

	openCtx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	err := s.port.Open(openCtx)
	s.metrics.connect(err)
	if err != nil {
		s.log.Error("Failed to connect to panel: %v", err)
		s.reason = err.Error()
		s.transition(ctx, eventDrop)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	s.connected = true
	s.generation++
	s.connectedAt = s.opts.Now()
	s.lastPoll = s.connectedAt
	go s.readLoop(s.generation)

	if s.opts.Dialect == dsc.IT100API {
		s.transition(ctx, eventLogin)
	} else {
		s.log.Debug("Waiting for login request from panel")
	}
	return nil
}

func (s *Session) disconnectLocked(reason string) {
	if s.connected {
		if err := s.port.Close(); err != nil {
			s.log.Debug("Error closing port: %v", err)
		}
		s.connected = false
	}
	s.reason = reason
	if !s.transition(context.Background(), eventDrop) {
		s.notify(s.state(), reason)
	}
}

func (s *Session) readLoop(gen int) {
	for {
		line, err := s.port.ReadLine()
		if err != nil {
			s.readFailed(gen, err)
			return
		}
		if !s.handleIncoming(gen, line) {
			return
		}
	}
}

func (s *Session) readFailed(gen int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.connected {
		return
	}
	s.log.Error("Lost connection to panel: %v", err)
	s.disconnectLocked(fmt.Sprintf("read failed: %v", err))
}

// handleIncoming processes one line. It returns false when the line came from
// a connection that has since been replaced.
func (s *Session) handleIncoming(gen int, line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.connected {
		return false
	}

	msg, err := dsc.Decode(line)
	if err != nil {
		s.metrics.received("malformed")
		s.log.Warn("Discarding line from panel: %v", err)
		return true
	}
	if msg.ChecksumOK {
		s.metrics.received("ok")
	} else {
		s.metrics.received("checksum")
		s.log.Debug("Checksum mismatch on %q", line)
	}

	suppressed := s.opts.SuppressAcknowledgements &&
		(msg.Code == dsc.CommandAcknowledge || msg.Code == dsc.TimeDateBroadcast)
	if !suppressed {
		s.log.Panel("%s", msg.Description)
		s.router.PanelMessage(msg.Description)
	}

	switch msg.Code {
	case dsc.LoginResponse:
		s.handleLogin(msg)
	case dsc.CommandAcknowledge:
		if msg.AcknowledgedCode() == dsc.Poll && s.state() == StateOnline {
			s.notify(StateOnline, "")
		}
	case dsc.CommandError, dsc.SystemError:
		s.log.Warn("Panel reported %s", msg.Description)
	default:
		s.router.Route(msg)
	}
	return true
}

func (s *Session) handleLogin(msg dsc.Message) {
	switch msg.Data {
	case "3":
		cmd, err := dsc.NetworkLogin.Validate(s.opts.Dialect, s.opts.Credentials)
		if err != nil {
			s.configErr = &ConfigurationError{Reason: "panel requested a password but none is configured"}
			s.disconnectLocked(s.configErr.Error())
			return
		}
		s.log.Info("Panel requested login, sending password")
		_ = s.sendLocked(cmd)
	case "1":
		s.log.Info("Logged in to panel")
		s.reason = ""
		s.transition(context.Background(), eventLogin)
	case "0":
		s.log.Error("Login failed: password rejected by panel")
		s.loginRejected = true
		s.disconnectLocked("password rejected by panel")
	case "2":
		s.log.Warn("Login request timed out")
	default:
		s.log.Warn("Unexpected login response %q", msg.Data)
	}
}

// SendCommand validates code and args for the configured dialect and writes
// the command to the panel. Nothing is written when validation fails.
func (s *Session) SendCommand(code dsc.Code, args ...string) error {
	cmd, err := code.Validate(s.opts.Dialect, s.opts.Credentials, args...)
	if err != nil {
		s.metrics.commandError("invalid")
		s.log.Warn("Rejected command: %v", err)
		return err
	}
	return s.Send(cmd)
}

// Send writes an already validated command.
func (s *Session) Send(cmd dsc.Command) error {
	if cmd.Delay > 0 {
		if !s.Connected() {
			s.metrics.commandError("not_connected")
			return ErrNotConnected
		}
		s.log.Debug("Holding %s for %s", cmd.Code, cmd.Delay)
		s.opts.Sleep(cmd.Delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(cmd)
}

func (s *Session) sendLocked(cmd dsc.Command) error {
	if !s.connected {
		s.metrics.commandError("not_connected")
		return ErrNotConnected
	}

	s.log.Debug("Sending %s", cmd)
	if err := s.port.WriteLine(cmd.Frame(), cmd.Confidential); err != nil {
		s.metrics.commandError("transport")
		s.log.Error("Failed to send %s: %v", cmd.Code, err)
		s.disconnectLocked(fmt.Sprintf("write failed: %v", err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	s.metrics.sent(cmd.Code)
	return nil
}

// SyncTime sets the panel clock to the current time.
func (s *Session) SyncTime() error {
	return s.SendCommand(dsc.SetTimeDate, dsc.TimeDate(s.opts.Now()))
}

// Reset drives the bridge reset channel. Off disconnects and holds the
// session offline; on releases it and reconnects.
func (s *Session) Reset(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !on {
		s.log.Info("Bridge reset, going offline")
		s.held = true
		s.disconnectLocked("bridge reset")
		return nil
	}

	s.held = false
	s.loginRejected = false
	if s.connected {
		return nil
	}
	return s.connectLocked(ctx)
}

func (s *Session) State() State {
	return State(s.machine.Current())
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) Dialect() dsc.Dialect {
	return s.opts.Dialect
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state(),
		Reason:    s.reason,
		Dialect:   s.opts.Dialect.String(),
		Connected: s.connected,
		Consumers: len(s.registry.Consumers()),
		LastPoll:  s.lastPoll,
	}
}

func (s *Session) state() State {
	return State(s.machine.Current())
}

// transition fires event if the machine allows it and reports whether the
// state changed.
func (s *Session) transition(ctx context.Context, event string) bool {
	if !s.machine.Can(event) {
		return false
	}
	if err := s.machine.Event(ctx, event); err != nil {
		s.log.Debug("State transition %s failed: %v", event, err)
		return false
	}
	return true
}

func (s *Session) enterState(_ context.Context, e *fsm.Event) {
	state := State(e.Dst)
	s.log.Info("Bridge %s -> %s", e.Src, e.Dst)
	s.metrics.state(state)
	if state == StateOnline {
		s.consumersChanged = true
	}
	s.notify(state, s.reason)
}

func (s *Session) notify(state State, reason string) {
	if s.opts.Listener != nil {
		s.opts.Listener.BridgeStatusChanged(state, reason)
	}
}
