package bridge

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type harness struct {
	port      *fakePort
	registry  *fakeRegistry
	discovery *fakeDiscovery
	listener  *fakeListener
	clock     *clock
	slept     []time.Duration
	session   *Session
}

func newHarness(t *testing.T, dialect dsc.Dialect, configure ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		port:      &fakePort{},
		registry:  &fakeRegistry{},
		discovery: &fakeDiscovery{},
		listener:  &fakeListener{},
		clock:     newClock(),
	}
	opts := Options{
		Dialect:     dialect,
		Credentials: dsc.Credentials{Password: "user", UserCode: "1234"},
		PollPeriod:  1,
		Listener:    h.listener,
		Now:         h.clock.Now,
		Sleep:       func(d time.Duration) { h.slept = append(h.slept, d) },
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.session = NewSession(h.port, h.registry, h.discovery, opts)
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	h.session.mu.Lock()
	err := h.session.connectLocked(context.Background())
	h.session.mu.Unlock()
	require.NoError(t, err)
}

func (h *harness) feed(code dsc.Code, data string) bool {
	return h.feedLine(strings.TrimSuffix(dsc.Encode(code, data), "\r\n"))
}

func (h *harness) feedLine(line string) bool {
	h.session.mu.Lock()
	gen := h.session.generation
	h.session.mu.Unlock()
	return h.session.handleIncoming(gen, line)
}

func (h *harness) poll() {
	h.session.poll(context.Background())
}

func TestClampPollPeriod(t *testing.T) {
	tests := []struct {
		in, out int
	}{
		{-5, 1}, {0, 1}, {1, 1}, {7, 7}, {15, 15}, {16, 15}, {99, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, ClampPollPeriod(tt.in), "period %d", tt.in)
	}

	h := newHarness(t, dsc.IT100API, func(o *Options) { o.PollPeriod = 99 })
	assert.Equal(t, 15, h.session.opts.PollPeriod)

	h = newHarness(t, dsc.IT100API, func(o *Options) { o.PollPeriod = 0 })
	assert.Equal(t, 1, h.session.opts.PollPeriod)
}

func TestIT100GoesOnlineOnConnect(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	assert.Equal(t, StateOffline, h.session.State())

	h.connect(t)
	assert.Equal(t, StateOnline, h.session.State())
	assert.Equal(t, statusChange{state: StateOnline}, h.listener.last())
	assert.Empty(t, h.port.sent())
}

func TestEnvisalinkLoginHandshake(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(t, dsc.EnvisalinkTPI, func(o *Options) {
		o.Credentials.Password = "s3cret"
		o.Logger = log.NewWriterLogger(&buf, zerolog.TraceLevel)
	})

	h.connect(t)
	assert.Equal(t, StateConnecting, h.session.State())

	h.feed(dsc.LoginResponse, "3")
	assert.Equal(t, StateConnecting, h.session.State())

	sent := h.port.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, dsc.Encode(dsc.NetworkLogin, "s3cret"), sent[0].text)
	assert.True(t, sent[0].confidential)

	h.feed(dsc.LoginResponse, "1")
	assert.Equal(t, StateOnline, h.session.State())

	assert.NotContains(t, buf.String(), "s3cret")
}

func TestEnvisalinkLoginRejected(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI)
	h.connect(t)

	h.feed(dsc.LoginResponse, "0")
	assert.Equal(t, StateOffline, h.session.State())
	assert.Equal(t, "password rejected by panel", h.session.Snapshot().Reason)

	h.poll()
	assert.Equal(t, 1, h.port.openCount(), "a rejected password must not be retried")
}

func TestEnvisalinkLoginTimeout(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI)
	h.connect(t)

	h.clock.advance(DefaultLoginTimeout + time.Second)
	h.poll()
	assert.Equal(t, StateOffline, h.session.State())
	assert.Equal(t, "login timed out", h.session.Snapshot().Reason)
}

func TestPollCadence(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	h.clock.advance(59 * time.Second)
	h.poll()
	assert.Equal(t, 0, h.port.codes()[dsc.Poll])

	h.clock.advance(time.Second)
	h.poll()
	assert.Equal(t, 1, h.port.codes()[dsc.Poll])

	h.poll()
	assert.Equal(t, 1, h.port.codes()[dsc.Poll])

	h.clock.advance(time.Minute)
	h.poll()
	assert.Equal(t, 2, h.port.codes()[dsc.Poll])
}

func TestStatusReportGating(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	a := &fakeConsumer{id: types.PartitionIdentity(1)}
	b := &fakeConsumer{id: types.ZoneIdentity(1, 1)}
	h.registry.add(a)
	h.registry.add(b)
	h.connect(t)

	h.poll()
	assert.Equal(t, 0, h.port.codes()[dsc.StatusReport], "consumers are not ready yet")

	a.setReady(true)
	h.poll()
	assert.Equal(t, 0, h.port.codes()[dsc.StatusReport])

	b.setReady(true)
	h.poll()
	assert.Equal(t, 1, h.port.codes()[dsc.StatusReport])

	h.poll()
	h.poll()
	assert.Equal(t, 1, h.port.codes()[dsc.StatusReport], "status report is sent once per change")

	h.registry.add(&fakeConsumer{id: types.KeypadIdentity(), ready: true})
	h.poll()
	assert.Equal(t, 2, h.port.codes()[dsc.StatusReport])
}

func TestReconnectAfterReadFailure(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)
	require.Equal(t, 1, h.port.openCount())

	h.port.drop()
	assert.Eventually(t, func() bool {
		return h.session.State() == StateOffline
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.port.openCount())
	assert.Contains(t, h.listener.last().reason, "read failed")

	h.poll()
	assert.Equal(t, 2, h.port.openCount())
	assert.Equal(t, StateOnline, h.session.State())
}

func TestReconnectFailureRetriesOncePerTick(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.port.openErr = errors.New("connection refused")

	h.poll()
	assert.Equal(t, 1, h.port.openCount())
	assert.Equal(t, StateOffline, h.session.State())
	assert.Equal(t, "connection refused", h.session.Snapshot().Reason)

	h.poll()
	assert.Equal(t, 2, h.port.openCount())
	assert.Equal(t, StateOffline, h.session.State())
}

func TestStaleLinesAreIgnored(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	h.session.mu.Lock()
	old := h.session.generation
	h.session.disconnectLocked("test")
	h.session.mu.Unlock()
	h.connect(t)

	assert.False(t, h.session.handleIncoming(old, "60900130"))
	assert.Empty(t, h.discovery.found)
}

func TestUnknownZoneIsDiscovered(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	h.feed(dsc.ZoneOpen, "012")

	require.Len(t, h.discovery.found, 1)
	assert.Equal(t, types.ZoneIdentity(0, 12), h.discovery.found[0].id)
	assert.Equal(t, dsc.ZoneOpen, h.discovery.found[0].msg.Code)
}

func TestKnownConsumerReceivesMessage(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	partition := &fakeConsumer{id: types.PartitionIdentity(2)}
	h.registry.add(partition)
	h.connect(t)

	h.feed(dsc.PartitionArmed, "21")

	require.Len(t, partition.messages, 1)
	assert.Equal(t, dsc.ArmModeStay, partition.messages[0].Mode)
	assert.Empty(t, h.discovery.found)
}

func TestPanelMessages(t *testing.T) {
	tests := []struct {
		name     string
		suppress bool
		want     int
	}{
		{name: "forwarded", suppress: false, want: 3},
		{name: "suppressed", suppress: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, dsc.IT100API, func(o *Options) { o.SuppressAcknowledgements = tt.suppress })
			panel := &fakeConsumer{id: types.PanelIdentity()}
			h.registry.add(panel)
			h.connect(t)

			h.feed(dsc.CommandAcknowledge, "000")
			h.feed(dsc.TimeDateBroadcast, "0930061524")
			h.feed(dsc.ZoneOpen, "001")

			assert.Len(t, panel.panel, tt.want)
			assert.Equal(t, "Zone Open: Zone 1", panel.panel[len(panel.panel)-1])
		})
	}
}

func TestAcknowledgeReaffirmsOnline(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)
	before := len(h.listener.changes)

	h.feed(dsc.CommandAcknowledge, "000")
	assert.Len(t, h.listener.changes, before+1)
	assert.Equal(t, StateOnline, h.listener.last().state)

	h.feed(dsc.CommandAcknowledge, "030")
	assert.Len(t, h.listener.changes, before+1)
}

func TestMalformedLineKeepsSession(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	assert.True(t, h.feedLine("zz"))
	assert.True(t, h.feedLine(""))
	assert.Equal(t, StateOnline, h.session.State())
	assert.Empty(t, h.discovery.found)
}

func TestLongPressKeystroke(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	require.NoError(t, h.session.SendCommand(dsc.KeyStroke, "L"))

	assert.Equal(t, []time.Duration{dsc.LongPressDelay}, h.slept)
	sent := h.port.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, dsc.Encode(dsc.KeyStroke, "^"), sent[0].text)
}

func TestInvalidCommandWritesNothing(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI)
	h.connect(t)

	err := h.session.SendCommand(dsc.PartitionArmAway, "9")
	assert.True(t, errors.Is(err, dsc.ErrInvalidCommand))

	err = h.session.SendCommand(dsc.LabelsRequest)
	assert.True(t, errors.Is(err, dsc.ErrInvalidCommand))

	assert.Empty(t, h.port.sent())
}

func TestSendWhileOffline(t *testing.T) {
	h := newHarness(t, dsc.IT100API)

	err := h.session.SendCommand(dsc.Poll)
	assert.True(t, errors.Is(err, ErrNotConnected))

	err = h.session.SendCommand(dsc.KeyStroke, "L")
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.Empty(t, h.slept)
}

func TestWriteFailureGoesOffline(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)
	h.port.mu.Lock()
	h.port.writeErr = errors.New("broken pipe")
	h.port.mu.Unlock()

	err := h.session.SendCommand(dsc.StatusReport)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, StateOffline, h.session.State())

	err = h.session.SendCommand(dsc.StatusReport)
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestConfigurationErrorKeepsSessionOffline(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI, func(o *Options) { o.Credentials.Password = "" })

	var cfgErr *ConfigurationError
	require.True(t, errors.As(h.session.configErr, &cfgErr))

	h.session.Start(context.Background())
	h.poll()
	h.session.Close()

	assert.Equal(t, 0, h.port.openCount())
	assert.Equal(t, StateOffline, h.session.State())
	assert.Contains(t, h.session.Snapshot().Reason, "password")
}

func TestResetChannel(t *testing.T) {
	h := newHarness(t, dsc.IT100API)
	h.connect(t)

	require.NoError(t, h.session.Reset(context.Background(), false))
	assert.Equal(t, StateOffline, h.session.State())
	assert.Equal(t, "bridge reset", h.session.Snapshot().Reason)

	h.poll()
	assert.Equal(t, 1, h.port.openCount(), "a held session does not reconnect")

	require.NoError(t, h.session.Reset(context.Background(), true))
	assert.Equal(t, 2, h.port.openCount())
	assert.Equal(t, StateOnline, h.session.State())
}

func TestSyncTime(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI)
	h.connect(t)
	h.feed(dsc.LoginResponse, "1")

	require.NoError(t, h.session.SyncTime())
	sent := h.port.sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, dsc.Encode(dsc.SetTimeDate, "0930061524"), sent[len(sent)-1].text)
}

func TestStartAndClose(t *testing.T) {
	h := newHarness(t, dsc.IT100API, func(o *Options) { o.PollInterval = 5 * time.Millisecond })

	h.session.Start(context.Background())
	assert.Equal(t, StateOnline, h.session.State())
	assert.Equal(t, 1, h.port.openCount())

	h.session.Close()
	assert.Equal(t, StateOffline, h.session.State())
	assert.Equal(t, "shutdown", h.session.Snapshot().Reason)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.port.openCount(), "nothing reconnects after close")
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, dsc.EnvisalinkTPI)
	h.registry.add(&fakeConsumer{id: types.PanelIdentity()})
	h.connect(t)

	snap := h.session.Snapshot()
	assert.Equal(t, StateConnecting, snap.State)
	assert.Equal(t, "Envisalink TPI", snap.Dialect)
	assert.True(t, snap.Connected)
	assert.Equal(t, 1, snap.Consumers)
	assert.Equal(t, h.clock.Now(), snap.LastPoll)
}
