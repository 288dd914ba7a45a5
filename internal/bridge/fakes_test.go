package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

type written struct {
	text         string
	confidential bool
}

type fakePort struct {
	mu       sync.Mutex
	opens    int
	closes   int
	openErr  error
	writeErr error
	lines    chan string
	writes   []written
}

func (p *fakePort) Open(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	if p.openErr != nil {
		return p.openErr
	}
	p.lines = make(chan string, 16)
	return nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	if p.lines != nil {
		close(p.lines)
		p.lines = nil
	}
	return nil
}

func (p *fakePort) WriteLine(text string, confidential bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, written{text: text, confidential: confidential})
	return nil
}

func (p *fakePort) ReadLine() (string, error) {
	p.mu.Lock()
	ch := p.lines
	p.mu.Unlock()
	if ch == nil {
		return "", errors.New("port closed")
	}
	line, ok := <-ch
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// drop simulates the peer going away.
func (p *fakePort) drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lines != nil {
		close(p.lines)
		p.lines = nil
	}
}

func (p *fakePort) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

func (p *fakePort) sent() []written {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]written(nil), p.writes...)
}

// codes returns how many times each code was written.
func (p *fakePort) codes() map[dsc.Code]int {
	out := map[dsc.Code]int{}
	for _, w := range p.sent() {
		out[dsc.Code(w.text[:3])]++
	}
	return out
}

type fakeConsumer struct {
	mu       sync.Mutex
	id       types.Identity
	ready    bool
	messages []dsc.Message
	panel    []string
}

func (c *fakeConsumer) Identity() types.Identity { return c.id }

func (c *fakeConsumer) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeConsumer) setReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

func (c *fakeConsumer) HandleMessage(msg dsc.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *fakeConsumer) PanelMessage(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = append(c.panel, description)
}

type fakeRegistry struct {
	mu        sync.Mutex
	consumers []*fakeConsumer
}

func (r *fakeRegistry) add(c *fakeConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, c)
}

func (r *fakeRegistry) Find(id types.Identity) (Consumer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.consumers {
		if c.id.Key() == id.Key() {
			return c, true
		}
	}
	return nil, false
}

func (r *fakeRegistry) Consumers() []Consumer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Consumer, 0, len(r.consumers))
	for _, c := range r.consumers {
		out = append(out, c)
	}
	return out
}

type discovered struct {
	id  types.Identity
	msg dsc.Message
}

type fakeDiscovery struct {
	mu    sync.Mutex
	found []discovered
}

func (d *fakeDiscovery) Discovered(id types.Identity, msg dsc.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.found = append(d.found, discovered{id: id, msg: msg})
}

type statusChange struct {
	state  State
	reason string
}

type fakeListener struct {
	mu      sync.Mutex
	changes []statusChange
}

func (l *fakeListener) BridgeStatusChanged(state State, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, statusChange{state: state, reason: reason})
}

func (l *fakeListener) last() statusChange {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.changes) == 0 {
		return statusChange{}
	}
	return l.changes[len(l.changes)-1]
}

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, time.June, 15, 9, 30, 0, 0, time.Local)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
