package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/daemonp/dsc2mqtt/internal/log"
)

// TCP connects to an Envisalink (or an IT-100 behind a serial server).
type TCP struct {
	host string
	port int
	log  *log.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

func NewTCP(host string, port int, logger *log.Logger) *TCP {
	return &TCP{
		host: host,
		port: port,
		log:  logger,
	}
}

func (t *TCP) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *TCP) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}

	t.log.Debug("Attempting to connect to %s", t.Address())
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.Address())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.Address(), err)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.log.Debug("Connection established")
	return nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	t.log.Debug("Disconnected from %s", t.Address())
	return err
}

func (t *TCP) WriteLine(text string, confidential bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotOpen
	}
	t.log.Trace("-> %s", redact(text, confidential))
	if _, err := t.conn.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write to %s: %w", t.Address(), err)
	}
	return nil
}

func (t *TCP) ReadLine() (string, error) {
	t.mu.Lock()
	reader := t.reader
	t.mu.Unlock()

	if reader == nil {
		return "", ErrNotOpen
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = trimLine(line)
	t.log.Trace("<- %s", line)
	return line, nil
}
