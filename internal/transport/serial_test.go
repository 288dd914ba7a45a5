package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
)

// pipePort is a serial.Port backed by an in-memory pipe. Methods the
// transport never calls are left to the embedded nil interface.
type pipePort struct {
	serial.Port
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written []byte
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *pipePort) Close() error {
	p.w.Close()
	return p.r.Close()
}

func newTestSerial(port *pipePort, openErr error) (*Serial, *serial.Mode) {
	s := NewSerial("/dev/ttyUSB0", 9600, log.Nop())
	var got serial.Mode
	s.open = func(device string, mode *serial.Mode) (serial.Port, error) {
		got = *mode
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}
	return s, &got
}

func TestSerialReadLines(t *testing.T) {
	port := newPipePort()
	s, mode := newTestSerial(port, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)

	go func() {
		// split writes must still come out as whole lines
		port.w.Write([]byte("6090"))
		port.w.Write([]byte("0130\r\n\r\n"))
		port.w.Write([]byte(dsc.Encode(dsc.PartitionReady, "1")))
	}()

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "60900130", line)

	line, err = s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "6501CC", line)
}

func TestSerialWriteLine(t *testing.T) {
	port := newPipePort()
	s, _ := newTestSerial(port, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	require.NoError(t, s.WriteLine(dsc.Encode(dsc.StatusReport, ""), false))
	port.mu.Lock()
	defer port.mu.Unlock()
	assert.Equal(t, "00191\r\n", string(port.written))
}

func TestSerialCloseEndsReadLine(t *testing.T) {
	port := newPipePort()
	s, _ := newTestSerial(port, nil)
	require.NoError(t, s.Open(context.Background()))

	errs := make(chan error, 1)
	go func() {
		_, err := s.ReadLine()
		errs <- err
	}()

	require.NoError(t, s.Close())
	assert.Error(t, <-errs)

	assert.ErrorIs(t, s.WriteLine("00090\r\n", false), ErrNotOpen)
}

func TestSerialOpenFailure(t *testing.T) {
	s, _ := newTestSerial(nil, errors.New("no such device"))
	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyUSB0")

	_, err = s.ReadLine()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSerialReopenKeepsErrorsApart(t *testing.T) {
	first, second := newPipePort(), newPipePort()
	ports := []*pipePort{first, second}

	s := NewSerial("/dev/ttyUSB0", 9600, log.Nop())
	s.open = func(string, *serial.Mode) (serial.Port, error) {
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}

	require.NoError(t, s.Open(context.Background()))
	s.mu.Lock()
	old := s.stream
	s.mu.Unlock()

	// Reopening closes the first port; wait for its reader to record the failure.
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()
	for range old.lines {
	}
	require.Error(t, old.err)

	second.w.CloseWithError(errors.New("device unplugged"))
	_, err := s.ReadLine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
	assert.NotErrorIs(t, err, io.ErrClosedPipe)
}
