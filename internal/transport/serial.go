package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/daemonp/dsc2mqtt/internal/log"
)

const lineQueueSize = 64

// Serial talks to an IT-100 on a local serial device. A reader goroutine
// splits the byte stream into lines and queues them for ReadLine.
type Serial struct {
	device   string
	baudRate int
	log      *log.Logger
	open     func(device string, mode *serial.Mode) (serial.Port, error)

	mu     sync.Mutex
	port   serial.Port
	stream *stream
}

// stream is the output of one reader goroutine. err is written before lines
// is closed, so it is safe to read once the channel is drained.
type stream struct {
	lines chan string
	err   error
}

func NewSerial(device string, baudRate int, logger *log.Logger) *Serial {
	return &Serial{
		device:   device,
		baudRate: baudRate,
		log:      logger,
		open:     serial.Open,
	}
}

func (s *Serial) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		s.port.Close()
		s.port = nil
	}

	s.log.Debug("Opening serial port %s at %d baud", s.device, s.baudRate)
	port, err := s.open(s.device, &serial.Mode{
		BaudRate: s.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("while opening serial port %s: %w", s.device, err)
	}

	st := &stream{lines: make(chan string, lineQueueSize)}
	s.port = port
	s.stream = st

	go s.consume(port, st)
	return nil
}

func (s *Serial) consume(port serial.Port, st *stream) {
	defer close(st.lines)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			st.err = fmt.Errorf("reading from serial port: %w", err)
			return
		}
		line = trimLine(line)
		if line == "" {
			continue
		}
		s.log.Trace("<- %s", line)
		st.lines <- line
	}
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.log.Debug("Closed serial port %s", s.device)
	return err
}

func (s *Serial) WriteLine(text string, confidential bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrNotOpen
	}
	s.log.Trace("-> %s", redact(text, confidential))
	if _, err := s.port.Write([]byte(text)); err != nil {
		return fmt.Errorf("writing to serial port: %w", err)
	}
	return nil
}

func (s *Serial) ReadLine() (string, error) {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()

	if st == nil {
		return "", ErrNotOpen
	}
	line, ok := <-st.lines
	if ok {
		return line, nil
	}
	if st.err != nil {
		return "", st.err
	}
	return "", io.EOF
}
