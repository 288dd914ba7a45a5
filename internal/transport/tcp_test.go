package transport

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
)

func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func TestTCPReadWrite(t *testing.T) {
	ln, port := listen(t)

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(dsc.Encode(dsc.LoginResponse, "3")))
		line, _ := bufio.NewReader(conn).ReadString('\n')
		received <- line
	}()

	var buf bytes.Buffer
	tcp := NewTCP("127.0.0.1", port, log.NewWriterLogger(&buf, zerolog.TraceLevel))
	require.NoError(t, tcp.Open(context.Background()))
	defer tcp.Close()

	line, err := tcp.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "5053CD", line)

	require.NoError(t, tcp.WriteLine(dsc.Encode(dsc.NetworkLogin, "secret"), true))
	select {
	case got := <-received:
		assert.Equal(t, dsc.Encode(dsc.NetworkLogin, "secret"), got)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the line")
	}

	assert.NotContains(t, buf.String(), "secret")
	assert.Contains(t, buf.String(), "005*")
}

func TestTCPCloseUnblocksRead(t *testing.T) {
	ln, port := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(time.Second)
		conn.Close()
	}()

	tcp := NewTCP("127.0.0.1", port, log.Nop())
	require.NoError(t, tcp.Open(context.Background()))

	errs := make(chan error, 1)
	go func() {
		_, err := tcp.ReadLine()
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tcp.Close())

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("ReadLine did not return after Close")
	}
}

func TestTCPPeerDisconnect(t *testing.T) {
	ln, port := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	tcp := NewTCP("127.0.0.1", port, log.Nop())
	require.NoError(t, tcp.Open(context.Background()))
	defer tcp.Close()

	_, err := tcp.ReadLine()
	assert.Error(t, err)
}

func TestTCPNotOpen(t *testing.T) {
	tcp := NewTCP("127.0.0.1", 1, log.Nop())
	assert.ErrorIs(t, tcp.WriteLine("00090\r\n", false), ErrNotOpen)
	_, err := tcp.ReadLine()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NoError(t, tcp.Close())
}

func TestTCPDialFailure(t *testing.T) {
	ln, port := listen(t)
	ln.Close()

	tcp := NewTCP("127.0.0.1", port, log.Nop())
	assert.Error(t, tcp.Open(context.Background()))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "00090", redact("00090\r\n", false))
	assert.Equal(t, "005******", redact("005user54\r\n", true))
	assert.Equal(t, "005", redact("005", true))
}
