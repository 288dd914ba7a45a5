package mqtt

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseBroker accepts a bare host or an mqtt:// / tcp:// address with an
// optional port and returns the host and port to dial.
func ParseBroker(addr string, defaultPort int) (string, int, error) {
	for _, scheme := range []string{"mqtt://", "tcp://"} {
		addr = strings.TrimPrefix(addr, scheme)
	}
	if !strings.Contains(addr, ":") {
		return addr, defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid broker address %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid broker port %q", portStr)
	}
	return host, port, nil
}
