// Package transport holds the TCP and serial links a bridge session talks
// to the panel over.
package transport

import (
	"errors"
	"strings"
)

var ErrNotOpen = errors.New("port is not open")

// redact renders a framed line for logs, hiding everything after the code
// when the payload is confidential.
func redact(text string, confidential bool) string {
	text = strings.TrimRight(text, "\r\n")
	if !confidential || len(text) <= 3 {
		return text
	}
	return text[:3] + strings.Repeat("*", len(text)-3)
}

func trimLine(line string) string {
	return strings.TrimRight(line, "\r\n")
}
