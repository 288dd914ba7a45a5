package dsc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrInvalidCommand = errors.New("invalid command")
)

const (
	codeLen     = 3
	checksumLen = 2

	// timestampLayout is hhmmMMDDYY as broadcast by 550 and sent by 010.
	timestampLayout = "1504010206"
)

// Checksum returns the two character checksum the panel expects for s: the
// byte sum truncated to eight bits, with each nibble rendered as its own hex digit.
func Checksum(s string) string {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	sum &= 0xFF

	hi := strconv.FormatInt(int64((sum>>4)&0xF), 16)
	lo := strconv.FormatInt(int64(sum&0xF), 16)
	return strings.ToUpper(hi + lo)
}

// Encode frames code and data for the wire, including checksum and CRLF.
func Encode(code Code, data string) string {
	body := string(code) + data
	return body + Checksum(body) + "\r\n"
}

// Decode parses a single line received from the panel. The line must already
// be stripped of its CRLF terminator. Unknown but well formed codes decode
// with an empty field set.
func Decode(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return Message{}, fmt.Errorf("%w: empty line", ErrMalformedFrame)
	}
	if len(line) < codeLen {
		return Message{}, fmt.Errorf("%w: line %q too short", ErrMalformedFrame, line)
	}

	raw := line[:codeLen]
	for i := 0; i < codeLen; i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return Message{}, fmt.Errorf("%w: code %q is not numeric", ErrMalformedFrame, raw)
		}
	}

	msg := Message{
		Code: Code(raw),
		Mode: ArmModeNone,
	}

	rest := line[codeLen:]
	if len(rest) >= checksumLen {
		msg.Data = rest[:len(rest)-checksumLen]
		msg.Checksum = strings.ToUpper(rest[len(rest)-checksumLen:])
		msg.ChecksumOK = msg.Checksum == Checksum(raw+msg.Data)
	} else {
		msg.Data = rest
	}

	info, known := codeTable[msg.Code]
	msg.Name = msg.Code.Name()
	msg.Description = msg.Code.Description()
	if !known {
		return msg, nil
	}

	msg.Category = info.category
	parseFields(&msg, info.layout)
	msg.Description = describe(msg)
	return msg, nil
}

func parseFields(msg *Message, l layout) {
	data := msg.Data
	switch l {
	case layoutPartition:
		msg.Partition = digits(data, 0, 1)
	case layoutPartitionMode:
		msg.Partition = digits(data, 0, 1)
		if len(data) >= 2 && data[1] >= '0' && data[1] <= '3' {
			msg.Mode = ArmMode(data[1] - '0')
		}
	case layoutPartitionUser:
		msg.Partition = digits(data, 0, 1)
		if len(data) > 1 {
			msg.User = data[1:]
		}
	case layoutPartitionZone:
		msg.Partition = digits(data, 0, 1)
		msg.Zone = digits(data, 1, 4)
	case layoutZone:
		msg.Zone = digits(data, 0, 3)
	case layoutTimestamp:
		if len(data) >= len(timestampLayout) {
			if ts, err := time.ParseInLocation(timestampLayout, data[:len(timestampLayout)], time.Local); err == nil {
				msg.Timestamp = ts
			}
		}
	case layoutLabel:
		msg.LabelNumber = digits(data, 0, 3)
		if len(data) > 3 {
			msg.Label = strings.TrimSpace(data[3:])
		}
	}
}

func describe(msg Message) string {
	desc := msg.Code.Description()
	switch msg.Code {
	case CommandAcknowledge:
		return fmt.Sprintf("%s: %s", desc, msg.AcknowledgedCode().Description())
	case CommandError:
		if msg.AcknowledgedCode() != "" {
			return fmt.Sprintf("%s: %s", desc, msg.AcknowledgedCode().Description())
		}
		return desc
	case SystemError:
		if text, ok := systemErrors[msg.Data]; ok {
			return fmt.Sprintf("%s: %s", desc, text)
		}
	case LoginResponse:
		if text, ok := loginResults[msg.Data]; ok {
			return fmt.Sprintf("%s: %s", desc, text)
		}
	case PartitionArmed:
		if msg.Mode != ArmModeNone {
			return fmt.Sprintf("Partition %d Armed (%s)", msg.Partition, msg.Mode)
		}
	case BroadcastLabels:
		return fmt.Sprintf("%s: %03d %s", desc, msg.LabelNumber, msg.Label)
	case TimeDateBroadcast:
		if !msg.Timestamp.IsZero() {
			return fmt.Sprintf("%s: %s", desc, msg.Timestamp.Format("2006-01-02 15:04"))
		}
	}

	switch {
	case msg.Zone > 0 && msg.Partition > 0:
		return fmt.Sprintf("%s: Partition %d, Zone %d", desc, msg.Partition, msg.Zone)
	case msg.Zone > 0:
		return fmt.Sprintf("%s: Zone %d", desc, msg.Zone)
	case msg.Partition > 0 && msg.User != "":
		return fmt.Sprintf("%s: Partition %d, User %s", desc, msg.Partition, msg.User)
	case msg.Partition > 0:
		return fmt.Sprintf("%s: Partition %d", desc, msg.Partition)
	}
	return desc
}

// digits parses s[from:to] as a decimal number, returning 0 when the range is
// missing or not numeric.
func digits(s string, from, to int) int {
	if len(s) < to {
		return 0
	}
	n, err := strconv.Atoi(s[from:to])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// TimeDate formats t as the hhmmMMDDYY payload used by SetTimeDate.
func TimeDate(t time.Time) string {
	return t.Format(timestampLayout)
}
