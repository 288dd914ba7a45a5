package dsc

import (
	"fmt"
	"time"
)

// ArmMode is the arming mode carried by a Partition Armed (652) event.
type ArmMode int

const (
	ArmModeNone ArmMode = iota - 1
	ArmModeAway
	ArmModeStay
	ArmModeZeroEntryAway
	ArmModeZeroEntryStay
)

func (m ArmMode) String() string {
	switch m {
	case ArmModeAway:
		return "Away"
	case ArmModeStay:
		return "Stay"
	case ArmModeZeroEntryAway:
		return "Zero Entry Away"
	case ArmModeZeroEntryStay:
		return "Zero Entry Stay"
	default:
		return "None"
	}
}

// Message is a decoded inbound line. Partition and Zone are zero when the
// code carries no such field.
type Message struct {
	Code        Code
	Data        string
	Checksum    string
	ChecksumOK  bool
	Name        string
	Description string
	Category    Category
	Partition   int
	Zone        int
	Mode        ArmMode
	User        string
	LabelNumber int
	Label       string
	Timestamp   time.Time
}

func (m Message) String() string {
	return fmt.Sprintf("%s%s: %s", string(m.Code), m.Data, m.Description)
}

// AcknowledgedCode returns the command code a 500 or 501 event refers to.
func (m Message) AcknowledgedCode() Code {
	if len(m.Data) < 3 {
		return ""
	}
	return Code(m.Data[:3])
}

var systemErrors = map[string]string{
	"000": "No Error",
	"001": "Receive Buffer Overrun",
	"002": "Receive Buffer Overflow",
	"003": "Transmit Buffer Overflow",
	"010": "Keybus Transmit Buffer Overrun",
	"011": "Keybus Transmit Time Timeout",
	"012": "Keybus Transmit Mode Timeout",
	"013": "Keybus Transmit Keystring Timeout",
	"014": "Keybus Interface Not Functioning",
	"015": "Keybus Busy - Attempting to Disarm or Arm with User Code",
	"016": "Keybus Busy - Lockout",
	"017": "Keybus Busy - Installers Mode",
	"018": "Keybus Busy - General Busy",
	"020": "API Command Syntax Error",
	"021": "API Command Partition Error",
	"022": "API Command Not Supported",
	"023": "API System Not Armed",
	"024": "API System Not Ready to Arm",
	"025": "API Command Invalid Length",
	"026": "API User Code not Required",
	"027": "API Invalid Characters in Command",
}

var loginResults = map[string]string{
	"0": "Password provided was incorrect",
	"1": "Password correct, session established",
	"2": "Time out. You did not send a password within 10 seconds",
	"3": "Request for password, sent after socket setup",
}
