package dsc

import (
	"fmt"
	"strings"
	"time"
)

// LongPressDelay is how long an IT-100 'L' keystroke holds before the break key is sent.
const LongPressDelay = 1500 * time.Millisecond

// Credentials are the secrets some commands embed in their payload.
type Credentials struct {
	Password string
	UserCode string
}

// Command is a validated outbound command ready to be framed.
type Command struct {
	Code         Code
	Payload      string
	Confidential bool
	// Delay is applied by the sender before the command goes on the wire.
	Delay time.Duration
}

// Frame returns the wire representation of the command.
func (c Command) Frame() string {
	return Encode(c.Code, c.Payload)
}

// String renders the command for logs, masking confidential payloads.
func (c Command) String() string {
	if c.Confidential {
		return fmt.Sprintf("%s [%s]", c.Code, strings.Repeat("*", len(c.Payload)))
	}
	if c.Payload == "" {
		return c.Code.String()
	}
	return fmt.Sprintf("%s [%s]", c.Code, c.Payload)
}

type rule func(d Dialect, creds Credentials, args []string) (string, error)

const (
	envisalinkKeys = "0123456789A#*"
	it100Keys      = "0123456789*#FAPabcde<>=^L"
	sequenceKeys   = "0123456789#*"
)

var catalog = map[Code]struct {
	only         *Dialect
	confidential bool
	rule         rule
}{
	Poll:                        {rule: noPayload},
	StatusReport:                {rule: noPayload},
	LabelsRequest:               {only: dialect(IT100API), rule: noPayload},
	NetworkLogin:                {only: dialect(EnvisalinkTPI), confidential: true, rule: password},
	DumpZoneTimers:              {only: dialect(EnvisalinkTPI), rule: noPayload},
	SetTimeDate:                 {rule: timeDate},
	CommandOutputControl:        {rule: commandOutput},
	PartitionArmAway:            {rule: partitionOnly},
	PartitionArmStay:            {rule: partitionOnly},
	PartitionArmZeroEntryDelay:  {rule: partitionOnly},
	PartitionArmWithUserCode:    {confidential: true, rule: partitionWithCode},
	PartitionDisarm:             {confidential: true, rule: partitionWithCode},
	TimeStampControl:            {rule: oneOf("01")},
	TimeDateBroadcastControl:    {rule: oneOf("01")},
	TemperatureBroadcastControl: {rule: oneOf("01")},
	VirtualKeypadControl:        {only: dialect(IT100API), rule: oneOf("01")},
	TriggerPanicAlarm:           {rule: oneOf("123")},
	KeyStroke:                   {rule: keyStroke},
	KeySequence:                 {only: dialect(EnvisalinkTPI), rule: keySequence},
	EnterUserCodeProgramming:    {rule: partitionOnly},
	EnterUserProgramming:        {rule: partitionOnly},
	KeepAlive:                   {only: dialect(EnvisalinkTPI), rule: partitionOnly},
	BaudRateChange:              {only: dialect(IT100API), rule: oneOf("01234")},
	GetTemperatureSetPoints:     {only: dialect(IT100API), rule: oneOf("1234")},
	CodeSend:                    {confidential: true, rule: codeOnly},
}

// Validate checks args against the rules for c under dialect d and builds the
// command payload. Any violation returns an error wrapping ErrInvalidCommand.
func (c Code) Validate(d Dialect, creds Credentials, args ...string) (Command, error) {
	entry, ok := catalog[c]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s is not a supported command", ErrInvalidCommand, c)
	}
	if entry.only != nil && *entry.only != d {
		return Command{}, fmt.Errorf("%w: %s is only supported by %s", ErrInvalidCommand, c, *entry.only)
	}

	payload, err := entry.rule(d, creds, args)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %s: %v", ErrInvalidCommand, c, err)
	}

	cmd := Command{
		Code:         c,
		Payload:      payload,
		Confidential: entry.confidential,
	}

	// The IT-100 has no long press key; hold, then send the break key instead.
	if c == KeyStroke && d == IT100API && payload == "L" {
		cmd.Payload = "^"
		cmd.Delay = LongPressDelay
	}

	return cmd, nil
}

func dialect(d Dialect) *Dialect {
	return &d
}

func noPayload(Dialect, Credentials, []string) (string, error) {
	return "", nil
}

func password(_ Dialect, creds Credentials, _ []string) (string, error) {
	if creds.Password == "" {
		return "", fmt.Errorf("password is not set")
	}
	return creds.Password, nil
}

func timeDate(_ Dialect, _ Credentials, args []string) (string, error) {
	if len(args) != 1 || len(args[0]) != len(timestampLayout) {
		return "", fmt.Errorf("expected a %d digit hhmmMMDDYY argument", len(timestampLayout))
	}
	if _, err := time.Parse(timestampLayout, args[0]); err != nil {
		return "", fmt.Errorf("invalid time %q", args[0])
	}
	return args[0], nil
}

func commandOutput(_ Dialect, _ Credentials, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("expected partition and output arguments")
	}
	if err := checkPartition(args[0]); err != nil {
		return "", err
	}
	if len(args[1]) != 1 || !strings.Contains("1234", args[1]) {
		return "", fmt.Errorf("output must be 1-4")
	}
	// Only the partition is transmitted.
	return args[0], nil
}

func partitionOnly(_ Dialect, _ Credentials, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected a partition argument")
	}
	if err := checkPartition(args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}

func partitionWithCode(d Dialect, creds Credentials, args []string) (string, error) {
	partition, err := partitionOnly(d, creds, args)
	if err != nil {
		return "", err
	}
	code, err := userCode(d, creds)
	if err != nil {
		return "", err
	}
	return partition + code, nil
}

func codeOnly(d Dialect, creds Credentials, _ []string) (string, error) {
	return userCode(d, creds)
}

func userCode(d Dialect, creds Credentials) (string, error) {
	if n := len(creds.UserCode); n < 4 || n > 6 {
		return "", fmt.Errorf("user code must be 4-6 characters")
	}
	if d == IT100API {
		return strings.Repeat("0", 6-len(creds.UserCode)) + creds.UserCode, nil
	}
	return creds.UserCode, nil
}

func oneOf(allowed string) rule {
	return func(_ Dialect, _ Credentials, args []string) (string, error) {
		if len(args) != 1 || len(args[0]) != 1 || !strings.Contains(allowed, args[0]) {
			return "", fmt.Errorf("argument must be one of %q", allowed)
		}
		return args[0], nil
	}
}

func keyStroke(d Dialect, _ Credentials, args []string) (string, error) {
	keys := envisalinkKeys
	if d == IT100API {
		keys = it100Keys
	}
	if len(args) != 1 || len(args[0]) != 1 || !strings.Contains(keys, args[0]) {
		return "", fmt.Errorf("keystroke must be a single character from %q", keys)
	}
	return args[0], nil
}

func keySequence(_ Dialect, _ Credentials, args []string) (string, error) {
	if len(args) != 1 || len(args[0]) == 0 || len(args[0]) > 6 {
		return "", fmt.Errorf("key sequence must be 1-6 characters")
	}
	for _, r := range args[0] {
		if !strings.ContainsRune(sequenceKeys, r) {
			return "", fmt.Errorf("key sequence may only contain %q", sequenceKeys)
		}
	}
	return args[0], nil
}

func checkPartition(s string) error {
	if len(s) != 1 || s[0] < '1' || s[0] > '8' {
		return fmt.Errorf("partition must be 1-8")
	}
	return nil
}
