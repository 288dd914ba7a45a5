package dsc

import "fmt"

// Dialect selects which DSC serial protocol the bridge speaks.
type Dialect int

const (
	EnvisalinkTPI Dialect = iota
	IT100API
)

func (d Dialect) String() string {
	switch d {
	case EnvisalinkTPI:
		return "Envisalink TPI"
	case IT100API:
		return "IT-100 API"
	default:
		return fmt.Sprintf("Unknown Dialect(%d)", d)
	}
}

// ParseDialect maps a configuration value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "envisalink", "tpi", "envisalink_tpi":
		return EnvisalinkTPI, nil
	case "it100", "it-100", "it100_api":
		return IT100API, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", s)
	}
}

// Category is the consumer class a decoded message belongs to.
type Category int

const (
	CategoryUnknown Category = iota
	CommandResponse
	PanelEvent
	PartitionEvent
	ZoneEvent
	KeypadEvent
)

func (c Category) String() string {
	switch c {
	case CommandResponse:
		return "Command Response"
	case PanelEvent:
		return "Panel Event"
	case PartitionEvent:
		return "Partition Event"
	case ZoneEvent:
		return "Zone Event"
	case KeypadEvent:
		return "Keypad Event"
	default:
		return "Unknown"
	}
}

// Code is the 3-digit command or event code used on the wire.
type Code string

// Outbound commands.
const (
	Poll                        Code = "000"
	StatusReport                Code = "001"
	LabelsRequest               Code = "002"
	NetworkLogin                Code = "005"
	DumpZoneTimers              Code = "008"
	SetTimeDate                 Code = "010"
	CommandOutputControl        Code = "020"
	PartitionArmAway            Code = "030"
	PartitionArmStay            Code = "031"
	PartitionArmZeroEntryDelay  Code = "032"
	PartitionArmWithUserCode    Code = "033"
	PartitionDisarm             Code = "040"
	TimeStampControl            Code = "055"
	TimeDateBroadcastControl    Code = "056"
	TemperatureBroadcastControl Code = "057"
	VirtualKeypadControl        Code = "058"
	TriggerPanicAlarm           Code = "060"
	KeyStroke                   Code = "070"
	KeySequence                 Code = "071"
	EnterUserCodeProgramming    Code = "072"
	EnterUserProgramming        Code = "073"
	KeepAlive                   Code = "074"
	BaudRateChange              Code = "080"
	GetTemperatureSetPoints     Code = "095"
	CodeSend                    Code = "200"
)

// Inbound events.
const (
	CommandAcknowledge          Code = "500"
	CommandError                Code = "501"
	SystemError                 Code = "502"
	LoginResponse               Code = "505"
	KeypadLEDState              Code = "510"
	KeypadLEDFlashState         Code = "511"
	TimeDateBroadcast           Code = "550"
	RingDetected                Code = "560"
	IndoorTemperatureBroadcast  Code = "561"
	OutdoorTemperatureBroadcast Code = "562"
	ThermostatSetPoints         Code = "563"
	BroadcastLabels             Code = "570"
	BaudRateSet                 Code = "580"

	ZoneAlarm               Code = "601"
	ZoneAlarmRestore        Code = "602"
	ZoneTamper              Code = "603"
	ZoneTamperRestore       Code = "604"
	ZoneFault               Code = "605"
	ZoneFaultRestore        Code = "606"
	ZoneOpen                Code = "609"
	ZoneRestored            Code = "610"
	EnvisalinkZoneTimerDump Code = "615"
	EnvisalinkBypassedZones Code = "616"
	DuressAlarm             Code = "620"
	FireKeyAlarm            Code = "621"
	FireKeyRestored         Code = "622"
	AuxiliaryKeyAlarm       Code = "623"
	AuxiliaryKeyRestored    Code = "624"
	PanicKeyAlarm           Code = "625"
	PanicKeyRestored        Code = "626"
	AuxiliaryInputAlarm     Code = "631"
	AuxiliaryInputRestored  Code = "632"
	PartitionReady          Code = "650"
	PartitionNotReady       Code = "651"
	PartitionArmed          Code = "652"
	PartitionReadyForceArm  Code = "653"
	PartitionInAlarm        Code = "654"
	PartitionDisarmed       Code = "655"
	ExitDelayInProgress     Code = "656"
	EntryDelayInProgress    Code = "657"
	KeypadLockout           Code = "658"
	PartitionFailedToArm    Code = "659"
	PGMOutputInProgress     Code = "660"
	ChimeEnabled            Code = "663"
	ChimeDisabled           Code = "664"
	InvalidAccessCode       Code = "670"
	FunctionNotAvailable    Code = "671"
	FailureToArm            Code = "672"
	PartitionBusy           Code = "673"
	SystemArmingInProgress  Code = "674"
	SystemInInstallerMode   Code = "680"
	UserClosing             Code = "700"
	SpecialClosing          Code = "701"
	PartialClosing          Code = "702"
	UserOpening             Code = "750"
	SpecialOpening          Code = "751"

	PanelBatteryTrouble             Code = "800"
	PanelBatteryTroubleRestore      Code = "801"
	PanelACTrouble                  Code = "802"
	PanelACRestore                  Code = "803"
	SystemBellTrouble               Code = "806"
	SystemBellTroubleRestore        Code = "807"
	TLMLine1Trouble                 Code = "810"
	TLMLine1TroubleRestore          Code = "811"
	TLMLine2Trouble                 Code = "812"
	TLMLine2TroubleRestore          Code = "813"
	FTCTrouble                      Code = "814"
	BufferNearFull                  Code = "816"
	GeneralDeviceLowBattery         Code = "821"
	GeneralDeviceLowBatteryRestore  Code = "822"
	WirelessKeyLowBattery           Code = "825"
	WirelessKeyLowBatteryRestore    Code = "826"
	HandheldKeypadLowBattery        Code = "827"
	HandheldKeypadLowBatteryRestore Code = "828"
	GeneralSystemTamper             Code = "829"
	GeneralSystemTamperRestore      Code = "830"
	HomeAutomationTrouble           Code = "831"
	HomeAutomationTroubleRestore    Code = "832"
	TroubleLEDOn                    Code = "840"
	TroubleLEDOff                   Code = "841"
	FireTroubleAlarm                Code = "842"
	FireTroubleAlarmRestore         Code = "843"
	VerboseTroubleStatus            Code = "849"
	KeybusFault                     Code = "896"
	KeybusFaultRestore              Code = "897"
	CodeRequired                    Code = "900"
	LCDUpdate                       Code = "901"
	LCDCursor                       Code = "902"
	LEDStatus                       Code = "903"
	BeepStatus                      Code = "904"
	ToneStatus                      Code = "905"
	BuzzerStatus                    Code = "906"
	DoorChimeStatus                 Code = "907"
	SoftwareVersion                 Code = "908"
	CommandOutputPressed            Code = "912"
	MasterCodeRequired              Code = "921"
	InstallersCodeRequired          Code = "922"
)

// layout describes how the payload of an inbound code is split into fields.
type layout int

const (
	layoutNone layout = iota
	layoutPartition
	layoutPartitionMode
	layoutPartitionUser
	layoutPartitionZone
	layoutZone
	layoutTimestamp
	layoutLabel
	layoutAcknowledge
)

type codeInfo struct {
	name        string
	description string
	category    Category
	layout      layout
	outbound    bool
}

var codeTable = map[Code]codeInfo{
	Poll:                        {name: "Poll", description: "Poll", outbound: true},
	StatusReport:                {name: "StatusReport", description: "Status Report", outbound: true},
	LabelsRequest:               {name: "LabelsRequest", description: "Labels Request", outbound: true},
	NetworkLogin:                {name: "NetworkLogin", description: "Network Login", outbound: true},
	DumpZoneTimers:              {name: "DumpZoneTimers", description: "Dump Zone Timers", outbound: true},
	SetTimeDate:                 {name: "SetTimeDate", description: "Set Time and Date", outbound: true},
	CommandOutputControl:        {name: "CommandOutputControl", description: "Command Output Control", outbound: true},
	PartitionArmAway:            {name: "PartitionArmAway", description: "Partition Arm Away", outbound: true},
	PartitionArmStay:            {name: "PartitionArmStay", description: "Partition Arm Stay", outbound: true},
	PartitionArmZeroEntryDelay:  {name: "PartitionArmZeroEntryDelay", description: "Partition Arm No Entry Delay", outbound: true},
	PartitionArmWithUserCode:    {name: "PartitionArmWithUserCode", description: "Partition Arm With User Code", outbound: true},
	PartitionDisarm:             {name: "PartitionDisarm", description: "Partition Disarm", outbound: true},
	TimeStampControl:            {name: "TimeStampControl", description: "Time Stamp Control", outbound: true},
	TimeDateBroadcastControl:    {name: "TimeDateBroadcastControl", description: "Time/Date Broadcast Control", outbound: true},
	TemperatureBroadcastControl: {name: "TemperatureBroadcastControl", description: "Temperature Broadcast Control", outbound: true},
	VirtualKeypadControl:        {name: "VirtualKeypadControl", description: "Virtual Keypad Control", outbound: true},
	TriggerPanicAlarm:           {name: "TriggerPanicAlarm", description: "Trigger Panic Alarm", outbound: true},
	KeyStroke:                   {name: "KeyStroke", description: "Key Stroke", outbound: true},
	KeySequence:                 {name: "KeySequence", description: "Key Sequence", outbound: true},
	EnterUserCodeProgramming:    {name: "EnterUserCodeProgramming", description: "Enter User Code Programming", outbound: true},
	EnterUserProgramming:        {name: "EnterUserProgramming", description: "Enter User Programming", outbound: true},
	KeepAlive:                   {name: "KeepAlive", description: "Keep Alive", outbound: true},
	BaudRateChange:              {name: "BaudRateChange", description: "Baud Rate Change", outbound: true},
	GetTemperatureSetPoints:     {name: "GetTemperatureSetPoints", description: "Get Temperature Set Points", outbound: true},
	CodeSend:                    {name: "CodeSend", description: "Code Send", outbound: true},

	CommandAcknowledge:          {name: "CommandAcknowledge", description: "Command Acknowledged", category: CommandResponse, layout: layoutAcknowledge},
	CommandError:                {name: "CommandError", description: "Command Error", category: CommandResponse},
	SystemError:                 {name: "SystemError", description: "System Error", category: CommandResponse},
	LoginResponse:               {name: "LoginResponse", description: "Login Interaction", category: CommandResponse},
	KeypadLEDState:              {name: "KeypadLEDState", description: "Keypad LED State", category: KeypadEvent},
	KeypadLEDFlashState:         {name: "KeypadLEDFlashState", description: "Keypad LED Flash State", category: KeypadEvent},
	TimeDateBroadcast:           {name: "TimeDateBroadcast", description: "Time/Date Broadcast", category: PanelEvent, layout: layoutTimestamp},
	RingDetected:                {name: "RingDetected", description: "Ring Detected", category: PanelEvent},
	IndoorTemperatureBroadcast:  {name: "IndoorTemperatureBroadcast", description: "Indoor Temperature Broadcast", category: PanelEvent},
	OutdoorTemperatureBroadcast: {name: "OutdoorTemperatureBroadcast", description: "Outdoor Temperature Broadcast", category: PanelEvent},
	ThermostatSetPoints:         {name: "ThermostatSetPoints", description: "Thermostat Set Points", category: PanelEvent},
	BroadcastLabels:             {name: "BroadcastLabels", description: "Broadcast Labels", category: PanelEvent, layout: layoutLabel},
	BaudRateSet:                 {name: "BaudRateSet", description: "Baud Rate Set", category: PanelEvent},

	ZoneAlarm:               {name: "ZoneAlarm", description: "Zone Alarm", category: ZoneEvent, layout: layoutPartitionZone},
	ZoneAlarmRestore:        {name: "ZoneAlarmRestore", description: "Zone Alarm Restored", category: ZoneEvent, layout: layoutPartitionZone},
	ZoneTamper:              {name: "ZoneTamper", description: "Zone Tamper", category: ZoneEvent, layout: layoutPartitionZone},
	ZoneTamperRestore:       {name: "ZoneTamperRestore", description: "Zone Tamper Restored", category: ZoneEvent, layout: layoutPartitionZone},
	ZoneFault:               {name: "ZoneFault", description: "Zone Fault", category: ZoneEvent, layout: layoutZone},
	ZoneFaultRestore:        {name: "ZoneFaultRestore", description: "Zone Fault Restored", category: ZoneEvent, layout: layoutZone},
	ZoneOpen:                {name: "ZoneOpen", description: "Zone Open", category: ZoneEvent, layout: layoutZone},
	ZoneRestored:            {name: "ZoneRestored", description: "Zone Restored", category: ZoneEvent, layout: layoutZone},
	EnvisalinkZoneTimerDump: {name: "EnvisalinkZoneTimerDump", description: "Envisalink Zone Timer Dump", category: PanelEvent},
	EnvisalinkBypassedZones: {name: "EnvisalinkBypassedZones", description: "Envisalink Bypassed Zones Bitfield Dump", category: PanelEvent},
	DuressAlarm:             {name: "DuressAlarm", description: "Duress Alarm", category: PanelEvent},
	FireKeyAlarm:            {name: "FireKeyAlarm", description: "Fire Key Alarm", category: PanelEvent},
	FireKeyRestored:         {name: "FireKeyRestored", description: "Fire Key Alarm Restored", category: PanelEvent},
	AuxiliaryKeyAlarm:       {name: "AuxiliaryKeyAlarm", description: "Auxiliary Key Alarm", category: PanelEvent},
	AuxiliaryKeyRestored:    {name: "AuxiliaryKeyRestored", description: "Auxiliary Key Alarm Restored", category: PanelEvent},
	PanicKeyAlarm:           {name: "PanicKeyAlarm", description: "Panic Key Alarm", category: PanelEvent},
	PanicKeyRestored:        {name: "PanicKeyRestored", description: "Panic Key Alarm Restored", category: PanelEvent},
	AuxiliaryInputAlarm:     {name: "AuxiliaryInputAlarm", description: "Auxiliary Input Alarm", category: PanelEvent},
	AuxiliaryInputRestored:  {name: "AuxiliaryInputRestored", description: "Auxiliary Input Alarm Restored", category: PanelEvent},
	PartitionReady:          {name: "PartitionReady", description: "Partition Ready", category: PartitionEvent, layout: layoutPartition},
	PartitionNotReady:       {name: "PartitionNotReady", description: "Partition Not Ready", category: PartitionEvent, layout: layoutPartition},
	PartitionArmed:          {name: "PartitionArmed", description: "Partition Armed", category: PartitionEvent, layout: layoutPartitionMode},
	PartitionReadyForceArm:  {name: "PartitionReadyForceArming", description: "Partition Ready - Force Arming Enabled", category: PartitionEvent, layout: layoutPartition},
	PartitionInAlarm:        {name: "PartitionInAlarm", description: "Partition In Alarm", category: PartitionEvent, layout: layoutPartition},
	PartitionDisarmed:       {name: "PartitionDisarmed", description: "Partition Disarmed", category: PartitionEvent, layout: layoutPartition},
	ExitDelayInProgress:     {name: "ExitDelayInProgress", description: "Exit Delay In Progress", category: PartitionEvent, layout: layoutPartition},
	EntryDelayInProgress:    {name: "EntryDelayInProgress", description: "Entry Delay In Progress", category: PartitionEvent, layout: layoutPartition},
	KeypadLockout:           {name: "KeypadLockout", description: "Keypad Lockout", category: PartitionEvent, layout: layoutPartition},
	PartitionFailedToArm:    {name: "PartitionFailedToArm", description: "Partition Failed To Arm", category: PartitionEvent, layout: layoutPartition},
	PGMOutputInProgress:     {name: "PGMOutputInProgress", description: "PGM Output In Progress", category: PartitionEvent, layout: layoutPartition},
	ChimeEnabled:            {name: "ChimeEnabled", description: "Chime Enabled", category: PartitionEvent, layout: layoutPartition},
	ChimeDisabled:           {name: "ChimeDisabled", description: "Chime Disabled", category: PartitionEvent, layout: layoutPartition},
	InvalidAccessCode:       {name: "InvalidAccessCode", description: "Invalid Access Code", category: PartitionEvent, layout: layoutPartition},
	FunctionNotAvailable:    {name: "FunctionNotAvailable", description: "Function Not Available", category: PartitionEvent, layout: layoutPartition},
	FailureToArm:            {name: "FailureToArm", description: "Failure To Arm", category: PartitionEvent, layout: layoutPartition},
	PartitionBusy:           {name: "PartitionBusy", description: "Partition Busy", category: PartitionEvent, layout: layoutPartition},
	SystemArmingInProgress:  {name: "SystemArmingInProgress", description: "System Arming In Progress", category: PartitionEvent, layout: layoutPartition},
	SystemInInstallerMode:   {name: "SystemInInstallerMode", description: "System In Installer Mode", category: PanelEvent},
	UserClosing:             {name: "UserClosing", description: "Partition Armed By User", category: PartitionEvent, layout: layoutPartitionUser},
	SpecialClosing:          {name: "SpecialClosing", description: "Special Closing", category: PartitionEvent, layout: layoutPartition},
	PartialClosing:          {name: "PartialClosing", description: "Partial Closing", category: PartitionEvent, layout: layoutPartition},
	UserOpening:             {name: "UserOpening", description: "Partition Disarmed By User", category: PartitionEvent, layout: layoutPartitionUser},
	SpecialOpening:          {name: "SpecialOpening", description: "Special Opening", category: PartitionEvent, layout: layoutPartition},

	PanelBatteryTrouble:             {name: "PanelBatteryTrouble", description: "Panel Battery Trouble", category: PanelEvent},
	PanelBatteryTroubleRestore:      {name: "PanelBatteryTroubleRestore", description: "Panel Battery Trouble Restored", category: PanelEvent},
	PanelACTrouble:                  {name: "PanelACTrouble", description: "Panel AC Trouble", category: PanelEvent},
	PanelACRestore:                  {name: "PanelACRestore", description: "Panel AC Restored", category: PanelEvent},
	SystemBellTrouble:               {name: "SystemBellTrouble", description: "System Bell Trouble", category: PanelEvent},
	SystemBellTroubleRestore:        {name: "SystemBellTroubleRestore", description: "System Bell Trouble Restored", category: PanelEvent},
	TLMLine1Trouble:                 {name: "TLMLine1Trouble", description: "TLM Line 1 Trouble", category: PanelEvent},
	TLMLine1TroubleRestore:          {name: "TLMLine1TroubleRestore", description: "TLM Line 1 Trouble Restored", category: PanelEvent},
	TLMLine2Trouble:                 {name: "TLMLine2Trouble", description: "TLM Line 2 Trouble", category: PanelEvent},
	TLMLine2TroubleRestore:          {name: "TLMLine2TroubleRestore", description: "TLM Line 2 Trouble Restored", category: PanelEvent},
	FTCTrouble:                      {name: "FTCTrouble", description: "Failure To Communicate Trouble", category: PanelEvent},
	BufferNearFull:                  {name: "BufferNearFull", description: "Event Buffer Near Full", category: PanelEvent},
	GeneralDeviceLowBattery:         {name: "GeneralDeviceLowBattery", description: "General Device Low Battery", category: PanelEvent},
	GeneralDeviceLowBatteryRestore:  {name: "GeneralDeviceLowBatteryRestore", description: "General Device Low Battery Restored", category: PanelEvent},
	WirelessKeyLowBattery:           {name: "WirelessKeyLowBatteryTrouble", description: "Wireless Key Low Battery Trouble", category: PanelEvent},
	WirelessKeyLowBatteryRestore:    {name: "WirelessKeyLowBatteryTroubleRestore", description: "Wireless Key Low Battery Trouble Restored", category: PanelEvent},
	HandheldKeypadLowBattery:        {name: "HandheldKeypadLowBatteryTrouble", description: "Handheld Keypad Low Battery Trouble", category: PanelEvent},
	HandheldKeypadLowBatteryRestore: {name: "HandheldKeypadLowBatteryTroubleRestore", description: "Handheld Keypad Low Battery Trouble Restored", category: PanelEvent},
	GeneralSystemTamper:             {name: "GeneralSystemTamper", description: "General System Tamper", category: PanelEvent},
	GeneralSystemTamperRestore:      {name: "GeneralSystemTamperRestore", description: "General System Tamper Restored", category: PanelEvent},
	HomeAutomationTrouble:           {name: "HomeAutomationTrouble", description: "Home Automation Trouble", category: PanelEvent},
	HomeAutomationTroubleRestore:    {name: "HomeAutomationTroubleRestore", description: "Home Automation Trouble Restored", category: PanelEvent},
	TroubleLEDOn:                    {name: "TroubleLEDOn", description: "Trouble LED On", category: PanelEvent},
	TroubleLEDOff:                   {name: "TroubleLEDOff", description: "Trouble LED Off", category: PanelEvent},
	FireTroubleAlarm:                {name: "FireTroubleAlarm", description: "Fire Trouble Alarm", category: PanelEvent},
	FireTroubleAlarmRestore:         {name: "FireTroubleAlarmRestore", description: "Fire Trouble Alarm Restored", category: PanelEvent},
	VerboseTroubleStatus:            {name: "VerboseTroubleStatus", description: "Verbose Trouble Status", category: PanelEvent},
	KeybusFault:                     {name: "KeybusFault", description: "Keybus Fault", category: PanelEvent},
	KeybusFaultRestore:              {name: "KeybusFaultRestore", description: "Keybus Fault Restored", category: PanelEvent},
	CodeRequired:                    {name: "CodeRequired", description: "Code Required", category: PartitionEvent, layout: layoutPartition},
	LCDUpdate:                       {name: "LCDUpdate", description: "LCD Update", category: KeypadEvent},
	LCDCursor:                       {name: "LCDCursor", description: "LCD Cursor", category: KeypadEvent},
	LEDStatus:                       {name: "LEDStatus", description: "LED Status", category: KeypadEvent},
	BeepStatus:                      {name: "BeepStatus", description: "Beep Status", category: KeypadEvent},
	ToneStatus:                      {name: "ToneStatus", description: "Tone Status", category: KeypadEvent},
	BuzzerStatus:                    {name: "BuzzerStatus", description: "Buzzer Status", category: KeypadEvent},
	DoorChimeStatus:                 {name: "DoorChimeStatus", description: "Door Chime Status", category: KeypadEvent},
	SoftwareVersion:                 {name: "SoftwareVersion", description: "Software Version", category: KeypadEvent},
	CommandOutputPressed:            {name: "CommandOutputPressed", description: "Command Output Pressed", category: PartitionEvent, layout: layoutPartition},
	MasterCodeRequired:              {name: "MasterCodeRequired", description: "Master Code Required", category: KeypadEvent},
	InstallersCodeRequired:          {name: "InstallersCodeRequired", description: "Installers Code Required", category: KeypadEvent},
}

// Name returns the symbolic name of the code, or "Unknown" when it is not in the table.
func (c Code) Name() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return "Unknown"
}

// Description returns a human readable description of the code.
func (c Code) Description() string {
	if info, ok := codeTable[c]; ok {
		return info.description
	}
	return fmt.Sprintf("Unknown Code (%s)", string(c))
}

// Category returns the consumer category for inbound codes.
func (c Code) Category() Category {
	return codeTable[c].category
}

// Known reports whether the code is in the table.
func (c Code) Known() bool {
	_, ok := codeTable[c]
	return ok
}

// Outbound reports whether the code is a command the bridge may send.
func (c Code) Outbound() bool {
	return codeTable[c].outbound
}

func (c Code) String() string {
	return fmt.Sprintf("%s (%s)", c.Name(), string(c))
}
