package ir

import (
	"fmt"
	"strings"
)

// enumTable maps explicit ranks to their rendered token and extra accepted
// spellings. Lookups are case-insensitive.
type enumTable[T ~int] struct {
	kind    string
	names   map[T]string
	aliases map[string]T
}

func (t enumTable[T]) name(v T) string {
	if n, ok := t.names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", t.kind, int(v))
}

func (t enumTable[T]) parse(text string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	for v, n := range t.names {
		if strings.ToLower(n) == key {
			return v, nil
		}
	}
	if v, ok := t.aliases[key]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", t.kind, text)
}

// Phase is the engine generation marker.
type Phase int

const (
	PhaseUnknown Phase = 0
	Phase1       Phase = 1
	Phase2       Phase = 2
	PhaseFB      Phase = 3
	PhaseFA      Phase = 4
)

var phaseTable = enumTable[Phase]{
	kind: "phase",
	names: map[Phase]string{
		PhaseUnknown: "Unknown",
		Phase1:       "Phase1",
		Phase2:       "Phase2",
		PhaseFB:      "FB",
		PhaseFA:      "FA",
	},
	aliases: map[string]Phase{
		"phase 1": Phase1,
		"phase 2": Phase2,
	},
}

func (p Phase) String() string { return phaseTable.name(p) }

// ParsePhase parses a rendered phase token or one of its aliases.
func ParsePhase(s string) (Phase, error) { return phaseTable.parse(s) }

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePhase(string(b))
	return err
}

// Throttle is the throttle actuation type.
type Throttle int

const (
	ThrottleUnknown Throttle = 0
	ThrottleCable   Throttle = 1
	ThrottleDBW     Throttle = 2
)

var throttleTable = enumTable[Throttle]{
	kind: "throttle",
	names: map[Throttle]string{
		ThrottleUnknown: "Unknown",
		ThrottleCable:   "Cable",
		ThrottleDBW:     "DBW",
	},
	aliases: map[string]Throttle{
		"drivebywire":    ThrottleDBW,
		"drive-by-wire":  ThrottleDBW,
		"electronic":     ThrottleDBW,
		"cable-operated": ThrottleCable,
	},
}

func (t Throttle) String() string { return throttleTable.name(t) }

// ParseThrottle parses a rendered throttle token or one of its aliases.
func ParseThrottle(s string) (Throttle, error) { return throttleTable.parse(s) }

func (t Throttle) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Throttle) UnmarshalText(b []byte) (err error) {
	*t, err = ParseThrottle(string(b))
	return err
}

// AirMetering is how the ECU measures intake air.
type AirMetering int

const (
	AirMeteringUnknown      AirMetering = 0
	AirMeteringMAF          AirMetering = 1
	AirMeteringMAP          AirMetering = 2
	AirMeteringSpeedDensity AirMetering = 3
)

var airMeteringTable = enumTable[AirMetering]{
	kind: "air metering",
	names: map[AirMetering]string{
		AirMeteringUnknown:      "Unknown",
		AirMeteringMAF:          "MAF",
		AirMeteringMAP:          "MAP",
		AirMeteringSpeedDensity: "SpeedDensity",
	},
	aliases: map[string]AirMetering{
		"massairflow":              AirMeteringMAF,
		"manifoldpressure":         AirMeteringMAP,
		"manifoldabsolutepressure": AirMeteringMAP,
		"speed-density":            AirMeteringSpeedDensity,
	},
}

func (a AirMetering) String() string { return airMeteringTable.name(a) }

// ParseAirMetering parses a rendered air metering token or one of its aliases.
func ParseAirMetering(s string) (AirMetering, error) { return airMeteringTable.parse(s) }

func (a AirMetering) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AirMetering) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAirMetering(string(b))
	return err
}

// ValveControl is the variable valve timing/lift system.
type ValveControl int

const (
	ValveControlUnknown  ValveControl = 0
	ValveControlNone     ValveControl = 1
	ValveControlAVCS     ValveControl = 2
	ValveControlAVLS     ValveControl = 3
	ValveControlDualAVCS ValveControl = 4
)

var valveControlTable = enumTable[ValveControl]{
	kind: "valve control",
	names: map[ValveControl]string{
		ValveControlUnknown:  "Unknown",
		ValveControlNone:     "None",
		ValveControlAVCS:     "AVCS",
		ValveControlAVLS:     "AVLS",
		ValveControlDualAVCS: "DualAVCS",
	},
	aliases: map[string]ValveControl{
		"activevalvecontrol":     ValveControlAVCS,
		"activevalvelift":        ValveControlAVLS,
		"dualactivevalvecontrol": ValveControlDualAVCS,
		"dual avcs":              ValveControlDualAVCS,
	},
}

func (v ValveControl) String() string { return valveControlTable.name(v) }

// ParseValveControl parses a rendered valve control token or one of its aliases.
func ParseValveControl(s string) (ValveControl, error) { return valveControlTable.parse(s) }

func (v ValveControl) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ValveControl) UnmarshalText(b []byte) (err error) {
	*v, err = ParseValveControl(string(b))
	return err
}

// EcuBus is the ECU communication bus. There is no Unknown member; the zero
// value is NonCan.
type EcuBus int

const (
	EcuBusNonCan EcuBus = 0
	EcuBusCanBus EcuBus = 1
)

var ecuBusTable = enumTable[EcuBus]{
	kind: "ecu bus",
	names: map[EcuBus]string{
		EcuBusNonCan: "NonCan",
		EcuBusCanBus: "CanBus",
	},
	aliases: map[string]EcuBus{
		"can":     EcuBusCanBus,
		"non-can": EcuBusNonCan,
		"k-line":  EcuBusNonCan,
	},
}

func (e EcuBus) String() string { return ecuBusTable.name(e) }

// ParseEcuBus parses a rendered bus token or one of its aliases.
func ParseEcuBus(s string) (EcuBus, error) { return ecuBusTable.parse(s) }

func (e EcuBus) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *EcuBus) UnmarshalText(b []byte) (err error) {
	*e, err = ParseEcuBus(string(b))
	return err
}

// Level is the discrete compatibility verdict.
//
// Total order: PlugAndPlay < MinorMods < MajorMods < NotRecommended.
// Escalation compares ranks, so the constant values are part of the contract.
type Level int

const (
	LevelPlugAndPlay    Level = 0
	LevelMinorMods      Level = 1
	LevelMajorMods      Level = 2
	LevelNotRecommended Level = 3
)

var levelTable = enumTable[Level]{
	kind: "compatibility level",
	names: map[Level]string{
		LevelPlugAndPlay:    "PlugAndPlay",
		LevelMinorMods:      "MinorMods",
		LevelMajorMods:      "MajorMods",
		LevelNotRecommended: "NotRecommended",
	},
	aliases: map[string]Level{
		"plug-and-play":   LevelPlugAndPlay,
		"minor":           LevelMinorMods,
		"major":           LevelMajorMods,
		"not-recommended": LevelNotRecommended,
	},
}

// AllLevels returns every level in ascending severity.
func AllLevels() []Level {
	return []Level{LevelPlugAndPlay, LevelMinorMods, LevelMajorMods, LevelNotRecommended}
}

func (l Level) String() string { return levelTable.name(l) }

// Rank returns the position of l in the severity order.
func (l Level) Rank() int { return int(l) }

// MoreSevereThan reports whether l is strictly more severe than other.
func (l Level) MoreSevereThan(other Level) bool { return l.Rank() > other.Rank() }

// ParseLevel parses a level name or one of its aliases.
func ParseLevel(s string) (Level, error) { return levelTable.parse(s) }

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) (err error) {
	*l, err = ParseLevel(string(b))
	return err
}

// Severity grades a required change.
//
// Total order: Info < Low < Medium < High < Critical.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityLow      Severity = 1
	SeverityMedium   Severity = 2
	SeverityHigh     Severity = 3
	SeverityCritical Severity = 4
)

var severityTable = enumTable[Severity]{
	kind: "severity",
	names: map[Severity]string{
		SeverityInfo:     "Info",
		SeverityLow:      "Low",
		SeverityMedium:   "Medium",
		SeverityHigh:     "High",
		SeverityCritical: "Critical",
	},
	aliases: map[string]Severity{
		"informational": SeverityInfo,
		"med":           SeverityMedium,
	},
}

func (s Severity) String() string { return severityTable.name(s) }

// Rank returns the position of s in the severity order.
func (s Severity) Rank() int { return int(s) }

// ParseSeverity parses a severity name or one of its aliases.
func ParseSeverity(str string) (Severity, error) { return severityTable.parse(str) }

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSeverity(string(b))
	return err
}
