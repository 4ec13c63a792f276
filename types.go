package cellwatch

import (
	"context"
	"fmt"
	"strings"
)

// KeyNetworkOperatorName is the telephony attribute the health policy keys on.
const KeyNetworkOperatorName = "network_operator_name"

// DeviceInfo holds the telephony attributes reported by the device for one
// decision cycle. A nil map means the device could not be queried.
type DeviceInfo map[string]string

func (d DeviceInfo) Present() bool { return d != nil }

// OperatorName returns the active carrier name, if reported.
func (d DeviceInfo) OperatorName() (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d[KeyNetworkOperatorName]
	return v, ok
}

// Notification is one entry from the device's notification list. Only
// PackageName and Content are evaluated; the rest is carried for logging.
type Notification struct {
	ID          int    `json:"id"`
	Tag         string `json:"tag"`
	Key         string `json:"key"`
	Group       string `json:"group"`
	PackageName string `json:"packageName"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	When        string `json:"when"`
}

// Country is a resolved geo-IP country code. The zero value is unknown;
// an empty code is never conflated with absence.
type Country struct {
	Code  string
	Known bool
}

func KnownCountry(code string) Country { return Country{Code: code, Known: true} }

// UnknownCountry is the explicit absence value for a failed resolution.
var UnknownCountry = Country{}

func (c Country) Equals(code string) bool { return c.Known && c.Code == code }

func (c Country) String() string {
	if !c.Known {
		return "unknown"
	}
	return c.Code
}

// Outcome is the terminal state of one decision cycle.
type Outcome string

const (
	OutcomeDeviceInfoUnknown Outcome = "device_info_unknown"
	OutcomeNoActionNeeded    Outcome = "no_action_needed"
	OutcomeCountryUnresolved Outcome = "country_unresolved"
	OutcomeCountryMismatch   Outcome = "country_mismatch"
	OutcomeRestarted         Outcome = "restarted"
	OutcomeRestartFailed     Outcome = "restart_failed"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeDeviceInfoUnknown, OutcomeNoActionNeeded, OutcomeCountryUnresolved,
		OutcomeCountryMismatch, OutcomeRestarted, OutcomeRestartFailed:
		return o, nil
	default:
		return "", fmt.Errorf("invalid outcome: %q", s)
	}
}

// Disposition is the coarse tri-state view of an Outcome: whether the radio
// was touched, and if not, why not.
type Disposition string

const (
	DispositionRestarted           Disposition = "restarted"
	DispositionSkippedHealthy      Disposition = "skipped_healthy"
	DispositionSkippedUnresolvable Disposition = "skipped_unresolvable"
)

// Disposition collapses the six terminal states. RestartFailed keeps the
// restarted disposition: the radio was touched, whatever came of it.
func (o Outcome) Disposition() Disposition {
	switch o {
	case OutcomeRestarted, OutcomeRestartFailed:
		return DispositionRestarted
	case OutcomeNoActionNeeded:
		return DispositionSkippedHealthy
	default:
		return DispositionSkippedUnresolvable
	}
}

// Commander runs one device command and returns its captured standard output.
// Implementations return whatever stdout was captured even when err is
// non-nil, so callers may still attempt a parse of partial output.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Level grades events emitted by the decision engine.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// EventSink receives the leveled, attributed events the decision engine emits,
// exactly one per terminal state. Formatting and delivery belong to the sink.
type EventSink interface {
	Emit(level Level, msg string, keysAndValues ...any)
}

// NopSink discards everything; the test default.
type NopSink struct{}

func (NopSink) Emit(Level, string, ...any) {}
