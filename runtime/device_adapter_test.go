package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	cw "github.com/stepherg/cellwatch"
)

// scriptedCommander replays canned results and records the call order.
type scriptedCommander struct {
	script []cmdResult
	calls  []string
	events *[]string
}

type cmdResult struct {
	out []byte
	err error
}

func (s *scriptedCommander) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	s.calls = append(s.calls, call)
	if s.events != nil {
		*s.events = append(*s.events, call)
	}
	if len(s.script) == 0 {
		return nil, errors.New("unscripted call: " + call)
	}
	res := s.script[0]
	s.script = s.script[1:]
	return res.out, res.err
}

func newTestAdapter(t *testing.T, c cw.Commander) *DeviceAdapter {
	t.Helper()
	return NewDeviceAdapter(c, testr.New(t))
}

func TestReadDeviceInfo(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{out: []byte(`{"network_operator_name":"IND airtel","phone_count":2}`)}}}
	info := newTestAdapter(t, c).ReadDeviceInfo(context.Background())
	if !info.Present() {
		t.Fatalf("expected present device info")
	}
	if name, _ := info.OperatorName(); name != "IND airtel" {
		t.Fatalf("operator = %q", name)
	}
	if len(c.calls) != 1 || c.calls[0] != "termux-telephony-deviceinfo" {
		t.Fatalf("unexpected calls: %v", c.calls)
	}
}

func TestReadDeviceInfoCommandFails(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{err: errors.New("exit status 1")}}}
	if info := newTestAdapter(t, c).ReadDeviceInfo(context.Background()); info.Present() {
		t.Fatalf("expected absent device info, got %v", info)
	}
}

func TestReadDeviceInfoMalformed(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{out: []byte("garbage")}}}
	if info := newTestAdapter(t, c).ReadDeviceInfo(context.Background()); info.Present() {
		t.Fatalf("expected absent device info, got %v", info)
	}
}

func TestReadNotifications(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{out: []byte(`[{"packageName":"com.android.phone","content":"No service"}]`)}}}
	notes, ok := newTestAdapter(t, c).ReadNotifications(context.Background())
	if !ok || len(notes) != 1 || notes[0].PackageName != "com.android.phone" {
		t.Fatalf("unexpected notifications: ok=%v %v", ok, notes)
	}
}

// A failing command whose stdout still holds JSON is parsed anyway; absence
// is only reported when there is nothing to parse.
func TestReadNotificationsFailedCommandWithOutput(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{out: []byte(`[]`), err: errors.New("exit status 2")}}}
	notes, ok := newTestAdapter(t, c).ReadNotifications(context.Background())
	if !ok || len(notes) != 0 {
		t.Fatalf("expected empty-but-present list, got ok=%v %v", ok, notes)
	}
}

func TestReadNotificationsFailedCommandNoOutput(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{err: errors.New("command not found")}}}
	if _, ok := newTestAdapter(t, c).ReadNotifications(context.Background()); ok {
		t.Fatalf("expected absent notifications")
	}
}

func TestReadNotificationsMalformed(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{out: []byte("Invalid JSON")}}}
	if _, ok := newTestAdapter(t, c).ReadNotifications(context.Background()); ok {
		t.Fatalf("expected absent notifications for malformed output")
	}
}

func TestRestartWifiSequence(t *testing.T) {
	var events []string
	c := &scriptedCommander{script: []cmdResult{{}, {}}, events: &events}
	a := newTestAdapter(t, c)
	a.sleep = func(d time.Duration) {
		events = append(events, "sleep "+d.String())
	}
	if !a.RestartWifi(context.Background(), 5*time.Second) {
		t.Fatalf("expected restart to succeed")
	}
	want := []string{"termux-wifi-enable false", "sleep 5s", "termux-wifi-enable true"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestRestartWifiDisableFails(t *testing.T) {
	var events []string
	c := &scriptedCommander{script: []cmdResult{{err: errors.New("exit status 1")}}, events: &events}
	a := newTestAdapter(t, c)
	a.sleep = func(d time.Duration) { events = append(events, "sleep") }
	if a.RestartWifi(context.Background(), time.Second) {
		t.Fatalf("expected restart to fail")
	}
	if len(events) != 1 || events[0] != "termux-wifi-enable false" {
		t.Fatalf("enable must never run after a failed disable, events = %v", events)
	}
}

func TestRestartWifiEnableFails(t *testing.T) {
	c := &scriptedCommander{script: []cmdResult{{}, {err: errors.New("exit status 1")}}}
	a := newTestAdapter(t, c)
	a.sleep = func(time.Duration) {}
	if a.RestartWifi(context.Background(), time.Second) {
		t.Fatalf("expected restart to fail when enable fails")
	}
	if len(c.calls) != 2 {
		t.Fatalf("expected both commands attempted, got %v", c.calls)
	}
}
