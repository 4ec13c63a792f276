package probe

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	cw "github.com/stepherg/cellwatch"
)

func TestNewClampsTimeout(t *testing.T) {
	p := New(cw.ProbeConfig{Host: "8.8.8.8"}, testr.New(t))
	if p.timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want default 5s", p.timeout)
	}
}

func TestReachableBadHostIsFalse(t *testing.T) {
	// Invalid address literal fails before any packet is sent; the probe
	// must absorb it as unreachable rather than error out.
	p := New(cw.ProbeConfig{Host: "256.256.256.256", Timeout: time.Second}, testr.New(t))
	if p.Reachable(context.Background()) {
		t.Fatalf("expected unreachable for invalid host")
	}
}
