package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	cw "github.com/stepherg/cellwatch"
)

type reachableFn func(ctx context.Context) bool

func (f reachableFn) Reachable(ctx context.Context) bool { return f(ctx) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// scriptedTransport fails the first failures calls, then serves body.
type scriptedTransport struct {
	failures int
	status   int
	body     string
	calls    int
}

func (s *scriptedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, timeoutErr{}
	}
	rec := httptest.NewRecorder()
	rec.WriteHeader(s.status)
	_, _ = rec.WriteString(s.body)
	return rec.Result(), nil
}

func newTestResolver(t *testing.T, cfg cw.GeoIPConfig, rt http.RoundTripper, reach Reachability) (*Resolver, *[]time.Duration) {
	t.Helper()
	r := NewResolver(cfg, reach, testr.New(t))
	r.HTTP = &http.Client{Transport: rt}
	slept := &[]time.Duration{}
	r.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return r, slept
}

func testConfig() cw.GeoIPConfig {
	return cw.GeoIPConfig{
		URL:            "http://geoip.test/json",
		MaxRetries:     3,
		Timeout:        time.Second,
		BackoffInitial: time.Second,
		BackoffCap:     8 * time.Second,
	}
}

func TestResolveCountrySuccess(t *testing.T) {
	rt := &scriptedTransport{status: http.StatusOK, body: `{"ip":"1.2.3.4","country":"US","city":"X"}`}
	r, slept := newTestResolver(t, testConfig(), rt, nil)
	got := r.ResolveCountry(context.Background())
	if !got.Equals("US") {
		t.Fatalf("country = %v, want US", got)
	}
	if rt.calls != 1 || len(*slept) != 0 {
		t.Fatalf("expected single attempt with no sleeps, got calls=%d sleeps=%d", rt.calls, len(*slept))
	}
}

func TestResolveCountryTransientThenSuccess(t *testing.T) {
	rt := &scriptedTransport{failures: 2, status: http.StatusOK, body: `{"country":"IN"}`}
	r, slept := newTestResolver(t, testConfig(), rt, nil)
	got := r.ResolveCountry(context.Background())
	if !got.Equals("IN") {
		t.Fatalf("country = %v, want IN", got)
	}
	if rt.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", rt.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestResolveCountryRetriesExhaust(t *testing.T) {
	rt := &scriptedTransport{failures: 100}
	r, slept := newTestResolver(t, testConfig(), rt, nil)
	if got := r.ResolveCountry(context.Background()); got.Known {
		t.Fatalf("expected unknown country, got %v", got)
	}
	if rt.calls != 3 {
		t.Fatalf("expected exactly MaxRetries attempts, got %d", rt.calls)
	}
	// no sleep after the final attempt
	if len(*slept) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", *slept)
	}
}

func TestResolveCountryBackoffCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 6
	cfg.BackoffCap = 4 * time.Second
	rt := &scriptedTransport{failures: 100}
	r, slept := newTestResolver(t, cfg, rt, nil)
	_ = r.ResolveCountry(context.Background())
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestResolveCountryNonTransientStatus(t *testing.T) {
	rt := &scriptedTransport{status: http.StatusTooManyRequests, body: "slow down"}
	r, slept := newTestResolver(t, testConfig(), rt, nil)
	if got := r.ResolveCountry(context.Background()); got.Known {
		t.Fatalf("expected unknown country, got %v", got)
	}
	if rt.calls != 1 || len(*slept) != 0 {
		t.Fatalf("non-transient failure must abort after one attempt, got calls=%d sleeps=%d", rt.calls, len(*slept))
	}
}

func TestResolveCountryMalformedBody(t *testing.T) {
	for _, body := range []string{"not json", `{"ip":"1.2.3.4"}`, `{"country":""}`} {
		rt := &scriptedTransport{status: http.StatusOK, body: body}
		r, slept := newTestResolver(t, testConfig(), rt, nil)
		if got := r.ResolveCountry(context.Background()); got.Known {
			t.Fatalf("body %q: expected unknown country, got %v", body, got)
		}
		if rt.calls != 1 || len(*slept) != 0 {
			t.Fatalf("body %q: expected single attempt, got calls=%d sleeps=%d", body, rt.calls, len(*slept))
		}
	}
}

func TestResolveCountryUnreachableShortCircuit(t *testing.T) {
	rt := &scriptedTransport{status: http.StatusOK, body: `{"country":"IN"}`}
	r, _ := newTestResolver(t, testConfig(), rt, reachableFn(func(context.Context) bool { return false }))
	if got := r.ResolveCountry(context.Background()); got.Known {
		t.Fatalf("expected unknown country when unreachable, got %v", got)
	}
	if rt.calls != 0 {
		t.Fatalf("no HTTP attempt expected when unreachable, got %d", rt.calls)
	}
}

func TestResolveCountryReachableProceeds(t *testing.T) {
	rt := &scriptedTransport{status: http.StatusOK, body: `{"country":"IN"}`}
	r, _ := newTestResolver(t, testConfig(), rt, reachableFn(func(context.Context) bool { return true }))
	if got := r.ResolveCountry(context.Background()); !got.Equals("IN") {
		t.Fatalf("country = %v, want IN", got)
	}
}
