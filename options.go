package cellwatch

import (
	"time"
)

// AuthStrategy acquires an authorization header value (e.g., "Basic ..." or "Bearer ...").
type AuthStrategy interface {
	AuthorizationValue() (string, error)
}

// StaticAuth implements AuthStrategy using a pre-specified token value.
type StaticAuth struct{ Value string }

func (s StaticAuth) AuthorizationValue() (string, error) { return s.Value, nil }

// Options configures one watchdog run. It is constructed once at process
// start and handed to each component; nothing reads the environment after
// that point.
type Options struct {
	TargetOperatorName string
	ExpectedCountry    string

	Wifi   WifiConfig
	GeoIP  GeoIPConfig
	Probe  ProbeConfig
	Bridge BridgeConfig
}

type WifiConfig struct {
	// RestartDelay is the pause between the disable and enable commands.
	RestartDelay time.Duration
}

type GeoIPConfig struct {
	URL            string
	MaxRetries     int
	Timeout        time.Duration
	BackoffInitial time.Duration
	BackoffCap     time.Duration
}

type ProbeConfig struct {
	Host    string
	Timeout time.Duration
}

// BridgeConfig selects the remote command transport. An empty URL means
// commands run locally via os/exec.
type BridgeConfig struct {
	URL      string
	DeviceID string
	Service  string
	Auth     AuthStrategy
}

// DefaultOptions gives the deployed baseline.
func DefaultOptions() Options {
	opts := Options{
		TargetOperatorName: "IND airtel",
		ExpectedCountry:    "IN",
	}
	opts.Wifi = WifiConfig{RestartDelay: 5 * time.Second}
	opts.GeoIP = GeoIPConfig{
		URL:            "https://ipinfo.io/json",
		MaxRetries:     3,
		Timeout:        30 * time.Second,
		BackoffInitial: time.Second,
		BackoffCap:     8 * time.Second,
	}
	opts.Probe = ProbeConfig{Host: "8.8.8.8", Timeout: 5 * time.Second}
	opts.Bridge = BridgeConfig{Service: "cellwatch"}
	return opts
}
