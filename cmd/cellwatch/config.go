// config.go loads the watchdog configuration: built-in defaults, then an
// optional YAML file, then environment variables, in that order.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stepherg/cellwatch"
	"github.com/stepherg/cellwatch/internal/logging"
)

// FileConfig mirrors the YAML config file shape.
type FileConfig struct {
	TargetOperatorName string `yaml:"targetOperatorName"`
	ExpectedCountry    string `yaml:"expectedCountry"`

	Wifi struct {
		RestartDelaySeconds int `yaml:"restartDelaySeconds"`
	} `yaml:"wifi"`

	GeoIP struct {
		URL                   string `yaml:"url"`
		MaxRetries            int    `yaml:"maxRetries"`
		TimeoutSeconds        int    `yaml:"timeoutSeconds"`
		BackoffInitialSeconds int    `yaml:"backoffInitialSeconds"`
		BackoffCapSeconds     int    `yaml:"backoffCapSeconds"`
	} `yaml:"geoip"`

	Probe struct {
		Host           string `yaml:"host"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"probe"`

	Bridge struct {
		URL      string `yaml:"url"`
		DeviceID string `yaml:"deviceId"`
		Service  string `yaml:"service"`
		Token    string `yaml:"token"`
	} `yaml:"bridge"`

	Logging struct {
		Env           string `yaml:"env"`
		Level         string `yaml:"level"`
		FilePath      string `yaml:"filePath"`
		TelegramLevel string `yaml:"telegramLevel"`
	} `yaml:"logging"`
}

// LoadConfig assembles the effective Options and logging Config. path names
// the YAML file; a missing file is not an error, only a malformed one is.
func LoadConfig(path string) (cellwatch.Options, logging.Config, error) {
	var fc FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return cellwatch.Options{}, logging.Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults + env only
		default:
			return cellwatch.Options{}, logging.Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	opts := cellwatch.DefaultOptions()
	applyFile(&opts, fc)
	applyEnv(&opts)

	logCfg := logging.Config{
		Env:      getenv("ENV", fc.Logging.Env),
		Level:    getenv("LOG_LEVEL", fc.Logging.Level),
		FilePath: getenv("LOG_FILE", fc.Logging.FilePath),
		Telegram: logging.TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
			Level:    getenv("TELEGRAM_LOGGING_LEVEL", fc.Logging.TelegramLevel),
		},
	}
	return opts, logCfg, nil
}

func applyFile(opts *cellwatch.Options, fc FileConfig) {
	if fc.TargetOperatorName != "" {
		opts.TargetOperatorName = fc.TargetOperatorName
	}
	if fc.ExpectedCountry != "" {
		opts.ExpectedCountry = fc.ExpectedCountry
	}
	if fc.Wifi.RestartDelaySeconds > 0 {
		opts.Wifi.RestartDelay = time.Duration(fc.Wifi.RestartDelaySeconds) * time.Second
	}
	if fc.GeoIP.URL != "" {
		opts.GeoIP.URL = fc.GeoIP.URL
	}
	if fc.GeoIP.MaxRetries > 0 {
		opts.GeoIP.MaxRetries = fc.GeoIP.MaxRetries
	}
	if fc.GeoIP.TimeoutSeconds > 0 {
		opts.GeoIP.Timeout = time.Duration(fc.GeoIP.TimeoutSeconds) * time.Second
	}
	if fc.GeoIP.BackoffInitialSeconds > 0 {
		opts.GeoIP.BackoffInitial = time.Duration(fc.GeoIP.BackoffInitialSeconds) * time.Second
	}
	if fc.GeoIP.BackoffCapSeconds > 0 {
		opts.GeoIP.BackoffCap = time.Duration(fc.GeoIP.BackoffCapSeconds) * time.Second
	}
	if fc.Probe.Host != "" {
		opts.Probe.Host = fc.Probe.Host
	}
	if fc.Probe.TimeoutSeconds > 0 {
		opts.Probe.Timeout = time.Duration(fc.Probe.TimeoutSeconds) * time.Second
	}
	if fc.Bridge.URL != "" {
		opts.Bridge.URL = fc.Bridge.URL
	}
	if fc.Bridge.DeviceID != "" {
		opts.Bridge.DeviceID = fc.Bridge.DeviceID
	}
	if fc.Bridge.Service != "" {
		opts.Bridge.Service = fc.Bridge.Service
	}
	if fc.Bridge.Token != "" {
		opts.Bridge.Auth = cellwatch.StaticAuth{Value: fc.Bridge.Token}
	}
}

func applyEnv(opts *cellwatch.Options) {
	opts.TargetOperatorName = getenv("TARGET_OPERATOR_NAME", opts.TargetOperatorName)
	opts.ExpectedCountry = getenv("EXPECTED_COUNTRY", opts.ExpectedCountry)
	opts.Wifi.RestartDelay = getenvSeconds("WIFI_RESTART_DELAY", opts.Wifi.RestartDelay)
	opts.GeoIP.MaxRetries = getenvInt("GET_COUNTRY_MAX_RETRIES", opts.GeoIP.MaxRetries, 1)
	opts.GeoIP.Timeout = getenvSeconds("GET_COUNTRY_TIMEOUT", opts.GeoIP.Timeout)
	opts.GeoIP.URL = getenv("GET_COUNTRY_URL", opts.GeoIP.URL)
	opts.GeoIP.BackoffInitial = getenvSeconds("GET_COUNTRY_BACKOFF_INITIAL", opts.GeoIP.BackoffInitial)
	opts.GeoIP.BackoffCap = getenvSeconds("GET_COUNTRY_BACKOFF_CAP", opts.GeoIP.BackoffCap)
	opts.Probe.Host = getenv("PROBE_HOST", opts.Probe.Host)
	opts.Probe.Timeout = getenvSeconds("PROBE_TIMEOUT", opts.Probe.Timeout)
	opts.Bridge.URL = getenv("BRIDGE_URL", opts.Bridge.URL)
	opts.Bridge.DeviceID = getenv("BRIDGE_DEVICE_ID", opts.Bridge.DeviceID)
	opts.Bridge.Service = getenv("BRIDGE_SERVICE", opts.Bridge.Service)
	if v := os.Getenv("BRIDGE_TOKEN"); v != "" {
		opts.Bridge.Auth = cellwatch.StaticAuth{Value: v}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvSeconds(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
