package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stepherg/cellwatch"
	"github.com/stepherg/cellwatch/geoip"
	"github.com/stepherg/cellwatch/internal/logging"
	"github.com/stepherg/cellwatch/monitor"
	"github.com/stepherg/cellwatch/probe"
	"github.com/stepherg/cellwatch/runtime"
)

// cellwatch: single-shot cellular-health watchdog. An external scheduler
// (cron, termux-job-scheduler) invokes it periodically; each run performs
// exactly one decision cycle and exits.
func main() {
	os.Exit(run())
}

func run() int {
	opts, logCfg, err := LoadConfig(os.Getenv("CELLWATCH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cellwatch: %v\n", err)
		return 1
	}

	log, sink, err := logging.Configure(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cellwatch: logging setup failed: %v\n", err)
		return 1
	}

	var commander cellwatch.Commander
	if opts.Bridge.URL != "" {
		bridge := runtime.NewBridgeCommander(opts.Bridge, 0, log.WithName("bridge"))
		if err := bridge.Connect(context.Background()); err != nil {
			log.Error(err, "bridge connect failed", "url", opts.Bridge.URL)
			fmt.Println("No action taken.")
			return 1
		}
		defer bridge.Close()
		commander = bridge
	} else {
		commander = runtime.NewExecCommander(0, log.WithName("exec"))
	}

	device := runtime.NewDeviceAdapter(commander, log.WithName("device"))
	pinger := probe.New(opts.Probe, log.WithName("probe"))
	resolver := geoip.NewResolver(opts.GeoIP, pinger, log.WithName("geoip"))
	engine := monitor.NewEngine(opts, device, resolver, sink)

	outcome := engine.RunCycle(context.Background())
	fmt.Println(outcomeLine(outcome))

	switch outcome {
	case cellwatch.OutcomeNoActionNeeded, cellwatch.OutcomeRestarted, cellwatch.OutcomeCountryMismatch:
		return 0
	default:
		return 1
	}
}

func outcomeLine(o cellwatch.Outcome) string {
	switch o {
	case cellwatch.OutcomeRestarted:
		return "Wi-Fi restarted successfully."
	case cellwatch.OutcomeRestartFailed:
		return "Wi-Fi restart failed."
	case cellwatch.OutcomeNoActionNeeded:
		return "No action taken."
	case cellwatch.OutcomeCountryMismatch:
		return "No action taken: country does not match."
	case cellwatch.OutcomeCountryUnresolved:
		return "No action taken: country unresolved, possible connectivity loss."
	default:
		return "No action taken: device info unavailable."
	}
}
