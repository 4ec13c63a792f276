// Package monitor holds the decision engine: one pass over the device's
// cellular state ending in exactly one terminal outcome, with the Wi-Fi
// radio toggled when, and only when, the evidence warrants it.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stepherg/cellwatch"
	"github.com/stepherg/cellwatch/policy"
)

// Device is the slice of the command transport the engine needs: fresh
// telephony reads and the remediation action. All failure absorption happens
// below this interface; the engine only sees absence and booleans.
type Device interface {
	ReadDeviceInfo(ctx context.Context) cellwatch.DeviceInfo
	ReadNotifications(ctx context.Context) ([]cellwatch.Notification, bool)
	RestartWifi(ctx context.Context, delay time.Duration) bool
}

// CountryResolver resolves the device's current country, or reports the
// explicit unknown value when it cannot.
type CountryResolver interface {
	ResolveCountry(ctx context.Context) cellwatch.Country
}

// Engine runs one decision cycle. It holds no state across cycles; every
// input is read fresh and discarded at the terminal state.
type Engine struct {
	opts    cellwatch.Options
	device  Device
	country CountryResolver
	sink    cellwatch.EventSink
}

func NewEngine(opts cellwatch.Options, device Device, country CountryResolver, sink cellwatch.EventSink) *Engine {
	if sink == nil {
		sink = cellwatch.NopSink{}
	}
	return &Engine{opts: opts, device: device, country: country, sink: sink}
}

// RunCycle executes the policy end to end and returns the terminal outcome.
// It never returns an error: every failure in a collaborator has already
// been converted to absence or false by the time it reaches this level.
//
// Absent notifications count as healthy. That is deliberate: with no
// evidence of a carrier outage and the operator matching, restarting the
// radio would disrupt a connection nothing indicts.
func (e *Engine) RunCycle(ctx context.Context) cellwatch.Outcome {
	cycle := uuid.NewString()

	info := e.device.ReadDeviceInfo(ctx)
	if !info.Present() {
		e.sink.Emit(cellwatch.LevelError, "device info unavailable, cannot decide", "cycle", cycle)
		return cellwatch.OutcomeDeviceInfoUnknown
	}
	operator, _ := info.OperatorName()

	notes, notesPresent := e.device.ReadNotifications(ctx)

	operatorOK := policy.OperatorMatches(info, e.opts.TargetOperatorName)
	networkOK := !notesPresent || policy.NetworkIsUp(notes)
	if operatorOK && networkOK {
		e.sink.Emit(cellwatch.LevelInfo, "operator matched and network up, no action needed",
			"cycle", cycle, "operator", operator)
		return cellwatch.OutcomeNoActionNeeded
	}

	country := e.country.ResolveCountry(ctx)
	if !country.Known {
		e.sink.Emit(cellwatch.LevelCritical, "country unresolved, possible connectivity loss",
			"cycle", cycle, "operator", operator)
		return cellwatch.OutcomeCountryUnresolved
	}
	if !country.Equals(e.opts.ExpectedCountry) {
		e.sink.Emit(cellwatch.LevelWarning, "country mismatch, skipping restart",
			"cycle", cycle, "country", country.Code, "expected", e.opts.ExpectedCountry)
		return cellwatch.OutcomeCountryMismatch
	}

	if e.device.RestartWifi(ctx, e.opts.Wifi.RestartDelay) {
		e.sink.Emit(cellwatch.LevelInfo, "wifi restart succeeded",
			"cycle", cycle, "operator", operator, "country", country.Code)
		return cellwatch.OutcomeRestarted
	}
	e.sink.Emit(cellwatch.LevelError, "wifi restart failed",
		"cycle", cycle, "operator", operator, "country", country.Code)
	return cellwatch.OutcomeRestartFailed
}
