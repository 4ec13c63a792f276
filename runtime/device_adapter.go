package runtime

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/stepherg/cellwatch"
	"github.com/stepherg/cellwatch/translate"
)

// Device commands, invoked through whatever Commander is wired in.
const (
	cmdWifiEnable       = "termux-wifi-enable"
	cmdDeviceInfo       = "termux-telephony-deviceinfo"
	cmdNotificationList = "termux-notification-list"
)

// DeviceAdapter reads telephony state and toggles the Wi-Fi radio through a
// command transport. Every failure is absorbed here: readers report absence,
// the remediator reports false, nothing returns an error to the caller.
type DeviceAdapter struct {
	cmd cellwatch.Commander
	log logr.Logger

	// sleep is injectable so tests can assert the restart delay without
	// waiting it out.
	sleep func(time.Duration)
}

func NewDeviceAdapter(cmd cellwatch.Commander, log logr.Logger) *DeviceAdapter {
	return &DeviceAdapter{cmd: cmd, log: log, sleep: time.Sleep}
}

// ReadDeviceInfo queries telephony attributes. A failing command or a body
// that does not decode yields the absent value.
func (d *DeviceAdapter) ReadDeviceInfo(ctx context.Context) cellwatch.DeviceInfo {
	out, err := d.cmd.Run(ctx, cmdDeviceInfo)
	if err != nil {
		d.log.Error(err, "device info query failed")
		return nil
	}
	info, err := translate.DecodeDeviceInfo(out)
	if err != nil {
		d.log.Error(err, "device info did not decode")
		return nil
	}
	return info
}

// ReadNotifications lists active system notifications. A command error alone
// does not short-circuit: whatever stdout was captured is still attempted as
// JSON, so an empty notification list on a grumpy device still parses.
func (d *DeviceAdapter) ReadNotifications(ctx context.Context) ([]cellwatch.Notification, bool) {
	out, err := d.cmd.Run(ctx, cmdNotificationList)
	if err != nil {
		d.log.Error(err, "notification listing failed")
		if len(out) == 0 {
			return nil, false
		}
	}
	notes, derr := translate.DecodeNotifications(out)
	if derr != nil {
		d.log.Error(derr, "notification list did not decode")
		return nil, false
	}
	return notes, true
}

// RestartWifi performs disable, delay, enable. The first failure aborts the
// rest of the sequence; there is no retry and no attempt to restore state.
func (d *DeviceAdapter) RestartWifi(ctx context.Context, delay time.Duration) bool {
	if _, err := d.cmd.Run(ctx, cmdWifiEnable, "false"); err != nil {
		d.log.Error(err, "wifi disable failed")
		return false
	}
	d.sleep(delay)
	if _, err := d.cmd.Run(ctx, cmdWifiEnable, "true"); err != nil {
		d.log.Error(err, "wifi enable failed")
		return false
	}
	return true
}
