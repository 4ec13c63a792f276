package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stepherg/cellwatch"
)

var errEmptyCommand = errors.New("translate: empty command")

// DecodeDeviceInfo parses termux-telephony-deviceinfo output into a flat
// string map. Scalar values (string, number, bool) are stringified; nested
// values are dropped rather than failing the whole decode.
func DecodeDeviceInfo(data []byte) (cellwatch.DeviceInfo, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	info := make(cellwatch.DeviceInfo, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			info[k] = val
		case float64:
			info[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			info[k] = strconv.FormatBool(val)
		case nil:
			// keep the key visible, value empty
			info[k] = ""
		}
	}
	return info, nil
}

// DecodeNotifications parses termux-notification-list output.
func DecodeNotifications(data []byte) ([]cellwatch.Notification, error) {
	var notes []cellwatch.Notification
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	return notes, nil
}

// commandEnvelope is the JSON body carried inside a WRP payload when a
// command is executed through the bridge instead of locally.
type commandEnvelope struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// CommandResult is the bridge's reply envelope.
type CommandResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
}

// BuildCommand constructs the bridge request envelope.
func BuildCommand(name string, args []string) ([]byte, error) {
	if name == "" {
		return nil, errEmptyCommand
	}
	return json.Marshal(commandEnvelope{Command: name, Args: args})
}

// ParseCommand decodes a request envelope; used by bridge test doubles and
// any gateway-side tooling.
func ParseCommand(data []byte) (name string, args []string, err error) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	if env.Command == "" {
		return "", nil, errEmptyCommand
	}
	return env.Command, env.Args, nil
}

// ParseCommandResult decodes a reply envelope.
func ParseCommandResult(data []byte) (*CommandResult, error) {
	var res CommandResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", cellwatch.ErrMalformedBody, err)
	}
	return &res, nil
}

// BuildCommandResult constructs a reply envelope; the gateway-side half of
// ParseCommandResult.
func BuildCommandResult(exitCode int, stdout, stderr string) ([]byte, error) {
	return json.Marshal(CommandResult{ExitCode: exitCode, Stdout: stdout, Stderr: stderr})
}
