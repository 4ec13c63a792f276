package policy

import (
	"strings"

	cw "github.com/stepherg/cellwatch"
)

// PhonePackage is the system telephony app whose notifications carry
// carrier-reported service state.
const PhonePackage = "com.android.phone"

// outage substrings, matched case-insensitively against notification content
var outageMarkers = []string{"no service", "unavailable"}

// OperatorMatches reports whether info is present and its active carrier name
// equals target exactly (case-sensitive).
func OperatorMatches(info cw.DeviceInfo, target string) bool {
	name, ok := info.OperatorName()
	return ok && name == target
}

// NetworkIsUp scans every notification for a carrier-reported outage. It
// returns false iff some telephony-app notification mentions an outage
// marker; an empty list is up.
func NetworkIsUp(notifications []cw.Notification) bool {
	for _, n := range notifications {
		if n.PackageName != PhonePackage {
			continue
		}
		content := strings.ToLower(n.Content)
		for _, marker := range outageMarkers {
			if strings.Contains(content, marker) {
				return false
			}
		}
	}
	return true
}
