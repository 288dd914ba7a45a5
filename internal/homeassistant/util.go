package homeassistant

import "strings"

// getDeviceClass picks a binary_sensor device class for a zone, preferring
// the configured one and otherwise guessing from the name.
func getDeviceClass(name, configured string) string {
	if configured != "" {
		return configured
	}

	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "pir") || strings.Contains(name, "motion"):
		return "motion"
	case strings.Contains(name, "door"):
		return "door"
	case strings.Contains(name, "window"):
		return "window"
	case strings.Contains(name, "smoke") || strings.Contains(name, "fire"):
		return "smoke"
	case strings.Contains(name, "gas") || strings.Contains(name, "co "):
		return "gas"
	case strings.Contains(name, "water") || strings.Contains(name, "flood"):
		return "moisture"
	case strings.Contains(name, "glass"):
		return "vibration"
	}

	// Default to motion if we can't determine a more specific type
	return "motion"
}
