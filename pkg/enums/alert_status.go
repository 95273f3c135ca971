package enums

import "fmt"

// AlertStatus tracks the lifecycle of a bycatch hotspot alert.
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusShared    AlertStatus = "shared"
	AlertStatusDismissed AlertStatus = "dismissed"
)

var validAlertStatuses = []AlertStatus{
	AlertStatusPending,
	AlertStatusShared,
	AlertStatusDismissed,
}

// IsValid reports whether the value is a known AlertStatus.
func (a AlertStatus) IsValid() bool {
	for _, candidate := range validAlertStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the alert can no longer change state. Shared is
// terminal; dismissed alerts stay dismissed.
func (a AlertStatus) IsTerminal() bool {
	return a == AlertStatusShared || a == AlertStatusDismissed
}

// ParseAlertStatus converts the raw string to AlertStatus.
func ParseAlertStatus(value string) (AlertStatus, error) {
	for _, candidate := range validAlertStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert status %q", value)
}
