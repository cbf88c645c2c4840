package models

import (
	"fmt"
	"strings"
)

var (
	ErrInvalidStatus = fmt.Errorf("invalid session status")
)

type SessionStatus string

const (
	StatusInPlanning     SessionStatus = "In Planning"
	StatusPendingRetouch SessionStatus = "Pending Retouch"
	StatusCompleted      SessionStatus = "Completed"
)

var sessionStatuses = []SessionStatus{
	StatusInPlanning,
	StatusPendingRetouch,
	StatusCompleted,
}

func SessionStatuses() []SessionStatus {
	result := make([]SessionStatus, len(sessionStatuses))
	copy(result, sessionStatuses)
	return result
}

// ParseSessionStatus only accepts the known labels, compared case-insensitively.
func ParseSessionStatus(value string) (SessionStatus, error) {
	value = strings.TrimSpace(value)

	for _, s := range sessionStatuses {
		if strings.EqualFold(string(s), value) {
			return s, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrInvalidStatus, value)
}

func (s SessionStatus) String() string {
	return string(s)
}
