package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrDispatchFailed  = fmt.Errorf("notification could not be sent")
	ErrNoClientEmail   = fmt.Errorf("session has no client email address")
)

const DefaultLocation = "Studio"

/*
Session is a client engagement. The ID is a random UUID and doubles as the
bearer token for the client portal, so it must never be derived from
anything guessable.
*/
type Session struct {
	ID                 string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AccountID          uint
	ClientName         string
	ClientEmail        string
	ClientPhone        string
	SessionType        string
	Date               string
	Location           string
	Notes              string
	Status             SessionStatus
	FollowUpDate       string
	TotalFee           float64
	AmountPaid         float64
	SelectionSubmitted bool
	AssetCount         int
}

func (s Session) PendingBalance() float64 {
	return s.TotalFee - s.AmountPaid
}

// SubmitSelections moves the session into retouching once a client has sent a selection.
func (s *Session) SubmitSelections() {
	s.SelectionSubmitted = true
	s.Status = StatusPendingRetouch
}

// Complete archives the job. Clearing the flag hides the "ready" banner on the portal.
func (s *Session) Complete() {
	s.SelectionSubmitted = false
	s.Status = StatusCompleted
}

func (s *Session) SetStatus(status SessionStatus) error {
	var (
		err error
	)

	if status, err = ParseSessionStatus(string(status)); err != nil {
		return err
	}

	s.Status = status
	return nil
}

func (s Session) HasFollowUp() bool {
	return strings.TrimSpace(s.FollowUpDate) != ""
}

/*
ParseAmount converts money form input. Missing or garbage input becomes 0.
*/
func ParseAmount(value string) float64 {
	result, err := cast.ToFloat64E(strings.TrimSpace(value))

	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}

	return result
}

type SessionTotals struct {
	Revenue        float64
	Collected      float64
	PendingBalance float64
}

func TotalsFor(sessions []*Session) SessionTotals {
	result := SessionTotals{}

	for _, s := range sessions {
		result.Revenue += s.TotalFee
		result.Collected += s.AmountPaid
	}

	result.PendingBalance = result.Revenue - result.Collected
	return result
}
