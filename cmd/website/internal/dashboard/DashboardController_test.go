package dashboard_test

import (
	"testing"

	"github.com/adampresley/darkroom/cmd/website/internal/dashboard"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestFollowUpsSortedEarliestFirst(t *testing.T) {
	sessions := []*models.Session{
		{ClientName: "late", FollowUpDate: "2026-09-01"},
		{ClientName: "none"},
		{ClientName: "early", FollowUpDate: "2026-01-15"},
		{ClientName: "blank", FollowUpDate: "  "},
	}

	got := dashboard.FollowUps(sessions)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "early", got[0].ClientName)
		assert.Equal(t, "late", got[1].ClientName)
	}
}
