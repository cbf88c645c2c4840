package viewmodels

import "github.com/adampresley/darkroom/pkg/models"

/*
Dashboard also renders the retouching queue, which shows only submitted
sessions and hides the follow-up list.
*/
type Dashboard struct {
	BaseViewModel

	Account     *models.Account
	IsQueueView bool
	Sessions    []*models.Session
	FollowUps   []*models.Session
	Today       string
	Totals      models.SessionTotals
}

type Support struct {
	BaseViewModel

	Account    *models.Account
	Categories []string
}
