package viewmodels

import "github.com/adampresley/darkroom/pkg/models"

type ClientManager struct {
	BaseViewModel

	Account  *models.Account
	Sessions []ClientManagerSession
	Statuses []models.SessionStatus
}

type ClientManagerSession struct {
	Session   *models.Session
	PortalURL string
	Assets    []Asset
}
