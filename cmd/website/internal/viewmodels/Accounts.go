package viewmodels

import "github.com/adampresley/darkroom/pkg/models"

type Login struct {
	BaseViewModel

	Email string
}

type Signup struct {
	BaseViewModel

	Account *models.Account
}

type Profile struct {
	BaseViewModel

	Account *models.Account
}
