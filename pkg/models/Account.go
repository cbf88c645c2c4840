package models

import (
	"fmt"
	"strings"
)

var (
	ErrAccountNotFound    = fmt.Errorf("account not found")
	ErrEmailTaken         = fmt.Errorf("an account with this email already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrPasswordTooLong    = fmt.Errorf("password is longer than 72 bytes")
)

/*
Account is a studio owner. SMTP fields are an optional personal relay
used for mail sent on the account's behalf.
*/
type Account struct {
	BaseModel

	Email        string
	Password     string
	BusinessName string
	FirstName    string
	LastName     string
	PhoneNumber  string
	LogoUrl      string
	SmtpServer   string
	SmtpPort     int
	SmtpUser     string
	SmtpPassword string
}

func (a Account) HasSmtpOverride() bool {
	return strings.TrimSpace(a.SmtpServer) != ""
}

func (a Account) DisplayName() string {
	if a.BusinessName != "" {
		return a.BusinessName
	}

	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
