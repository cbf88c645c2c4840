package services

import (
	"strings"
	"testing"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCreateAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)

	account := env.createAccount(t, "Owner@Example.com")
	assert.NotZero(t, account.ID)
	assert.Equal(t, "owner@example.com", account.Email)
	assert.NotEqual(t, "correct horse battery staple", account.Password, "password is stored hashed")

	got, err := env.accountService.Authenticate("owner@example.com", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, 587, got.SmtpPort)

	_, err = env.accountService.Authenticate("owner@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = env.accountService.Authenticate("nobody@example.com", "correct horse battery staple")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAccountEmailIsUnique(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "owner@example.com")

	err := env.accountService.Create(&models.Account{Email: " OWNER@example.com "}, "another password")
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	accounts, err := env.accountService.GetAll()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAccountUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")

	account.BusinessName = "The Darkroom"
	account.SmtpServer = "smtp.example.com"
	account.SmtpPort = 0
	account.SmtpUser = "owner@example.com"
	require.NoError(t, env.accountService.UpdateProfile(account))

	got, err := env.accountService.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Darkroom", got.BusinessName)
	assert.Equal(t, "smtp.example.com", got.SmtpServer)
	assert.Equal(t, 587, got.SmtpPort)

	_, err = env.accountService.GetByID(9999)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	assert.ErrorIs(t, env.accountService.UpdateProfile(&models.Account{BaseModel: models.BaseModel{ID: 9999}}), models.ErrAccountNotFound)
}

func TestAccountCreateRejectsLongPassword(t *testing.T) {
	env := newTestEnv(t)

	err := env.accountService.Create(&models.Account{Email: "owner@example.com"}, strings.Repeat("p", 73))
	assert.ErrorIs(t, err, models.ErrPasswordTooLong)

	accounts, err := env.accountService.GetAll()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	account := &models.Account{Email: "owner@example.com"}
	require.NoError(t, env.accountService.Create(account, strings.Repeat("p", 72)))
	assert.NotZero(t, account.ID)
}
