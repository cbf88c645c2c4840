package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/rfberaldo/sqlz"
	"golang.org/x/crypto/bcrypt"
)

type AccountServicer interface {
	Authenticate(email, password string) (*models.Account, error)
	Create(account *models.Account, password string) error
	GetAll() ([]*models.Account, error)
	GetByID(id uint) (*models.Account, error)
	UpdateProfile(account *models.Account) error
}

type AccountServiceConfig struct {
	DB *sqlz.DB
}

type AccountService struct {
	db *sqlz.DB
}

func NewAccountService(config AccountServiceConfig) AccountService {
	return AccountService{
		db: config.DB,
	}
}

const accountColumns = `
   a.id
   , a.created_at
   , a.updated_at
   , a.email
   , a.password
   , a.business_name
   , a.first_name
   , a.last_name
   , a.phone_number
   , a.logo_url
   , a.smtp_server
   , a.smtp_port
   , a.smtp_user
   , a.smtp_password
`

func (s AccountService) Authenticate(email, password string) (*models.Account, error) {
	var (
		err     error
		account *models.Account
	)

	if account, err = s.getByEmail(email); err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, models.ErrInvalidCredentials
		}

		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return account, nil
}

/*
Create hashes the password and inserts the account. Email uniqueness is
checked up front and again by the unique index.
*/
func (s AccountService) Create(account *models.Account, password string) error {
	var (
		err  error
		hash []byte
	)

	account.Email = normalizeEmail(account.Email)

	if account.Email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	if _, err = s.getByEmail(account.Email); err == nil {
		return models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrAccountNotFound) {
		return err
	}

	// bcrypt only looks at the first 72 bytes.
	if len(password) > 72 {
		return models.ErrPasswordTooLong
	}

	if hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.ErrPasswordTooLong
		}

		return fmt.Errorf("error hashing password: %w", err)
	}

	account.Password = string(hash)

	if account.SmtpPort == 0 {
		account.SmtpPort = 587
	}

	sql := `
INSERT INTO accounts (
   email
   , password
   , business_name
   , first_name
   , last_name
   , phone_number
   , logo_url
   , smtp_server
   , smtp_port
   , smtp_user
   , smtp_password
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

	params := []any{
		account.Email,
		account.Password,
		account.BusinessName,
		account.FirstName,
		account.LastName,
		account.PhoneNumber,
		account.LogoUrl,
		account.SmtpServer,
		account.SmtpPort,
		account.SmtpUser,
		account.SmtpPassword,
	}

	err = withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		result, err := tx.Exec(ctx, sql, params...)

		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") {
				return models.ErrEmailTaken
			}

			return fmt.Errorf("error inserting account '%s': %w", account.Email, err)
		}

		id, err := result.LastInsertId()

		if err != nil {
			return fmt.Errorf("error reading new account ID: %w", err)
		}

		account.ID = uint(id)
		return nil
	})

	return err
}

func (s AccountService) GetAll() ([]*models.Account, error) {
	var (
		err error
	)

	result := []*models.Account{}

	sql := `
SELECT
` + accountColumns + `
FROM accounts AS a
ORDER BY a.business_name
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql); err != nil && !sqlz.IsNotFound(err) {
		return result, fmt.Errorf("error querying for all accounts: %w", err)
	}

	return result, nil
}

func (s AccountService) GetByID(id uint) (*models.Account, error) {
	var (
		err error
	)

	result := &models.Account{}

	sql := `
SELECT
` + accountColumns + `
FROM accounts AS a
WHERE 1=1
   AND a.id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, id); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrAccountNotFound
		}

		return nil, fmt.Errorf("error querying for account %d: %w", id, err)
	}

	return result, nil
}

func (s AccountService) UpdateProfile(account *models.Account) error {
	if account.SmtpPort == 0 {
		account.SmtpPort = 587
	}

	sql := `
UPDATE accounts SET
   updated_at=CURRENT_TIMESTAMP
   , business_name=?
   , first_name=?
   , last_name=?
   , phone_number=?
   , logo_url=?
   , smtp_server=?
   , smtp_port=?
   , smtp_user=?
   , smtp_password=?
WHERE id=?
`

	params := []any{
		account.BusinessName,
		account.FirstName,
		account.LastName,
		account.PhoneNumber,
		account.LogoUrl,
		account.SmtpServer,
		account.SmtpPort,
		account.SmtpUser,
		account.SmtpPassword,
		account.ID,
	}

	return withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		result, err := tx.Exec(ctx, sql, params...)

		if err != nil {
			return fmt.Errorf("error updating account %d: %w", account.ID, err)
		}

		if affected, _ := result.RowsAffected(); affected == 0 {
			return models.ErrAccountNotFound
		}

		return nil
	})
}

func (s AccountService) getByEmail(email string) (*models.Account, error) {
	var (
		err error
	)

	result := &models.Account{}

	sql := `
SELECT
` + accountColumns + `
FROM accounts AS a
WHERE 1=1
   AND a.email=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, normalizeEmail(email)); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrAccountNotFound
		}

		return nil, fmt.Errorf("error querying for account by email: %w", err)
	}

	return result, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
