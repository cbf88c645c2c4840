package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/google/uuid"
	"github.com/rfberaldo/sqlz"
)

type SessionServicer interface {
	Complete(accountID uint, id string) (*models.Session, error)
	Create(session *models.Session) error
	Delete(accountID uint, id string) error
	GetByID(id string) (*models.Session, error)
	GetForAccount(accountID uint, id string) (*models.Session, error)
	ListForAccount(accountID uint, newestFirst bool) ([]*models.Session, error)
	ListSubmitted(accountID uint) ([]*models.Session, error)
	MarkSubmitted(id string) error
	UpdateClientInfo(accountID uint, session *models.Session) error
	UpdateDetails(accountID uint, session *models.Session) error
}

type SessionServiceConfig struct {
	ArchiveService ArchiveServicer
	AssetService   AssetServicer
	DB             *sqlz.DB
}

type SessionService struct {
	archiveService ArchiveServicer
	assetService   AssetServicer
	db             *sqlz.DB
}

func NewSessionService(config SessionServiceConfig) SessionService {
	return SessionService{
		archiveService: config.ArchiveService,
		assetService:   config.AssetService,
		db:             config.DB,
	}
}

const sessionColumns = `
   s.id
   , s.created_at
   , s.updated_at
   , s.account_id
   , s.client_name
   , s.client_email
   , s.client_phone
   , s.session_type
   , s."date"
   , s.location
   , s.notes
   , s.status
   , s.follow_up_date
   , s.total_fee
   , s.amount_paid
   , s.selection_submitted
   , (SELECT COUNT(*) FROM assets AS x WHERE x.session_id=s.id) AS asset_count
`

/*
Complete archives a job for its owner. The submitted flag is cleared so the
portal stops showing the "ready" banner.
*/
func (s SessionService) Complete(accountID uint, id string) (*models.Session, error) {
	var (
		err     error
		session *models.Session
	)

	if session, err = s.GetForAccount(accountID, id); err != nil {
		return nil, err
	}

	session.Complete()

	if err = s.writeState(session); err != nil {
		return nil, err
	}

	return session, nil
}

/*
Create assigns a fresh random identifier. That identifier is the portal's
only access control, so it always comes from uuid.New (crypto/rand).
*/
func (s SessionService) Create(session *models.Session) error {
	session.ID = uuid.NewString()
	session.ClientName = strings.TrimSpace(session.ClientName)

	if session.ClientName == "" {
		return fmt.Errorf("client name is required")
	}

	if session.Status == "" {
		session.Status = models.StatusInPlanning
	}

	if strings.TrimSpace(session.Location) == "" {
		session.Location = models.DefaultLocation
	}

	sql := `
INSERT INTO sessions (
   id
   , account_id
   , client_name
   , client_email
   , client_phone
   , session_type
   , "date"
   , location
   , notes
   , status
   , follow_up_date
   , total_fee
   , amount_paid
   , selection_submitted
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

	params := []any{
		session.ID,
		session.AccountID,
		session.ClientName,
		session.ClientEmail,
		session.ClientPhone,
		session.SessionType,
		session.Date,
		session.Location,
		session.Notes,
		string(session.Status),
		session.FollowUpDate,
		session.TotalFee,
		session.AmountPaid,
		session.SelectionSubmitted,
	}

	return withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		if _, err := tx.Exec(ctx, sql, params...); err != nil {
			return fmt.Errorf("error inserting session for account %d: %w", session.AccountID, err)
		}

		return nil
	})
}

/*
Delete removes a session and everything uploaded to it. Files go first, then
the rows in one transaction. If the transaction fails the files are already
gone; there is no way to join the two.
*/
func (s SessionService) Delete(accountID uint, id string) error {
	var (
		err    error
		assets []*models.Asset
	)

	if _, err = s.GetForAccount(accountID, id); err != nil {
		return err
	}

	if assets, err = s.assetService.ListForSession(id); err != nil {
		return err
	}

	for _, asset := range assets {
		if err = s.archiveService.Delete(asset.Filename); err != nil {
			return fmt.Errorf("error removing file for asset %d in session %s: %w", asset.ID, id, err)
		}
	}

	return withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assets WHERE session_id=?`, id); err != nil {
			return fmt.Errorf("error deleting assets for session %s: %w", id, err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id=? AND account_id=?`, id, accountID)

		if err != nil {
			return fmt.Errorf("error deleting session %s: %w", id, err)
		}

		if affected, _ := result.RowsAffected(); affected == 0 {
			return models.ErrSessionNotFound
		}

		slog.Info("session deleted", "sessionID", id, "accountID", accountID, "assets", len(assets))
		return nil
	})
}

/*
GetByID looks a session up by its token alone. This is the portal path:
holding the identifier is the authorization.
*/
func (s SessionService) GetByID(id string) (*models.Session, error) {
	var (
		err error
	)

	result := &models.Session{}

	sql := `
SELECT
` + sessionColumns + `
FROM sessions AS s
WHERE 1=1
   AND s.id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, id); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrSessionNotFound
		}

		return nil, fmt.Errorf("error querying for session %s: %w", id, err)
	}

	return result, nil
}

func (s SessionService) GetForAccount(accountID uint, id string) (*models.Session, error) {
	var (
		err error
	)

	result := &models.Session{}

	sql := `
SELECT
` + sessionColumns + `
FROM sessions AS s
WHERE 1=1
   AND s.id=?
   AND s.account_id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, id, accountID); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrSessionNotFound
		}

		return nil, fmt.Errorf("error querying for session %s, account %d: %w", id, accountID, err)
	}

	return result, nil
}

func (s SessionService) ListForAccount(accountID uint, newestFirst bool) ([]*models.Session, error) {
	var (
		err error
	)

	result := []*models.Session{}
	orderBy := "s.created_at"

	if newestFirst {
		orderBy = `s."date" DESC, s.created_at DESC`
	}

	sql := `
SELECT
` + sessionColumns + `
FROM sessions AS s
WHERE 1=1
   AND s.account_id=?
ORDER BY ` + orderBy

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, accountID); err != nil && !sqlz.IsNotFound(err) {
		return result, fmt.Errorf("error querying for sessions by account ID %d: %w", accountID, err)
	}

	return result, nil
}

func (s SessionService) ListSubmitted(accountID uint) ([]*models.Session, error) {
	var (
		err error
	)

	result := []*models.Session{}

	sql := `
SELECT
` + sessionColumns + `
FROM sessions AS s
WHERE 1=1
   AND s.account_id=?
   AND s.selection_submitted=1
ORDER BY s.updated_at
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, accountID); err != nil && !sqlz.IsNotFound(err) {
		return result, fmt.Errorf("error querying for submitted sessions by account ID %d: %w", accountID, err)
	}

	return result, nil
}

func (s SessionService) MarkSubmitted(id string) error {
	var (
		err     error
		session *models.Session
	)

	if session, err = s.GetByID(id); err != nil {
		return err
	}

	session.SubmitSelections()
	return s.writeState(session)
}

func (s SessionService) UpdateClientInfo(accountID uint, session *models.Session) error {
	var (
		err error
	)

	if session.Status, err = models.ParseSessionStatus(string(session.Status)); err != nil {
		return err
	}

	sql := `
UPDATE sessions SET
   updated_at=CURRENT_TIMESTAMP
   , total_fee=?
   , amount_paid=?
   , status=?
   , follow_up_date=?
   , client_email=?
   , client_phone=?
WHERE 1=1
   AND id=?
   AND account_id=?
`

	params := []any{
		session.TotalFee,
		session.AmountPaid,
		string(session.Status),
		session.FollowUpDate,
		session.ClientEmail,
		session.ClientPhone,
		session.ID,
		accountID,
	}

	return s.execOne(sql, params, session.ID)
}

func (s SessionService) UpdateDetails(accountID uint, session *models.Session) error {
	session.ClientName = strings.TrimSpace(session.ClientName)

	if session.ClientName == "" {
		return fmt.Errorf("client name is required")
	}

	sql := `
UPDATE sessions SET
   updated_at=CURRENT_TIMESTAMP
   , client_name=?
   , location=?
   , "date"=?
   , total_fee=?
   , amount_paid=?
WHERE 1=1
   AND id=?
   AND account_id=?
`

	params := []any{
		session.ClientName,
		session.Location,
		session.Date,
		session.TotalFee,
		session.AmountPaid,
		session.ID,
		accountID,
	}

	return s.execOne(sql, params, session.ID)
}

func (s SessionService) writeState(session *models.Session) error {
	sql := `
UPDATE sessions SET
   updated_at=CURRENT_TIMESTAMP
   , selection_submitted=?
   , status=?
WHERE id=?
`

	return s.execOne(sql, []any{session.SelectionSubmitted, string(session.Status), session.ID}, session.ID)
}

func (s SessionService) execOne(sql string, params []any, id string) error {
	return withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		result, err := tx.Exec(ctx, sql, params...)

		if err != nil {
			return fmt.Errorf("error updating session %s: %w", id, err)
		}

		if affected, _ := result.RowsAffected(); affected == 0 {
			return models.ErrSessionNotFound
		}

		return nil
	})
}
