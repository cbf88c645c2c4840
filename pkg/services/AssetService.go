package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/rfberaldo/sqlz"
)

type AssetServicer interface {
	Delete(accountID, assetID uint) (*models.Asset, error)
	GetByID(assetID uint) (*models.Asset, error)
	ListForSession(sessionID string) ([]*models.Asset, error)
	ListSelected(sessionID string) ([]*models.Asset, error)
	ToggleSelection(sessionID string, assetID uint) (*models.Asset, error)
	Upload(accountID uint, sessionID, originalName string, r io.Reader) (*models.Asset, error)
}

type AssetServiceConfig struct {
	ArchiveService ArchiveServicer
	DB             *sqlz.DB
}

type AssetService struct {
	archiveService ArchiveServicer
	db             *sqlz.DB
}

func NewAssetService(config AssetServiceConfig) AssetService {
	return AssetService{
		archiveService: config.ArchiveService,
		db:             config.DB,
	}
}

const assetColumns = `
   p.id
   , p.created_at
   , p.updated_at
   , p.session_id
   , p.filename
   , p.is_selected
`

/*
Delete removes the file and then the row. A file that is already gone is
fine. If the row delete fails after the file is removed, the row is left
pointing at nothing.
*/
func (s AssetService) Delete(accountID, assetID uint) (*models.Asset, error) {
	var (
		err   error
		asset *models.Asset
	)

	result := &models.Asset{}

	sql := `
SELECT
` + assetColumns + `
FROM assets AS p
   INNER JOIN sessions AS s ON s.id=p.session_id
WHERE 1=1
   AND p.id=?
   AND s.account_id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, assetID, accountID); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrAssetNotFound
		}

		return nil, fmt.Errorf("error querying for asset %d, account %d: %w", assetID, accountID, err)
	}

	asset = result

	if err = s.archiveService.Delete(asset.Filename); err != nil {
		return asset, fmt.Errorf("error removing file for asset %d: %w", assetID, err)
	}

	err = withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assets WHERE id=?`, assetID); err != nil {
			return fmt.Errorf("error deleting asset %d: %w", assetID, err)
		}

		return nil
	})

	if err != nil {
		slog.Error("asset file removed but row remains", "assetID", assetID, "filename", asset.Filename, "error", err)
		return asset, err
	}

	return asset, nil
}

func (s AssetService) GetByID(assetID uint) (*models.Asset, error) {
	var (
		err error
	)

	result := &models.Asset{}

	sql := `
SELECT
` + assetColumns + `
FROM assets AS p
WHERE 1=1
   AND p.id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, assetID); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrAssetNotFound
		}

		return nil, fmt.Errorf("error querying for asset %d: %w", assetID, err)
	}

	return result, nil
}

func (s AssetService) ListForSession(sessionID string) ([]*models.Asset, error) {
	return s.list(sessionID, false)
}

func (s AssetService) ListSelected(sessionID string) ([]*models.Asset, error) {
	return s.list(sessionID, true)
}

func (s AssetService) ToggleSelection(sessionID string, assetID uint) (*models.Asset, error) {
	sql := `
UPDATE assets SET
   updated_at=CURRENT_TIMESTAMP
   , is_selected=(CASE WHEN is_selected=1 THEN 0 ELSE 1 END)
WHERE 1=1
   AND id=?
   AND session_id=?
`

	err := withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		result, err := tx.Exec(ctx, sql, assetID, sessionID)

		if err != nil {
			return fmt.Errorf("error toggling selection for asset %d, session %s: %w", assetID, sessionID, err)
		}

		if affected, _ := result.RowsAffected(); affected == 0 {
			return models.ErrAssetNotFound
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return s.GetByID(assetID)
}

/*
Upload writes the file and only then records the row. When the insert fails
the file is removed again on a best-effort basis.
*/
func (s AssetService) Upload(accountID uint, sessionID, originalName string, r io.Reader) (*models.Asset, error) {
	var (
		err        error
		storedName string
	)

	if err = s.checkOwner(accountID, sessionID); err != nil {
		return nil, err
	}

	if storedName, err = s.archiveService.Store(originalName, r); err != nil {
		return nil, err
	}

	asset := &models.Asset{
		SessionID: sessionID,
		Filename:  storedName,
	}

	err = withTx(s.db, func(ctx context.Context, tx *sqlz.Tx) error {
		result, err := tx.Exec(ctx, `INSERT INTO assets (session_id, filename) VALUES (?, ?)`, sessionID, storedName)

		if err != nil {
			return fmt.Errorf("error inserting asset for session %s: %w", sessionID, err)
		}

		id, err := result.LastInsertId()

		if err != nil {
			return fmt.Errorf("error reading new asset ID: %w", err)
		}

		asset.ID = uint(id)
		return nil
	})

	if err != nil {
		if rmErr := s.archiveService.Delete(storedName); rmErr != nil {
			slog.Error("error removing orphaned upload", "filename", storedName, "error", rmErr)
		}

		return nil, err
	}

	return asset, nil
}

func (s AssetService) checkOwner(accountID uint, sessionID string) error {
	var (
		err error
	)

	session := &models.Session{}

	sql := `
SELECT
   s.id
   , s.account_id
FROM sessions AS s
WHERE 1=1
   AND s.id=?
   AND s.account_id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.QueryRow(ctx, session, sql, sessionID, accountID); err != nil {
		if sqlz.IsNotFound(err) {
			return models.ErrSessionNotFound
		}

		return fmt.Errorf("error checking owner of session %s: %w", sessionID, err)
	}

	return nil
}

func (s AssetService) list(sessionID string, selectedOnly bool) ([]*models.Asset, error) {
	var (
		err error
	)

	result := []*models.Asset{}

	sql := `
SELECT
` + assetColumns + `
FROM assets AS p
WHERE 1=1
   AND p.session_id=?
`

	if selectedOnly {
		sql += "   AND p.is_selected=1\n"
	}

	sql += "ORDER BY p.id"

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, sessionID); err != nil && !sqlz.IsNotFound(err) {
		return result, fmt.Errorf("error querying for assets in session %s: %w", sessionID, err)
	}

	return result, nil
}
