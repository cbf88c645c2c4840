package thumbnails

import (
	"log/slog"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
)

type Backfiller interface {
	CreateMissing() int
}

type BackfillConfig struct {
	AccountService   services.AccountServicer
	ArchiveService   services.ArchiveServicer
	AssetService     services.AssetServicer
	SessionService   services.SessionServicer
	ThumbnailService services.ThumbnailServicer
}

/*
BackfillService walks every account's sessions and creates thumbnails for
photos that do not have one yet, such as uploads from before thumbnails
existed or ones whose resize failed.
*/
type BackfillService struct {
	accountService   services.AccountServicer
	archiveService   services.ArchiveServicer
	assetService     services.AssetServicer
	sessionService   services.SessionServicer
	thumbnailService services.ThumbnailServicer
}

func NewBackfillService(config BackfillConfig) BackfillService {
	return BackfillService{
		accountService:   config.AccountService,
		archiveService:   config.ArchiveService,
		assetService:     config.AssetService,
		sessionService:   config.SessionService,
		thumbnailService: config.ThumbnailService,
	}
}

// CreateMissing returns the number of photos it queued.
func (b BackfillService) CreateMissing() int {
	var (
		err      error
		accounts []*models.Account
		sessions []*models.Session
		assets   []*models.Asset
	)

	slog.Info("starting thumbnail backfill...")

	if accounts, err = b.accountService.GetAll(); err != nil {
		slog.Error("error retrieving accounts from database", "error", err)
		return 0
	}

	missing := []string{}

	for _, account := range accounts {
		if sessions, err = b.sessionService.ListForAccount(account.ID, false); err != nil {
			slog.Error("error retrieving sessions", "accountID", account.ID, "error", err)
			continue
		}

		for _, session := range sessions {
			if assets, err = b.assetService.ListForSession(session.ID); err != nil {
				slog.Error("error retrieving photos for session", "accountID", account.ID, "sessionID", session.ID, "error", err)
				continue
			}

			for _, asset := range assets {
				if b.thumbnailService.CanThumbnail(asset.Filename) && !b.archiveService.HasThumbnail(asset.Filename) {
					missing = append(missing, asset.Filename)
				}
			}
		}
	}

	slog.Info("creating missing thumbnails...", "numAccounts", len(accounts), "numMissing", len(missing))
	b.thumbnailService.CreateThumbnails(missing)

	return len(missing)
}
