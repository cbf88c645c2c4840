package clientmanager

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/darkroom/cmd/website/internal/viewmodels"
	"github.com/adampresley/darkroom/pkg/metrics"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
)

const maxUploadMemory = 32 << 20

type ClientManagerControllerConfig struct {
	AccountService      services.AccountServicer
	ArchiveService      services.ArchiveServicer
	AssetService        services.AssetServicer
	NotificationService services.NotificationServicer
	Renderer            rendering.TemplateRenderer
	SessionService      services.SessionServicer
	ThumbnailService    services.ThumbnailServicer
}

type ClientManagerController struct {
	accountService      services.AccountServicer
	archiveService      services.ArchiveServicer
	assetService        services.AssetServicer
	notificationService services.NotificationServicer
	renderer            rendering.TemplateRenderer
	sessionService      services.SessionServicer
	thumbnailService    services.ThumbnailServicer
}

func NewClientManagerController(config ClientManagerControllerConfig) ClientManagerController {
	return ClientManagerController{
		accountService:      config.AccountService,
		archiveService:      config.ArchiveService,
		assetService:        config.AssetService,
		notificationService: config.NotificationService,
		renderer:            config.Renderer,
		sessionService:      config.SessionService,
		thumbnailService:    config.ThumbnailService,
	}
}

/*
GET /client-manager
*/
func (c ClientManagerController) ClientManagerPage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		sessions []*models.Session
		assets   []*models.Asset
	)

	pageName := "pages/clientmanager/client-manager"

	viewData := viewmodels.ClientManager{
		BaseViewModel: viewmodels.NewBaseViewModel(r, rendering.JavascriptInclude{Type: "module", Src: "/static/js/pages/client-manager.js"}),
		Account:       viewmodels.GetAccountFromContext(r),
		Sessions:      []viewmodels.ClientManagerSession{},
		Statuses:      models.SessionStatuses(),
	}

	if sessions, err = c.sessionService.ListForAccount(viewData.Account.ID, true); err != nil {
		slog.Error("error getting sessions for client manager", "error", err, "accountID", viewData.Account.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred loading your clients."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	for _, session := range sessions {
		if assets, err = c.assetService.ListForSession(session.ID); err != nil {
			slog.Error("error getting assets for session", "error", err, "sessionID", session.ID)
			assets = []*models.Asset{}
		}

		viewData.Sessions = append(viewData.Sessions, viewmodels.ClientManagerSession{
			Session:   session,
			PortalURL: c.notificationService.PortalURL(session.ID),
			Assets:    viewmodels.ToAssets(assets, c.archiveService),
		})
	}

	c.renderer.Render(pageName, viewData, w)
}

/*
POST /sessions
*/
func (c ClientManagerController) CreateSessionAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	account := viewmodels.GetAccountFromContext(r)

	session := &models.Session{
		AccountID:   account.ID,
		ClientName:  strings.TrimSpace(httphelpers.GetFromRequest[string](r, "clientName")),
		ClientEmail: strings.TrimSpace(httphelpers.GetFromRequest[string](r, "clientEmail")),
		ClientPhone: strings.TrimSpace(httphelpers.GetFromRequest[string](r, "clientPhone")),
		SessionType: strings.TrimSpace(httphelpers.GetFromRequest[string](r, "sessionType")),
		Location:    strings.TrimSpace(httphelpers.GetFromRequest[string](r, "location")),
		Date:        strings.TrimSpace(httphelpers.GetFromRequest[string](r, "date")),
		Notes:       strings.TrimSpace(httphelpers.GetFromRequest[string](r, "notes")),
		TotalFee:    models.ParseAmount(httphelpers.GetFromRequest[string](r, "totalFee")),
		AmountPaid:  models.ParseAmount(httphelpers.GetFromRequest[string](r, "amountPaid")),
	}

	if session.ClientName == "" {
		viewmodels.RedirectWithMessage(w, r, "/", "warning", "A client name is required.")
		return
	}

	if err = c.sessionService.Create(session); err != nil {
		slog.Error("error creating session", "error", err, "accountID", account.ID)
		viewmodels.RedirectWithMessage(w, r, "/", "error", "The session could not be created.")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/", "", fmt.Sprintf("Session for %s created.", session.ClientName))
}

/*
POST /sessions/{id}/details
*/
func (c ClientManagerController) UpdateDetailsAction(w http.ResponseWriter, r *http.Request) {
	account := viewmodels.GetAccountFromContext(r)

	session := &models.Session{
		ID:         httphelpers.GetFromRequest[string](r, "id"),
		ClientName: httphelpers.GetFromRequest[string](r, "clientName"),
		Location:   strings.TrimSpace(httphelpers.GetFromRequest[string](r, "location")),
		Date:       strings.TrimSpace(httphelpers.GetFromRequest[string](r, "date")),
		TotalFee:   models.ParseAmount(httphelpers.GetFromRequest[string](r, "totalFee")),
		AmountPaid: models.ParseAmount(httphelpers.GetFromRequest[string](r, "amountPaid")),
	}

	if strings.TrimSpace(session.ClientName) == "" {
		viewmodels.RedirectWithMessage(w, r, "/client-manager", "warning", "A client name is required.")
		return
	}

	if err := c.sessionService.UpdateDetails(account.ID, session); err != nil {
		c.redirectForError(w, r, err, session.ID, "updating session details")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/client-manager", "", fmt.Sprintf("Details updated for %s.", session.ClientName))
}

/*
POST /sessions/{id}/client-info
*/
func (c ClientManagerController) UpdateClientInfoAction(w http.ResponseWriter, r *http.Request) {
	account := viewmodels.GetAccountFromContext(r)

	session := &models.Session{
		ID:           httphelpers.GetFromRequest[string](r, "id"),
		ClientEmail:  strings.TrimSpace(httphelpers.GetFromRequest[string](r, "clientEmail")),
		ClientPhone:  strings.TrimSpace(httphelpers.GetFromRequest[string](r, "clientPhone")),
		Status:       models.SessionStatus(httphelpers.GetFromRequest[string](r, "status")),
		FollowUpDate: strings.TrimSpace(httphelpers.GetFromRequest[string](r, "followUpDate")),
		TotalFee:     models.ParseAmount(httphelpers.GetFromRequest[string](r, "totalFee")),
		AmountPaid:   models.ParseAmount(httphelpers.GetFromRequest[string](r, "amountPaid")),
	}

	if err := c.sessionService.UpdateClientInfo(account.ID, session); err != nil {
		c.redirectForError(w, r, err, session.ID, "updating client info")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/client-manager", "", "Client info saved.")
}

/*
POST /sessions/{id}/complete
*/
func (c ClientManagerController) CompleteAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		session *models.Session
	)

	account := viewmodels.GetAccountFromContext(r)
	id := httphelpers.GetFromRequest[string](r, "id")

	if session, err = c.sessionService.Complete(account.ID, id); err != nil {
		c.redirectForError(w, r, err, id, "completing session")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/", "", fmt.Sprintf("Archive for %s marked as complete.", session.ClientName))
}

/*
POST /sessions/{id}/delete
*/
func (c ClientManagerController) DeleteAction(w http.ResponseWriter, r *http.Request) {
	account := viewmodels.GetAccountFromContext(r)
	id := httphelpers.GetFromRequest[string](r, "id")

	if err := c.sessionService.Delete(account.ID, id); err != nil {
		c.redirectForError(w, r, err, id, "deleting session")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/", "", "Session deleted.")
}

/*
POST /sessions/{id}/quick-email
*/
func (c ClientManagerController) QuickEmailAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		account *models.Account
		session *models.Session
	)

	current := viewmodels.GetAccountFromContext(r)
	id := httphelpers.GetFromRequest[string](r, "id")

	if session, err = c.sessionService.GetForAccount(current.ID, id); err != nil {
		c.redirectForError(w, r, err, id, "loading session for quick email")
		return
	}

	// The cookie copy has no SMTP password; the override relay needs it.
	if account, err = c.accountService.GetByID(current.ID); err != nil {
		c.redirectForError(w, r, err, id, "loading account for quick email")
		return
	}

	if err = c.notificationService.SendQuickEmail(account, session); err != nil {
		if errors.Is(err, models.ErrNoClientEmail) {
			viewmodels.RedirectWithMessage(w, r, "/client-manager", "warning", "No email address found for this client.")
			return
		}

		viewmodels.RedirectWithMessage(w, r, "/client-manager", "warning", "The email could not be sent. Check your mail settings and try again.")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/client-manager", "", fmt.Sprintf("Email sent to %s!", session.ClientName))
}

/*
POST /sessions/{id}/upload
*/
func (c ClientManagerController) UploadAction(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		asset *models.Asset
	)

	account := viewmodels.GetAccountFromContext(r)
	sessionID := httphelpers.GetFromRequest[string](r, "id")
	portalPath := "/portal/" + sessionID

	if err = r.ParseMultipartForm(maxUploadMemory); err != nil {
		slog.Error("error parsing upload form", "error", err, "sessionID", sessionID)
		viewmodels.RedirectWithMessage(w, r, portalPath, "error", "The upload could not be read.")
		return
	}

	stored := []string{}
	failed := 0

	for _, header := range r.MultipartForm.File["file"] {
		if header.Filename == "" {
			continue
		}

		if asset, err = c.uploadOne(account.ID, sessionID, header); err != nil {
			if errors.Is(err, models.ErrSessionNotFound) {
				httphelpers.WriteText(w, http.StatusNotFound, "session not found")
				return
			}

			slog.Error("error uploading photo", "error", err, "sessionID", sessionID, "filename", header.Filename)
			failed++
			continue
		}

		metrics.RecordUpload()
		stored = append(stored, asset.Filename)
	}

	c.thumbnailService.CreateThumbnails(stored)

	if failed > 0 {
		viewmodels.RedirectWithMessage(w, r, portalPath, "warning", fmt.Sprintf("%d photos uploaded, %d failed.", len(stored), failed))
		return
	}

	viewmodels.RedirectWithMessage(w, r, portalPath, "", fmt.Sprintf("%d photos uploaded.", len(stored)))
}

func (c ClientManagerController) uploadOne(accountID uint, sessionID string, header *multipart.FileHeader) (*models.Asset, error) {
	var (
		err  error
		file multipart.File
	)

	if file, err = header.Open(); err != nil {
		return nil, fmt.Errorf("error opening uploaded file: %w", err)
	}

	defer file.Close()

	return c.assetService.Upload(accountID, sessionID, header.Filename, file)
}

/*
POST /assets/{id}/delete
*/
func (c ClientManagerController) DeleteAssetAction(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		asset *models.Asset
	)

	account := viewmodels.GetAccountFromContext(r)
	assetID := httphelpers.GetFromRequest[uint](r, "id")

	if asset, err = c.assetService.Delete(account.ID, assetID); err != nil {
		if errors.Is(err, models.ErrAssetNotFound) {
			httphelpers.WriteText(w, http.StatusNotFound, "photo not found")
			return
		}

		slog.Error("error deleting photo", "error", err, "assetID", assetID)
		viewmodels.RedirectWithMessage(w, r, "/client-manager", "error", "The photo could not be deleted.")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/portal/"+asset.SessionID, "", "Image permanently removed from archive.")
}

func (c ClientManagerController) redirectForError(w http.ResponseWriter, r *http.Request, err error, sessionID, action string) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		httphelpers.WriteText(w, http.StatusNotFound, "session not found")

	case errors.Is(err, models.ErrInvalidStatus):
		viewmodels.RedirectWithMessage(w, r, "/client-manager", "warning", "Please choose a valid status.")

	default:
		slog.Error("error "+action, "error", err, "sessionID", sessionID)
		viewmodels.RedirectWithMessage(w, r, "/client-manager", "error", "An unexpected error occurred. Please try again.")
	}
}
