package portal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/darkroom/cmd/website/internal/viewmodels"
	"github.com/adampresley/darkroom/pkg/filestore"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
)

type PortalControllerConfig struct {
	AccountService services.AccountServicer
	ArchiveService services.ArchiveServicer
	AssetService   services.AssetServicer
	CookieSession  sessions.Session[*models.Account]
	ExportService  services.ExportServicer
	Renderer       rendering.TemplateRenderer
	SessionService services.SessionServicer
}

/*
PortalController serves the client-facing pages. There is no login here:
knowing the session identifier is the access control.
*/
type PortalController struct {
	accountService services.AccountServicer
	archiveService services.ArchiveServicer
	assetService   services.AssetServicer
	cookieSession  sessions.Session[*models.Account]
	exportService  services.ExportServicer
	renderer       rendering.TemplateRenderer
	sessionService services.SessionServicer
}

func NewPortalController(config PortalControllerConfig) PortalController {
	return PortalController{
		accountService: config.AccountService,
		archiveService: config.ArchiveService,
		assetService:   config.AssetService,
		cookieSession:  config.CookieSession,
		exportService:  config.ExportService,
		renderer:       config.Renderer,
		sessionService: config.SessionService,
	}
}

/*
GET /portal/{id}
*/
func (c PortalController) PortalPage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		session *models.Session
		studio  *models.Account
		assets  []*models.Asset
	)

	pageName := "pages/portal/portal"
	id := httphelpers.GetFromRequest[string](r, "id")

	viewData := viewmodels.Portal{
		BaseViewModel: viewmodels.NewBaseViewModel(r, rendering.JavascriptInclude{Type: "module", Src: "/static/js/pages/portal.js"}),
		Studio:        &models.Account{},
		Session:       &models.Session{},
		Assets:        []viewmodels.Asset{},
	}

	if session, err = c.sessionService.GetByID(id); err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			httphelpers.WriteText(w, http.StatusNotFound, "session not found")
			return
		}

		slog.Error("error loading portal session", "error", err, "sessionID", id)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please reach out to your photographer."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Session = session

	if studio, err = c.accountService.GetByID(session.AccountID); err != nil {
		slog.Error("error loading studio for portal", "error", err, "sessionID", id, "accountID", session.AccountID)
	} else {
		studio.Password = ""
		studio.SmtpPassword = ""
		viewData.Studio = studio
	}

	if owner, err := c.cookieSession.Get(r); err == nil && owner != nil && owner.ID == session.AccountID {
		viewData.IsOwner = true
	}

	if assets, err = c.assetService.ListForSession(session.ID); err != nil {
		slog.Error("error loading portal photos", "error", err, "sessionID", id)
		viewData.IsError = true
		viewData.Message = "Your photos could not be loaded. Please try again."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Assets = viewmodels.ToAssets(assets, c.archiveService)

	for _, asset := range viewData.Assets {
		if asset.IsSelected {
			viewData.SelectedCount++
		}
	}

	c.renderer.Render(pageName, viewData, w)
}

/*
POST /portal/{id}/toggle/{assetid}
*/
func (c PortalController) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		asset *models.Asset
	)

	id := httphelpers.GetFromRequest[string](r, "id")
	assetID := httphelpers.GetFromRequest[uint](r, "assetid")

	if asset, err = c.assetService.ToggleSelection(id, assetID); err != nil {
		if errors.Is(err, models.ErrAssetNotFound) {
			httphelpers.WriteText(w, http.StatusNotFound, "photo not found")
			return
		}

		slog.Error("error toggling selection", "error", err, "sessionID", id, "assetID", assetID)
		httphelpers.TextInternalServerError(w, "Error toggling selection")
		return
	}

	if !httphelpers.IsHtmx(r) {
		http.Redirect(w, r, "/portal/"+id, http.StatusSeeOther)
		return
	}

	icon := "icon"

	if asset.IsSelected {
		icon += " icon-heart"
	} else {
		icon += " icon-empty-heart"
	}

	markup := fmt.Sprintf("<i class='%s'></i>", icon)
	httphelpers.WriteHtml(w, http.StatusOK, markup)
}

/*
POST /portal/{id}/submit
*/
func (c PortalController) SubmitSelections(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		result services.ExportResult
	)

	id := httphelpers.GetFromRequest[string](r, "id")
	portalPath := "/portal/" + id

	if result, err = c.exportService.SubmitSelections(id); err != nil {
		switch {
		case errors.Is(err, models.ErrSessionNotFound):
			httphelpers.WriteText(w, http.StatusNotFound, "session not found")

		case errors.Is(err, models.ErrNothingSelected):
			viewmodels.RedirectWithMessage(w, r, portalPath, "warning", "Please select photos before submitting.")

		case errors.Is(err, models.ErrDispatchFailed):
			viewmodels.RedirectWithMessage(w, r, portalPath, "warning", "Submission error. Please contact the studio.")

		default:
			slog.Error("error submitting selections", "error", err, "sessionID", id)
			viewmodels.RedirectWithMessage(w, r, portalPath, "error", "An unexpected error occurred. Please contact the studio.")
		}

		return
	}

	message := "Selections locked and sent to studio!"

	if len(result.Skipped) > 0 {
		message = fmt.Sprintf("Selections sent to studio. %d photos were no longer available and were left out.", len(result.Skipped))
	}

	viewmodels.RedirectWithMessage(w, r, portalPath, "", message)
}

/*
GET /display/{filename}
*/
func (c PortalController) DisplayImage(w http.ResponseWriter, r *http.Request) {
	c.serveFile(w, r, c.archiveService.OpenUpload, false)
}

/*
GET /thumbnails/{filename}
*/
func (c PortalController) Thumbnail(w http.ResponseWriter, r *http.Request) {
	c.serveFile(w, r, c.archiveService.OpenThumbnail, false)
}

/*
GET /exports/{filename}
*/
func (c PortalController) DownloadExport(w http.ResponseWriter, r *http.Request) {
	c.serveFile(w, r, c.archiveService.OpenExport, true)
}

func (c PortalController) serveFile(w http.ResponseWriter, r *http.Request, open func(string) (io.ReadCloser, error), asAttachment bool) {
	var (
		err  error
		body io.ReadCloser
	)

	filename := path.Base(httphelpers.GetFromRequest[string](r, "filename"))

	if body, err = open(filename); err != nil {
		if !errors.Is(err, filestore.ErrFileNotFound) {
			slog.Error("error opening file", "error", err, "filename", filename)
		}

		httphelpers.WriteText(w, http.StatusNotFound, "file not found")
		return
	}

	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)

	if asAttachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	}

	if _, err = io.Copy(w, body); err != nil {
		slog.Error("error streaming file", "error", err, "filename", filename)
	}
}
