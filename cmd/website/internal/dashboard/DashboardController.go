package dashboard

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/darkroom/cmd/website/internal/viewmodels"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
)

var supportCategories = []string{"Technical Issue", "Billing", "Feature Request", "Other"}

type DashboardControllerConfig struct {
	AccountService      services.AccountServicer
	NotificationService services.NotificationServicer
	Renderer            rendering.TemplateRenderer
	SessionService      services.SessionServicer
}

type DashboardController struct {
	accountService      services.AccountServicer
	notificationService services.NotificationServicer
	renderer            rendering.TemplateRenderer
	sessionService      services.SessionServicer
}

func NewDashboardController(config DashboardControllerConfig) DashboardController {
	return DashboardController{
		accountService:      config.AccountService,
		notificationService: config.NotificationService,
		renderer:            config.Renderer,
		sessionService:      config.SessionService,
	}
}

/*
GET /
*/
func (c DashboardController) DashboardPage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		sessions []*models.Session
	)

	pageName := "pages/dashboard/dashboard"

	viewData := viewmodels.Dashboard{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
		Account:       viewmodels.GetAccountFromContext(r),
		Sessions:      []*models.Session{},
		FollowUps:     []*models.Session{},
		Today:         time.Now().Format(time.DateOnly),
	}

	if sessions, err = c.sessionService.ListForAccount(viewData.Account.ID, false); err != nil {
		slog.Error("error getting sessions for dashboard", "error", err, "accountID", viewData.Account.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred loading your sessions."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Sessions = sessions
	viewData.Totals = models.TotalsFor(sessions)
	viewData.FollowUps = FollowUps(sessions)

	c.renderer.Render(pageName, viewData, w)
}

/*
GET /retouching-queue
*/
func (c DashboardController) RetouchingQueuePage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		sessions []*models.Session
	)

	pageName := "pages/dashboard/dashboard"

	viewData := viewmodels.Dashboard{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
		Account:       viewmodels.GetAccountFromContext(r),
		IsQueueView:   true,
		Sessions:      []*models.Session{},
		FollowUps:     []*models.Session{},
		Today:         time.Now().Format(time.DateOnly),
	}

	if sessions, err = c.sessionService.ListSubmitted(viewData.Account.ID); err != nil {
		slog.Error("error getting retouching queue", "error", err, "accountID", viewData.Account.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred loading the retouching queue."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Sessions = sessions
	viewData.Totals = models.TotalsFor(sessions)

	c.renderer.Render(pageName, viewData, w)
}

/*
GET /support
*/
func (c DashboardController) SupportPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.Support{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
		Account:       viewmodels.GetAccountFromContext(r),
		Categories:    supportCategories,
	}

	c.renderer.Render("pages/dashboard/support", viewData, w)
}

/*
POST /support
*/
func (c DashboardController) SupportAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		account *models.Account
	)

	current := viewmodels.GetAccountFromContext(r)
	category := httphelpers.GetFromRequest[string](r, "subject")
	message := strings.TrimSpace(httphelpers.GetFromRequest[string](r, "message"))

	if !slices.IsInSlice(category, supportCategories) {
		category = "Other"
	}

	if message == "" {
		viewmodels.RedirectWithMessage(w, r, "/support", "warning", "Please tell us what you need help with.")
		return
	}

	if account, err = c.accountService.GetByID(current.ID); err != nil {
		slog.Error("error loading account for support request", "error", err, "accountID", current.ID)
		viewmodels.RedirectWithMessage(w, r, "/support", "error", "An unexpected error occurred. Please try again later.")
		return
	}

	if err = c.notificationService.SendSupportRequest(account, category, message); err != nil {
		viewmodels.RedirectWithMessage(w, r, "/", "warning", "System busy. Your support request could not be sent, please try again.")
		return
	}

	viewmodels.RedirectWithMessage(w, r, "/", "", "Success! Your request has been routed to our support team.")
}

/*
FollowUps returns the sessions with a follow-up date, earliest first.
*/
func FollowUps(sessions []*models.Session) []*models.Session {
	result := []*models.Session{}

	for _, session := range sessions {
		if session.HasFollowUp() {
			result = append(result, session)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FollowUpDate < result[j].FollowUpDate
	})

	return result
}
