package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/darkroom/cmd/website/internal/viewmodels"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
)

type AccountsControllerConfig struct {
	AccountService services.AccountServicer
	CookieSession  sessions.Session[*models.Account]
	Renderer       rendering.TemplateRenderer
}

type AccountsController struct {
	accountService services.AccountServicer
	cookieSession  sessions.Session[*models.Account]
	renderer       rendering.TemplateRenderer
}

func NewAccountsController(config AccountsControllerConfig) AccountsController {
	return AccountsController{
		accountService: config.AccountService,
		cookieSession:  config.CookieSession,
		renderer:       config.Renderer,
	}
}

/*
GET /login
*/
func (c AccountsController) LoginPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.Login{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
	}

	c.renderer.Render("pages/accounts/login", viewData, w)
}

/*
POST /login
*/
func (c AccountsController) LoginAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		account *models.Account
	)

	pageName := "pages/accounts/login"

	viewData := viewmodels.Login{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Email: httphelpers.GetFromRequest[string](r, "email"),
	}

	password := httphelpers.GetFromRequest[string](r, "password")

	if account, err = c.accountService.Authenticate(viewData.Email, password); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			viewData.IsWarning = true
			viewData.Message = "Your email or password was not correct. Please try again."
		} else {
			slog.Error("error authenticating account", "error", err)
			viewData.IsError = true
			viewData.Message = "An unexpected error occurred. Please try again later."
		}

		c.renderer.Render(pageName, viewData, w)
		return
	}

	c.startSession(w, r, account)
	http.Redirect(w, r, "/", http.StatusFound)
}

/*
GET /logout
*/
func (c AccountsController) LogoutAction(w http.ResponseWriter, r *http.Request) {
	_ = c.cookieSession.Destroy(w, r)
	_ = c.cookieSession.Save(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

/*
GET /signup
*/
func (c AccountsController) SignupPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.Signup{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
		Account:       &models.Account{},
	}

	c.renderer.Render("pages/accounts/signup", viewData, w)
}

/*
POST /signup
*/
func (c AccountsController) SignupAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	pageName := "pages/accounts/signup"

	viewData := viewmodels.Signup{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Account: &models.Account{
			Email:        strings.TrimSpace(httphelpers.GetFromRequest[string](r, "email")),
			BusinessName: strings.TrimSpace(httphelpers.GetFromRequest[string](r, "businessName")),
			FirstName:    strings.TrimSpace(httphelpers.GetFromRequest[string](r, "firstName")),
			LastName:     strings.TrimSpace(httphelpers.GetFromRequest[string](r, "lastName")),
			PhoneNumber:  strings.TrimSpace(httphelpers.GetFromRequest[string](r, "phoneNumber")),
		},
	}

	password := httphelpers.GetFromRequest[string](r, "password")

	if viewData.Account.Email == "" || password == "" {
		viewData.IsWarning = true
		viewData.Message = "Email and password are required."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if err = c.accountService.Create(viewData.Account, password); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			viewData.IsWarning = true
			viewData.Message = "An account with this email already exists."
		} else if errors.Is(err, models.ErrPasswordTooLong) {
			viewData.IsWarning = true
			viewData.Message = "Please choose a password of 72 characters or fewer."
		} else {
			slog.Error("error creating account", "error", err, "email", viewData.Account.Email)
			viewData.IsError = true
			viewData.Message = "An unexpected error occurred. Please try again later."
		}

		c.renderer.Render(pageName, viewData, w)
		return
	}

	slog.Info("account created", "accountID", viewData.Account.ID, "email", viewData.Account.Email)

	c.startSession(w, r, viewData.Account)
	http.Redirect(w, r, "/", http.StatusFound)
}

/*
GET /profile
*/
func (c AccountsController) ProfilePage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		account *models.Account
	)

	viewData := viewmodels.Profile{
		BaseViewModel: viewmodels.NewBaseViewModel(r),
		Account:       &models.Account{},
	}

	current := viewmodels.GetAccountFromContext(r)

	if account, err = c.accountService.GetByID(current.ID); err != nil {
		slog.Error("error loading profile", "error", err, "accountID", current.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred loading your profile."

		c.renderer.Render("pages/accounts/profile", viewData, w)
		return
	}

	account.Password = ""
	account.SmtpPassword = ""
	viewData.Account = account

	c.renderer.Render("pages/accounts/profile", viewData, w)
}

/*
POST /profile
*/
func (c AccountsController) ProfileAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		account *models.Account
	)

	current := viewmodels.GetAccountFromContext(r)

	if account, err = c.accountService.GetByID(current.ID); err != nil {
		slog.Error("error loading profile for update", "error", err, "accountID", current.ID)
		viewmodels.RedirectWithMessage(w, r, "/profile", "error", "Your profile could not be loaded.")
		return
	}

	account.BusinessName = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "businessName"))
	account.FirstName = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "firstName"))
	account.LastName = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "lastName"))
	account.PhoneNumber = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "phoneNumber"))
	account.LogoUrl = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "logoUrl"))
	account.SmtpServer = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "smtpServer"))
	account.SmtpPort = httphelpers.GetFromRequest[int](r, "smtpPort")
	account.SmtpUser = strings.TrimSpace(httphelpers.GetFromRequest[string](r, "smtpUser"))

	// A blank password field keeps the stored one.
	if smtpPassword := httphelpers.GetFromRequest[string](r, "smtpPassword"); smtpPassword != "" {
		account.SmtpPassword = smtpPassword
	}

	if err = c.accountService.UpdateProfile(account); err != nil {
		slog.Error("error updating profile", "error", err, "accountID", account.ID)
		viewmodels.RedirectWithMessage(w, r, "/profile", "error", "Your profile could not be saved.")
		return
	}

	c.startSession(w, r, account)
	viewmodels.RedirectWithMessage(w, r, "/profile", "", "Profile saved.")
}

/*
startSession stores the account in the cookie without its secrets.
*/
func (c AccountsController) startSession(w http.ResponseWriter, r *http.Request, account *models.Account) {
	var (
		err error
	)

	cookieAccount := *account
	cookieAccount.Password = ""
	cookieAccount.SmtpPassword = ""

	if err = c.cookieSession.Set(r, &cookieAccount); err != nil {
		slog.Error("error setting account session", "error", err)
	}

	if err = c.cookieSession.Save(w, r); err != nil {
		slog.Error("error saving session", "error", err)
	}
}
