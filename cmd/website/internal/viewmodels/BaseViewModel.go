package viewmodels

import (
	"net/http"
	"net/url"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/darkroom/pkg/models"
)

type BaseViewModel struct {
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	JavascriptIncludes []rendering.JavascriptInclude
}

/*
NewBaseViewModel carries over a message left by a redirect
("?message=...&level=error|warning").
*/
func NewBaseViewModel(r *http.Request, scripts ...rendering.JavascriptInclude) BaseViewModel {
	result := BaseViewModel{
		Message:            httphelpers.GetFromRequest[string](r, "message"),
		IsHtmx:             httphelpers.IsHtmx(r),
		JavascriptIncludes: scripts,
	}

	switch httphelpers.GetFromRequest[string](r, "level") {
	case "error":
		result.IsError = true
	case "warning":
		result.IsWarning = true
	}

	return result
}

func GetAccountFromContext(r *http.Request) *models.Account {
	if result, ok := r.Context().Value("account").(*models.Account); ok {
		return result
	}

	return &models.Account{}
}

// RedirectWithMessage sends the browser on with a message for NewBaseViewModel to pick up.
func RedirectWithMessage(w http.ResponseWriter, r *http.Request, path, level, message string) {
	query := url.Values{}
	query.Set("message", message)

	if level != "" {
		query.Set("level", level)
	}

	http.Redirect(w, r, path+"?"+query.Encode(), http.StatusSeeOther)
}
