package services

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/adampresley/darkroom/pkg/metrics"
	"github.com/adampresley/darkroom/pkg/models"
)

type NotificationServicer interface {
	PortalURL(sessionID string) string
	SendQuickEmail(account *models.Account, session *models.Session) error
	SendSupportRequest(account *models.Account, category, message string) error
}

type NotificationServiceConfig struct {
	BaseURL       string
	MailService   MailServicer
	OperatorEmail string
}

/*
NotificationService composes the owner-initiated mail: the "your photos are
ready" note to a client and support requests to the studio operator.
*/
type NotificationService struct {
	baseURL       string
	mailService   MailServicer
	operatorEmail string
}

func NewNotificationService(config NotificationServiceConfig) NotificationService {
	return NotificationService{
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		mailService:   config.MailService,
		operatorEmail: config.OperatorEmail,
	}
}

func (s NotificationService) PortalURL(sessionID string) string {
	return fmt.Sprintf("%s/portal/%s", s.baseURL, url.PathEscape(sessionID))
}

/*
SendQuickEmail sends the client their portal link. It goes out under the
studio's name with replies directed to the owner, through the owner's own
relay when one is configured.
*/
func (s NotificationService) SendQuickEmail(account *models.Account, session *models.Session) error {
	var (
		err error
	)

	if strings.TrimSpace(session.ClientEmail) == "" {
		return models.ErrNoClientEmail
	}

	mail := Mail{
		To:       []string{session.ClientEmail},
		Subject:  fmt.Sprintf("[%s] Update Regarding Your Photos", account.DisplayName()),
		FromName: account.DisplayName(),
		ReplyTo:  account.Email,
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nI've updated your photo archive at %s.\nAccess your portal here: %s\n\nBest,\n%s",
			session.ClientName,
			account.DisplayName(),
			s.PortalURL(session.ID),
			account.FirstName,
		),
	}

	err = MailerForAccount(account, s.mailService).Send(mail)
	metrics.RecordMail("quick-email", err == nil)

	if err != nil {
		slog.Error("error sending quick email", "sessionID", session.ID, "accountID", account.ID, "error", err)
		return err
	}

	slog.Info("quick email sent", "sessionID", session.ID, "accountID", account.ID)
	return nil
}

func (s NotificationService) SendSupportRequest(account *models.Account, category, message string) error {
	var (
		err error
	)

	body := strings.Join([]string{
		"NEW SUPPORT REQUEST",
		"-------------------",
		"Studio Name: " + account.BusinessName,
		"Owner: " + strings.TrimSpace(account.FirstName+" "+account.LastName),
		"Email: " + account.Email,
		"Phone: " + account.PhoneNumber,
		"",
		"CATEGORY: " + category,
		"",
		"MESSAGE:",
		message,
	}, "\n")

	err = s.mailService.Send(Mail{
		To:       []string{s.operatorEmail},
		Subject:  fmt.Sprintf("STUDIO SUPPORT: %s from %s", category, account.BusinessName),
		TextBody: body,
		ReplyTo:  account.Email,
	})

	metrics.RecordMail("support", err == nil)

	if err != nil {
		slog.Error("error sending support request", "accountID", account.ID, "error", err)
		return err
	}

	return nil
}
