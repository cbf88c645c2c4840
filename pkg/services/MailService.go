package services

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adampresley/adamgokit/email"
	"github.com/adampresley/darkroom/pkg/models"
	"gopkg.in/gomail.v2"
)

/*
Mail is one outbound message. HtmlBody is optional. FromName/FromEmail
override the dispatcher's default sender when set.
*/
type Mail struct {
	To        []string
	Subject   string
	TextBody  string
	HtmlBody  string
	FromName  string
	FromEmail string
	ReplyTo   string
}

type MailServicer interface {
	Send(mail Mail) error
}

type SmtpConfig struct {
	Host      string
	Port      int
	UseTLS    bool
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

type SmtpMailService struct {
	config SmtpConfig
}

func NewSmtpMailService(config SmtpConfig) SmtpMailService {
	if config.Port == 0 {
		config.Port = 587
	}

	if config.FromEmail == "" {
		config.FromEmail = config.Username
	}

	return SmtpMailService{
		config: config,
	}
}

func (s SmtpMailService) Send(mail Mail) error {
	var (
		err error
	)

	if len(mail.To) == 0 {
		return fmt.Errorf("%w: no recipients", models.ErrDispatchFailed)
	}

	m := s.buildMessage(mail)

	dialer := gomail.NewDialer(s.config.Host, s.config.Port, s.config.Username, s.config.Password)
	dialer.SSL = s.config.UseTLS && s.config.Port == 465

	if s.config.UseTLS {
		dialer.TLSConfig = &tls.Config{ServerName: s.config.Host}
	}

	if err = dialer.DialAndSend(m); err != nil {
		slog.Error("error sending mail", "host", s.config.Host, "to", mail.To, "subject", mail.Subject, "error", err)
		return fmt.Errorf("%w: %w", models.ErrDispatchFailed, err)
	}

	slog.Info("mail sent", "host", s.config.Host, "to", mail.To, "subject", mail.Subject)
	return nil
}

func (s SmtpMailService) buildMessage(mail Mail) *gomail.Message {
	fromName := s.config.FromName
	fromEmail := s.config.FromEmail

	if mail.FromName != "" {
		fromName = mail.FromName
	}

	if mail.FromEmail != "" {
		fromEmail = mail.FromEmail
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", fromEmail, fromName)
	m.SetHeader("To", mail.To...)
	m.SetHeader("Subject", mail.Subject)

	if mail.ReplyTo != "" {
		m.SetHeader("Reply-To", mail.ReplyTo)
	}

	m.SetBody("text/plain", mail.TextBody)

	if strings.TrimSpace(mail.HtmlBody) != "" {
		m.AddAlternative("text/html", mail.HtmlBody)
	}

	return m
}

type ResendMailServiceConfig struct {
	ApiKey    string
	FromName  string
	FromEmail string
}

/*
ResendMailService sends through the Resend API. Resend mail carries a single
body, so the HTML version wins when there is one.
*/
type ResendMailService struct {
	config ResendMailServiceConfig
}

func NewResendMailService(config ResendMailServiceConfig) ResendMailService {
	return ResendMailService{
		config: config,
	}
}

func (s ResendMailService) Send(mail Mail) error {
	if len(mail.To) == 0 {
		return fmt.Errorf("%w: no recipients", models.ErrDispatchFailed)
	}

	from := email.EmailAddress{
		Email: s.config.FromEmail,
		Name:  s.config.FromName,
	}

	if mail.FromName != "" {
		from.Name = mail.FromName
	}

	if mail.FromEmail != "" {
		from.Email = mail.FromEmail
	}

	to := []email.EmailAddress{}

	for _, address := range mail.To {
		to = append(to, email.EmailAddress{Email: address})
	}

	body := mail.TextBody
	isHtml := false

	if strings.TrimSpace(mail.HtmlBody) != "" {
		body = mail.HtmlBody
		isHtml = true
	}

	service := email.NewResendService(&email.Config{
		ApiKey: s.config.ApiKey,
	})

	err := service.Send(email.Mail{
		Body:       body,
		BodyIsHtml: isHtml,
		From:       from,
		Subject:    mail.Subject,
		To:         to,
	})

	if err != nil {
		slog.Error("error sending mail through Resend", "to", mail.To, "subject", mail.Subject, "error", err)
		return fmt.Errorf("%w: %w", models.ErrDispatchFailed, err)
	}

	return nil
}

/*
MailerForAccount picks the dispatcher for mail sent on an account's behalf:
the account's own relay when it has one configured, otherwise the studio
default.
*/
func MailerForAccount(account *models.Account, studioDefault MailServicer) MailServicer {
	if account == nil || !account.HasSmtpOverride() {
		return studioDefault
	}

	return NewSmtpMailService(SmtpConfig{
		Host:      account.SmtpServer,
		Port:      account.SmtpPort,
		UseTLS:    true,
		Username:  account.SmtpUser,
		Password:  account.SmtpPassword,
		FromName:  account.DisplayName(),
		FromEmail: account.SmtpUser,
	})
}
