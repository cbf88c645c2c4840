package services

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/darkroom/pkg/metrics"
	"github.com/adampresley/darkroom/pkg/models"
)

type ExportServiceConfig struct {
	ArchiveService ArchiveServicer
	AssetService   AssetServicer
	ExpirationDays int
	MailService    MailServicer
	OperatorEmail  string
	SessionService SessionServicer
}

type ExportServicer interface {
	StartCleanupRoutine(interval time.Duration)
	StopCleanupRoutine()
	SubmitSelections(sessionID string) (ExportResult, error)
}

type ExportResult struct {
	BundleName  string
	DownloadURL string
	Selected    int
	Bundled     int
	Skipped     []string
}

type cleanupRoutine struct {
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

type ExportService struct {
	config  ExportServiceConfig
	cleanup *cleanupRoutine
}

var retouchRequestTemplate = template.Must(template.New("retouch-request").Parse(`
<div style="font-family: sans-serif; border: 2px solid black; padding: 20px; max-width: 500px;">
   <h2 style="text-transform: uppercase; letter-spacing: 2px;">Retouching Request</h2>
   <p><strong>Client:</strong> {{.ClientName}}</p>
   <p><strong>Count:</strong> {{.Count}} Images</p>
   <hr style="border: 1px solid #eee; margin: 20px 0;">
   <a href="{{.DownloadURL}}"
      style="background: black; color: white; padding: 15px 25px; text-decoration: none; display: inline-block; font-weight: bold; border-radius: 10px;">
      DOWNLOAD ZIP ARCHIVE
   </a>
</div>
`))

func NewExportService(config ExportServiceConfig) ExportService {
	return ExportService{
		config:  config,
		cleanup: &cleanupRoutine{},
	}
}

/*
SubmitSelections bundles a client's selected photos and alerts the studio.
The session is only marked submitted once the alert has been sent; a failed
send leaves the session untouched and the bundle on disk.
*/
func (s ExportService) SubmitSelections(sessionID string) (ExportResult, error) {
	var (
		err      error
		session  *models.Session
		selected []*models.Asset
		bundle   BundleResult
		mail     Mail
	)

	start := time.Now()
	result := ExportResult{Skipped: []string{}}
	l := slog.With("sessionID", sessionID)

	fail := func(outcome string, err error) (ExportResult, error) {
		metrics.RecordExport(outcome, time.Since(start))
		return result, err
	}

	if session, err = s.config.SessionService.GetByID(sessionID); err != nil {
		return fail(metrics.ExportOutcomeFailed, err)
	}

	if selected, err = s.config.AssetService.ListSelected(sessionID); err != nil {
		return fail(metrics.ExportOutcomeFailed, err)
	}

	if len(selected) == 0 {
		l.Info("submission with nothing selected")
		return fail(metrics.ExportOutcomeNothingSelected, models.ErrNothingSelected)
	}

	result.Selected = len(selected)
	result.BundleName = BundleName(session.ClientName, session.ID)

	names := make([]string, 0, len(selected))

	for _, asset := range selected {
		names = append(names, asset.Filename)
	}

	if bundle, err = s.config.ArchiveService.Bundle(names, result.BundleName); err != nil {
		l.Error("error creating selection bundle", "bundle", result.BundleName, "error", err)
		return fail(metrics.ExportOutcomeFailed, fmt.Errorf("error creating bundle for session %s: %w", sessionID, err))
	}

	result.Bundled = bundle.Entries
	result.Skipped = bundle.Skipped
	result.DownloadURL = s.config.ArchiveService.ExportURL(result.BundleName)

	if mail, err = retouchRequest(session, result, s.config.OperatorEmail); err != nil {
		l.Error("error rendering retouch request, submission not recorded", "error", err)
		return fail(metrics.ExportOutcomeFailed, err)
	}

	err = s.config.MailService.Send(mail)
	metrics.RecordMail("retouch-request", err == nil)

	if err != nil {
		l.Error("error sending retouch request, submission not recorded", "error", err)

		if !errors.Is(err, models.ErrDispatchFailed) {
			err = fmt.Errorf("%w: %w", models.ErrDispatchFailed, err)
		}

		return fail(metrics.ExportOutcomeDispatchFailed, err)
	}

	if err = s.config.SessionService.MarkSubmitted(sessionID); err != nil {
		l.Error("retouch request sent but session state was not saved", "error", err)
		return fail(metrics.ExportOutcomeFailed, err)
	}

	metrics.RecordExport(metrics.ExportOutcomeSubmitted, time.Since(start))
	l.Info("selections submitted", "selected", result.Selected, "bundled", result.Bundled, "downloadURL", result.DownloadURL)

	return result, nil
}

func retouchRequest(session *models.Session, result ExportResult, operatorEmail string) (Mail, error) {
	var (
		err  error
		html strings.Builder
	)

	data := map[string]any{
		"ClientName":  session.ClientName,
		"Count":       result.Selected,
		"DownloadURL": result.DownloadURL,
	}

	if err = retouchRequestTemplate.Execute(&html, data); err != nil {
		return Mail{}, fmt.Errorf("error rendering retouch request: %w", err)
	}

	return Mail{
		To:       []string{operatorEmail},
		Subject:  fmt.Sprintf("NEW ASSET REQUEST: %s", session.ClientName),
		TextBody: fmt.Sprintf("Client %s has submitted %d photos for retouching.\n\nDownload Link: %s", session.ClientName, result.Selected, result.DownloadURL),
		HtmlBody: html.String(),
	}, nil
}

/*
BundleName is stable for a client name and session, so a second submission
replaces the first archive instead of adding another.
*/
func BundleName(clientName, sessionID string) string {
	client := "Client"

	if strings.TrimSpace(clientName) != "" {
		client = SanitizeFilename(clientName)
	}

	return fmt.Sprintf("Selections_%s_%s.zip", client, SanitizeFilename(sessionID))
}

// StartCleanupRoutine periodically removes bundles older than the expiration period.
func (s ExportService) StartCleanupRoutine(interval time.Duration) {
	if s.config.ExpirationDays <= 0 {
		slog.Info("bundle cleanup disabled")
		return
	}

	s.cleanup.stop = make(chan struct{})
	s.cleanup.ticker = time.NewTicker(interval)

	s.cleanup.wg.Add(1)
	go func() {
		defer s.cleanup.wg.Done()

		for {
			select {
			case <-s.cleanup.ticker.C:
				s.cleanupExpiredBundles()
			case <-s.cleanup.stop:
				s.cleanup.ticker.Stop()
				return
			}
		}
	}()

	slog.Info("bundle cleanup routine started", "interval", interval, "expirationDays", s.config.ExpirationDays)
}

func (s ExportService) StopCleanupRoutine() {
	if s.cleanup.ticker != nil {
		close(s.cleanup.stop)
		s.cleanup.wg.Wait()
		s.cleanup.ticker = nil
		slog.Info("bundle cleanup routine stopped")
	}
}

func (s ExportService) cleanupExpiredBundles() {
	l := slog.With("function", "cleanupExpiredBundles")
	cutoffTime := time.Now().AddDate(0, 0, -s.config.ExpirationDays)

	removedCount, err := s.config.ArchiveService.SweepExports(cutoffTime)

	if err != nil {
		l.Error("error sweeping expired bundles", "error", err)
		return
	}

	l.Info("completed cleanup of expired bundles", "removed", removedCount)
}
