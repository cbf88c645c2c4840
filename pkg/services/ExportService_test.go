package services

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportFixture struct {
	env     testEnv
	mailer  *fakeMailer
	service ExportService
	account *models.Account
	session *models.Session
}

func newExportFixture(t *testing.T) exportFixture {
	t.Helper()

	env := newTestEnv(t)
	mailer := &fakeMailer{}

	f := exportFixture{
		env:    env,
		mailer: mailer,
		service: NewExportService(ExportServiceConfig{
			ArchiveService: env.archiveService,
			AssetService:   env.assetService,
			MailService:    mailer,
			OperatorEmail:  "operator@studio.test",
			SessionService: env.sessionService,
		}),
	}

	f.account = env.createAccount(t, "owner@example.com")
	f.session = env.createSession(t, f.account.ID, "Jane Doe")
	return f
}

func (f exportFixture) uploadSelected(t *testing.T, count int) []*models.Asset {
	t.Helper()

	result := []*models.Asset{}

	for i := 0; i < count; i++ {
		asset, err := f.env.assetService.Upload(f.account.ID, f.session.ID, fmt.Sprintf("photo-%d.jpg", i), strings.NewReader("pixels"))
		require.NoError(t, err)

		_, err = f.env.assetService.ToggleSelection(f.session.ID, asset.ID)
		require.NoError(t, err)

		result = append(result, asset)
	}

	return result
}

func (f exportFixture) exportFiles(t *testing.T) []os.DirEntry {
	t.Helper()

	entries, err := os.ReadDir(f.env.exportsDir)
	require.NoError(t, err)
	return entries
}

func TestSubmitSelectionsWithNothingSelected(t *testing.T) {
	f := newExportFixture(t)

	// Uploaded but never selected
	_, err := f.env.assetService.Upload(f.account.ID, f.session.ID, "photo.jpg", strings.NewReader("pixels"))
	require.NoError(t, err)

	_, err = f.service.SubmitSelections(f.session.ID)
	assert.ErrorIs(t, err, models.ErrNothingSelected)

	assert.Empty(t, f.exportFiles(t))
	assert.Equal(t, 0, f.mailer.count())

	got, err := f.env.sessionService.GetByID(f.session.ID)
	require.NoError(t, err)
	assert.False(t, got.SelectionSubmitted)
	assert.Equal(t, models.StatusInPlanning, got.Status)
}

func TestSubmitSelectionsSkipsMissingFiles(t *testing.T) {
	f := newExportFixture(t)
	assets := f.uploadSelected(t, 3)

	require.NoError(t, os.Remove(filepath.Join(f.env.uploadsDir, assets[1].Filename)))

	result, err := f.service.SubmitSelections(f.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Selected)
	assert.Equal(t, 2, result.Bundled)
	assert.Equal(t, []string{assets[1].Filename}, result.Skipped)
	assert.Len(t, zipEntries(t, filepath.Join(f.env.exportsDir, result.BundleName)), 2)

	require.Equal(t, 1, f.mailer.count())
	mail := f.mailer.sent[0]
	assert.Equal(t, []string{"operator@studio.test"}, mail.To)
	assert.Equal(t, "NEW ASSET REQUEST: Jane Doe", mail.Subject)
	assert.Contains(t, mail.TextBody, "submitted 3 photos")
	assert.Contains(t, mail.TextBody, result.DownloadURL)
	assert.Contains(t, mail.HtmlBody, result.DownloadURL)
	assert.Contains(t, mail.HtmlBody, "Jane Doe")

	got, err := f.env.sessionService.GetByID(f.session.ID)
	require.NoError(t, err)
	assert.True(t, got.SelectionSubmitted)
	assert.Equal(t, models.StatusPendingRetouch, got.Status)
}

func TestSubmitSelectionsDispatchFailureLeavesSessionUnchanged(t *testing.T) {
	f := newExportFixture(t)
	f.uploadSelected(t, 2)
	f.mailer.err = fmt.Errorf("relay refused connection")

	result, err := f.service.SubmitSelections(f.session.ID)
	assert.ErrorIs(t, err, models.ErrDispatchFailed)

	got, err := f.env.sessionService.GetByID(f.session.ID)
	require.NoError(t, err)
	assert.False(t, got.SelectionSubmitted)
	assert.Equal(t, models.StatusInPlanning, got.Status)

	// The bundle is left behind; there is no cleanup on a failed send.
	assert.FileExists(t, filepath.Join(f.env.exportsDir, result.BundleName))
}

func TestSubmitSelectionsRenderFailureIsNotADispatchFailure(t *testing.T) {
	f := newExportFixture(t)
	f.uploadSelected(t, 1)

	original := retouchRequestTemplate
	t.Cleanup(func() { retouchRequestTemplate = original })

	retouchRequestTemplate = template.Must(template.New("broken").Funcs(template.FuncMap{
		"broken": func() (string, error) { return "", errors.New("template blew up") },
	}).Parse(`{{broken}}`))

	_, err := f.service.SubmitSelections(f.session.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrDispatchFailed)
	assert.Contains(t, err.Error(), "error rendering retouch request")
	assert.Equal(t, 0, f.mailer.count(), "nothing is handed to the mailer")

	got, err := f.env.sessionService.GetByID(f.session.ID)
	require.NoError(t, err)
	assert.False(t, got.SelectionSubmitted)
}

func TestSubmitSelectionsTwiceOverwritesBundle(t *testing.T) {
	f := newExportFixture(t)
	f.uploadSelected(t, 2)

	first, err := f.service.SubmitSelections(f.session.ID)
	require.NoError(t, err)

	second, err := f.service.SubmitSelections(f.session.ID)
	require.NoError(t, err)

	assert.Equal(t, first.BundleName, second.BundleName)
	assert.Equal(t, first.DownloadURL, second.DownloadURL)
	assert.Len(t, f.exportFiles(t), 1)
	assert.Equal(t, 2, f.mailer.count())
}

func TestSubmitSelectionsUnknownSession(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.service.SubmitSelections("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.Equal(t, 0, f.mailer.count())
}

func TestBundleName(t *testing.T) {
	assert.Equal(t, "Selections_Jane_Doe_abc-123.zip", BundleName("Jane Doe", "abc-123"))
	assert.Equal(t, "Selections_Client_abc.zip", BundleName("  ", "abc"))
	assert.Equal(t, "Selections_evil_abc.zip", BundleName("../../evil", "abc"))
	assert.Equal(t, BundleName("Jane Doe", "abc"), BundleName("Jane Doe", "abc"))
}

func TestExportCleanupRoutine(t *testing.T) {
	f := newExportFixture(t)
	f.uploadSelected(t, 1)

	result, err := f.service.SubmitSelections(f.session.ID)
	require.NoError(t, err)

	bundlePath := filepath.Join(f.env.exportsDir, result.BundleName)
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(bundlePath, old, old))

	service := NewExportService(ExportServiceConfig{
		ArchiveService: f.env.archiveService,
		ExpirationDays: 7,
	})

	service.StartCleanupRoutine(10 * time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(bundlePath)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	service.StopCleanupRoutine()
}

func TestExportCleanupDisabledByDefault(t *testing.T) {
	service := NewExportService(ExportServiceConfig{})

	service.StartCleanupRoutine(time.Millisecond)
	assert.Nil(t, service.cleanup.ticker)
	service.StopCleanupRoutine()
}
