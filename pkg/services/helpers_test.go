package services

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/adampresley/darkroom/pkg/filestore"
	"github.com/adampresley/darkroom/pkg/migrations"
	"github.com/adampresley/darkroom/pkg/models"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
	"github.com/stretchr/testify/require"
)

var registerBinds sync.Once

type fakeMailer struct {
	mu   sync.Mutex
	sent []Mail
	err  error
}

func (m *fakeMailer) Send(mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	db             *sqlz.DB
	uploadsDir     string
	exportsDir     string
	thumbnailsDir  string
	archiveService ArchiveService
	accountService AccountService
	assetService   AssetService
	sessionService SessionService
}

func newTestDB(t *testing.T) *sqlz.DB {
	t.Helper()

	registerBinds.Do(func() {
		binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	})

	dsn := "file:" + filepath.Join(t.TempDir(), "darkroom-test.db") + "?_pragma=foreign_keys(1)"

	db, err := sqlz.Connect("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Migrate(db))

	return db
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	env := testEnv{
		db:            newTestDB(t),
		uploadsDir:    t.TempDir(),
		exportsDir:    t.TempDir(),
		thumbnailsDir: t.TempDir(),
	}

	uploads, err := filestore.NewDiskStore(env.uploadsDir)
	require.NoError(t, err)
	exports, err := filestore.NewDiskStore(env.exportsDir)
	require.NoError(t, err)
	thumbnails, err := filestore.NewDiskStore(env.thumbnailsDir)
	require.NoError(t, err)

	env.archiveService = NewArchiveService(ArchiveServiceConfig{
		BaseURL:    "http://studio.test/",
		Exports:    exports,
		Thumbnails: thumbnails,
		Uploads:    uploads,
	})

	env.accountService = NewAccountService(AccountServiceConfig{DB: env.db})

	env.assetService = NewAssetService(AssetServiceConfig{
		ArchiveService: env.archiveService,
		DB:             env.db,
	})

	env.sessionService = NewSessionService(SessionServiceConfig{
		ArchiveService: env.archiveService,
		AssetService:   env.assetService,
		DB:             env.db,
	})

	return env
}

func (env testEnv) createAccount(t *testing.T, email string) *models.Account {
	t.Helper()

	account := &models.Account{
		Email:        email,
		BusinessName: "Studio " + email,
		FirstName:    "Kim",
	}

	require.NoError(t, env.accountService.Create(account, "correct horse battery staple"))
	return account
}

func (env testEnv) createSession(t *testing.T, accountID uint, clientName string) *models.Session {
	t.Helper()

	session := &models.Session{
		AccountID:   accountID,
		ClientName:  clientName,
		ClientEmail: "client@example.com",
		SessionType: "Wedding",
		Date:        "2026-06-01",
		TotalFee:    1200,
		AmountPaid:  300,
	}

	require.NoError(t, env.sessionService.Create(session))
	return session
}
