package main

import (
	"context"
	"embed"
	"encoding/gob"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/darkroom/cmd/website/internal/accounts"
	"github.com/adampresley/darkroom/cmd/website/internal/clientmanager"
	"github.com/adampresley/darkroom/cmd/website/internal/configuration"
	"github.com/adampresley/darkroom/cmd/website/internal/dashboard"
	"github.com/adampresley/darkroom/cmd/website/internal/portal"
	"github.com/adampresley/darkroom/cmd/website/internal/thumbnails"
	"github.com/adampresley/darkroom/pkg/filestore"
	"github.com/adampresley/darkroom/pkg/metrics"
	"github.com/adampresley/darkroom/pkg/migrations"
	"github.com/adampresley/darkroom/pkg/models"
	"github.com/adampresley/darkroom/pkg/services"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	Version string = "development"
	appName string = "darkroom"

	//go:embed app
	appFS embed.FS

	config configuration.Config

	/* Services */
	accountService      services.AccountServicer
	archiveService      services.ArchiveServicer
	assetService        services.AssetServicer
	backfillService     thumbnails.Backfiller
	cookieSession       sessions.Session[*models.Account]
	db                  *sqlz.DB
	exportService       services.ExportServicer
	mailService         services.MailServicer
	notificationService services.NotificationServicer
	renderer            rendering.TemplateRenderer
	sessionService      services.SessionServicer
	thumbnailService    services.ThumbnailServicer

	/* Controllers */
	accountsController      accounts.AccountsController
	clientManagerController clientmanager.ClientManagerController
	dashboardController     dashboard.DashboardController
	portalController        portal.PortalController
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("baseURL", config.BaseURL),
		slog.String("storageBackend", config.StorageBackend),
		slog.String("mailProvider", config.MailProvider),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	if db, err = sqlz.Connect("sqlite", config.DSN); err != nil {
		panic(err)
	}

	if err = migrations.Migrate(db); err != nil {
		panic(err)
	}

	gob.Register(&models.Account{})

	cookieStore := sessions.NewCookieStore(config.CookieSecret)
	cookieSession = sessions.NewSessionWrapper[*models.Account](cookieStore, "darkroomstudio", "account")

	uploads, exports, thumbnailStore := setupFileStores()

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	mailService = setupMailService()

	archiveService = services.NewArchiveService(services.ArchiveServiceConfig{
		BaseURL:    config.BaseURL,
		Exports:    exports,
		Thumbnails: thumbnailStore,
		Uploads:    uploads,
	})

	accountService = services.NewAccountService(services.AccountServiceConfig{
		DB: db,
	})

	assetService = services.NewAssetService(services.AssetServiceConfig{
		ArchiveService: archiveService,
		DB:             db,
	})

	sessionService = services.NewSessionService(services.SessionServiceConfig{
		ArchiveService: archiveService,
		AssetService:   assetService,
		DB:             db,
	})

	exportService = services.NewExportService(services.ExportServiceConfig{
		ArchiveService: archiveService,
		AssetService:   assetService,
		ExpirationDays: config.ExportExpirationDays,
		MailService:    mailService,
		OperatorEmail:  config.OperatorEmail,
		SessionService: sessionService,
	})

	notificationService = services.NewNotificationService(services.NotificationServiceConfig{
		BaseURL:       config.BaseURL,
		MailService:   mailService,
		OperatorEmail: config.OperatorEmail,
	})

	thumbnailService = services.NewThumbnailService(services.ThumbnailServiceConfig{
		ArchiveService: archiveService,
		MaxWorkers:     config.MaxThumbnailWorkers,
		ShutdownCtx:    shutdownCtx,
	})

	backfillService = thumbnails.NewBackfillService(thumbnails.BackfillConfig{
		AccountService:   accountService,
		ArchiveService:   archiveService,
		AssetService:     assetService,
		SessionService:   sessionService,
		ThumbnailService: thumbnailService,
	})

	/*
	 * Setup controllers
	 */
	accountsController = accounts.NewAccountsController(accounts.AccountsControllerConfig{
		AccountService: accountService,
		CookieSession:  cookieSession,
		Renderer:       renderer,
	})

	clientManagerController = clientmanager.NewClientManagerController(clientmanager.ClientManagerControllerConfig{
		AccountService:      accountService,
		ArchiveService:      archiveService,
		AssetService:        assetService,
		NotificationService: notificationService,
		Renderer:            renderer,
		SessionService:      sessionService,
		ThumbnailService:    thumbnailService,
	})

	dashboardController = dashboard.NewDashboardController(dashboard.DashboardControllerConfig{
		AccountService:      accountService,
		NotificationService: notificationService,
		Renderer:            renderer,
		SessionService:      sessionService,
	})

	portalController = portal.NewPortalController(portal.PortalControllerConfig{
		AccountService: accountService,
		ArchiveService: archiveService,
		AssetService:   assetService,
		CookieSession:  cookieSession,
		ExportService:  exportService,
		Renderer:       renderer,
		SessionService: sessionService,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	rateLimiter := newPortalRateLimiter(config.PortalRateLimit, config.PortalRateBurst)
	rateLimiterQuit := make(chan struct{})
	rateLimiter.startCleanup(10*time.Minute, rateLimiterQuit)

	routes := buildRoutes(middlewareChains(cookieSession, rateLimiter))

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the bundle cleanup job
	 */
	exportService.StartCleanupRoutine(24 * time.Hour)
	defer exportService.StopCleanupRoutine()

	/*
	 * Create thumbnails for anything uploaded before they existed
	 */
	setupThumbnailBackfill()

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	close(rateLimiterQuit)
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

/*
middlewareChains returns the public, owner and client chains. Owners must
be logged in; clients are throttled per address.
*/
func middlewareChains(cookieSession sessions.Session[*models.Account], rateLimiter *portalRateLimiter) ([]mux.MiddlewareFunc, []mux.MiddlewareFunc, []mux.MiddlewareFunc) {
	accountMiddleware := newAccountMiddleware(
		cookieSession,
		[]string{
			"/static",
			"/login",
			"/signup",
		},
	)

	public := []mux.MiddlewareFunc{metrics.InstrumentHandler}
	owner := []mux.MiddlewareFunc{metrics.InstrumentHandler, accountMiddleware}
	client := []mux.MiddlewareFunc{metrics.InstrumentHandler, rateLimiter.Middleware}

	return public, owner, client
}

/*
buildRoutes lays out every route. The client chain carries the rate limiter
and only wraps routes keyed by a session identifier.
*/
func buildRoutes(public, owner, client []mux.MiddlewareFunc) []mux.Route {
	return []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /metrics", HandlerFunc: metrics.Handler().ServeHTTP, Middlewares: owner},

		{Path: "GET /login", HandlerFunc: accountsController.LoginPage, Middlewares: public},
		{Path: "POST /login", HandlerFunc: accountsController.LoginAction, Middlewares: public},
		{Path: "GET /signup", HandlerFunc: accountsController.SignupPage, Middlewares: public},
		{Path: "POST /signup", HandlerFunc: accountsController.SignupAction, Middlewares: public},
		{Path: "GET /logout", HandlerFunc: accountsController.LogoutAction, Middlewares: public},
		{Path: "GET /profile", HandlerFunc: accountsController.ProfilePage, Middlewares: owner},
		{Path: "POST /profile", HandlerFunc: accountsController.ProfileAction, Middlewares: owner},

		{Path: "GET /{$}", HandlerFunc: dashboardController.DashboardPage, Middlewares: owner},
		{Path: "GET /retouching-queue", HandlerFunc: dashboardController.RetouchingQueuePage, Middlewares: owner},
		{Path: "GET /support", HandlerFunc: dashboardController.SupportPage, Middlewares: owner},
		{Path: "POST /support", HandlerFunc: dashboardController.SupportAction, Middlewares: owner},

		{Path: "GET /client-manager", HandlerFunc: clientManagerController.ClientManagerPage, Middlewares: owner},
		{Path: "POST /sessions", HandlerFunc: clientManagerController.CreateSessionAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/details", HandlerFunc: clientManagerController.UpdateDetailsAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/client-info", HandlerFunc: clientManagerController.UpdateClientInfoAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/complete", HandlerFunc: clientManagerController.CompleteAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/delete", HandlerFunc: clientManagerController.DeleteAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/quick-email", HandlerFunc: clientManagerController.QuickEmailAction, Middlewares: owner},
		{Path: "POST /sessions/{id}/upload", HandlerFunc: clientManagerController.UploadAction, Middlewares: owner},
		{Path: "POST /assets/{id}/delete", HandlerFunc: clientManagerController.DeleteAssetAction, Middlewares: owner},

		{Path: "GET /portal/{id}", HandlerFunc: portalController.PortalPage, Middlewares: client},
		{Path: "POST /portal/{id}/toggle/{assetid}", HandlerFunc: portalController.ToggleSelection, Middlewares: client},
		{Path: "POST /portal/{id}/submit", HandlerFunc: portalController.SubmitSelections, Middlewares: client},
		{Path: "GET /display/{filename}", HandlerFunc: portalController.DisplayImage, Middlewares: public},
		{Path: "GET /thumbnails/{filename}", HandlerFunc: portalController.Thumbnail, Middlewares: public},
		{Path: "GET /exports/{filename}", HandlerFunc: portalController.DownloadExport, Middlewares: public},
	}
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

/*
setupFileStores returns the uploads, exports and thumbnails stores for the
configured backend.
*/
func setupFileStores() (filestore.FileStore, filestore.FileStore, filestore.FileStore) {
	var (
		err error
	)

	if config.StorageBackend != "s3" {
		uploads, err := filestore.NewDiskStore(config.UploadFolder)
		if err != nil {
			panic(err)
		}

		exports, err := filestore.NewDiskStore(config.ExportFolder)
		if err != nil {
			panic(err)
		}

		thumbnailStore, err := filestore.NewDiskStore(config.ThumbnailFolder)
		if err != nil {
			panic(err)
		}

		return uploads, exports, thumbnailStore
	}

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	newStore := func(prefix string) filestore.S3Store {
		return filestore.NewS3Store(filestore.S3StoreConfig{
			Bucket:   config.AwsBucket,
			Prefix:   prefix,
			S3Client: s3Client,
		})
	}

	uploads := newStore(config.UploadFolder)

	if err = uploads.EnsureBucket(config.AwsRegion); err != nil {
		slog.Error("error ensuring bucket exists. aborting", "bucket", config.AwsBucket, "error", err)
		os.Exit(1)
	}

	return uploads, newStore(config.ExportFolder), newStore(config.ThumbnailFolder)
}

func setupMailService() services.MailServicer {
	if config.MailProvider == "resend" {
		return services.NewResendMailService(services.ResendMailServiceConfig{
			ApiKey:    config.EmailApiKey,
			FromName:  config.MailFromName,
			FromEmail: config.MailFromEmail,
		})
	}

	return services.NewSmtpMailService(services.SmtpConfig{
		Host:      config.MailServer,
		Port:      config.MailPort,
		UseTLS:    config.MailUseTLS,
		Username:  config.MailUsername,
		Password:  config.MailPassword,
		FromName:  config.MailFromName,
		FromEmail: config.MailFromEmail,
	})
}

// setupThumbnailBackfill runs once in the background; shutdown cancels its pool through shutdownCtx.
func setupThumbnailBackfill() {
	go func() {
		created := backfillService.CreateMissing()
		slog.Info("thumbnail backfill finished.", "queued", created)
	}()
}
