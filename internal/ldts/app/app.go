package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/loancollect/ldts/internal/ldts/http"
	"github.com/loancollect/ldts/internal/ldts/mail"
	"github.com/loancollect/ldts/internal/ldts/metrics"
	"github.com/loancollect/ldts/internal/ldts/service"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/internal/ldts/store/drivers/sqlite"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/jwtx"
	"github.com/loancollect/ldts/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer

	authService    *service.AuthService
	pastDueService *service.PastDueService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "ldts",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	metrics.Init()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSigner(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("ldts starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the HTTP server and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down ldts...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("ldts stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initSigner() error {
	if app.cfg.SigningKeyFile == "" {
		signer, err := jwtx.NewEphemeralSigner()
		if err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}
		app.signer = signer
		app.logger.Warn("using ephemeral signing key; access tokens will not survive a restart")
		return nil
	}

	pemKey, err := os.ReadFile(app.cfg.SigningKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read signing key: %w", err)
	}
	signer, err := jwtx.NewSigner(pemKey)
	if err != nil {
		return fmt.Errorf("failed to parse signing key: %w", err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initServices() error {
	mailer, err := mail.NewMailer(mail.Config{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUser,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.MailFrom,
		BaseURL:  app.cfg.AppBaseURL,
	})
	if err != nil {
		return err
	}

	otpService := &service.OtpService{Store: app.db}
	tokenService := &service.TokenService{
		Signer:     app.signer,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.authService = &service.AuthService{
		Store:               app.db,
		Otp:                 otpService,
		Tokens:              tokenService,
		Notifier:            mailer,
		AllowedEmailDomains: app.cfg.AllowedEmailDomains,
	}
	app.pastDueService = &service.PastDueService{Store: app.db}
	return nil
}

func (app *Application) initHTTP() {
	verifier := jwtx.NewVerifier(app.signer.Public(), app.cfg.Issuer)

	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.PastDueService = app.pastDueService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
