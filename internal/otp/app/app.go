package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	httpapi "github.com/aussiebroadwan/otpgate/internal/otp/http"
	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/internal/otp/store/drivers/sqlite"
	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application owns every long-lived dependency of the service.
type Application struct {
	cfg    Config
	logger *slog.Logger
	clock  clockx.Clock

	db         store.Store
	sessions   session.Store
	dispatcher *notify.Dispatcher
	closers    []func()

	otpService   *service.OTPService
	userService  *service.UserService
	adminService *service.AdminService
	sweeper      *service.ExpirationSweeper

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Nothing is served until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:   cfg,
		clock: clockx.System{},
		logger: slogx.New(slogx.Config{
			Service: "otpgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initDispatcher(context.Background()); err != nil {
		app.closeAll()
		return nil, err
	}

	app.initServices()
	app.initHTTP()
	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves HTTP and sweeps expired codes until SIGINT/SIGTERM, then shuts
// down gracefully.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("otpgate starting",
		"port", app.cfg.HTTP.Port,
		"version", BuildVersion,
		"channels", app.dispatcher.Channels(),
		"sessions", app.cfg.Sessions.Backend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.sweeper.Stop()
		app.closeAll()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains HTTP, stops the sweeper after its current pass and closes
// the backends.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down otpgate")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.HTTP.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()
	app.closeAll()

	app.logger.Info("otpgate stopped")
	return nil
}

func (app *Application) closeAll() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		app.cfg.Database.Path,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.db = db
	app.closers = append(app.closers, func() {
		if err := db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
		}
	})
	app.logger.Info("database ready", "path", app.cfg.Database.Path)
	return nil
}

func (app *Application) initSessions() error {
	cfg := app.cfg.Sessions

	switch cfg.Backend {
	case "redis":
		rs := session.NewRedisStore(cfg.Redis, app.clock, cfg.TTL)
		timeout := cfg.Redis.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		app.sessions = rs
		app.closers = append(app.closers, func() { _ = rs.Close() })
	default:
		app.sessions = session.NewMemoryStore(app.clock, cfg.TTL)
	}
	return nil
}

// initDispatcher registers a transport for every enabled channel. A channel
// left disabled answers with UnsupportedChannelError.
func (app *Application) initDispatcher(ctx context.Context) error {
	cfg := app.cfg.Notify

	tpl, err := notify.NewTemplates(cfg.Subject, cfg.Body)
	if err != nil {
		return err
	}

	d := notify.NewDispatcher(cfg.Timeout)

	if cfg.Email.Enabled {
		email, err := notify.NewEmail(cfg.Email.EmailConfig, tpl)
		if err != nil {
			return fmt.Errorf("email channel: %w", err)
		}
		d.Register(domain.ChannelEmail, email)
		app.closers = append(app.closers, email.Close)
	}
	if cfg.SMS.Enabled {
		sms, err := notify.NewSMS(ctx, cfg.SMS.SMSConfig, tpl)
		if err != nil {
			return fmt.Errorf("sms channel: %w", err)
		}
		d.Register(domain.ChannelSMS, sms)
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.TelegramConfig, tpl)
		if err != nil {
			return fmt.Errorf("telegram channel: %w", err)
		}
		d.Register(domain.ChannelTelegram, tg)
	}
	if cfg.File.Enabled {
		f, err := notify.NewFile(cfg.File.Path)
		if err != nil {
			return fmt.Errorf("file channel: %w", err)
		}
		d.Register(domain.ChannelFile, f)
	}

	app.dispatcher = d
	return nil
}

func (app *Application) initServices() {
	app.otpService = &service.OTPService{
		Store:               app.db,
		Dispatcher:          app.dispatcher,
		Clock:               app.clock,
		MaxGenerateAttempts: app.cfg.OTP.MaxGenerateAttempts,
	}
	app.userService = &service.UserService{
		Store:      app.db,
		Sessions:   app.sessions,
		Clock:      app.clock,
		SessionTTL: app.cfg.Sessions.TTL,
	}
	app.adminService = &service.AdminService{Store: app.db, OTP: app.otpService}

	app.sweeper = service.NewExpirationSweeper(app.otpService, app.logger, app.cfg.OTP.SweepInterval)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.sessions,
		app.cfg.HTTP.CredentialLimit,
		app.logger,
	)
	router.OTPService = app.otpService
	router.UserService = app.userService
	router.AdminService = app.adminService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: app.cfg.HTTP.ReadHeaderTimeout,
	}
}
