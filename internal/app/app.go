package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	nats "github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/Louis-hue-lang/OrientaVision/config"
	httpadapter "github.com/Louis-hue-lang/OrientaVision/internal/adapters/http"
	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/handlers"
	authmw "github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/middleware"
	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/mailer"
	natsadapter "github.com/Louis-hue-lang/OrientaVision/internal/adapters/nats"
	repo "github.com/Louis-hue-lang/OrientaVision/internal/adapters/postgres"
	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	"github.com/Louis-hue-lang/OrientaVision/internal/usecase"
	pkglog "github.com/Louis-hue-lang/OrientaVision/pkg/log"
)

type App struct {
	cfg      *config.Config
	logger   pkglog.Logger
	db       *gorm.DB
	natsConn *nats.Conn
	echo     *echo.Echo
}

func New(ctx context.Context) (*App, error) {
	cfg := config.MustLoad()
	log := pkglog.New(cfg.AppEnv)

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Account{}, &domain.Invite{}); err != nil {
		return nil, err
	}

	tokens, err := usecase.NewTokenService(cfg)
	if err != nil {
		return nil, err
	}

	accounts := repo.NewAccountRepository(db)
	invites := repo.NewInviteRepository(db)
	registrar := repo.NewRegistrar(db)
	notifier := mailer.New(cfg.MailerURL, cfg.MailerTimeout, log)

	sessions := usecase.NewSessionService(log, accounts, registrar, tokens, notifier, cfg.ResetTokenTTL)
	directory := usecase.NewDirectoryService(log, accounts, invites, notifier)

	guard := authmw.NewAuthMiddleware(tokens, accounts)
	router := httpadapter.NewRouter(cfg,
		handlers.NewAuthHandler(sessions, cfg.IsProduction()),
		handlers.NewAdminHandler(directory),
		guard,
	)

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Warn().Err(err).Msg("nats connect failed, token verification over nats disabled")
		nc = nil
	}
	if nc != nil {
		verifyHandler := natsadapter.NewVerifyHandler(tokens)
		if err := verifyHandler.Subscribe(nc, cfg.NATSVerifySubject, cfg.AppName); err != nil {
			log.Warn().Err(err).Msg("nats subscribe failed")
		}
	}

	e := echo.New()
	router.Setup(e)

	return &App{cfg: cfg, logger: log, db: db, natsConn: nc, echo: e}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.echo.Shutdown(shutdownCtx)
	}()
	go func() {
		errCh <- a.echo.Start(fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort))
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         loggerForGorm(cfg),
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		TranslateError: true,
	}
	switch cfg.DBDriver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.DBPath), gormCfg)
	case "postgres":
		return gorm.Open(postgres.Open(buildDSN(cfg)), gormCfg)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func loggerForGorm(cfg *config.Config) logger.Interface {
	level := logger.Silent
	switch cfg.AppEnv {
	case "local":
		level = logger.Info
	default:
		level = logger.Warn
	}
	return logger.Default.LogMode(level)
}
