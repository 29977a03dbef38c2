package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	accountrepo "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session"
	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/telegram"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/utilities"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./configs/config.yaml if present)")
	flag.Parse()

	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-auth-telegram")

	cfg, err := config.Load(*configPath)
	if err != nil {
		sugar.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		sugar.Fatalf("invalid config: %v", err)
	}

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	users := userrepo.NewUserRepo(db)
	accounts := accountrepo.NewAccountRepo(db)
	sessions := sessionrepo.NewSessionRepo(db)

	if cfg.DB.EnsureTables {
		if err := ensureTables(users, accounts, sessions); err != nil {
			sugar.Fatalf("ensure tables: %v", err)
		}
	}

	mgr, err := session.NewManager(sessions, session.Config{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		sugar.Fatalf("session manager: %v", err)
	}

	tg, err := telegram.NewService(telegram.Options{
		BotToken:  cfg.Telegram.BotToken,
		TempEmail: telegram.DefaultTempEmail(cfg.Telegram.EmailDomain),
		Redirect:  cfg.Telegram.Redirect,
	}, users, accounts, mgr)
	if err != nil {
		sugar.Fatalf("telegram service: %v", err)
	}

	handler := router.RegisterRoutes(sugar, router.Deps{
		BasePath: cfg.HTTP.BasePath,
		Telegram: telegram.NewHandler(tg, mgr, sugar),
		Sessions: session.NewHandler(mgr, sugar),
		Users:    user.NewHandler(user.NewService(mgr, users), mgr, sugar),
	})

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("listening", "addr", cfg.HTTP.Addr, "base_path", cfg.HTTP.BasePath)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// ensureTables creates users before accounts and sessions, which reference it.
func ensureTables(tables ...tableEnsurer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, t := range tables {
		if err := t.EnsureTable(ctx); err != nil {
			return err
		}
	}
	return nil
}
