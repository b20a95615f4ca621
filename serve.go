package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dietcoach/auth"
	"dietcoach/db"
	"dietcoach/notify"
	"dietcoach/repository"
	"dietcoach/routes"
	"dietcoach/services"
	"dietcoach/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server, Telegram bot and reminder worker",
	RunE:  runServe,
}

func disconnect(client *mongo.Client) {
	if err := client.Disconnect(context.Background()); err != nil {
		zap.L().Warn("mongo disconnect failed", zap.Error(err))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer disconnect(client)
	zap.L().Info("connected to MongoDB", zap.String("database", cfg.MongoDB))

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		zap.L().Warn("ensure indexes failed", zap.Error(err))
	}
	store := repository.NewStore(database)
	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.JWTTTL)

	authHandler := &auth.Handler{
		Users:       store.Users,
		Sessions:    store.Sessions,
		Tokens:      tokens,
		FrontendURL: cfg.FrontendURL,
	}
	if cfg.Google.Enabled() {
		authHandler.Google = auth.NewGoogleConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	} else {
		zap.L().Info("Google sign-in disabled")
	}

	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	if uploader == nil {
		zap.L().Warn("uploads disabled, image host credentials missing", zap.String("provider", cfg.Upload.Provider))
	}

	var notifier notify.Notifier = notify.Noop{}
	var bot *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegram(bot)
		zap.L().Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	} else {
		zap.L().Info("telegram notifications disabled")
	}

	api := &services.API{
		Clients:        store.Clients,
		Measurements:   store.Measurements,
		DietPlans:      store.DietPlans,
		Appointments:   store.Appointments,
		Activities:     store.Activities,
		Notifier:       notifier,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Location:       cfg.Location(),
	}
	if uploader != nil {
		api.Uploader = uploader
	}

	router := routes.SetupRouter(routes.Deps{
		Logger:      zap.L(),
		CORSOrigins: cfg.CORSOrigins,
		Auth:        authHandler,
		API:         api,
		Tokens:      tokens,
		Sessions:    store.Sessions,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, client)
		},
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		zap.L().Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)

		chat := &notify.Bot{
			Clients:      store.Clients,
			Appointments: store.Appointments,
			DietPlans:    store.DietPlans,
			Activities:   store.Activities,
			Sender:       bot,
			Location:     cfg.Location(),
		}
		reminders := &notify.Reminders{
			Appointments: store.Appointments,
			Clients:      store.Clients,
			Notifier:     notifier,
			Interval:     cfg.ReminderInterval,
			Lead:         cfg.ReminderLead,
			Location:     cfg.Location(),
		}
		g.Go(func() error {
			defer bot.StopReceivingUpdates()
			return chat.Run(gctx, updates)
		})
		g.Go(func() error {
			return reminders.Run(gctx)
		})
	}

	return g.Wait()
}
