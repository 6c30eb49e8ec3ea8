package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/candle-bot/internal/bot"
	"github.com/Spok95/candle-bot/internal/config"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/infra/db"
	httpx "github.com/Spok95/candle-bot/internal/infra/http"
	"github.com/Spok95/candle-bot/internal/infra/logger"
	"github.com/Spok95/candle-bot/internal/infra/metrics"
	"github.com/Spok95/candle-bot/internal/infra/sqlite"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/Spok95/candle-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/subosito/gotenv"
	"golang.org/x/sync/errgroup"
)

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return db.Open(ctx, cfg.Storage.DSN)
	default:
		return sqlite.Open(ctx, cfg.Storage.SQLitePath)
	}
}

func main() {
	// .env не обязателен
	_ = gotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	if cfg.Telegram.Token == "" {
		log.Error("telegram token is empty, set APP_TELEGRAM_TOKEN")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("storage open failed", "driver", cfg.Storage.Driver, "err", err)
		return
	}
	defer func() { _ = store.Close() }()
	log.Info("storage ready, migrations applied", "driver", cfg.Storage.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = reg
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		return
	}
	log.Info("authorized on telegram", "username", api.Self.UserName)

	inv := inventory.NewService(store.Materials(), store)
	engine := recipe.NewEngine(cfg.RecipeParams())
	b := bot.New(api, log, store, inv, engine, m, bot.Options{
		AdminChatID: cfg.Telegram.AdminChatID,
		LowStock:    cfg.LowStock(),
		Location:    cfg.Location(),
		LabelPage:   cfg.Export.LabelPage,
	})

	srv := httpx.New(cfg.HTTP.Addr, store, gatherer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server started", "addr", cfg.HTTP.Addr)
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		log.Info("bot started", "admin_chat_id", cfg.Telegram.AdminChatID)
		return b.Run(gctx, cfg.Telegram.PollTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("stopped with error", "err", err)
		return
	}
	log.Info("graceful shutdown complete")
}
