package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/infra/metrics"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/Spok95/candle-bot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Options — настройки бота из конфига.
type Options struct {
	AdminChatID int64 // 0 — бот отвечает всем
	LowStock    materials.Thresholds
	Location    *time.Location
	LabelPage   string
}

type Bot struct {
	api     *tgbotapi.BotAPI
	log     *slog.Logger
	store   storage.Store
	states  storage.DialogStore
	inv     *inventory.Service
	engine  *recipe.Engine
	metrics *metrics.Metrics

	adminChat int64
	low       materials.Thresholds
	loc       *time.Location
	labelPage string

	// чаты, где сейчас идёт сохранение партии
	mu       sync.Mutex
	inFlight map[int64]bool
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	store storage.Store, inv *inventory.Service,
	engine *recipe.Engine, m *metrics.Metrics, opts Options) *Bot {

	if opts.LowStock == nil {
		opts.LowStock = materials.DefaultThresholds()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Bot{
		api: api, log: log, store: store, states: store.Dialogs(),
		inv: inv, engine: engine, metrics: m,
		adminChat: opts.AdminChatID, low: opts.LowStock,
		loc: opts.Location, labelPage: opts.LabelPage,
		inFlight: map[int64]bool{},
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd)
			}
		}
	}
}

// allowed если задан admin_chat_id, бот работает только в этом чате.
func (b *Bot) allowed(chatID int64) bool {
	return b.adminChat == 0 || chatID == b.adminChat
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if !b.allowed(msg.Chat.ID) {
		b.metrics.Updates.WithLabelValues("denied").Inc()
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Доступ запрещён."))
		return
	}
	b.metrics.Updates.WithLabelValues("message").Inc()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	cb := upd.CallbackQuery
	if cb.Message == nil {
		return
	}
	if !b.allowed(cb.Message.Chat.ID) {
		b.metrics.Updates.WithLabelValues("denied").Inc()
		_ = b.answerCallback(cb, "Доступ запрещён", true)
		return
	}
	b.metrics.Updates.WithLabelValues("callback").Inc()
	b.handleCallback(ctx, cb)
}

// beginCommit отмечает, что чат сохраняет партию. false — сохранение уже идёт.
func (b *Bot) beginCommit(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight[chatID] {
		return false
	}
	b.inFlight[chatID] = true
	return true
}

func (b *Bot) endCommit(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inFlight, chatID)
}
