package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// в списке показываем последние свечи, остальное — в Excel
const candleListLimit = 40

func (b *Bot) showCandleList(ctx context.Context, chatID int64, editMsgID *int) {
	items, err := b.store.Candles().List(ctx)
	if err != nil {
		b.log.Error("list candles", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки свечей")
		return
	}
	if len(items) == 0 {
		b.setState(ctx, chatID, dialog.StateCandleList, dialog.Payload{})
		b.show(chatID, editMsgID, "Свечей пока нет. Рассчитайте и сохраните партию в калькуляторе.", navKeyboard(false, true))
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for i, c := range items {
		if i == candleListLimit {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(candleLabel(c, b.loc), fmt.Sprintf("cand:menu:%d", c.ID)),
		))
	}
	rows = append(rows, navKeyboard(false, true).InlineKeyboard[0])

	text := fmt.Sprintf("Свечи: %d", len(items))
	if len(items) > candleListLimit {
		text += fmt.Sprintf(" (показаны последние %d, полный список — в «Файлы»)", candleListLimit)
	}
	b.setState(ctx, chatID, dialog.StateCandleList, dialog.Payload{})
	b.show(chatID, editMsgID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showCandleItem(ctx context.Context, chatID int64, editMsgID *int, id int64) {
	c, err := b.store.Candles().GetByID(ctx, id)
	if err != nil || c == nil {
		if err != nil {
			b.log.Error("get candle", "err", err, "candle_id", id)
		}
		b.setState(ctx, chatID, dialog.StateCandleItem, dialog.Payload{})
		b.show(chatID, editMsgID, "Свеча не найдена", navKeyboard(true, true))
		return
	}
	b.setState(ctx, chatID, dialog.StateCandleItem, dialog.Payload{dialog.KeyCandleID: id})
	b.show(chatID, editMsgID, candleCard(*c, time.Now(), b.loc), burnKeyboard(c.ID, c.BatchID))
}

func (b *Bot) addBurnTime(ctx context.Context, cb *tgbotapi.CallbackQuery, id int64, delta int) {
	if err := b.store.Candles().IncrementBurnTime(ctx, id, delta); err != nil {
		b.candleError(cb.Message.Chat.ID, id, err)
		return
	}
	_ = b.answerCallback(cb, fmt.Sprintf("+%d мин", delta), false)
	b.showCandleItem(ctx, cb.Message.Chat.ID, &cb.Message.MessageID, id)
}

func (b *Bot) deleteCandle(ctx context.Context, chatID int64, editMsgID int, id int64) {
	if err := b.store.Candles().Delete(ctx, id); err != nil {
		b.candleError(chatID, id, err)
		return
	}
	b.log.Info("candle deleted", "chat_id", chatID, "candle_id", id)
	b.showCandleList(ctx, chatID, &editMsgID)
}

func (b *Bot) candleError(chatID, id int64, err error) {
	if errors.Is(err, candles.ErrNotFound) {
		b.reply(chatID, "Свеча не найдена.")
		return
	}
	b.log.Error("candle update", "err", err, "candle_id", id, "chat_id", chatID)
	b.reply(chatID, "Ошибка сохранения свечи")
}

// candleInput ввод минут горения.
func (b *Bot) candleInput(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	id, _ := dialog.GetInt64(st.Payload, dialog.KeyCandleID)
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes < 0 {
		b.reply(chatID, "Введите целое число минут, 0 или больше.")
		return
	}
	if err := b.store.Candles().SetBurnTime(ctx, id, minutes); err != nil {
		b.candleError(chatID, id, err)
		return
	}
	b.showCandleItem(ctx, chatID, nil, id)
}
