package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/infra/metrics"
	"github.com/Spok95/candle-bot/internal/recipe"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// component — слот рецепта. Ключ payload совпадает с именем компонента.
type component struct {
	key      string
	category materials.Category
	optional bool
}

var components = []component{
	{dialog.KeyContainer, materials.CategoryContainer, false},
	{dialog.KeyWax, materials.CategoryWax, false},
	{dialog.KeyFragrance, materials.CategoryFragrance, true},
	{dialog.KeyWick, materials.CategoryWick, true},
	{dialog.KeyDye, materials.CategoryDye, true},
}

func componentByKey(key string) (component, bool) {
	for _, c := range components {
		if c.key == key {
			return c, true
		}
	}
	return component{}, false
}

func isCalcState(s dialog.State) bool {
	switch s {
	case dialog.StateCalc, dialog.StateCalcPick, dialog.StateCalcConc,
		dialog.StateCalcWickLen, dialog.StateCalcCount, dialog.StateCalcRecipient:
		return true
	}
	return false
}

// selectionFromPayload собирает выбор калькулятора по свежему остатку.
// Материал, которого уже нет на складе, считается не выбранным.
func selectionFromPayload(p dialog.Payload, stock []materials.Material) recipe.Selection {
	byID := make(map[int64]materials.Material, len(stock))
	for _, m := range stock {
		byID[m.ID] = m
	}
	pick := func(key string) *materials.Material {
		id, ok := dialog.GetInt64(p, key)
		if !ok {
			return nil
		}
		m, ok := byID[id]
		if !ok {
			return nil
		}
		return &m
	}

	sel := recipe.NewSelection()
	sel.Container = pick(dialog.KeyContainer)
	sel.Wax = pick(dialog.KeyWax)
	sel.Fragrance = pick(dialog.KeyFragrance)
	sel.Wick = pick(dialog.KeyWick)
	sel.Dye = pick(dialog.KeyDye)
	if s, ok := dialog.GetString(p, dialog.KeyConcentration); ok {
		sel.Concentration = s
	}
	if s, ok := dialog.GetString(p, dialog.KeyWickLength); ok {
		sel.WickLength = s
	}
	if n, ok := dialog.GetInt64(p, dialog.KeyCount); ok {
		sel.Count = int(n)
	}
	if s, ok := dialog.GetString(p, dialog.KeyRecipient); ok {
		sel.Recipient = s
	}
	return sel
}

// applyPick записывает выбор материала в payload вместе с подстановками
// по умолчанию: фитиль ёмкости и концентрация отдушки.
func applyPick(p dialog.Payload, key string, m *materials.Material, stock []materials.Material) {
	if m == nil {
		delete(p, key)
		return
	}
	sel := selectionFromPayload(p, stock)
	switch key {
	case dialog.KeyContainer:
		var wicks []materials.Material
		for _, w := range stock {
			if w.Category == materials.CategoryWick {
				wicks = append(wicks, w)
			}
		}
		sel.SetContainer(m, wicks)
		if sel.Wick != nil {
			p[dialog.KeyWick] = sel.Wick.ID
		}
	case dialog.KeyFragrance:
		sel.SetFragrance(m)
		p[dialog.KeyConcentration] = sel.Concentration
	}
	p[key] = m.ID
}

func calcKeyboard(sel recipe.Selection, br recipe.Breakdown, feasible bool) tgbotapi.InlineKeyboardMarkup {
	btn := func(text, data string) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		btn("Ёмкость: "+nameOr(sel.Container), "calc:pick:"+dialog.KeyContainer),
		btn("Воск: "+nameOr(sel.Wax), "calc:pick:"+dialog.KeyWax),
		btn("Отдушка: "+nameOr(sel.Fragrance), "calc:pick:"+dialog.KeyFragrance),
	}
	if sel.Fragrance != nil {
		rows = append(rows, btn("Концентрация: "+sel.Concentration+"%", "calc:conc"))
	}
	rows = append(rows, btn("Фитиль: "+nameOr(sel.Wick), "calc:pick:"+dialog.KeyWick))
	if sel.Wick != nil && sel.Wick.Unit == materials.UnitM {
		rows = append(rows, btn("Длина фитиля: "+sel.WickLength+" м", "calc:wlen"))
	}
	rows = append(rows,
		btn("Краситель: "+nameOr(sel.Dye), "calc:pick:"+dialog.KeyDye),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Количество: %d", sel.Count), "calc:count"),
			tgbotapi.NewInlineKeyboardButtonData("Для кого", "calc:rcpt"),
		),
	)
	if br.Complete() && feasible {
		rows = append(rows, btn("💾 Сохранить партию", "calc:save"))
	}
	rows = append(rows, btn("🔄 Сбросить", "calc:reset"), navKeyboard(false, true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// openCalc экран калькулятора. Выбор сохраняется, пока чат в калькуляторе.
func (b *Bot) openCalc(ctx context.Context, chatID int64, editMsgID *int) {
	p := dialog.Payload{}
	if st := b.state(ctx, chatID); isCalcState(st.State) {
		p = st.Payload
	}
	b.renderCalc(ctx, chatID, editMsgID, p, "")
}

// renderCalc перечитывает склад и заново считает партию.
func (b *Bot) renderCalc(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, note string) {
	stock, err := b.store.Materials().List(ctx)
	if err != nil {
		b.log.Error("list materials", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки склада")
		return
	}
	delete(p, dialog.KeyComponent)

	sel := selectionFromPayload(p, stock)
	br := b.engine.Evaluate(sel)
	b.metrics.Evaluations.Inc()
	var sf []recipe.Shortfall
	if br.Complete() {
		sf = b.engine.Shortfalls(sel, br)
	}

	text := formatBreakdown(sel, br, sf)
	if note != "" {
		text = note + "\n\n" + text
	}
	if !b.setState(ctx, chatID, dialog.StateCalc, p) {
		b.reply(chatID, errStateText)
		return
	}
	b.show(chatID, editMsgID, text, calcKeyboard(sel, br, len(sf) == 0))
}

func (b *Bot) showCalcPick(ctx context.Context, chatID int64, editMsgID int, key string) {
	comp, ok := componentByKey(key)
	if !ok {
		return
	}
	st := b.state(ctx, chatID)
	stock, err := b.store.Materials().List(ctx)
	if err != nil {
		b.editTextAndClear(chatID, editMsgID, "Ошибка загрузки склада")
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, m := range stock {
		if m.Category != comp.category {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(materialLabel(m, b.low), fmt.Sprintf("calc:set:%s:%d", key, m.ID)),
		))
	}
	text := comp.category.Title() + " — выберите:"
	if len(rows) == 0 {
		text = comp.category.Title() + ": на складе ничего нет."
	}
	if comp.optional {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Без", "calc:clr:"+key),
		))
	}
	rows = append(rows, navKeyboard(true, true).InlineKeyboard[0])

	p := st.Payload
	p[dialog.KeyComponent] = key
	if !b.setState(ctx, chatID, dialog.StateCalcPick, p) {
		b.reply(chatID, errStateText)
		return
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, text, tgbotapi.NewInlineKeyboardMarkup(rows...)))
}

func (b *Bot) calcPick(ctx context.Context, chatID int64, editMsgID int, key string, id int64) {
	st := b.state(ctx, chatID)
	stock, err := b.store.Materials().List(ctx)
	if err != nil {
		b.editTextAndClear(chatID, editMsgID, "Ошибка загрузки склада")
		return
	}
	var picked *materials.Material
	for i := range stock {
		if stock[i].ID == id {
			picked = &stock[i]
			break
		}
	}
	note := ""
	if id != 0 && picked == nil {
		note = "Этого материала уже нет на складе."
	}
	applyPick(st.Payload, key, picked, stock)
	b.renderCalc(ctx, chatID, &editMsgID, st.Payload, note)
}

// askCalcInput переводит калькулятор в ожидание текстового ввода.
func (b *Bot) askCalcInput(ctx context.Context, chatID int64, editMsgID int, state dialog.State, prompt string) {
	st := b.state(ctx, chatID)
	if !b.setState(ctx, chatID, state, st.Payload) {
		b.reply(chatID, errStateText)
		return
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, prompt, navKeyboard(true, true)))
}

// calcInput обрабатывает текст в состояниях ввода калькулятора.
func (b *Bot) calcInput(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	p := st.Payload
	text = strings.TrimSpace(text)
	switch st.State {
	case dialog.StateCalcConc:
		p[dialog.KeyConcentration] = text
	case dialog.StateCalcWickLen:
		p[dialog.KeyWickLength] = text
	case dialog.StateCalcCount:
		n := recipe.ParseCount(text)
		if n <= 0 {
			b.reply(chatID, "Введите целое число больше нуля.")
			return
		}
		p[dialog.KeyCount] = int64(n)
	case dialog.StateCalcRecipient:
		if text == "-" {
			delete(p, dialog.KeyRecipient)
		} else {
			p[dialog.KeyRecipient] = text
		}
	}
	b.renderCalc(ctx, chatID, nil, p, "")
}

// saveBatch сохраняет партию: пересчёт по свежему складу, план, одна транзакция.
func (b *Bot) saveBatch(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	if !b.beginCommit(chatID) {
		_ = b.answerCallback(cb, "Сохранение уже идёт", false)
		return
	}
	defer b.endCommit(chatID)

	st := b.state(ctx, chatID)
	if !isCalcState(st.State) {
		_ = b.answerCallback(cb, "Расчёт устарел, откройте калькулятор заново", true)
		return
	}
	stock, err := b.store.Materials().List(ctx)
	if err != nil {
		b.log.Error("list materials", "err", err, "chat_id", chatID)
		_ = b.answerCallback(cb, "Ошибка загрузки склада", true)
		return
	}

	sel := selectionFromPayload(st.Payload, stock)
	br := b.engine.Evaluate(sel)
	b.metrics.Evaluations.Inc()
	plan, err := b.engine.Commit(sel, br)
	if err != nil {
		b.metrics.Commits.WithLabelValues(metrics.CommitRefused).Inc()
		note := "Рецепт не заполнен."
		var sfErr *recipe.ShortfallError
		if errors.As(err, &sfErr) {
			note = "Материалов не хватает, партия не сохранена."
		}
		_ = b.answerCallback(cb, "Не сохранено", false)
		b.renderCalc(ctx, chatID, &msgID, st.Payload, note)
		return
	}

	ids, err := b.inv.Apply(ctx, plan)
	if err != nil {
		if errors.Is(err, inventory.ErrStalePlan) {
			b.metrics.Commits.WithLabelValues(metrics.CommitStale).Inc()
			b.log.Warn("stale plan", "chat_id", chatID, "batch_id", plan.BatchID)
			_ = b.answerCallback(cb, "Склад изменился", false)
			b.renderCalc(ctx, chatID, &msgID, st.Payload, "Склад изменился, расчёт обновлён. Проверьте и сохраните ещё раз.")
			return
		}
		b.metrics.Commits.WithLabelValues(metrics.CommitFailed).Inc()
		b.log.Error("apply plan", "err", err, "chat_id", chatID, "batch_id", plan.BatchID)
		_ = b.answerCallback(cb, "Ошибка сохранения", true)
		b.renderCalc(ctx, chatID, &msgID, st.Payload, "Не удалось сохранить партию. Попробуйте ещё раз.")
		return
	}

	b.metrics.Commits.WithLabelValues(metrics.CommitOK).Inc()
	b.metrics.ObservePlan(plan)
	b.log.Info("batch saved", "chat_id", chatID, "batch_id", plan.BatchID, "candles", len(ids))
	_ = b.answerCallback(cb, "Сохранено", false)

	b.editTextAndClear(chatID, msgID, formatBreakdown(sel, br, nil))
	ready := plan.Candles[0].ReadyAt.In(b.loc).Format("02.01.2006")
	done := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Сохранено свечей: %d\nПартия: %s\nЗажигать с %s", len(ids), plan.BatchID, ready))
	done.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏷 Этикетки партии", "lbl:b:"+plan.BatchID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕯 К калькулятору", "calc:open"),
		),
	)
	b.send(done)

	if lines := lowStockLines(plan, b.low); len(lines) > 0 {
		b.reply(chatID, "⚠️ Заканчиваются материалы:\n"+strings.Join(lines, "\n"))
	}
}
