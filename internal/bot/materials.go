package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) showMaterialList(ctx context.Context, chatID int64, editMsgID *int) {
	items, err := b.store.Materials().List(ctx)
	if err != nil {
		b.log.Error("list materials", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки материалов")
		return
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить материал", "mat:add"),
		),
	}
	low := 0
	for _, m := range items {
		if b.low.IsLow(m) {
			low++
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(materialLabel(m, b.low), fmt.Sprintf("mat:menu:%d", m.ID)),
		))
	}
	rows = append(rows, navKeyboard(false, true).InlineKeyboard[0])

	text := fmt.Sprintf("Склад: %d позиций", len(items))
	if low > 0 {
		text += fmt.Sprintf(", заканчивается: %d ⚠️", low)
	}
	if len(items) == 0 {
		text = "Склад пуст. Добавьте материалы или загрузите их из Excel."
	}
	b.setState(ctx, chatID, dialog.StateMatList, dialog.Payload{})
	b.show(chatID, editMsgID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showMaterialItem(ctx context.Context, chatID int64, editMsgID *int, id int64) {
	m, err := b.store.Materials().GetByID(ctx, id)
	if err != nil || m == nil {
		if err != nil {
			b.log.Error("get material", "err", err, "material_id", id)
		}
		b.show(chatID, editMsgID, "Материал не найден", navKeyboard(true, true))
		b.setState(ctx, chatID, dialog.StateMatItem, dialog.Payload{})
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Списать", fmt.Sprintf("mat:cons:%d", id)),
		),
	}
	switch m.Category {
	case materials.CategoryContainer:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧵 Фитиль по умолчанию", fmt.Sprintf("mat:wick:%d", id)),
		))
	case materials.CategoryFragrance:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💧 Концентрация по умолчанию", fmt.Sprintf("mat:conc:%d", id)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("mat:del:%d", id)),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)

	b.setState(ctx, chatID, dialog.StateMatItem, dialog.Payload{dialog.KeyMaterialID: id})
	b.show(chatID, editMsgID, materialCard(*m, b.low), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showWickPick выбор фитиля по умолчанию для ёмкости.
func (b *Bot) showWickPick(ctx context.Context, chatID int64, editMsgID int, containerID int64) {
	items, err := b.store.Materials().List(ctx)
	if err != nil {
		b.editTextAndClear(chatID, editMsgID, "Ошибка загрузки материалов")
		return
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, m := range items {
		if m.Category != materials.CategoryWick {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.Name, fmt.Sprintf("mat:wickset:%d:%d", containerID, m.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Без фитиля по умолчанию", fmt.Sprintf("mat:wickclr:%d", containerID)),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
	b.setState(ctx, chatID, dialog.StateMatSetWick, dialog.Payload{dialog.KeyMaterialID: containerID})
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID,
		"Выберите фитиль или пришлите его название сообщением:", tgbotapi.NewInlineKeyboardMarkup(rows...)))
}

func (b *Bot) setPreferredWick(ctx context.Context, chatID int64, editMsgID *int, containerID int64, wickName string) {
	if err := b.inv.SetPreferredWick(ctx, containerID, wickName); err != nil {
		b.materialError(chatID, containerID, err)
		return
	}
	b.showMaterialItem(ctx, chatID, editMsgID, containerID)
}

// materialError ответ на ошибку изменения материала.
func (b *Bot) materialError(chatID, id int64, err error) {
	switch {
	case errors.Is(err, materials.ErrNotFound):
		b.reply(chatID, "Материал не найден, возможно, он уже закончился.")
	case errors.Is(err, inventory.ErrInvalidMaterial):
		b.reply(chatID, "Некорректные данные: "+err.Error())
	default:
		b.log.Error("material update", "err", err, "material_id", id, "chat_id", chatID)
		b.reply(chatID, "Ошибка сохранения материала")
	}
}

// materialInput текстовые шаги склада.
func (b *Bot) materialInput(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	p := st.Payload
	text = strings.TrimSpace(text)
	id, _ := dialog.GetInt64(p, dialog.KeyMaterialID)

	switch st.State {
	case dialog.StateMatAddName:
		if text == "" {
			b.reply(chatID, "Название не может быть пустым.")
			return
		}
		p[dialog.KeyName] = text
		catRaw, _ := dialog.GetString(p, dialog.KeyCategory)
		cat, _ := materials.ParseCategory(catRaw)
		b.setState(ctx, chatID, dialog.StateMatAddUnit, p)
		m := tgbotapi.NewMessage(chatID, "Единица измерения:")
		m.ReplyMarkup = unitKeyboard(cat.DefaultUnit())
		b.send(m)

	case dialog.StateMatAddQty:
		qty, ok := parseAmount(text)
		if !ok || qty <= 0 {
			b.reply(chatID, "Введите количество числом больше нуля.")
			return
		}
		p[dialog.KeyQty] = qty
		b.setState(ctx, chatID, dialog.StateMatAddPrice, p)
		m := tgbotapi.NewMessage(chatID, "Сколько заплачено за всё это количество?")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case dialog.StateMatAddPrice:
		price, ok := parseAmount(text)
		if !ok || price < 0 {
			b.reply(chatID, "Введите сумму числом, 0 или больше.")
			return
		}
		b.addMaterial(ctx, chatID, p, price)

	case dialog.StateMatConsumeQty:
		qty, ok := parseAmount(text)
		if !ok || qty <= 0 {
			b.reply(chatID, "Введите количество числом больше нуля.")
			return
		}
		adj, err := b.inv.Consume(ctx, id, qty)
		if err != nil {
			b.materialError(chatID, id, err)
			return
		}
		b.metrics.ObservePlan(inventory.Plan{Adjustments: []inventory.Adjustment{adj}})
		if adj.Delete {
			b.reply(chatID, fmt.Sprintf("«%s» закончился, позиция удалена со склада.", adj.Before.Name))
			b.showMaterialList(ctx, chatID, nil)
			return
		}
		b.showMaterialItem(ctx, chatID, nil, id)

	case dialog.StateMatSetConc:
		var conc *float64
		if text != "-" {
			v, ok := parseAmount(text)
			if !ok {
				b.reply(chatID, "Введите число, например 7.5, или «-», чтобы сбросить.")
				return
			}
			conc = &v
		}
		if err := b.inv.SetPreferredConcentration(ctx, id, conc); err != nil {
			b.materialError(chatID, id, err)
			return
		}
		b.showMaterialItem(ctx, chatID, nil, id)

	case dialog.StateMatSetWick:
		if text == "-" {
			text = ""
		}
		b.setPreferredWick(ctx, chatID, nil, id, text)
	}
}

func (b *Bot) addMaterial(ctx context.Context, chatID int64, p dialog.Payload, price float64) {
	catRaw, _ := dialog.GetString(p, dialog.KeyCategory)
	unitRaw, _ := dialog.GetString(p, dialog.KeyUnit)
	name, _ := dialog.GetString(p, dialog.KeyName)
	qty, _ := p[dialog.KeyQty].(float64)

	m, merged, err := b.inv.AddMaterial(ctx, materials.Material{
		Name:     name,
		Category: materials.Category(catRaw),
		Unit:     materials.Unit(unitRaw),
		Quantity: qty,
		Price:    price,
	})
	if err != nil {
		b.materialError(chatID, 0, err)
		return
	}
	b.log.Info("material added", "chat_id", chatID, "material_id", m.ID, "merged", merged)
	if merged {
		b.reply(chatID, fmt.Sprintf("«%s» уже был на складе, количество и сумма сложены.", m.Name))
	}
	b.showMaterialItem(ctx, chatID, nil, m.ID)
}
