package bot

import (
	"fmt"

	"github.com/Spok95/candle-bot/internal/domain/materials"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Подписи кнопок нижней панели.
const (
	btnStock   = "Склад"
	btnCalc    = "Калькулятор"
	btnCandles = "Свечи"
	btnFiles   = "Файлы"
)

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// mainReplyKeyboard Нижняя панель
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnCalc)},
			{tgbotapi.NewKeyboardButton(btnStock), tgbotapi.NewKeyboardButton(btnCandles)},
			{tgbotapi.NewKeyboardButton(btnFiles)},
		},
	}
}

func categoryKeyboard(prefix string, back bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, c := range materials.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Title(), prefix+string(c)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, navKeyboard(back, true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// unitKeyboard единица для нового материала; предложенная помечена точкой.
func unitKeyboard(suggested materials.Unit) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	for _, u := range []materials.Unit{materials.UnitG, materials.UnitMl, materials.UnitPcs, materials.UnitM} {
		label := string(u)
		if u == suggested {
			label = "• " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "mat:unit:"+string(u)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, navKeyboard(true, true).InlineKeyboard[0])
}

func filesKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Склад в Excel", "file:xmat"),
			tgbotapi.NewInlineKeyboardButtonData("📤 Свечи в Excel", "file:xcand"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Загрузить материалы", "file:import"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏷 Этикетки всех свечей", "lbl:all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Бэкап", "file:backup"),
			tgbotapi.NewInlineKeyboardButtonData("♻️ Восстановить", "file:restore"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}

func confirmKeyboard(yesData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да", yesData),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
}

func burnKeyboard(id int64, batchID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+15 мин", fmt.Sprintf("cand:burn:%d:15", id)),
			tgbotapi.NewInlineKeyboardButtonData("+30 мин", fmt.Sprintf("cand:burn:%d:30", id)),
			tgbotapi.NewInlineKeyboardButtonData("+60 мин", fmt.Sprintf("cand:burn:%d:60", id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Указать время", fmt.Sprintf("cand:setburn:%d", id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏷 Этикетка", fmt.Sprintf("lbl:c:%d", id)),
			tgbotapi.NewInlineKeyboardButtonData("🏷 Вся партия", "lbl:b:"+batchID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("cand:del:%d", id)),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
}
