package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Команды:
/start — главное меню
/calc — калькулятор партии
/materials — склад
/candles — готовые свечи
/files — выгрузка, загрузка, этикетки, бэкап
/cancel — отменить текущий шаг
/help — помощь`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.resetState(ctx, chatID)
		m := tgbotapi.NewMessage(chatID, "Привет! Здесь учёт материалов и расчёт себестоимости свечей. Пользуйтесь кнопками снизу.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "help":
		b.reply(chatID, helpText)

	case "calc":
		b.openCalc(ctx, chatID, nil)

	case "materials":
		b.showMaterialList(ctx, chatID, nil)

	case "candles":
		b.showCandleList(ctx, chatID, nil)

	case "files", "export":
		b.showFilesMenu(ctx, chatID, nil)

	case "backup":
		b.sendBackup(ctx, chatID)

	case "cancel":
		b.resetState(ctx, chatID)
		b.reply(chatID, "Операция отменена.")

	default:
		b.reply(chatID, "Не знаю такую команду. Наберите /help")
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	// Нижняя панель
	switch msg.Text {
	case btnCalc:
		b.openCalc(ctx, chatID, nil)
		return
	case btnStock:
		b.showMaterialList(ctx, chatID, nil)
		return
	case btnCandles:
		b.showCandleList(ctx, chatID, nil)
		return
	case btnFiles:
		b.showFilesMenu(ctx, chatID, nil)
		return
	}

	st := b.state(ctx, chatID)
	switch st.State {
	case dialog.StateMatAddName, dialog.StateMatAddQty, dialog.StateMatAddPrice,
		dialog.StateMatConsumeQty, dialog.StateMatSetConc, dialog.StateMatSetWick:
		b.materialInput(ctx, chatID, st, msg.Text)

	case dialog.StateCalcConc, dialog.StateCalcWickLen, dialog.StateCalcCount, dialog.StateCalcRecipient:
		b.calcInput(ctx, chatID, st, msg.Text)

	case dialog.StateCandleSetBurn:
		b.candleInput(ctx, chatID, st, msg.Text)

	case dialog.StateMatImportFile, dialog.StateRestoreFile:
		b.fileInput(ctx, msg, st)

	default:
		if msg.Document != nil {
			b.reply(chatID, "Чтобы загрузить файл, откройте «Файлы» и выберите действие.")
			return
		}
		b.reply(chatID, "Выберите действие кнопками снизу или наберите /help")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	// Общая навигация
	switch data {
	case "nav:cancel":
		b.resetState(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Операция отменена.")
		_ = b.answerCallback(cb, "Отменено", false)
		return
	case "nav:back":
		b.handleBack(ctx, chatID, msgID)
		_ = b.answerCallback(cb, "", false)
		return
	}

	switch {
	case strings.HasPrefix(data, "mat:"):
		b.handleMaterialCallback(ctx, cb)
	case strings.HasPrefix(data, "calc:"):
		b.handleCalcCallback(ctx, cb)
	case strings.HasPrefix(data, "cand:"):
		b.handleCandleCallback(ctx, cb)
	case strings.HasPrefix(data, "file:"), strings.HasPrefix(data, "lbl:"):
		b.handleFileCallback(ctx, cb)
	default:
		_ = b.answerCallback(cb, "Неизвестное действие", false)
	}
}

func (b *Bot) handleMaterialCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	defer func() { _ = b.answerCallback(cb, "", false) }()

	switch {
	case data == "mat:list":
		b.showMaterialList(ctx, chatID, &msgID)

	case data == "mat:add":
		b.setState(ctx, chatID, dialog.StateMatAddCat, dialog.Payload{})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "Категория нового материала:", categoryKeyboard("mat:cat:", true)))

	case strings.HasPrefix(data, "mat:cat:"):
		cat, ok := materials.ParseCategory(strings.TrimPrefix(data, "mat:cat:"))
		if !ok {
			return
		}
		b.setState(ctx, chatID, dialog.StateMatAddName, dialog.Payload{dialog.KeyCategory: string(cat)})
		prompt := "Введите название материала сообщением."
		if cat == materials.CategoryContainer {
			prompt = "Введите название ёмкости с объёмом, например «Słoik 200ml»: объём берётся из названия."
		}
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, prompt, navKeyboard(true, true)))

	case strings.HasPrefix(data, "mat:unit:"):
		unit, ok := materials.ParseUnit(strings.TrimPrefix(data, "mat:unit:"))
		if !ok {
			return
		}
		st := b.state(ctx, chatID)
		if st.State != dialog.StateMatAddUnit {
			return
		}
		st.Payload[dialog.KeyUnit] = string(unit)
		b.setState(ctx, chatID, dialog.StateMatAddQty, st.Payload)
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			fmt.Sprintf("Сколько всего, в %s?", unit), navKeyboard(true, true)))

	case strings.HasPrefix(data, "mat:menu:"):
		b.showMaterialItem(ctx, chatID, &msgID, parseID(strings.TrimPrefix(data, "mat:menu:")))

	case strings.HasPrefix(data, "mat:cons:"):
		id := parseID(strings.TrimPrefix(data, "mat:cons:"))
		b.setState(ctx, chatID, dialog.StateMatConsumeQty, dialog.Payload{dialog.KeyMaterialID: id})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Сколько списать? Если больше остатка, позиция удалится.", navKeyboard(true, true)))

	case strings.HasPrefix(data, "mat:conc:"):
		id := parseID(strings.TrimPrefix(data, "mat:conc:"))
		b.setState(ctx, chatID, dialog.StateMatSetConc, dialog.Payload{dialog.KeyMaterialID: id})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Концентрация по умолчанию в процентах, например 7.5. «-» — сбросить.", navKeyboard(true, true)))

	case strings.HasPrefix(data, "mat:wickset:"):
		args := callbackArgs(data, "mat:wickset:")
		if len(args) != 2 {
			return
		}
		containerID, wickID := parseID(args[0]), parseID(args[1])
		wick, err := b.store.Materials().GetByID(ctx, wickID)
		if err != nil || wick == nil {
			b.reply(chatID, "Фитиль не найден.")
			return
		}
		b.setPreferredWick(ctx, chatID, &msgID, containerID, wick.Name)

	case strings.HasPrefix(data, "mat:wickclr:"):
		b.setPreferredWick(ctx, chatID, &msgID, parseID(strings.TrimPrefix(data, "mat:wickclr:")), "")

	case strings.HasPrefix(data, "mat:wick:"):
		b.showWickPick(ctx, chatID, msgID, parseID(strings.TrimPrefix(data, "mat:wick:")))

	case strings.HasPrefix(data, "mat:delok:"):
		id := parseID(strings.TrimPrefix(data, "mat:delok:"))
		if err := b.inv.DeleteMaterial(ctx, id); err != nil {
			b.materialError(chatID, id, err)
			return
		}
		b.log.Info("material deleted", "chat_id", chatID, "material_id", id)
		b.showMaterialList(ctx, chatID, &msgID)

	case strings.HasPrefix(data, "mat:del:"):
		id := parseID(strings.TrimPrefix(data, "mat:del:"))
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Удалить материал со склада?", confirmKeyboard(fmt.Sprintf("mat:delok:%d", id))))
	}
}

func (b *Bot) handleCalcCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	if data == "calc:save" {
		b.saveBatch(ctx, cb)
		return
	}
	defer func() { _ = b.answerCallback(cb, "", false) }()

	switch {
	case data == "calc:open":
		b.openCalc(ctx, chatID, nil)

	case data == "calc:reset":
		b.renderCalc(ctx, chatID, &msgID, dialog.Payload{}, "")

	case data == "calc:conc":
		b.askCalcInput(ctx, chatID, msgID, dialog.StateCalcConc,
			"Концентрация отдушки: 7.5 или 0.075 — одно и то же, 7.5%.")

	case data == "calc:wlen":
		b.askCalcInput(ctx, chatID, msgID, dialog.StateCalcWickLen, "Длина фитиля на одну свечу, в метрах, например 0.15.")

	case data == "calc:count":
		b.askCalcInput(ctx, chatID, msgID, dialog.StateCalcCount, "Сколько свечей в партии?")

	case data == "calc:rcpt":
		b.askCalcInput(ctx, chatID, msgID, dialog.StateCalcRecipient, "Для кого партия? «-» — ни для кого.")

	case strings.HasPrefix(data, "calc:pick:"):
		b.showCalcPick(ctx, chatID, msgID, strings.TrimPrefix(data, "calc:pick:"))

	case strings.HasPrefix(data, "calc:set:"):
		args := callbackArgs(data, "calc:set:")
		if len(args) != 2 {
			return
		}
		if _, ok := componentByKey(args[0]); !ok {
			return
		}
		b.calcPick(ctx, chatID, msgID, args[0], parseID(args[1]))

	case strings.HasPrefix(data, "calc:clr:"):
		key := strings.TrimPrefix(data, "calc:clr:")
		if _, ok := componentByKey(key); !ok {
			return
		}
		b.calcPick(ctx, chatID, msgID, key, 0)
	}
}

func (b *Bot) handleCandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	if strings.HasPrefix(data, "cand:burn:") {
		args := callbackArgs(data, "cand:burn:")
		if len(args) != 2 {
			return
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return
		}
		b.addBurnTime(ctx, cb, parseID(args[0]), delta)
		return
	}
	defer func() { _ = b.answerCallback(cb, "", false) }()

	switch {
	case data == "cand:list":
		b.showCandleList(ctx, chatID, &msgID)

	case strings.HasPrefix(data, "cand:menu:"):
		b.showCandleItem(ctx, chatID, &msgID, parseID(strings.TrimPrefix(data, "cand:menu:")))

	case strings.HasPrefix(data, "cand:setburn:"):
		id := parseID(strings.TrimPrefix(data, "cand:setburn:"))
		b.setState(ctx, chatID, dialog.StateCandleSetBurn, dialog.Payload{dialog.KeyCandleID: id})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "Сколько минут свеча уже горела?", navKeyboard(true, true)))

	case strings.HasPrefix(data, "cand:delok:"):
		b.deleteCandle(ctx, chatID, msgID, parseID(strings.TrimPrefix(data, "cand:delok:")))

	case strings.HasPrefix(data, "cand:del:"):
		id := parseID(strings.TrimPrefix(data, "cand:del:"))
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Удалить запись о свече? Склад при этом не меняется.", confirmKeyboard(fmt.Sprintf("cand:delok:%d", id))))
	}
}

func (b *Bot) handleFileCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	_ = b.answerCallback(cb, "", false)

	switch {
	case data == "file:xmat":
		b.exportMaterials(ctx, chatID)
	case data == "file:xcand":
		b.exportCandles(ctx, chatID)
	case data == "file:backup":
		b.sendBackup(ctx, chatID)
	case data == "file:import":
		b.setState(ctx, chatID, dialog.StateMatImportFile, dialog.Payload{})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Пришлите Excel-файл (.xlsx) с колонками name, category, quantity, unit, price. Удобнее всего взять выгрузку склада.",
			navKeyboard(true, true)))
	case data == "file:restore":
		b.setState(ctx, chatID, dialog.StateRestoreFile, dialog.Payload{})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
			"Пришлите файл бэкапа. Все текущие материалы и свечи будут заменены его содержимым.",
			navKeyboard(true, true)))
	case strings.HasPrefix(data, "lbl:"):
		b.sendLabels(ctx, chatID, strings.TrimPrefix(data, "lbl:"))
	}
}

// handleBack «Назад» ведёт на экран, с которого пришли.
func (b *Bot) handleBack(ctx context.Context, chatID int64, msgID int) {
	st := b.state(ctx, chatID)
	id, hasID := dialog.GetInt64(st.Payload, dialog.KeyMaterialID)

	switch st.State {
	case dialog.StateMatAddCat, dialog.StateMatItem:
		b.showMaterialList(ctx, chatID, &msgID)
	case dialog.StateMatAddName, dialog.StateMatAddUnit:
		b.setState(ctx, chatID, dialog.StateMatAddCat, dialog.Payload{})
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "Категория нового материала:", categoryKeyboard("mat:cat:", true)))
	case dialog.StateMatAddQty, dialog.StateMatAddPrice:
		catRaw, _ := dialog.GetString(st.Payload, dialog.KeyCategory)
		cat, _ := materials.ParseCategory(catRaw)
		b.setState(ctx, chatID, dialog.StateMatAddUnit, st.Payload)
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "Единица измерения:", unitKeyboard(cat.DefaultUnit())))
	case dialog.StateMatConsumeQty, dialog.StateMatSetConc, dialog.StateMatSetWick:
		if hasID {
			b.showMaterialItem(ctx, chatID, &msgID, id)
		} else {
			b.showMaterialList(ctx, chatID, &msgID)
		}
	case dialog.StateCalcPick, dialog.StateCalcConc, dialog.StateCalcWickLen,
		dialog.StateCalcCount, dialog.StateCalcRecipient:
		b.renderCalc(ctx, chatID, &msgID, st.Payload, "")
	case dialog.StateCandleItem:
		b.showCandleList(ctx, chatID, &msgID)
	case dialog.StateCandleSetBurn:
		cid, _ := dialog.GetInt64(st.Payload, dialog.KeyCandleID)
		b.showCandleItem(ctx, chatID, &msgID, cid)
	case dialog.StateMatImportFile, dialog.StateRestoreFile:
		b.showFilesMenu(ctx, chatID, &msgID)
	default:
		b.resetState(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Главное меню — кнопки снизу.")
	}
}
