package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/export"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// сколько плохих строк импорта показываем в ответе
const maxReportedRows = 10

func (b *Bot) showFilesMenu(ctx context.Context, chatID int64, editMsgID *int) {
	b.setState(ctx, chatID, dialog.StateIdle, dialog.Payload{})
	b.show(chatID, editMsgID, "Файлы — выберите действие", filesKeyboard())
}

func stamp() string { return time.Now().Format("20060102_150405") }

func (b *Bot) exportMaterials(ctx context.Context, chatID int64) {
	items, err := b.store.Materials().List(ctx)
	if err != nil {
		b.log.Error("list materials", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки материалов")
		return
	}
	buf := &bytes.Buffer{}
	if err := export.MaterialsXLSX(buf, items, b.low); err != nil {
		b.log.Error("materials xlsx", "err", err)
		b.reply(chatID, "Ошибка формирования файла")
		return
	}
	b.sendDocument(chatID, "materials_"+stamp()+".xlsx", buf.Bytes(),
		"Склад. Файл можно поправить и загрузить обратно через «Загрузить материалы»: позиции с тем же названием сложатся.")
}

func (b *Bot) exportCandles(ctx context.Context, chatID int64) {
	items, err := b.store.Candles().List(ctx)
	if err != nil {
		b.log.Error("list candles", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки свечей")
		return
	}
	buf := &bytes.Buffer{}
	if err := export.CandlesXLSX(buf, items, b.loc); err != nil {
		b.log.Error("candles xlsx", "err", err)
		b.reply(chatID, "Ошибка формирования файла")
		return
	}
	b.sendDocument(chatID, "candles_"+stamp()+".xlsx", buf.Bytes(), fmt.Sprintf("Свечи: %d", len(items)))
}

// importMaterials каждая строка файла добавляется через тот же путь, что и ручной ввод.
func (b *Bot) importMaterials(ctx context.Context, chatID int64, data []byte) {
	items, bad, err := export.ParseMaterialsXLSX(data)
	if err != nil {
		b.log.Warn("materials import", "err", err, "chat_id", chatID)
		msg := "Не удалось прочитать файл."
		if errors.Is(err, export.ErrBadSheet) {
			msg = "В файле нет нужных колонок: name, category, quantity, unit, price."
		}
		b.reply(chatID, msg)
		return
	}

	problems := make([]string, 0, len(bad))
	for _, e := range bad {
		problems = append(problems, e.String())
	}
	added, merged := 0, 0
	for _, m := range items {
		_, wasMerged, err := b.inv.AddMaterial(ctx, m)
		if err != nil {
			problems = append(problems, fmt.Sprintf("«%s»: %v", m.Name, err))
			continue
		}
		if wasMerged {
			merged++
		} else {
			added++
		}
	}
	b.log.Info("materials imported", "chat_id", chatID, "added", added, "merged", merged, "bad", len(problems))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Импорт завершён.\nНовых позиций: %d\nСложено с существующими: %d", added, merged)
	if len(problems) > 0 {
		fmt.Fprintf(&sb, "\nПропущено строк: %d", len(problems))
		for i, p := range problems {
			if i == maxReportedRows {
				sb.WriteString("\n…")
				break
			}
			sb.WriteString("\n" + p)
		}
	}
	b.resetState(ctx, chatID)
	b.reply(chatID, sb.String())
}

// sendLabels PDF с наклейками: "all", "b:<batch>" или "c:<id>".
func (b *Bot) sendLabels(ctx context.Context, chatID int64, scope string) {
	var (
		items []candles.Candle
		err   error
		name  = "labels_" + stamp() + ".pdf"
	)
	switch {
	case scope == "all":
		items, err = b.store.Candles().List(ctx)
	case strings.HasPrefix(scope, "b:"):
		items, err = b.store.Candles().ListBatch(ctx, strings.TrimPrefix(scope, "b:"))
	case strings.HasPrefix(scope, "c:"):
		var c *candles.Candle
		c, err = b.store.Candles().GetByID(ctx, parseID(strings.TrimPrefix(scope, "c:")))
		if c != nil {
			items = []candles.Candle{*c}
			name = fmt.Sprintf("label_%d.pdf", c.ID)
		}
	}
	if err != nil {
		b.log.Error("load candles for labels", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка загрузки свечей")
		return
	}

	buf := &bytes.Buffer{}
	if err := export.Labels(buf, items, export.LabelOptions{Page: b.labelPage, Location: b.loc}); err != nil {
		if errors.Is(err, export.ErrNoLabels) {
			b.reply(chatID, "Нет свечей для этикеток.")
			return
		}
		b.log.Error("labels pdf", "err", err, "chat_id", chatID)
		b.reply(chatID, "Ошибка формирования этикеток")
		return
	}
	b.sendDocument(chatID, name, buf.Bytes(),
		fmt.Sprintf("Этикеток: %d, листов: %d", len(items), export.LabelPages(len(items), b.labelPage)))
}

func (b *Bot) sendBackup(ctx context.Context, chatID int64) {
	ms, err := b.store.Materials().List(ctx)
	if err != nil {
		b.log.Error("list materials", "err", err)
		b.reply(chatID, "Ошибка загрузки материалов")
		return
	}
	cs, err := b.store.Candles().List(ctx)
	if err != nil {
		b.log.Error("list candles", "err", err)
		b.reply(chatID, "Ошибка загрузки свечей")
		return
	}
	buf := &bytes.Buffer{}
	if err := export.WriteBackup(buf, export.Backup{CreatedAt: time.Now(), Materials: ms, Candles: cs}); err != nil {
		b.log.Error("write backup", "err", err)
		b.reply(chatID, "Ошибка формирования бэкапа")
		return
	}
	b.sendDocument(chatID, "candles_backup_"+stamp()+".msgpack", buf.Bytes(),
		fmt.Sprintf("Бэкап: материалов %d, свечей %d. Для восстановления — «Файлы» → «Восстановить».", len(ms), len(cs)))
}

// restoreBackup заменяет склад и свечи содержимым файла.
func (b *Bot) restoreBackup(ctx context.Context, chatID int64, data []byte) {
	bk, err := export.ReadBackup(bytes.NewReader(data))
	if err != nil {
		b.log.Warn("read backup", "err", err, "chat_id", chatID)
		msg := "Файл не похож на бэкап."
		if errors.Is(err, export.ErrBackupVersion) {
			msg = "Бэкап сделан более новой версией бота."
		}
		b.reply(chatID, msg)
		return
	}
	err = b.inv.Exclusive(ctx, func(ctx context.Context) error {
		return b.store.Restore(ctx, bk.Materials, bk.Candles)
	})
	if err != nil {
		b.log.Error("restore backup", "err", err, "chat_id", chatID)
		b.reply(chatID, "Не удалось восстановить данные, склад не изменён.")
		return
	}
	b.log.Info("backup restored", "chat_id", chatID, "materials", len(bk.Materials), "candles", len(bk.Candles))
	b.resetState(ctx, chatID)
	b.reply(chatID, fmt.Sprintf("Восстановлено: материалов %d, свечей %d.", len(bk.Materials), len(bk.Candles)))
}

// fileInput ожидание документа: импорт материалов или бэкап.
func (b *Bot) fileInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	if msg.Document == nil {
		hint := "Пожалуйста, отправьте Excel-файл (.xlsx) с материалами."
		if st.State == dialog.StateRestoreFile {
			hint = "Пожалуйста, отправьте файл бэкапа (.msgpack)."
		}
		b.reply(chatID, hint)
		return
	}

	data, err := b.downloadTelegramFile(msg.Document.FileID)
	if err != nil {
		b.reply(chatID, "Не удалось скачать файл из Telegram: "+err.Error())
		return
	}

	switch st.State {
	case dialog.StateMatImportFile:
		b.importMaterials(ctx, chatID, data)
	case dialog.StateRestoreFile:
		b.restoreBackup(ctx, chatID, data)
	}
}
