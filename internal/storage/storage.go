// Package storage описывает, что бот и сервисы ждут от хранилища.
// Реализации: PostgreSQL (internal/infra/db), SQLite (internal/infra/sqlite)
// и память (internal/storage/memory) для тестов.
package storage

import (
	"context"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
)

// MaterialStore склад. GetByID/FindByName возвращают (nil, nil), если записи нет;
// Update/Delete на отсутствующую запись — materials.ErrNotFound.
type MaterialStore interface {
	List(ctx context.Context) ([]materials.Material, error)
	GetByID(ctx context.Context, id int64) (*materials.Material, error)
	FindByName(ctx context.Context, name string) (*materials.Material, error)
	Insert(ctx context.Context, m materials.Material) (int64, error)
	Update(ctx context.Context, m materials.Material) error
	Delete(ctx context.Context, id int64) error
}

// CandleStore готовые свечи. Ошибка отсутствия — candles.ErrNotFound.
type CandleStore interface {
	List(ctx context.Context) ([]candles.Candle, error)
	ListBatch(ctx context.Context, batchID string) ([]candles.Candle, error)
	GetByID(ctx context.Context, id int64) (*candles.Candle, error)
	Insert(ctx context.Context, c candles.Candle) (int64, error)
	Update(ctx context.Context, c candles.Candle) error
	Delete(ctx context.Context, id int64) error
	IncrementBurnTime(ctx context.Context, id int64, delta int) error
	SetBurnTime(ctx context.Context, id int64, minutes int) error
}

// DialogStore состояние диалога с чатом. Get без записи отдаёт StateIdle.
type DialogStore interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type Store interface {
	Materials() MaterialStore
	Candles() CandleStore
	Dialogs() DialogStore

	// ApplyPlan списания и новые свечи одной транзакцией.
	inventory.PlanApplier

	// Restore заменяет весь склад и все свечи содержимым бэкапа.
	Restore(ctx context.Context, ms []materials.Material, cs []candles.Candle) error

	Ping(ctx context.Context) error
	Close() error
}
