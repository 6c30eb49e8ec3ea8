package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool      *pgxpool.Pool
	materials *materials.Repo
	candles   *candles.Repo
}

func NewRepo(pool *pgxpool.Pool, materialsRepo *materials.Repo, candlesRepo *candles.Repo) *Repo {
	return &Repo{pool: pool, materials: materialsRepo, candles: candlesRepo}
}

// ApplyPlan списывает материалы и сохраняет свечи в одной транзакции.
// Возвращает id созданных свечей в порядке plan.Candles.
func (r *Repo) ApplyPlan(ctx context.Context, plan Plan) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin plan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, adj := range plan.Adjustments {
		// блокируем строку и сверяем остаток с тем, по которому считали
		var qty float64
		err := tx.QueryRow(ctx, `SELECT quantity FROM materials WHERE id=$1 FOR UPDATE`, adj.Before.ID).Scan(&qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("material %d: %w", adj.Before.ID, ErrStalePlan)
			}
			return nil, fmt.Errorf("locking material %d: %w", adj.Before.ID, err)
		}
		if qty != adj.Before.Quantity {
			return nil, fmt.Errorf("material %d: %w", adj.Before.ID, ErrStalePlan)
		}

		if adj.Delete {
			err = r.materials.DeleteTx(ctx, tx, adj.Before.ID)
		} else {
			err = r.materials.UpdateTx(ctx, tx, adj.After)
		}
		if err != nil {
			return nil, err
		}
	}

	ids := make([]int64, 0, len(plan.Candles))
	for _, c := range plan.Candles {
		id, err := r.candles.InsertTx(ctx, tx, c)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit plan transaction: %w", err)
	}
	return ids, nil
}
