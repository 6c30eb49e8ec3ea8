package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
)

// ApplyPlan списания и свечи одной транзакцией. Если остаток любого
// материала не совпал с тем, по которому считали, откатываем всё.
func (s *Store) ApplyPlan(ctx context.Context, plan inventory.Plan) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin plan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	mr := materialRepo{db: tx, now: s.now}
	cr := candleRepo{db: tx}

	for _, adj := range plan.Adjustments {
		var qty float64
		err := tx.QueryRowContext(ctx, `SELECT quantity FROM materials WHERE id=?`, adj.Before.ID).Scan(&qty)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("material %d: %w", adj.Before.ID, inventory.ErrStalePlan)
			}
			return nil, fmt.Errorf("reading material %d: %w", adj.Before.ID, err)
		}
		if qty != adj.Before.Quantity {
			return nil, fmt.Errorf("material %d: %w", adj.Before.ID, inventory.ErrStalePlan)
		}

		if adj.Delete {
			err = mr.Delete(ctx, adj.Before.ID)
		} else {
			err = mr.Update(ctx, adj.After)
		}
		if err != nil {
			return nil, err
		}
	}

	ids := make([]int64, 0, len(plan.Candles))
	for _, c := range plan.Candles {
		id, err := cr.Insert(ctx, c)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit plan transaction: %w", err)
	}
	return ids, nil
}

func (s *Store) Restore(ctx context.Context, ms []materials.Material, cs []candles.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candles`); err != nil {
		return fmt.Errorf("clearing candles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM materials`); err != nil {
		return fmt.Errorf("clearing materials: %w", err)
	}

	now := s.now()
	for _, m := range ms {
		var id any
		if m.ID != 0 {
			id = m.ID
		}
		created, updated := m.CreatedAt, m.UpdatedAt
		if created.IsZero() {
			created = now
		}
		if updated.IsZero() {
			updated = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO materials (id, name, category, quantity, unit, price, preferred_wick_name, preferred_concentration, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?)
		`, id, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price, m.PreferredWickName,
			nullFloat(m.PreferredConcentration), formatTime(created), formatTime(updated))
		if err != nil {
			return fmt.Errorf("restoring material %q: %w", m.Name, err)
		}
	}

	cr := candleRepo{db: tx}
	for _, c := range cs {
		if _, err := cr.insert(ctx, c, true); err != nil {
			return fmt.Errorf("restoring candle %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore transaction: %w", err)
	}
	return nil
}
