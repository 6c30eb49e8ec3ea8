package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/candle-bot/internal/domain/candles"
)

type candleRepo struct{ db queryer }

const candleCols = `id, batch_id, container_name, wax_name, fragrance_name, wick_name, dye_name,
	concentration, capacity, cost, recipient, created_at, ready_at, burn_minutes`

func scanCandle(row rowScanner) (*candles.Candle, error) {
	var (
		c              candles.Candle
		created, ready string
	)
	if err := row.Scan(&c.ID, &c.BatchID,
		&c.ContainerName, &c.WaxName, &c.FragranceName, &c.WickName, &c.DyeName,
		&c.Concentration, &c.Capacity, &c.Cost, &c.Recipient,
		&created, &ready, &c.BurnMinutes); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.ReadyAt, err = parseTime(ready); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r candleRepo) list(ctx context.Context, q string, args ...any) ([]candles.Candle, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var out []candles.Candle
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candle row: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r candleRepo) List(ctx context.Context) ([]candles.Candle, error) {
	return r.list(ctx, `SELECT `+candleCols+` FROM candles ORDER BY created_at DESC, id DESC`)
}

func (r candleRepo) ListBatch(ctx context.Context, batchID string) ([]candles.Candle, error) {
	return r.list(ctx, `SELECT `+candleCols+` FROM candles WHERE batch_id = ? ORDER BY id`, batchID)
}

func (r candleRepo) GetByID(ctx context.Context, id int64) (*candles.Candle, error) {
	c, err := scanCandle(r.db.QueryRowContext(ctx, `SELECT `+candleCols+` FROM candles WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying candle %d: %w", id, err)
	}
	return c, nil
}

func (r candleRepo) Insert(ctx context.Context, c candles.Candle) (int64, error) {
	return r.insert(ctx, c, false)
}

// insert с keepID=true пишет id как есть (восстановление из бэкапа).
func (r candleRepo) insert(ctx context.Context, c candles.Candle, keepID bool) (int64, error) {
	var id any
	if keepID && c.ID != 0 {
		id = c.ID
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO candles (id, batch_id, container_name, wax_name, fragrance_name, wick_name, dye_name,
		                     concentration, capacity, cost, recipient, created_at, ready_at, burn_minutes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, id, c.BatchID, c.ContainerName, c.WaxName, c.FragranceName, c.WickName, c.DyeName,
		c.Concentration, c.Capacity, c.Cost, c.Recipient,
		formatTime(c.CreatedAt), formatTime(c.ReadyAt), max(c.BurnMinutes, 0))
	if err != nil {
		return 0, fmt.Errorf("inserting candle: %w", err)
	}
	return res.LastInsertId()
}

func (r candleRepo) Update(ctx context.Context, c candles.Candle) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE candles
		SET container_name=?, wax_name=?, fragrance_name=?, wick_name=?, dye_name=?,
		    concentration=?, capacity=?, cost=?, recipient=?, ready_at=?, burn_minutes=?
		WHERE id=?
	`, c.ContainerName, c.WaxName, c.FragranceName, c.WickName, c.DyeName,
		c.Concentration, c.Capacity, c.Cost, c.Recipient, formatTime(c.ReadyAt), max(c.BurnMinutes, 0), c.ID)
	if err != nil {
		return fmt.Errorf("updating candle %d: %w", c.ID, err)
	}
	return expectRow(res, fmt.Sprintf("updating candle %d", c.ID), candles.ErrNotFound)
}

func (r candleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM candles WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting candle %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("deleting candle %d", id), candles.ErrNotFound)
}

func (r candleRepo) IncrementBurnTime(ctx context.Context, id int64, delta int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE candles SET burn_minutes = MAX(burn_minutes + ?, 0) WHERE id=?`, delta, id)
	if err != nil {
		return fmt.Errorf("incrementing burn time of candle %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("incrementing burn time of candle %d", id), candles.ErrNotFound)
}

func (r candleRepo) SetBurnTime(ctx context.Context, id int64, minutes int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE candles SET burn_minutes=? WHERE id=?`, max(minutes, 0), id)
	if err != nil {
		return fmt.Errorf("setting burn time of candle %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("setting burn time of candle %d", id), candles.ErrNotFound)
}
