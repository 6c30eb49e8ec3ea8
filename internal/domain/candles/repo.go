package candles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("candles: not found")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectCols = `id, batch_id, container_name, wax_name, fragrance_name, wick_name, dye_name,
	concentration, capacity, cost, recipient, created_at, ready_at, burn_minutes`

func scan(row pgx.Row) (*Candle, error) {
	var c Candle
	if err := row.Scan(
		&c.ID, &c.BatchID,
		&c.ContainerName, &c.WaxName, &c.FragranceName, &c.WickName, &c.DyeName,
		&c.Concentration, &c.Capacity, &c.Cost, &c.Recipient,
		&c.CreatedAt, &c.ReadyAt, &c.BurnMinutes,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Candle, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var out []Candle
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candle row: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// List свежие сверху.
func (r *Repo) List(ctx context.Context) ([]Candle, error) {
	return r.list(ctx, `SELECT `+selectCols+` FROM candles ORDER BY created_at DESC, id DESC`)
}

func (r *Repo) ListBatch(ctx context.Context, batchID string) ([]Candle, error) {
	return r.list(ctx, `SELECT `+selectCols+` FROM candles WHERE batch_id = $1 ORDER BY id`, batchID)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Candle, error) {
	c, err := scan(r.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM candles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying candle %d: %w", id, err)
	}
	return c, nil
}

func (r *Repo) Insert(ctx context.Context, c Candle) (int64, error) {
	return insert(ctx, r.pool, c)
}

// InsertTx вставка в рамках общей транзакции сохранения партии.
func (r *Repo) InsertTx(ctx context.Context, tx pgx.Tx, c Candle) (int64, error) {
	return insert(ctx, tx, c)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insert(ctx context.Context, q rowQuerier, c Candle) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO candles (batch_id, container_name, wax_name, fragrance_name, wick_name, dye_name,
		                     concentration, capacity, cost, recipient, created_at, ready_at, burn_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`, c.BatchID, c.ContainerName, c.WaxName, c.FragranceName, c.WickName, c.DyeName,
		c.Concentration, c.Capacity, c.Cost, c.Recipient, c.CreatedAt, c.ReadyAt, c.BurnMinutes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting candle: %w", err)
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, c Candle) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE candles
		SET container_name=$2, wax_name=$3, fragrance_name=$4, wick_name=$5, dye_name=$6,
		    concentration=$7, capacity=$8, cost=$9, recipient=$10, ready_at=$11, burn_minutes=$12
		WHERE id=$1
	`, c.ID, c.ContainerName, c.WaxName, c.FragranceName, c.WickName, c.DyeName,
		c.Concentration, c.Capacity, c.Cost, c.Recipient, c.ReadyAt, c.BurnMinutes)
	if err != nil {
		return fmt.Errorf("updating candle %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating candle %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM candles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting candle %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting candle %d: %w", id, ErrNotFound)
	}
	return nil
}

// IncrementBurnTime прибавляет минуты горения (delta может быть отрицательной,
// но итог не уходит ниже нуля).
func (r *Repo) IncrementBurnTime(ctx context.Context, id int64, delta int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE candles SET burn_minutes = GREATEST(burn_minutes + $2, 0) WHERE id=$1
	`, id, delta)
	if err != nil {
		return fmt.Errorf("incrementing burn time of candle %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("incrementing burn time of candle %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repo) SetBurnTime(ctx context.Context, id int64, minutes int) error {
	if minutes < 0 {
		minutes = 0
	}
	tag, err := r.pool.Exec(ctx, `UPDATE candles SET burn_minutes=$2 WHERE id=$1`, id, minutes)
	if err != nil {
		return fmt.Errorf("setting burn time of candle %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting burn time of candle %d: %w", id, ErrNotFound)
	}
	return nil
}
