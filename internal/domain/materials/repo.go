package materials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("materials: not found")

// execer — общее у *pgxpool.Pool и pgx.Tx
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectCols = `id, name, category, quantity, unit, price, preferred_wick_name, preferred_concentration, created_at, updated_at`

func scan(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Quantity,
		&m.Unit,
		&m.Price,
		&m.PreferredWickName,
		&m.PreferredConcentration,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// List все материалы по алфавиту.
func (r *Repo) List(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectCols+` FROM materials ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning material row: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	m, err := scan(r.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying material %d: %w", id, err)
	}
	return m, nil
}

// FindByName точное совпадение имени; nil, nil если такого нет.
func (r *Repo) FindByName(ctx context.Context, name string) (*Material, error) {
	m, err := scan(r.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM materials WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying material %q: %w", name, err)
	}
	return m, nil
}

func (r *Repo) Insert(ctx context.Context, m Material) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO materials (name, category, quantity, unit, price, preferred_wick_name, preferred_concentration)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price, m.PreferredWickName, m.PreferredConcentration).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting material %q: %w", m.Name, err)
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, m Material) error {
	return update(ctx, r.pool, m)
}

// UpdateTx то же, что Update, внутри транзакции списания.
func (r *Repo) UpdateTx(ctx context.Context, tx pgx.Tx, m Material) error {
	return update(ctx, tx, m)
}

func update(ctx context.Context, q execer, m Material) error {
	tag, err := q.Exec(ctx, `
		UPDATE materials
		SET name=$2, category=$3, quantity=$4, unit=$5, price=$6,
		    preferred_wick_name=$7, preferred_concentration=$8, updated_at=now()
		WHERE id=$1
	`, m.ID, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price, m.PreferredWickName, m.PreferredConcentration)
	if err != nil {
		return fmt.Errorf("updating material %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating material %d: %w", m.ID, ErrNotFound)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return remove(ctx, r.pool, id)
}

func (r *Repo) DeleteTx(ctx context.Context, tx pgx.Tx, id int64) error {
	return remove(ctx, tx, id)
}

func remove(ctx context.Context, q execer, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting material %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting material %d: %w", id, ErrNotFound)
	}
	return nil
}
