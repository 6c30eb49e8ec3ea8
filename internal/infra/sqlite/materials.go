package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/materials"
)

type materialRepo struct {
	db  queryer
	now func() time.Time
}

const materialCols = `id, name, category, quantity, unit, price, preferred_wick_name, preferred_concentration, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (*materials.Material, error) {
	var (
		m                materials.Material
		category, unit   string
		conc             sql.NullFloat64
		created, updated string
	)
	if err := row.Scan(&m.ID, &m.Name, &category, &m.Quantity, &unit, &m.Price,
		&m.PreferredWickName, &conc, &created, &updated); err != nil {
		return nil, err
	}
	m.Category = materials.Category(category)
	m.Unit = materials.Unit(unit)
	if conc.Valid {
		v := conc.Float64
		m.PreferredConcentration = &v
	}
	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func (r materialRepo) List(ctx context.Context) ([]materials.Material, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+materialCols+` FROM materials ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying materials: %w", err)
	}
	defer rows.Close()

	var out []materials.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning material row: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r materialRepo) get(ctx context.Context, where string, arg any) (*materials.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx, `SELECT `+materialCols+` FROM materials WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying material: %w", err)
	}
	return m, nil
}

func (r materialRepo) GetByID(ctx context.Context, id int64) (*materials.Material, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r materialRepo) FindByName(ctx context.Context, name string) (*materials.Material, error) {
	return r.get(ctx, `name = ?`, name)
}

func (r materialRepo) Insert(ctx context.Context, m materials.Material) (int64, error) {
	now := formatTime(r.now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO materials (name, category, quantity, unit, price, preferred_wick_name, preferred_concentration, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price, m.PreferredWickName, nullFloat(m.PreferredConcentration), now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting material %q: %w", m.Name, err)
	}
	return res.LastInsertId()
}

func (r materialRepo) Update(ctx context.Context, m materials.Material) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE materials
		SET name=?, category=?, quantity=?, unit=?, price=?, preferred_wick_name=?, preferred_concentration=?, updated_at=?
		WHERE id=?
	`, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price, m.PreferredWickName,
		nullFloat(m.PreferredConcentration), formatTime(r.now()), m.ID)
	if err != nil {
		return fmt.Errorf("updating material %d: %w", m.ID, err)
	}
	return expectRow(res, fmt.Sprintf("updating material %d", m.ID), materials.ErrNotFound)
}

func (r materialRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting material %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("deleting material %d", id), materials.ErrNotFound)
}

func expectRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
