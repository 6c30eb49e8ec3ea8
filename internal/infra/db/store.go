package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store — storage.Store поверх PostgreSQL: репозитории доменов на общем пуле.
type Store struct {
	pool      *pgxpool.Pool
	materials *materials.Repo
	candles   *candles.Repo
	plans     *inventory.Repo
	dialogs   *dialog.Repo
}

var _ storage.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	mr := materials.NewRepo(pool)
	cr := candles.NewRepo(pool)
	return &Store{
		pool:      pool,
		materials: mr,
		candles:   cr,
		plans:     inventory.NewRepo(pool, mr, cr),
		dialogs:   dialog.NewRepo(pool),
	}
}

// Open подключается, накатывает миграции и собирает Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := RunMigrations(ctx, dsn); err != nil {
		return nil, err
	}
	pool, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

func (s *Store) Materials() storage.MaterialStore { return s.materials }
func (s *Store) Candles() storage.CandleStore     { return s.candles }
func (s *Store) Dialogs() storage.DialogStore     { return s.dialogs }

func (s *Store) ApplyPlan(ctx context.Context, plan inventory.Plan) ([]int64, error) {
	return s.plans.ApplyPlan(ctx, plan)
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Restore заменяет склад и свечи одной транзакцией, id сохраняются как в бэкапе.
func (s *Store) Restore(ctx context.Context, ms []materials.Material, cs []candles.Candle) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin restore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM candles`); err != nil {
		return fmt.Errorf("clearing candles: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM materials`); err != nil {
		return fmt.Errorf("clearing materials: %w", err)
	}

	for _, m := range ms {
		_, err := tx.Exec(ctx, `
			INSERT INTO materials (id, name, category, quantity, unit, price,
			                       preferred_wick_name, preferred_concentration, created_at, updated_at)
			VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('materials','id'))),
			        $2,$3,$4,$5,$6,$7,$8,COALESCE($9, now()),COALESCE($10, now()))
		`, m.ID, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price,
			m.PreferredWickName, m.PreferredConcentration, nullTime(m.CreatedAt), nullTime(m.UpdatedAt))
		if err != nil {
			return fmt.Errorf("restoring material %q: %w", m.Name, err)
		}
	}

	for _, c := range cs {
		_, err := tx.Exec(ctx, `
			INSERT INTO candles (id, batch_id, container_name, wax_name, fragrance_name, wick_name, dye_name,
			                     concentration, capacity, cost, recipient, created_at, ready_at, burn_minutes)
			VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('candles','id'))),
			        $2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, c.ID, c.BatchID, c.ContainerName, c.WaxName, c.FragranceName, c.WickName, c.DyeName,
			c.Concentration, c.Capacity, c.Cost, c.Recipient, c.CreatedAt, c.ReadyAt, c.BurnMinutes)
		if err != nil {
			return fmt.Errorf("restoring candle %d: %w", c.ID, err)
		}
	}

	// последовательности должны идти дальше восстановленных id
	for _, table := range []string{"materials", "candles"} {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s','id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table))
		if err != nil {
			return fmt.Errorf("resetting %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit restore transaction: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
