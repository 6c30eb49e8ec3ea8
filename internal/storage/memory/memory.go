// Package memory — хранилище в памяти процесса, для тестов и локального запуска.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/storage"
)

type Store struct {
	mu sync.Mutex

	materials  map[int64]materials.Material
	candles    map[int64]candles.Candle
	dialogs    map[int64][]byte
	dialogSt   map[int64]dialog.State
	nextMatID  int64
	nextCandID int64

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		materials: map[int64]materials.Material{},
		candles:   map[int64]candles.Candle{},
		dialogs:   map[int64][]byte{},
		dialogSt:  map[int64]dialog.State{},
		now:       time.Now,
	}
}

func (s *Store) Materials() storage.MaterialStore { return materialStore{s} }
func (s *Store) Candles() storage.CandleStore     { return candleStore{s} }
func (s *Store) Dialogs() storage.DialogStore     { return dialogStore{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ApplyPlan всё или ничего: сначала проверяем все списания, потом пишем.
func (s *Store) ApplyPlan(_ context.Context, plan inventory.Plan) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range plan.Adjustments {
		cur, ok := s.materials[adj.Before.ID]
		if !ok || cur.Quantity != adj.Before.Quantity {
			return nil, fmt.Errorf("material %d: %w", adj.Before.ID, inventory.ErrStalePlan)
		}
	}

	now := s.now()
	for _, adj := range plan.Adjustments {
		if adj.Delete {
			delete(s.materials, adj.Before.ID)
			continue
		}
		m := adj.After
		m.UpdatedAt = now
		s.materials[m.ID] = m
	}

	ids := make([]int64, 0, len(plan.Candles))
	for _, c := range plan.Candles {
		ids = append(ids, s.insertCandle(c))
	}
	return ids, nil
}

func (s *Store) Restore(_ context.Context, ms []materials.Material, cs []candles.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.materials = make(map[int64]materials.Material, len(ms))
	s.candles = make(map[int64]candles.Candle, len(cs))
	s.nextMatID, s.nextCandID = 0, 0
	for _, m := range ms {
		if m.ID == 0 {
			s.nextMatID++
			m.ID = s.nextMatID
		}
		s.nextMatID = max(s.nextMatID, m.ID)
		s.materials[m.ID] = m
	}
	for _, c := range cs {
		if c.ID == 0 {
			s.nextCandID++
			c.ID = s.nextCandID
		}
		s.nextCandID = max(s.nextCandID, c.ID)
		s.candles[c.ID] = c
	}
	return nil
}

func (s *Store) insertCandle(c candles.Candle) int64 {
	s.nextCandID++
	c.ID = s.nextCandID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.candles[c.ID] = c
	return c.ID
}

type materialStore struct{ s *Store }

func (ms materialStore) List(context.Context) ([]materials.Material, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	out := make([]materials.Material, 0, len(ms.s.materials))
	for _, m := range ms.s.materials {
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (ms materialStore) GetByID(_ context.Context, id int64) (*materials.Material, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	m, ok := ms.s.materials[id]
	if !ok {
		return nil, nil
	}
	m = clone(m)
	return &m, nil
}

func (ms materialStore) FindByName(_ context.Context, name string) (*materials.Material, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, m := range ms.s.materials {
		if m.Name == name {
			m = clone(m)
			return &m, nil
		}
	}
	return nil, nil
}

func (ms materialStore) Insert(_ context.Context, m materials.Material) (int64, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	for _, cur := range ms.s.materials {
		if cur.Name == m.Name {
			return 0, fmt.Errorf("inserting material %q: name already exists", m.Name)
		}
	}
	ms.s.nextMatID++
	m.ID = ms.s.nextMatID
	now := ms.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	ms.s.materials[m.ID] = clone(m)
	return m.ID, nil
}

func (ms materialStore) Update(_ context.Context, m materials.Material) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	cur, ok := ms.s.materials[m.ID]
	if !ok {
		return fmt.Errorf("updating material %d: %w", m.ID, materials.ErrNotFound)
	}
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = ms.s.now()
	ms.s.materials[m.ID] = clone(m)
	return nil
}

func (ms materialStore) Delete(_ context.Context, id int64) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	if _, ok := ms.s.materials[id]; !ok {
		return fmt.Errorf("deleting material %d: %w", id, materials.ErrNotFound)
	}
	delete(ms.s.materials, id)
	return nil
}

// clone отвязывает указатель на концентрацию от хранимой копии.
func clone(m materials.Material) materials.Material {
	if m.PreferredConcentration != nil {
		v := *m.PreferredConcentration
		m.PreferredConcentration = &v
	}
	return m
}

type candleStore struct{ s *Store }

func (cs candleStore) List(context.Context) ([]candles.Candle, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	out := make([]candles.Candle, 0, len(cs.s.candles))
	for _, c := range cs.s.candles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (cs candleStore) ListBatch(_ context.Context, batchID string) ([]candles.Candle, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	var out []candles.Candle
	for _, c := range cs.s.candles {
		if c.BatchID == batchID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (cs candleStore) GetByID(_ context.Context, id int64) (*candles.Candle, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c, ok := cs.s.candles[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (cs candleStore) Insert(_ context.Context, c candles.Candle) (int64, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	return cs.s.insertCandle(c), nil
}

func (cs candleStore) Update(_ context.Context, c candles.Candle) error {
	return cs.modify(c.ID, "updating", func(cur *candles.Candle) {
		c.BatchID, c.CreatedAt = cur.BatchID, cur.CreatedAt
		*cur = c
	})
}

func (cs candleStore) Delete(_ context.Context, id int64) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	if _, ok := cs.s.candles[id]; !ok {
		return fmt.Errorf("deleting candle %d: %w", id, candles.ErrNotFound)
	}
	delete(cs.s.candles, id)
	return nil
}

func (cs candleStore) IncrementBurnTime(_ context.Context, id int64, delta int) error {
	return cs.modify(id, "incrementing burn time of", func(cur *candles.Candle) {
		cur.BurnMinutes = max(cur.BurnMinutes+delta, 0)
	})
}

func (cs candleStore) SetBurnTime(_ context.Context, id int64, minutes int) error {
	return cs.modify(id, "setting burn time of", func(cur *candles.Candle) {
		cur.BurnMinutes = max(minutes, 0)
	})
}

func (cs candleStore) modify(id int64, op string, fn func(cur *candles.Candle)) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	cur, ok := cs.s.candles[id]
	if !ok {
		return fmt.Errorf("%s candle %d: %w", op, id, candles.ErrNotFound)
	}
	fn(&cur)
	cs.s.candles[id] = cur
	return nil
}

// dialogStore хранит payload в JSON, как и Postgres: после чтения числа — float64.
type dialogStore struct{ s *Store }

func (ds dialogStore) Get(_ context.Context, chatID int64) (*dialog.Item, error) {
	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()

	st, ok := ds.s.dialogSt[chatID]
	if !ok {
		return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
	}
	return dialog.Decode(chatID, string(st), ds.s.dialogs[chatID]), nil
}

func (ds dialogStore) Set(_ context.Context, chatID int64, state dialog.State, payload dialog.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding dialog payload: %w", err)
	}
	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()
	ds.s.dialogSt[chatID] = state
	ds.s.dialogs[chatID] = raw
	return nil
}

func (ds dialogStore) Reset(_ context.Context, chatID int64) error {
	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()
	delete(ds.s.dialogSt, chatID)
	delete(ds.s.dialogs, chatID)
	return nil
}
