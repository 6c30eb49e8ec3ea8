package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Spok95/candle-bot/internal/domain/materials"
)

var (
	ErrInvalidMaterial = errors.New("inventory: invalid material")
	// ErrStalePlan остаток изменился после расчёта — нужно пересчитать и повторить.
	ErrStalePlan = errors.New("inventory: stock changed since the plan was built")
)

type MaterialStore interface {
	GetByID(ctx context.Context, id int64) (*materials.Material, error)
	FindByName(ctx context.Context, name string) (*materials.Material, error)
	Insert(ctx context.Context, m materials.Material) (int64, error)
	Update(ctx context.Context, m materials.Material) error
	Delete(ctx context.Context, id int64) error
}

type PlanApplier interface {
	ApplyPlan(ctx context.Context, plan Plan) ([]int64, error)
}

// Service — единственная точка, через которую меняется склад.
// Все изменения идут последовательно под mu.
type Service struct {
	mu        sync.Mutex
	materials MaterialStore
	plans     PlanApplier
}

func NewService(materialsStore MaterialStore, plans PlanApplier) *Service {
	return &Service{materials: materialsStore, plans: plans}
}

func validate(m materials.Material) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMaterial)
	}
	if m.Quantity < 0 || m.Price < 0 {
		return fmt.Errorf("%w: negative quantity or price", ErrInvalidMaterial)
	}
	if _, ok := materials.ParseUnit(string(m.Unit)); !ok {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidMaterial, m.Unit)
	}
	if _, ok := materials.ParseCategory(string(m.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidMaterial, m.Category)
	}
	return nil
}

// AddMaterial добавляет материал; если такое имя уже есть — суммирует
// количество и стоимость (merged == true).
func (s *Service) AddMaterial(ctx context.Context, m materials.Material) (out materials.Material, merged bool, err error) {
	m.Name = strings.TrimSpace(m.Name)
	if u, ok := materials.ParseUnit(string(m.Unit)); ok {
		m.Unit = u
	}
	if err := validate(m); err != nil {
		return materials.Material{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.materials.FindByName(ctx, m.Name)
	if err != nil {
		return materials.Material{}, false, err
	}
	if existing != nil {
		out = materials.MergeAdd(*existing, m)
		if err := s.materials.Update(ctx, out); err != nil {
			return materials.Material{}, false, err
		}
		return out, true, nil
	}

	id, err := s.materials.Insert(ctx, m)
	if err != nil {
		return materials.Material{}, false, err
	}
	m.ID = id
	return m, false, nil
}

// Consume ручное списание остатка (без свечей).
func (s *Service) Consume(ctx context.Context, id int64, amount float64) (Adjustment, error) {
	if amount <= 0 {
		return Adjustment{}, fmt.Errorf("qty must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return Adjustment{}, err
	}
	if m == nil {
		return Adjustment{}, fmt.Errorf("material %d: %w", id, materials.ErrNotFound)
	}
	adj := NewAdjustment("manual", *m, amount)
	if _, err := s.plans.ApplyPlan(ctx, Plan{Adjustments: []Adjustment{adj}}); err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}

// Apply записывает план сохранения свечей целиком.
func (s *Service) Apply(ctx context.Context, plan Plan) ([]int64, error) {
	if plan.Empty() {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.ApplyPlan(ctx, plan)
}

func (s *Service) DeleteMaterial(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials.Delete(ctx, id)
}

// SetPreferredWick фитиль по умолчанию для ёмкости ("" — сбросить).
func (s *Service) SetPreferredWick(ctx context.Context, containerID int64, wickName string) error {
	return s.modify(ctx, containerID, func(m *materials.Material) error {
		if m.Category != materials.CategoryContainer {
			return fmt.Errorf("%w: preferred wick is set on containers only", ErrInvalidMaterial)
		}
		m.PreferredWickName = strings.TrimSpace(wickName)
		return nil
	})
}

// SetPreferredConcentration концентрация по умолчанию для отдушки (nil — сбросить).
func (s *Service) SetPreferredConcentration(ctx context.Context, fragranceID int64, conc *float64) error {
	return s.modify(ctx, fragranceID, func(m *materials.Material) error {
		if m.Category != materials.CategoryFragrance {
			return fmt.Errorf("%w: preferred concentration is set on fragrances only", ErrInvalidMaterial)
		}
		if conc != nil && (*conc < 0 || *conc > 100) {
			return fmt.Errorf("%w: concentration must be within 0..100", ErrInvalidMaterial)
		}
		m.PreferredConcentration = conc
		return nil
	})
}

func (s *Service) modify(ctx context.Context, id int64, fn func(m *materials.Material) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("material %d: %w", id, materials.ErrNotFound)
	}
	if err := fn(m); err != nil {
		return err
	}
	return s.materials.Update(ctx, *m)
}

// Exclusive выполняет fn под тем же замком, что и остальные изменения склада.
// Нужен для операций в обход планов, например восстановления из бэкапа.
func (s *Service) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}
