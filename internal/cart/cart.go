// Package cart хранит корзину клиента и вычисляет её итоги.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/pricing"
	"github.com/mmeshcher/meatmart/internal/storage"
)

// Slot описывает долговременное хранилище позиций корзины.
type Slot interface {
	Load(ctx context.Context) (*[]model.CartItem, error)
	Save(ctx context.Context, v []model.CartItem) error
	Clear(ctx context.Context) error
}

// Store хранит позиции корзины в порядке добавления. Итоги не хранятся,
// а вычисляются при каждом чтении.
type Store struct {
	mu     sync.Mutex
	slot   Slot
	logger *zap.Logger
	items  []model.CartItem
}

// Open создаёт корзину. Без активной сессии сохранённая корзина удаляется
// и корзина начинается пустой.
func Open(ctx context.Context, slot Slot, hasSession bool, logger *zap.Logger) (*Store, error) {
	s := &Store{slot: slot, logger: logger}

	if !hasSession {
		if err := slot.Clear(ctx); err != nil {
			return nil, fmt.Errorf("discard cart without session: %w", err)
		}
		return s, nil
	}

	items, err := slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrMalformed) {
			return nil, fmt.Errorf("rehydrate cart: %w", err)
		}
		logger.Warn("stored cart is malformed, starting empty", zap.Error(err))
		items = nil
	}
	if items != nil {
		s.items = *items
		for i := range s.items {
			s.items[i].Total = lineTotal(s.items[i])
		}
	}

	return s, nil
}

// AddToCart добавляет позицию в конец корзины. Если товар уже в корзине,
// его вес перезаписывается на месте.
func (s *Store) AddToCart(ctx context.Context, item model.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.Total = lineTotal(item)

	next := s.snapshot()
	if i := indexOf(next, item.ProductID); i >= 0 {
		next[i].Weight = item.Weight
		next[i].Total = lineTotal(next[i])
	} else {
		next = append(next, item)
	}

	return s.commit(ctx, next)
}

// UpdateWeight изменяет вес позиции. Отрицательный вес приводится к нулю.
// Отсутствующий товар игнорируется.
func (s *Store) UpdateWeight(ctx context.Context, productID string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, productID)
	if i < 0 {
		return nil
	}
	weight = pricing.CartStepper().Clamp(weight)

	next := s.snapshot()
	next[i].Weight = weight
	next[i].Total = lineTotal(next[i])

	return s.commit(ctx, next)
}

// RemoveFromCart удаляет позицию. Отсутствующий товар игнорируется.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, productID)
	if i < 0 {
		return nil
	}

	next := make([]model.CartItem, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)

	return s.commit(ctx, next)
}

// ClearCart очищает корзину и удаляет её долговременную копию.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Clear(ctx); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.items = nil
	return nil
}

// Items возвращает копию позиций в порядке добавления.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Item возвращает позицию по товару.
func (s *Store) Item(productID string) (model.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, productID)
	if i < 0 {
		return model.CartItem{}, false
	}
	return s.items[i], true
}

// TotalAmount возвращает сумму стоимостей позиций.
func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalAmount(s.items)
}

// ItemCount возвращает суммарный вес позиций.
func (s *Store) ItemCount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

// Summary возвращает позиции и итоги одним согласованным снимком.
func (s *Store) Summary() model.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.snapshot()
	if items == nil {
		items = []model.CartItem{}
	}
	return model.CartSummary{
		Items:       items,
		TotalAmount: totalAmount(items),
		ItemCount:   itemCount(items),
	}
}

func (s *Store) commit(ctx context.Context, next []model.CartItem) error {
	if err := s.slot.Save(ctx, next); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	return nil
}

func (s *Store) snapshot() []model.CartItem {
	if s.items == nil {
		return nil
	}
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func indexOf(items []model.CartItem, productID string) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func lineTotal(item model.CartItem) float64 {
	return pricing.LineTotal(item.UnitPrice, 0, item.Weight)
}

func totalAmount(items []model.CartItem) float64 {
	totals := make([]float64, 0, len(items))
	for _, it := range items {
		totals = append(totals, lineTotal(it))
	}
	return pricing.Sum(totals...)
}

func itemCount(items []model.CartItem) float64 {
	weights := make([]float64, 0, len(items))
	for _, it := range items {
		weights = append(weights, it.Weight)
	}
	return pricing.Sum(weights...)
}
