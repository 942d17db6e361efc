// Package session хранит текущую личность клиента витрины.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/storage"
)

// Slot описывает долговременное хранилище личности.
type Slot interface {
	Load(ctx context.Context) (*model.Identity, error)
	Save(ctx context.Context, v model.Identity) error
	Clear(ctx context.Context) error
}

// Store хранит не более одной активной личности клиента.
type Store struct {
	mu       sync.Mutex
	slot     Slot
	logger   *zap.Logger
	identity *model.Identity
}

// Open создаёт хранилище и восстанавливает личность из долговременной копии.
// Отсутствующая или повреждённая копия даёт пустую сессию.
func Open(ctx context.Context, slot Slot, logger *zap.Logger) (*Store, error) {
	s := &Store{slot: slot, logger: logger}

	identity, err := slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrMalformed) {
			return nil, fmt.Errorf("rehydrate session: %w", err)
		}
		logger.Warn("stored identity is malformed, starting without session", zap.Error(err))
		identity = nil
	}
	s.identity = identity

	return s, nil
}

// Login проверяет пару номер и пароль (или код "1234") по списку допуска
// и сохраняет личность при успехе.
func (s *Store) Login(ctx context.Context, mobile, credential string) (bool, error) {
	account, ok := FindAccount(mobile)
	if !ok || !account.accepts(credential) {
		return false, nil
	}

	identity := model.Identity{
		ID:      account.ID,
		Mobile:  account.Mobile,
		Name:    account.Name,
		IsAdmin: IsAdminMobile(account.Mobile),
	}

	if err := s.set(ctx, identity); err != nil {
		return false, err
	}
	return true, nil
}

// Register создаёт новую личность покупателя. Уникальность номера не проверяется.
func (s *Store) Register(ctx context.Context, mobile, name, credential string) (bool, error) {
	identity := model.Identity{
		ID:     uuid.NewString(),
		Mobile: mobile,
		Name:   name,
	}

	if err := s.set(ctx, identity); err != nil {
		return false, err
	}
	return true, nil
}

// Logout удаляет личность и её долговременную копию. Корзина не затрагивается.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.identity = nil
	return nil
}

// Identity возвращает копию активной личности или nil.
func (s *Store) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// IsAuthenticated сообщает, активна ли личность.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil
}

// IsAdmin сообщает, является ли активная личность администратором.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil && s.identity.IsAdmin
}

func (s *Store) set(ctx context.Context, identity model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Save(ctx, identity); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	s.identity = &identity
	return nil
}
