// Package storage связывает ключи клиентского хранилища с типизированными значениями.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/meatmart/internal/repository"
)

// Ключи долговременного хранилища клиента.
const (
	KeyUser = "user"
	KeyCart = "cart"
)

// ErrMalformed возвращается, если сохранённое значение не удаётся разобрать.
var ErrMalformed = errors.New("malformed stored value")

// Backend описывает хранилище значений, разделённое по клиентам.
type Backend interface {
	Get(ctx context.Context, clientID, key string) ([]byte, error)
	Put(ctx context.Context, clientID, key string, value []byte) error
	Delete(ctx context.Context, clientID, key string) error
}

// Slot хранит одно значение типа T под фиксированным ключом клиента.
type Slot[T any] struct {
	backend  Backend
	clientID string
	key      string
}

// NewSlot создаёт слот для указанного клиента и ключа.
func NewSlot[T any](backend Backend, clientID, key string) *Slot[T] {
	return &Slot[T]{
		backend:  backend,
		clientID: clientID,
		key:      key,
	}
}

// Key возвращает ключ слота.
func (s *Slot[T]) Key() string { return s.key }

// Load возвращает сохранённое значение или nil, если его нет.
// Нераспознаваемое значение возвращается как ошибка ErrMalformed.
func (s *Slot[T]) Load(ctx context.Context) (*T, error) {
	raw, err := s.backend.Get(ctx, s.clientID, s.key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, s.key, err)
	}
	return &v, nil
}

// Save перезаписывает значение целиком.
func (s *Slot[T]) Save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.backend.Put(ctx, s.clientID, s.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// Clear удаляет значение.
func (s *Slot[T]) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.clientID, s.key); err != nil {
		return fmt.Errorf("clear %s: %w", s.key, err)
	}
	return nil
}
