package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMemoryRepository_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if _, err := r.Get(ctx, "c1", "cart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty repo: err = %v, want ErrNotFound", err)
	}

	if err := r.Put(ctx, "c1", "cart", []byte(`[]`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := r.Get(ctx, "c1", "cart")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("Get = %q, want []", got)
	}

	got[0] = 'x'
	again, _ := r.Get(ctx, "c1", "cart")
	if string(again) != `[]` {
		t.Fatalf("stored value was mutated through returned slice: %q", again)
	}

	if err := r.Delete(ctx, "c1", "cart"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := r.Get(ctx, "c1", "cart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}

	if err := r.Delete(ctx, "missing", "cart"); err != nil {
		t.Fatalf("Delete of missing value must not fail: %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "deadlock", err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "no rows", err: pgx.ErrNoRows, want: false},
		{name: "canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Fatalf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	r := &PostgresRepository{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return pgx.ErrNoRows
	})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_RetriesTransientErrors(t *testing.T) {
	r := &PostgresRepository{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}
