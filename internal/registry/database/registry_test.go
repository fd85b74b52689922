package database

import (
	"context"
	"errors"
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestGetDoesNotValidate(t *testing.T) {
	calls := 0
	p := New(func(ctx context.Context, h model.DatabaseHandle) error {
		calls++
		return nil
	})
	p.Load([]model.DatabaseHandle{{Name: "DEFAULT"}})

	h, err := p.Get("DEFAULT")
	require.NoError(t, err)
	require.Equal(t, "DEFAULT", h.Name)
	require.Equal(t, 0, calls, "Get must not invoke the pinger")
}

func TestGetValidatedPingsAndMarksUnavailable(t *testing.T) {
	p := New(func(ctx context.Context, h model.DatabaseHandle) error {
		return errors.New("connection refused")
	})
	p.Load([]model.DatabaseHandle{{Name: "DEFAULT"}})

	_, err := p.GetValidated(context.Background(), "DEFAULT")
	require.Error(t, err)
	require.Equal(t, 503, apierrors.StatusOf(err))
}

func TestUpsertRejectsUnreachableWithoutMutatingState(t *testing.T) {
	p := New(func(ctx context.Context, h model.DatabaseHandle) error {
		if h.Name == "BAD" {
			return errors.New("no route to host")
		}
		return nil
	})
	p.Load([]model.DatabaseHandle{{Name: "BAD", DSN: "old_dsn"}})

	err := p.Upsert(context.Background(), model.DatabaseHandle{Name: "BAD", DSN: "new_dsn"})
	require.Error(t, err)

	h, err := p.Get("BAD")
	require.NoError(t, err)
	require.Equal(t, "old_dsn", h.DSN, "failed upsert must not mutate the existing entry")
}

func TestDeleteUnknownReturnsNotFound(t *testing.T) {
	p := New(func(ctx context.Context, h model.DatabaseHandle) error { return nil })
	err := p.Delete("missing")
	require.Error(t, err)
	require.Equal(t, 404, apierrors.StatusOf(err))
}
