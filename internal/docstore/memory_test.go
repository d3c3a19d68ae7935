package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	_, err := s.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, "users", "u1", Fields{"role": "worker", "available": true}))
	assert.ErrorIs(t, s.Create(ctx, "users", "u1", Fields{}), ErrAlreadyExists)

	require.NoError(t, s.Update(ctx, "users", "u1", Fields{"available": false}))
	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "worker", doc.Fields.String("role"))
	assert.Equal(t, false, *doc.Fields.BoolPtr("available"))

	assert.ErrorIs(t, s.Update(ctx, "users", "missing", Fields{"a": 1}), ErrNotFound)

	require.NoError(t, s.Set(ctx, "users", "u1", Fields{"role": "user"}))
	doc, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, Fields{"role": "user"}, doc.Fields)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	in := Fields{"old": map[string]any{"status": "open"}}
	require.NoError(t, s.Set(ctx, "history", "h1", in))

	in["old"].(map[string]any)["status"] = "mutated"
	doc, err := s.Get(ctx, "history", "h1")
	require.NoError(t, err)
	doc.Fields.Map("old")["status"] = "mutated again"

	doc, err = s.Get(ctx, "history", "h1")
	require.NoError(t, err)
	assert.Equal(t, "open", doc.Fields.Map("old")["status"])
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Set(ctx, "complaints", "c1", Fields{"user_id": "alice", "assigned_to": nil}))
	require.NoError(t, s.Set(ctx, "complaints", "c2", Fields{"user_id": "bob", "assigned_to": "w1"}))
	require.NoError(t, s.Set(ctx, "complaints", "c3", Fields{"user_id": "alice", "assigned_to": "w1"}))

	all, err := s.Query(ctx, "complaints")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids(all))

	byUser, err := s.Query(ctx, "complaints", Eq("user_id", "alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids(byUser))

	both, err := s.Query(ctx, "complaints", Eq("user_id", "alice"), Eq("assigned_to", "w1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c3"}, ids(both))

	unassigned, err := s.Query(ctx, "complaints", Eq("assigned_to", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids(unassigned))

	none, err := s.Query(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Set(ctx, "users", "w1", Fields{"available": true}))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
		if err := tx.Update(ctx, "users", "w1", Fields{"available": false}); err != nil {
			return err
		}
		if err := tx.Create(ctx, "complaints", "c1", Fields{"status": "in_progress"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := s.Get(ctx, "users", "w1")
	require.NoError(t, err)
	assert.True(t, *doc.Fields.BoolPtr("available"))
	_, err = s.Get(ctx, "complaints", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTransactionSeesItsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Set(ctx, "complaints", "c1", Fields{"status": "open"}))

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
		require.NoError(t, tx.Update(ctx, "complaints", "c1", Fields{"status": "resolved"}))
		require.NoError(t, tx.Create(ctx, "complaints", "c2", Fields{"status": "resolved"}))
		assert.ErrorIs(t, tx.Create(ctx, "complaints", "c2", Fields{}), ErrAlreadyExists)

		doc, err := tx.Get(ctx, "complaints", "c1")
		require.NoError(t, err)
		assert.Equal(t, "resolved", doc.Fields.String("status"))

		resolved, err := tx.Query(ctx, "complaints", Eq("status", "resolved"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2"}, ids(resolved))

		outside, err := s.Get(ctx, "complaints", "c1")
		require.NoError(t, err)
		assert.Equal(t, "open", outside.Fields.String("status"))
		return nil
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "complaints", "c2")
	require.NoError(t, err)
	assert.Equal(t, "resolved", doc.Fields.String("status"))
}

func TestMemoryStoreTransactionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Set(ctx, "counters", "n", Fields{"value": float64(0)}))

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			return s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
				doc, err := tx.Get(ctx, "counters", "n")
				if err != nil {
					return err
				}
				v, ok := doc.Fields["value"].(float64)
				if !ok {
					return fmt.Errorf("unexpected value %v", doc.Fields["value"])
				}
				return tx.Update(ctx, "counters", "n", Fields{"value": v + 1})
			})
		})
	}
	require.NoError(t, g.Wait())

	doc, err := s.Get(ctx, "counters", "n")
	require.NoError(t, err)
	assert.Equal(t, float64(50), doc.Fields["value"])
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore(nil)

	assert.ErrorIs(t, s.Set(ctx, "users", "u1", Fields{}), context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}

func TestMemoryStoreNewIDUsesGenerator(t *testing.T) {
	n := 0
	s := NewMemoryStore(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	assert.Equal(t, "id-1", s.NewID("complaints"))
	assert.Equal(t, "id-2", s.NewID("users"))
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
