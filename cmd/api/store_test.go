package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/societyresolver/complaint-service/internal/config"
	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/idgen"
)

func TestResourcesCloseInReverseOrder(t *testing.T) {
	var order []string
	var res resources
	res.add("first", func(context.Context) error { order = append(order, "first"); return nil })
	res.add("second", func(context.Context) error { order = append(order, "second"); return errors.New("boom") })
	res.add("third", func(context.Context) error { order = append(order, "third"); return errors.New("bang") })

	err := res.close(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "close second")
}

func TestOpenStore(t *testing.T) {
	var res resources
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}
	store, err := openStore(context.Background(), cfg, idgen.UUID, zap.NewNop(), &res)
	require.NoError(t, err)
	assert.IsType(t, &docstore.MemoryStore{}, store)
	assert.Empty(t, res.closers)

	cfg.Store.Backend = "sqlite"
	_, err = openStore(context.Background(), cfg, idgen.UUID, zap.NewNop(), &res)
	assert.Error(t, err)
}
