package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/societyresolver/complaint-service/internal/config"
	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/idgen"
	"github.com/societyresolver/complaint-service/internal/persistence"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// resources are closed in reverse order of acquisition.
type resources struct {
	closers []closer
}

func (r *resources) add(name string, fn func(context.Context) error) {
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

func (r *resources) close(ctx context.Context) error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if cerr := c.fn(ctx); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config, newID idgen.Generator, logger *zap.Logger, res *resources) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		res.add("postgres", func(context.Context) error { pg.Close(); return nil })
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				return nil, err
			}
		}
		return docstore.NewPostgresStore(pg.Pool, newID), nil

	case config.BackendMongo:
		m, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		res.add("mongo", m.Close)
		if cfg.Mongo.AllowStandalone {
			logger.Warn("MONGO_ALLOW_STANDALONE is set; writes may be partially applied if the server lacks transactions")
		}
		return docstore.NewMongoStore(m.Client, m.Database, newID, logger, docstore.MongoOptions{
			AllowStandalone: cfg.Mongo.AllowStandalone,
		}), nil

	case config.BackendMemory:
		logger.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(newID), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
