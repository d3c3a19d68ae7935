package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/societyresolver/complaint-service/internal/idgen"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every collection in the documents table as jsonb.
type PostgresStore struct {
	pool  *pgxpool.Pool
	newID idgen.Generator
	ops   *pgOps
}

// NewPostgresStore wraps an established pool. The documents table is created
// by persistence.RunMigrations.
func NewPostgresStore(pool *pgxpool.Pool, newID idgen.Generator) *PostgresStore {
	if newID == nil {
		newID = idgen.UUID
	}
	return &PostgresStore{pool: pool, newID: newID, ops: &pgOps{q: pool}}
}

func (s *PostgresStore) NewID(string) string {
	return s.newID()
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	return s.ops.Get(ctx, collection, id)
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Set(ctx, collection, id, fields)
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Create(ctx, collection, id, fields)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Update(ctx, collection, id, fields)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	return s.ops.Query(ctx, collection, filters...)
}

// RunInTransaction runs fn in a READ COMMITTED transaction. Reads made through
// tx take row locks (SELECT ... FOR UPDATE), so two transactions touching the
// same complaint or worker document are serialized.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn TxFunc) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgOps{q: tx, forUpdate: true})
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by persistence.Postgres.
func (s *PostgresStore) Close(context.Context) error {
	return nil
}

type pgOps struct {
	q         pgQuerier
	forUpdate bool
}

func (o *pgOps) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `SELECT data FROM documents WHERE collection=$1 AND id=$2`
	if o.forUpdate {
		query += ` FOR UPDATE`
	}
	var raw []byte
	if err := o.q.QueryRow(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: fields}, nil
}

func (o *pgOps) Set(ctx context.Context, collection, id string, fields Fields) error {
	const query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()`
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	_, err = o.q.Exec(ctx, query, collection, id, data)
	return err
}

func (o *pgOps) Create(ctx context.Context, collection, id string, fields Fields) error {
	const query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO NOTHING`
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	cmd, err := o.q.Exec(ctx, query, collection, id, data)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (o *pgOps) Update(ctx context.Context, collection, id string, fields Fields) error {
	const query = `
        UPDATE documents SET data = data || $3::jsonb, updated_at=NOW()
        WHERE collection=$1 AND id=$2`
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	cmd, err := o.q.Exec(ctx, query, collection, id, data)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (o *pgOps) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	contains := make(Fields, len(filters))
	for _, f := range filters {
		contains[f.Field] = f.Value
	}
	data, err := encodeFields(contains)
	if err != nil {
		return nil, err
	}

	rows, err := o.q.Query(ctx, `
        SELECT id, data FROM documents
        WHERE collection=$1 AND data @> $2::jsonb
        ORDER BY created_at, id`, collection, data)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

func encodeFields(fields Fields) (string, error) {
	if fields == nil {
		fields = Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

func decodeFields(raw []byte) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}
