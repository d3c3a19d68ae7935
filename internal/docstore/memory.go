package docstore

import (
	"context"
	"sync"

	"github.com/societyresolver/complaint-service/internal/idgen"
)

// MemoryStore keeps documents in process memory. Transactions are serialized
// and their writes are staged until fn returns successfully.
type MemoryStore struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	data  map[string]map[string]Fields
	order map[string][]string
	newID idgen.Generator
}

// NewMemoryStore creates an empty store. A nil generator defaults to UUIDs.
func NewMemoryStore(newID idgen.Generator) *MemoryStore {
	if newID == nil {
		newID = idgen.UUID
	}
	return &MemoryStore{
		data:  make(map[string]map[string]Fields),
		order: make(map[string][]string),
		newID: newID,
	}
}

func (s *MemoryStore) NewID(string) string {
	return s.newID()
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: fields.Clone()}, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
		return tx.Set(ctx, collection, id, fields)
	})
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
		return tx.Create(ctx, collection, id, fields)
	})
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.RunInTransaction(ctx, func(ctx context.Context, tx Ops) error {
		return tx.Update(ctx, collection, id, fields)
	})
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, id := range s.order[collection] {
		fields := s.data[collection][id]
		if matches(fields, filters) {
			out = append(out, Document{ID: id, Fields: fields.Clone()})
		}
	}
	return out, nil
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: s, staged: make(map[string]map[string]Fields)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

func (s *MemoryStore) commit(tx *memoryTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for collection, docs := range tx.staged {
		if s.data[collection] == nil {
			s.data[collection] = make(map[string]Fields)
		}
		for _, id := range tx.stagedOrder[collection] {
			if _, exists := s.data[collection][id]; !exists {
				s.order[collection] = append(s.order[collection], id)
			}
			s.data[collection][id] = docs[id]
		}
	}
}

func (s *MemoryStore) read(collection, id string) (Fields, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.data[collection][id]
	return fields, ok
}

type memoryTx struct {
	store       *MemoryStore
	staged      map[string]map[string]Fields
	stagedOrder map[string][]string
}

func (t *memoryTx) current(collection, id string) (Fields, bool) {
	if fields, ok := t.staged[collection][id]; ok {
		return fields, true
	}
	return t.store.read(collection, id)
}

func (t *memoryTx) stage(collection, id string, fields Fields) {
	if t.staged[collection] == nil {
		t.staged[collection] = make(map[string]Fields)
	}
	if t.stagedOrder == nil {
		t.stagedOrder = make(map[string][]string)
	}
	if _, ok := t.staged[collection][id]; !ok {
		t.stagedOrder[collection] = append(t.stagedOrder[collection], id)
	}
	t.staged[collection][id] = fields
}

func (t *memoryTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, ok := t.current(collection, id)
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: fields.Clone()}, nil
}

func (t *memoryTx) Set(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.stage(collection, id, fields.Clone())
	return nil
}

func (t *memoryTx) Create(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.current(collection, id); ok {
		return ErrAlreadyExists
	}
	t.stage(collection, id, fields.Clone())
	return nil
}

func (t *memoryTx) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, ok := t.current(collection, id)
	if !ok {
		return ErrNotFound
	}
	merged := existing.Clone()
	for k, v := range fields {
		merged[k] = cloneValue(v)
	}
	t.stage(collection, id, merged)
	return nil
}

func (t *memoryTx) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	docs, err := t.store.Query(ctx, collection)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(docs))
	var out []Document
	for _, doc := range docs {
		seen[doc.ID] = struct{}{}
		if staged, ok := t.staged[collection][doc.ID]; ok {
			doc.Fields = staged.Clone()
		}
		if matches(doc.Fields, filters) {
			out = append(out, doc)
		}
	}
	for _, id := range t.stagedOrder[collection] {
		if _, ok := seen[id]; ok {
			continue
		}
		fields := t.staged[collection][id]
		if matches(fields, filters) {
			out = append(out, Document{ID: id, Fields: fields.Clone()})
		}
	}
	return out, nil
}
