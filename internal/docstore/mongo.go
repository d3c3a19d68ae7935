package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/societyresolver/complaint-service/internal/idgen"
)

// ErrTransactionsUnsupported is returned by RunInTransaction when the server
// cannot run multi-document transactions and MongoOptions.AllowStandalone is off.
var ErrTransactionsUnsupported = errors.New("docstore: mongo deployment does not support transactions")

// MongoOptions tunes MongoStore.
type MongoOptions struct {
	// AllowStandalone runs transaction bodies without a transaction on servers
	// that are not part of a replica set. A failure part-way through then
	// leaves earlier writes in place.
	AllowStandalone bool
}

// MongoStore maps each collection to a MongoDB collection with the document
// id stored as _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	newID  idgen.Generator
	logger *zap.Logger
	opts   MongoOptions
	ops    Ops
	// withTx runs fn inside a server transaction.
	withTx func(ctx context.Context, fn TxFunc) error
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, database string, newID idgen.Generator, logger *zap.Logger, opts MongoOptions) *MongoStore {
	if newID == nil {
		newID = idgen.UUID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db := client.Database(database)
	s := &MongoStore{client: client, db: db, newID: newID, logger: logger, opts: opts, ops: &mongoOps{db: db}}
	s.withTx = s.sessionTransaction
	return s
}

func (s *MongoStore) NewID(string) string {
	return s.newID()
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	return s.ops.Get(ctx, collection, id)
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Set(ctx, collection, id, fields)
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Create(ctx, collection, id, fields)
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.ops.Update(ctx, collection, id, fields)
}

func (s *MongoStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	return s.ops.Query(ctx, collection, filters...)
}

// RunInTransaction runs fn inside a MongoDB session transaction. Standalone
// servers cannot run transactions: they are refused with
// ErrTransactionsUnsupported unless AllowStandalone is set, in which case fn
// runs without one and the caller's locks are the only protection.
func (s *MongoStore) RunInTransaction(ctx context.Context, fn TxFunc) error {
	err := s.withTx(ctx, fn)
	if err == nil || !IsTxnNotSupported(err) {
		return err
	}
	if !s.opts.AllowStandalone {
		return fmt.Errorf("%w: %v", ErrTransactionsUnsupported, err)
	}

	s.logger.Warn("mongo transactions unavailable; running without transaction", zap.Error(err))
	if err := fn(ctx, s.ops); err != nil {
		s.logger.Error("non-transactional write failed; earlier writes were not rolled back", zap.Error(err))
		return err
	}
	return nil
}

func (s *MongoStore) sessionTransaction(ctx context.Context, fn TxFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.ops)
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close is a no-op; the client is owned by persistence.Mongo.
func (s *MongoStore) Close(context.Context) error {
	return nil
}

// IsTxnNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone server, old version).
func IsTxnNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	return (hasTxn && strings.Contains(msg, "replica set")) ||
		(hasTxn && strings.Contains(msg, "session")) ||
		(strings.Contains(msg, "session") && strings.Contains(msg, "not supported")) ||
		(strings.Contains(msg, "illegal operation") && hasTxn)
}

type mongoOps struct {
	db *mongo.Database
}

func (o *mongoOps) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw bson.M
	err := o.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDocument(raw), nil
}

func (o *mongoOps) Set(ctx context.Context, collection, id string, fields Fields) error {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	_, err := o.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (o *mongoOps) Create(ctx context.Context, collection, id string, fields Fields) error {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	_, err := o.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (o *mongoOps) Update(ctx context.Context, collection, id string, fields Fields) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	res, err := o.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (o *mongoOps) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	filter := bson.D{}
	for _, f := range filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}
	cur, err := o.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(raws))
	for _, raw := range raws {
		out = append(out, *toDocument(raw))
	}
	return out, nil
}

func toDocument(raw bson.M) *Document {
	id, _ := raw["_id"].(string)
	fields := make(Fields, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = normalizeBSON(v)
	}
	return &Document{ID: id, Fields: fields}
}

// normalizeBSON converts driver container types back to plain Go maps and
// slices so documents look the same regardless of backend.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeBSON(item)
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
