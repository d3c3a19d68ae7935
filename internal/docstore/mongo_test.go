package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsTxnNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"wrapped code 20", fmt.Errorf("assign: %w", mongo.CommandError{Code: 20}), true},
		{"replica set wording", errors.New("Transaction numbers are only allowed on a REPLICA SET member"), true},
		{"session not supported", errors.New("sessions are not supported by the server"), true},
		{"transaction in session", errors.New("cannot start transaction in current session state"), true},
		{"illegal operation", errors.New("illegal operation during transaction"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTxnNotSupported(tt.err))
		})
	}
}

func TestToDocumentNormalizesDriverTypes(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":      "c-1",
		"status":   "open",
		"attempts": int32(2),
		"size":     int64(7),
		"seen_at":  primitive.NewDateTimeFromTime(at),
		"old":      bson.M{"status": "open"},
		"ordered":  bson.D{{Key: "a", Value: int32(1)}},
		"tags":     bson.A{"x", bson.M{"y": true}},
	}

	doc := toDocument(raw)

	assert.Equal(t, "c-1", doc.ID)
	assert.NotContains(t, doc.Fields, "_id")
	assert.Equal(t, "open", doc.Fields.String("status"))
	assert.Equal(t, float64(2), doc.Fields["attempts"])
	assert.Equal(t, float64(7), doc.Fields["size"])
	assert.Equal(t, at, doc.Fields["seen_at"])
	assert.Equal(t, map[string]any{"status": "open"}, doc.Fields.Map("old"))
	assert.Equal(t, map[string]any{"a": float64(1)}, doc.Fields.Map("ordered"))
	assert.Equal(t, []any{"x", map[string]any{"y": true}}, doc.Fields["tags"])
}

func TestMongoRunInTransactionWithoutReplicaSet(t *testing.T) {
	standalone := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}
	writeFailed := errors.New("write failed")

	tests := []struct {
		name            string
		allowStandalone bool
		txErr           error
		fnErr           error
		wantCalls       int
		wantErr         error
		wantErrorLog    bool
	}{
		{name: "refused by default", txErr: standalone, wantCalls: 0, wantErr: ErrTransactionsUnsupported},
		{name: "opt-in runs once", allowStandalone: true, txErr: standalone, wantCalls: 1},
		{name: "opt-in failure is logged", allowStandalone: true, txErr: standalone, fnErr: writeFailed, wantCalls: 1, wantErr: writeFailed, wantErrorLog: true},
		{name: "other errors pass through", allowStandalone: true, txErr: writeFailed, wantCalls: 0, wantErr: writeFailed},
		{name: "transaction committed", wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			s := &MongoStore{
				logger: zap.New(core),
				opts:   MongoOptions{AllowStandalone: tt.allowStandalone},
				withTx: func(context.Context, TxFunc) error { return tt.txErr },
			}

			calls := 0
			err := s.RunInTransaction(context.Background(), func(context.Context, Ops) error {
				calls++
				return tt.fnErr
			})

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantErrorLog, logs.FilterLevelExact(zapcore.ErrorLevel).Len() == 1)
		})
	}
}
