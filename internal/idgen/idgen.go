// Package idgen produces document identifiers.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Generator returns a new unique identifier on every call.
type Generator func() string

// UUID generates random (v4) UUID strings.
func UUID() string {
	return uuid.NewString()
}

// KSUID generates K-sortable unique identifiers.
func KSUID() string {
	return ksuid.New().String()
}

// Snowflake returns a generator backed by a snowflake node. If the node cannot
// be initialized it falls back to KSUID so ids are still unique.
func Snowflake(nodeID int64) Generator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return KSUID
	}
	return func() string {
		return node.Generate().String()
	}
}

// New returns the generator for strategy ("uuid", "ksuid" or "snowflake").
func New(strategy string, snowflakeNode int64) (Generator, error) {
	switch strategy {
	case "", "uuid":
		return UUID, nil
	case "ksuid":
		return KSUID, nil
	case "snowflake":
		if snowflakeNode < 0 || snowflakeNode > 1023 {
			return nil, fmt.Errorf("snowflake node %d out of range", snowflakeNode)
		}
		return Snowflake(snowflakeNode), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
