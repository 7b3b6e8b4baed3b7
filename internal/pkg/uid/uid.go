// Package uid generates identifiers: UUIDv7 strings for correlation and
// event ids, snowflake int64s for database rows.
package uid

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// StringID produces opaque string identifiers.
type StringID interface {
	Generate() string
}

// NumberID produces time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// UUID generates UUIDv7, falling back to v4 if the clock read fails.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

func (UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Snowflake wraps a bwmarrin/snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number (0-1023).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
