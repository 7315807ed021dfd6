// Package idgen produces the 64-bit display identifiers attached to every
// domain entity. Ids follow the snowflake layout (timestamp, node id,
// per-tick sequence) so they are roughly chronological and collision
// resistant without a central database sequence. Uniqueness is still
// enforced by a constraint at the persistence boundary; WithRetry wraps
// writes so a cross-process collision regenerates the id instead of
// failing the operation.
package idgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ErrConflictRetryExhausted is returned when a display-id uniqueness
// violation persisted through every regeneration attempt.
var ErrConflictRetryExhausted = errors.New("display id conflict retries exhausted")

// DefaultMaxRetries bounds how many times a conflicting write is retried
// with a fresh id before giving up.
const DefaultMaxRetries = 3

// Generator produces display ids for a single node.
type Generator struct {
	node *snowflake.Node
}

// New creates a Generator for the given node id. Node ids must be unique
// per running process across the deployment (0-1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next returns a fresh display id. Safe for concurrent use.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// WithRetry runs write with a fresh display id, regenerating and retrying
// when write reports a display-id conflict. write must return true for a
// conflict and false for any other error. After maxRetries conflicting
// attempts the operation fails with ErrConflictRetryExhausted.
func (g *Generator) WithRetry(ctx context.Context, maxRetries int, write func(ctx context.Context, displayID int64) (conflict bool, err error)) error {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		conflict, err := write(ctx, g.Next())
		if err == nil {
			return nil
		}
		if !conflict {
			return err
		}
	}

	return ErrConflictRetryExhausted
}
