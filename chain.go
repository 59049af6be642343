package sluice

import (
	"context"
	"fmt"

	"github.com/zoobzio/pipz"
)

// Transform post-processes a loaded value. It receives the output of the
// previous transform, or the loaded RowSet for the first one.
type Transform func(ctx context.Context, value any) (any, error)

var chainID = pipz.NewIdentity("sluice:chain", "Post-processing transform chain")

// Chain applies transforms in order. The first failing transform aborts the
// chain; later transforms never run.
type Chain struct {
	size     int
	pipeline pipz.Chainable[any]
}

// NewChain builds a chain from transforms. An empty chain returns its input
// unchanged.
func NewChain(transforms ...Transform) *Chain {
	processors := make([]pipz.Chainable[any], 0, len(transforms))
	for i, fn := range transforms {
		id := pipz.NewIdentity(
			fmt.Sprintf("sluice:transform:%d", i),
			"Post-processing transform",
		)
		processors = append(processors, pipz.Apply(id, func(ctx context.Context, v any) (any, error) {
			return fn(ctx, v)
		}))
	}
	return &Chain{
		size:     len(processors),
		pipeline: pipz.NewSequence(chainID, processors...),
	}
}

// Len returns the number of transforms in the chain.
func (c *Chain) Len() int {
	return c.size
}

// Apply runs value through the chain. Failures are returned as *ChainError;
// errors.Is matches the failing transform's error.
func (c *Chain) Apply(ctx context.Context, value any) (any, error) {
	if c == nil || c.size == 0 {
		return value, nil
	}
	out, err := c.pipeline.Process(ctx, value)
	if err != nil {
		return nil, &ChainError{Err: err}
	}
	return out, nil
}
