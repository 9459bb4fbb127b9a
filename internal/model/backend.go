// Package model wraps LLM providers behind a single query interface, grounded
// on backend/internal/agent.Backend's "uniform interface over concrete
// backends" shape and on original_source/swe_agent/swe_agent/model/
// {models,model_apistats,replay_swe_agent_model}.py for the query/ledger
// semantics.
package model

import (
	"context"
	"errors"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// ErrContextWindowExceeded is returned by a Backend when the provider
// reports the accumulated history no longer fits the model's context
// window. The agent loop maps it to the exit_context terminal rather than
// retrying, mirroring the original's ContextWindowExceededError.
var ErrContextWindowExceeded = errors.New("model: context window exceeded")

// Backend queries a language model with the accumulated history and returns
// its raw text reply. Implementations never retry internally except for
// transient-network backoff (see genai.go); format-retry is the agent loop's
// own job. A Backend reports a cost-limit breach by returning
// trajectory.ErrCostLimitExceeded and a context-window breach by returning
// ErrContextWindowExceeded; any other error is treated as API-retry
// exhaustion.
type Backend interface {
	Query(ctx context.Context, history []trajectory.Message) (string, error)
}

// Stats exposes a Backend's running cost/token ledger for merging into the
// task-level ledger, mirroring APIStats' additive shape.
type Stats interface {
	Stats() trajectory.ModelStats
}
