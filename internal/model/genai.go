package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/maruel/genai"
	"github.com/maruel/genai/providers"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// GenAIBackend queries a github.com/maruel/genai provider, mirroring the
// provider-construction pattern in backend/internal/server/titlegen.go.
type GenAIBackend struct {
	provider     genai.Provider
	systemPrompt string
	maxTokens    int
	temperature  float64

	mu    sync.Mutex
	stats trajectory.ModelStats
}

// NewGenAIBackend resolves providerName via genai/providers.All and
// constructs a backend for model (empty selects the provider's default).
func NewGenAIBackend(ctx context.Context, providerName, modelName, systemPrompt string) (*GenAIBackend, error) {
	cfg, ok := providers.All[providerName]
	if !ok || cfg.Factory == nil {
		return nil, fmt.Errorf("model: unknown provider %q", providerName)
	}
	var opts []genai.ProviderOption
	if modelName != "" {
		opts = append(opts, genai.ProviderOptionModel(modelName))
	}
	p, err := cfg.Factory(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("model: constructing provider %q: %w", providerName, err)
	}
	return &GenAIBackend{provider: p, systemPrompt: systemPrompt, maxTokens: 4096, temperature: 0}, nil
}

// toGenAIMessages converts trajectory history into genai's message type,
// the conversion genericconv.go-style function this package follows.
func toGenAIMessages(history []trajectory.Message) genai.Messages {
	msgs := make(genai.Messages, 0, len(history))
	for _, m := range history {
		if m.Role == trajectory.RoleSystem {
			continue // carried separately as GenOptionText.SystemPrompt
		}
		msgs = append(msgs, genai.NewTextMessage(m.Content))
	}
	return msgs
}

// Query sends history to the provider, retrying transient failures with
// exponential backoff up to three attempts (cenkalti/backoff/v5 — see
// DESIGN.md for why this backend adds a retry layer other backends here
// don't need).
func (b *GenAIBackend) Query(ctx context.Context, history []trajectory.Message) (string, error) {
	op := func() (string, error) {
		res, err := b.provider.GenSync(ctx, toGenAIMessages(history), &genai.GenOptionText{
			SystemPrompt: b.systemPrompt,
			MaxTokens:    b.maxTokens,
			Temperature:  b.temperature,
		})
		if err != nil {
			return "", err
		}
		b.recordUsage(res)
		return res.String(), nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithMaxTries(3),
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
	)
}

// recordUsage accumulates token/call counts into the backend's running
// ledger, mirroring APIStats.__add__'s additive shape. genai's Result.Usage
// field names mirror agent/codex/record.go's own
// InputTokens/OutputTokens naming.
func (b *GenAIBackend) recordUsage(res genai.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.APICalls++
	b.stats.TokensSent += res.Usage.InputTokens
	b.stats.TokensReceived += res.Usage.OutputTokens
}

// Stats implements the Stats interface.
func (b *GenAIBackend) Stats() trajectory.ModelStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
