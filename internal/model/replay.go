package model

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// ReplayBackend plays back a previously recorded trajectory's actions in
// order, ignoring the supplied history entirely, mirroring
// replay_swe_agent_model.py's ReplayModel. Used for deterministic
// regression tests and demonstrations.
type ReplayBackend struct {
	mu      sync.Mutex
	actions []string
	idx     int
}

// NewReplayBackend loads one recorded trajectory from path: a JSONL file
// where each line is a single-key object whose value is the list of actions
// for one episode, matching ReplayModel.__init__'s
// "json.loads(x).values()" extraction.
func NewReplayBackend(path string) (*ReplayBackend, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied replay file path.
	if err != nil {
		return nil, fmt.Errorf("model: replay_path: %w", err)
	}
	defer func() { _ = f.Close() }()

	var actions []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		var episode map[string][]string
		if err := json.Unmarshal(scanner.Bytes(), &episode); err != nil {
			return nil, fmt.Errorf("model: replay_path: decoding line: %w", err)
		}
		for _, steps := range episode {
			actions = append(actions, steps...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("model: replay_path: no actions found in %s", path)
	}
	return &ReplayBackend{actions: actions}, nil
}

// Query ignores history and returns the next recorded action in sequence,
// mirroring ReplayModel.query's action_idx/replay_idx bookkeeping. Past the
// last action, the replay loops back to the beginning.
func (b *ReplayBackend) Query(_ context.Context, _ []trajectory.Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.idx >= len(b.actions) {
		b.idx = 0
	}
	action := b.actions[b.idx]
	b.idx++
	return action, nil
}
