package trajectory

import (
	"errors"
	"fmt"
)

// ErrCostLimitExceeded is raised by Ledger.Add when a query would push either
// the per-instance or the total cost past its configured limit. The agent
// loop translates it into the exit_cost terminal.
var ErrCostLimitExceeded = errors.New("cost limit exceeded")

// Ledger is the additive per-task token and cost counter described in the
// data model. It is a monoid: merging a sub-agent's ledger into its caller's
// is plain field-wise addition.
type Ledger struct {
	TokensSent     int
	TokensReceived int
	APICalls       int
	InstanceCost   float64
	TotalCost      float64

	// PerInstanceLimit and TotalLimit are thresholds; zero disables the
	// corresponding check.
	PerInstanceLimit float64
	TotalLimit       float64
}

// Call records one model round-trip. cost is the dollar cost of this call as
// reported (or estimated) by the concrete backend. Returns
// ErrCostLimitExceeded if recording this call crosses either threshold; the
// call's tokens and cost are still recorded before the error is returned, so
// the ledger always reflects what was actually spent.
func (l *Ledger) Call(tokensSent, tokensReceived int, cost float64) error {
	l.TokensSent += tokensSent
	l.TokensReceived += tokensReceived
	l.APICalls++
	l.InstanceCost += cost
	l.TotalCost += cost

	if l.TotalLimit > 0 && l.TotalCost >= l.TotalLimit {
		return fmt.Errorf("%w: total cost %.2f >= limit %.2f", ErrCostLimitExceeded, l.TotalCost, l.TotalLimit)
	}
	if l.PerInstanceLimit > 0 && l.InstanceCost >= l.PerInstanceLimit {
		return fmt.Errorf("%w: instance cost %.2f >= limit %.2f", ErrCostLimitExceeded, l.InstanceCost, l.PerInstanceLimit)
	}
	return nil
}

// Merge folds other's counters into l, for when a subroutine's ledger is
// merged back into its caller's on return.
func (l *Ledger) Merge(other *Ledger) {
	l.TokensSent += other.TokensSent
	l.TokensReceived += other.TokensReceived
	l.APICalls += other.APICalls
	l.InstanceCost += other.InstanceCost
	l.TotalCost += other.TotalCost
}

// Stats snapshots the ledger into the trajectory file's ModelStats shape.
func (l *Ledger) Stats() ModelStats {
	return ModelStats{
		TokensSent:     l.TokensSent,
		TokensReceived: l.TokensReceived,
		APICalls:       l.APICalls,
		InstanceCost:   l.InstanceCost,
		TotalCost:      l.TotalCost,
	}
}
