package montecarlo

import (
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// Method selects the resampling policy.
type Method string

const (
	// MethodWithReplacement draws each simulated trade independently from
	// the historical pool: an i.i.d. bootstrap.
	MethodWithReplacement Method = "with_replacement"
	// MethodWithoutReplacement reshuffles the full historical pool for each
	// simulated path and truncates it to the requested length. This is a
	// bootstrap-by-permutation per path, not disjoint sampling across the
	// batch.
	MethodWithoutReplacement Method = "without_replacement"
)

// Batch is a (numSimulations x numTrades) matrix of resampled per-trade
// profits. Ephemeral: created per simulation run, never persisted.
type Batch [][]float64

// Rows returns the number of simulated paths.
func (b Batch) Rows() int {
	return len(b)
}

// Cols returns the number of trades per path, or 0 for an empty batch.
func (b Batch) Cols() int {
	if len(b) == 0 {
		return 0
	}

	return len(b[0])
}

// Cumulative derives the cumulative-profit matrix: row-wise running sums on
// top of the initial balance.
func (b Batch) Cumulative(initialBalance float64) Batch {
	cumulative := make(Batch, len(b))

	for i, row := range b {
		sums := make([]float64, len(row))
		running := initialBalance

		for j, profit := range row {
			running += profit
			sums[j] = running
		}

		cumulative[i] = sums
	}

	return cumulative
}

// FinalValues returns the last column of the matrix.
func (b Batch) FinalValues() []float64 {
	finals := make([]float64, len(b))

	for i, row := range b {
		if len(row) > 0 {
			finals[i] = row[len(row)-1]
		}
	}

	return finals
}

// Params configures a simulation run.
type Params struct {
	// NumSimulations is the number of simulated paths.
	NumSimulations int
	// NumTrades is the path length. Defaults to the historical trade count.
	NumTrades optional.Option[int]
	// Method is the resampling policy.
	Method Method
	// Seed makes the whole batch reproducible. When absent, each run draws
	// from a time-seeded generator.
	Seed optional.Option[int64]
}

// Simulate resamples the ledger's gross (pre-commission) profits into a
// batch of simulated trade sequences. Unlike the normalization and metrics
// boundaries this API is strict: it fails fast with a typed error rather
// than degrade, since a silently wrong matrix would corrupt every derived
// risk statistic.
//
// Randomness is owned by a per-call generator built from Params.Seed, so
// concurrent callers never share hidden state.
func Simulate(ledger *types.TradeLedger, params Params) (Batch, error) {
	if ledger == nil || ledger.Len() == 0 {
		return nil, errors.Newf(errors.ErrCodeMissingField, "ledger %s carries no profit values", ledgerName(ledger))
	}

	pool := ledger.GrossProfits()
	available := len(pool)

	numTrades := params.NumTrades.TakeOr(available)

	if params.NumSimulations <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "num_simulations must be positive, got %d", params.NumSimulations)
	}

	if numTrades <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "num_trades must be positive, got %d", numTrades)
	}

	if params.Method != MethodWithReplacement && params.Method != MethodWithoutReplacement {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"unknown method %q, choose either %q or %q", params.Method, MethodWithReplacement, MethodWithoutReplacement)
	}

	if params.Method == MethodWithoutReplacement && numTrades > available {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"for %q, num_trades (%d) cannot exceed the total number of available trades (%d)",
			MethodWithoutReplacement, numTrades, available)
	}

	rng := rand.New(rand.NewSource(params.Seed.TakeOr(time.Now().UnixNano())))

	batch := make(Batch, params.NumSimulations)

	switch params.Method {
	case MethodWithReplacement:
		for i := range batch {
			row := make([]float64, numTrades)
			for j := range row {
				row[j] = pool[rng.Intn(available)]
			}

			batch[i] = row
		}
	case MethodWithoutReplacement:
		for i := range batch {
			row := make([]float64, numTrades)
			for j, idx := range rng.Perm(available)[:numTrades] {
				row[j] = pool[idx]
			}

			batch[i] = row
		}
	}

	return batch, nil
}

func ledgerName(ledger *types.TradeLedger) string {
	if ledger == nil {
		return "<nil>"
	}

	return ledger.Name
}
