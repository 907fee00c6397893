package montecarlo

import (
	"math"
	"sort"

	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// validateShape rejects empty or ragged matrices before any statistic runs.
func validateShape(batch Batch) error {
	if len(batch) == 0 || len(batch[0]) == 0 {
		return errors.New(errors.ErrCodeInvalidShape, "matrix must have at least one row and one column")
	}

	cols := len(batch[0])
	for i, row := range batch {
		if len(row) != cols {
			return errors.Newf(errors.ErrCodeInvalidShape, "matrix is ragged: row %d has %d columns, expected %d", i, len(row), cols)
		}
	}

	return nil
}

// MaxDrawdowns returns the maximum drawdown of each cumulative-profit path.
// In percentage mode the drawdown is normalized by the running peak; a zero
// peak is treated as 1 so a flat path yields 0, never a division by zero.
func MaxDrawdowns(cumulative Batch, asPercentage bool) ([]float64, error) {
	if err := validateShape(cumulative); err != nil {
		return nil, err
	}

	drawdowns := make([]float64, len(cumulative))

	for i, row := range cumulative {
		peak := row[0]
		maxDD := 0.0

		for _, value := range row {
			if value > peak {
				peak = value
			}

			dd := peak - value

			if asPercentage {
				safePeak := peak
				if safePeak == 0 {
					safePeak = 1
				}

				dd = dd / safePeak * 100
			}

			if dd > maxDD {
				maxDD = dd
			}
		}

		drawdowns[i] = maxDD
	}

	return drawdowns, nil
}

// LosingStreaks returns, per path, the longest run of strictly negative
// trades. Streak counters for all paths advance together column by column,
// resetting on any non-loss.
func LosingStreaks(batch Batch) ([]int, error) {
	return streaks(batch, func(v float64) bool { return v < 0 })
}

// WinningStreaks returns, per path, the longest run of strictly positive
// trades.
func WinningStreaks(batch Batch) ([]int, error) {
	return streaks(batch, func(v float64) bool { return v > 0 })
}

func streaks(batch Batch, hit func(float64) bool) ([]int, error) {
	if err := validateShape(batch); err != nil {
		return nil, err
	}

	maxStreaks := make([]int, len(batch))
	current := make([]int, len(batch))

	for col := 0; col < len(batch[0]); col++ {
		for row := range batch {
			if hit(batch[row][col]) {
				current[row]++
				if current[row] > maxStreaks[row] {
					maxStreaks[row] = current[row]
				}
			} else {
				current[row] = 0
			}
		}
	}

	return maxStreaks, nil
}

// percentile computes the level-th percentile with linear interpolation
// between closest ranks (the standard definition, not nearest-rank).
func percentile(values []float64, level float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if level <= 0 {
		return sorted[0]
	}

	if level >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := level / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	frac := rank - float64(lower)

	if lower+1 >= len(sorted) {
		return sorted[lower]
	}

	return sorted[lower] + (sorted[lower+1]-sorted[lower])*frac
}
