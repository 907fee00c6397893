package metrics

// MaxConsecutiveLosses returns the longest run of strictly negative profits.
// A zero profit resets the streak.
func MaxConsecutiveLosses(profits []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, profit := range profits {
		if profit < 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}

	return maxStreak
}

// MaxConsecutiveWins returns the longest run of strictly positive profits.
// A zero profit resets the streak.
func MaxConsecutiveWins(profits []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, profit := range profits {
		if profit > 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}

	return maxStreak
}

// MaxDrawdownPeriod returns the longest contiguous run (in days) where the
// balance sits strictly below its running peak.
func MaxDrawdownPeriod(balances []float64) int {
	maxPeriod := 0
	currentPeriod := 0
	peak := 0.0

	for i, balance := range balances {
		if i == 0 || balance > peak {
			peak = balance
		}

		if balance < peak {
			currentPeriod++
			if currentPeriod > maxPeriod {
				maxPeriod = currentPeriod
			}
		} else {
			currentPeriod = 0
		}
	}

	return maxPeriod
}
