package metrics

// InterpretSQN classifies a System Quality Number against the standard
// benchmark thresholds.
func InterpretSQN(sqn float64) string {
	switch {
	case sqn < 1:
		return "Very hard to trade"
	case sqn < 2:
		return "Average"
	case sqn < 3:
		return "Good"
	case sqn < 5:
		return "Excellent"
	case sqn < 7:
		return "Superb"
	default:
		return "Holy Grail"
	}
}
