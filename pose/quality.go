package pose

// Quality returns the fraction of a body's markers that were observed, in
// the range [0, 1].  A body with no expected markers has quality 0
func Quality(observed, expected int) float64 {

	if expected <= 0 || observed <= 0 {
		return 0
	}

	if observed >= expected {
		return 1
	}

	return float64(observed) / float64(expected)
}
