package metrics

import "math"

// Mean computes the arithmetic mean of a float64 slice.
// Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum adds up values.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Variance computes the population variance of a float64 slice.
// Returns 0 for empty input.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// StdDev computes the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Ratio divides two counts, returning 0 when den is 0.
func Ratio(num, den int) float64 {
	return SafeDivide(float64(num), float64(den))
}

// SafeDivide returns num/den, or 0 when den is 0.
func SafeDivide(num, den float64) float64 {
	if den == 0 {
		return 0.0
	}
	return num / den
}

// Round4 rounds to four decimal places for reporting.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
