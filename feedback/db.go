package feedback

import "math"

// LinearToDB converts a linear power ratio to decibels. It is a presentation
// transform only; all comparisons are done on linear ratios.
func LinearToDB(ratio float64) float64 {
	return 10 * math.Log10(ratio)
}

// DBToLinear converts decibels to a linear power ratio.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/10)
}
