package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureSummary describes one numeric column of the table.
type FeatureSummary struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summary returns descriptive statistics for the numeric columns.
// StdDev is the sample (n-1) standard deviation.
func Summary() []FeatureSummary {
	cols := []struct {
		name, unit string
		get        func(Sample) int
	}{
		{"Kalori", "kcal", func(s Sample) int { return s.Calories }},
		{"Protein", "gr", func(s Sample) int { return s.Protein }},
		{"Tidur", "jam", func(s Sample) int { return s.Sleep }},
	}

	out := make([]FeatureSummary, 0, len(cols))
	for _, c := range cols {
		x := make([]float64, len(samples))
		for i, s := range samples {
			x[i] = float64(c.get(s))
		}
		mean, std := stat.MeanStdDev(x, nil)
		out = append(out, FeatureSummary{
			Name:   c.name,
			Unit:   c.unit,
			Min:    floats.Min(x),
			Max:    floats.Max(x),
			Mean:   mean,
			StdDev: std,
		})
	}
	return out
}

// StatusCounts returns how many samples carry each status.
func StatusCounts() map[Status]int {
	counts := make(map[Status]int, len(statusLabels))
	for _, s := range samples {
		counts[s.Status]++
	}
	return counts
}
