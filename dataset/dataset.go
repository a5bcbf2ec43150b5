// Package dataset holds the fixed student lifestyle table the nutrition
// status model is trained on.
//
// The table has 20 synthetic samples. It is built once when the package is
// initialized and never changes; Load hands out copies.
package dataset

// Sample is one student's daily lifestyle metrics and nutrition status.
type Sample struct {
	Calories int      // daily calorie intake, kcal
	Protein  int      // daily protein intake, grams
	Activity Activity // physical activity level
	Sleep    int      // sleep duration, hours
	Status   Status   // nutrition status label
}

var samples = [...]Sample{
	{2200, 70, Moderate, 7, Normal},
	{1800, 50, Light, 6, Lacking},
	{2500, 80, Heavy, 5, Normal},
	{3000, 90, Moderate, 8, Excess},
	{1500, 40, Sedentary, 4, Lacking},
	{2100, 65, Moderate, 7, Normal},
	{2300, 75, Heavy, 6, Normal},
	{1900, 55, Light, 6, Lacking},
	{2600, 85, Heavy, 5, Normal},
	{2800, 95, Moderate, 8, Excess},
	{1700, 45, Light, 5, Lacking},
	{2400, 78, Heavy, 7, Normal},
	{1600, 38, Sedentary, 4, Lacking},
	{2750, 88, Moderate, 8, Excess},
	{1950, 52, Light, 6, Lacking},
	{3100, 100, Heavy, 9, Excess},
	{1550, 42, Sedentary, 4, Lacking},
	{2000, 60, Moderate, 7, Normal},
	{2200, 68, Moderate, 6, Normal},
	{2650, 82, Heavy, 5, Normal},
}

// Load returns a copy of the full table in its original row order.
func Load() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples[:])
	return out
}

// Len returns the number of samples in the table.
func Len() int { return len(samples) }

// Labels returns the status column in row order.
func Labels() []Status {
	out := make([]Status, len(samples))
	for i, s := range samples {
		out[i] = s.Status
	}
	return out
}
