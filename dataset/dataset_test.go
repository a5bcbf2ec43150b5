package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/pkg/errors"
)

func TestLoad_FixedTable(t *testing.T) {
	rows := dataset.Load()
	require.Len(t, rows, 20)
	assert.Equal(t, 20, dataset.Len())

	assert.Equal(t, dataset.Sample{Calories: 2200, Protein: 70, Activity: dataset.Moderate, Sleep: 7, Status: dataset.Normal}, rows[0])
	assert.Equal(t, dataset.Sample{Calories: 2650, Protein: 82, Activity: dataset.Heavy, Sleep: 5, Status: dataset.Normal}, rows[19])
}

func TestLoad_ReturnsCopy(t *testing.T) {
	rows := dataset.Load()
	rows[0].Calories = 9999
	rows[0].Status = dataset.Excess

	fresh := dataset.Load()
	assert.Equal(t, 2200, fresh[0].Calories)
	assert.Equal(t, dataset.Normal, fresh[0].Status)
}

func TestLoad_Deterministic(t *testing.T) {
	assert.Equal(t, dataset.Load(), dataset.Load())
}

func TestStatusCounts(t *testing.T) {
	counts := dataset.StatusCounts()
	assert.Equal(t, 7, counts[dataset.Lacking])
	assert.Equal(t, 4, counts[dataset.Excess])
	assert.Equal(t, 9, counts[dataset.Normal])
	assert.Len(t, dataset.Labels(), 20)
}

func TestParseActivity(t *testing.T) {
	tests := []struct {
		in      string
		want    dataset.Activity
		wantErr bool
	}{
		{"Sedentary", dataset.Sedentary, false},
		{"Ringan", dataset.Light, false},
		{"Sedang", dataset.Moderate, false},
		{"Berat", dataset.Heavy, false},
		{"light", dataset.Light, false},
		{"heavy", dataset.Heavy, false},
		{"sedang", 0, true},
		{"Extreme", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := dataset.ParseActivity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrUnknownActivity))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActivity_TextRoundTrip(t *testing.T) {
	for _, a := range dataset.Activities() {
		text, err := a.MarshalText()
		require.NoError(t, err)

		var back dataset.Activity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, a, back)
	}

	_, err := dataset.Activity(42).MarshalText()
	assert.Error(t, err)
}

func TestStatus_ClassOrderMatchesSortedLabels(t *testing.T) {
	statuses := dataset.Statuses()
	for i := 1; i < len(statuses); i++ {
		assert.Less(t, statuses[i-1].String(), statuses[i].String())
	}

	s, err := dataset.ParseStatus("Lebih")
	require.NoError(t, err)
	assert.Equal(t, dataset.Excess, s)

	_, err = dataset.ParseStatus("Obese")
	assert.True(t, errors.Is(err, errors.ErrUnknownStatus))
}

func TestSummary(t *testing.T) {
	summary := dataset.Summary()
	require.Len(t, summary, 3)

	cal := summary[0]
	assert.Equal(t, "Kalori", cal.Name)
	assert.Equal(t, 1500.0, cal.Min)
	assert.Equal(t, 3100.0, cal.Max)
	assert.InDelta(t, 2230.0, cal.Mean, 1e-9)
	assert.InDelta(t, 485.68996, cal.StdDev, 1e-4)

	assert.InDelta(t, 6.15, summary[2].Mean, 1e-9)
}
