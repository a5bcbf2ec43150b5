package preprocessing_test

import (
	"fmt"

	"github.com/ezoic/nutritrack/preprocessing"
)

// ExampleNewOneHotEncoderWithCategories shows a fixed column order that does
// not depend on which values happen to be present in the data.
func ExampleNewOneHotEncoderWithCategories() {
	encoder, err := preprocessing.NewOneHotEncoderWithCategories([][]string{
		{"heavy", "light", "moderate", "sedentary"},
	})
	if err != nil {
		return
	}

	row, err := encoder.Transform([][]string{{"moderate"}})
	if err != nil {
		return
	}

	fmt.Println(encoder.GetFeatureNamesOut([]string{"activity"}))
	fmt.Println(row.RawRowView(0))

	// Output: [activity_heavy activity_light activity_moderate activity_sedentary]
	// [0 0 1 0]
}

// ExampleOneHotEncoder_InverseTransform recovers the category of an
// indicator row.
func ExampleOneHotEncoder_InverseTransform() {
	encoder, err := preprocessing.NewOneHotEncoderWithCategories([][]string{
		{"heavy", "light", "moderate", "sedentary"},
	})
	if err != nil {
		return
	}

	encoded, err := encoder.Transform([][]string{{"sedentary"}})
	if err != nil {
		return
	}
	decoded, err := encoder.InverseTransform(encoded)
	if err != nil {
		return
	}
	fmt.Println(decoded[0][0])

	// Output: sedentary
}
