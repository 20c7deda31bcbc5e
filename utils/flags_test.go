package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(flags []NutritionFlag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.Code)
	}
	return out
}

func TestFlagServing(t *testing.T) {
	cases := []struct {
		name string
		n    ServingNutrients
		want []string
	}{
		{
			name: "Bacon Cheeseburger",
			n:    ServingNutrients{Calories: 900, Protein: 45, Carbs: 40, Fat: 55, Sodium: 1500, Fiber: 2, Sugar: 8},
			want: []string{"sodium_very_high", "calories_large_share", "fiber_low", "sat_fat_source"},
		},
		{
			name: "Grilled Chicken Breast",
			n:    ServingNutrients{Calories: 200, Protein: 35, Fat: 5, Sodium: 300},
			want: []string{"protein_dense"},
		},
		{
			name: "Steel Cut Oatmeal",
			n:    ServingNutrients{Calories: 150, Protein: 5, Carbs: 27, Fat: 3, Fiber: 4, Sugar: 1},
			want: []string{"fiber_good", "whole_grain"},
		},
		{
			name: "Chocolate Milk",
			n:    ServingNutrients{Calories: 200, Protein: 8, Carbs: 30, Fat: 5, Sodium: 200, Sugar: 25},
			want: []string{"sugars_high", "fiber_low"},
		},
		{
			name: "Chicken Noodle Soup",
			n:    ServingNutrients{Calories: 120, Protein: 6, Carbs: 10, Fat: 3, Sodium: 600},
			want: []string{"sodium_high"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, codes(FlagServing(tc.name, tc.n, 2000)))
		})
	}
}

func TestFlagServingEmpty(t *testing.T) {
	flags := FlagServing("Water", ServingNutrients{}, 0)
	assert.NotNil(t, flags)
	assert.Empty(t, flags)
}

func TestFlagServingCalorieTarget(t *testing.T) {
	n := ServingNutrients{Calories: 700, Protein: 10, Fat: 30}
	assert.Empty(t, codes(FlagServing("Pasta Bake", n, 2000)))
	assert.Equal(t, []string{"calories_large_share"}, codes(FlagServing("Pasta Bake", n, 1500)))
}
