package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNutritionValue(t *testing.T) {
	cases := map[string]float64{
		"25.9g":   25.9,
		"1,200mg": 1200,
		"0":       0,
		"":        0,
		"n/a":     0,
		"1.2.3":   0,
		" 310 ":   310,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNutritionValue(in), in)
	}
}

func TestNormalizeMealType(t *testing.T) {
	mt, ok := NormalizeMealType("breakfast menu")
	assert.True(t, ok)
	assert.Equal(t, "Breakfast", mt)

	mt, ok = NormalizeMealType(" DINNER ")
	assert.True(t, ok)
	assert.Equal(t, "Dinner", mt)

	_, ok = NormalizeMealType("Late Night")
	assert.False(t, ok)
}

func TestNormalizeSex(t *testing.T) {
	for in, want := range map[string]string{"m": "Male", "Female": "Female", "O": "Other"} {
		got, ok := NormalizeSex(in)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := NormalizeSex("x")
	assert.False(t, ok)
}
