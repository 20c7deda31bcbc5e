package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMetrics(t *testing.T) {
	bmr, tdee := CalculateMetrics(70, 175, 20, "M", 3)
	assert.Equal(t, 1698.75, bmr)
	assert.Equal(t, 2633.06, tdee)

	bmr, tdee = CalculateMetrics(70, 175, 20, "Female", 1)
	assert.Equal(t, 1532.75, bmr)
	assert.Equal(t, 1839.3, tdee)
}

func TestActivityMultiplierOutOfRange(t *testing.T) {
	assert.Equal(t, 1.2, ActivityMultiplier(0))
	assert.Equal(t, 1.2, ActivityMultiplier(9))
	assert.Equal(t, 1.9, ActivityMultiplier(5))
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 177.8, InchesToCm(70), 1e-9)
	assert.InDelta(t, 70, CmToInches(177.8), 1e-9)
	assert.InDelta(t, 68.04, LbsToKg(150), 0.01)
	assert.InDelta(t, 150, KgToLbs(LbsToKg(150)), 1e-9)
}

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(175, 70)
	require.NoError(t, err)
	assert.Equal(t, 22.86, bmi)
	assert.Equal(t, "Normal weight", BMICategory(bmi))

	_, err = CalculateBMI(0, 70)
	assert.Error(t, err)

	assert.Equal(t, "Underweight", BMICategory(17))
	assert.Equal(t, "Overweight", BMICategory(27.5))
	assert.Equal(t, "Obese", BMICategory(30))
}
