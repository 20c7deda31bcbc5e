package utils

import (
	"errors"
	"math"
	"strings"
)

const (
	cmPerInch = 2.54
	lbsPerKg  = 2.20462
)

// Mifflin-St Jeor activity multipliers, keyed by activity level 1..5.
var activityMultipliers = map[int]float64{
	1: 1.2,   // sedentary
	2: 1.375, // light
	3: 1.55,  // moderate
	4: 1.725, // very active
	5: 1.9,   // extra active
}

func InchesToCm(in float64) float64 { return in * cmPerInch }
func CmToInches(cm float64) float64 { return cm / cmPerInch }
func LbsToKg(lbs float64) float64   { return lbs / lbsPerKg }
func KgToLbs(kg float64) float64    { return kg * lbsPerKg }

// IsMale accepts "M" and "Male" in any case.
func IsMale(sex string) bool {
	switch strings.ToUpper(strings.TrimSpace(sex)) {
	case "M", "MALE":
		return true
	}
	return false
}

// CalculateBMR expects kilograms and centimeters. Anything not male takes the -161 branch.
func CalculateBMR(weightKg, heightCm float64, age int, sex string) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if IsMale(sex) {
		bmr += 5
	} else {
		bmr -= 161
	}
	return Round2(bmr)
}

func ActivityMultiplier(level int) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[1]
}

func CalculateTDEE(bmr float64, activityLevel int) float64 {
	return Round2(bmr * ActivityMultiplier(activityLevel))
}

// CalculateMetrics returns bmr and tdee together; tdee is derived from the rounded bmr.
func CalculateMetrics(weightKg, heightCm float64, age int, sex string, activityLevel int) (float64, float64) {
	bmr := CalculateBMR(weightKg, heightCm, age, sex)
	return bmr, CalculateTDEE(bmr, activityLevel)
}

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	h := heightCm / 100.0
	return Round2(weightKg / (h * h)), nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	default:
		return "Obese"
	}
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }
