package utils

import (
	"strconv"
	"strings"
)

// MealTypes in serving order.
var MealTypes = []string{"Breakfast", "Lunch", "Dinner"}

// ParseNutritionValue keeps digits and dots ("25.9g" -> 25.9, "1,200mg" -> 1200).
// Anything unparseable is 0.
func ParseNutritionValue(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeMealType maps scraped headings like "breakfast menu" onto Breakfast/Lunch/Dinner.
func NormalizeMealType(raw string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(raw))
	for _, mt := range MealTypes {
		if strings.Contains(low, strings.ToLower(mt)) {
			return mt, true
		}
	}
	return "", false
}

// NormalizeSex returns Male, Female or Other.
func NormalizeSex(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MALE":
		return "Male", true
	case "F", "FEMALE":
		return "Female", true
	case "O", "OTHER":
		return "Other", true
	}
	return "", false
}
