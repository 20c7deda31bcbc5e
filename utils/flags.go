package utils

import (
	"fmt"
	"strings"
)

type FlagSeverity string

const (
	FlagInfo    FlagSeverity = "info"
	FlagCaution FlagSeverity = "caution"
	FlagHigh    FlagSeverity = "high"
)

// NutritionFlag is one finding about a single serving of a catalog item.
type NutritionFlag struct {
	Code     string       `json:"code"`
	Severity FlagSeverity `json:"severity"`
	Message  string       `json:"message"`
	Value    float64      `json:"value,omitempty"`
}

// ServingNutrients is what the dining hall publishes per serving.
type ServingNutrients struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Sodium   float64 // mg
	Fiber    float64
	Sugar    float64
}

const sodiumDailyLimitMg = 2300

// FlagServing applies Dietary Guidelines style screens to one serving.
// Only values that are present produce findings. calorieTarget <= 0 means 2000.
func FlagServing(name string, n ServingNutrients, calorieTarget float64) []NutritionFlag {
	flags := []NutritionFlag{}
	if calorieTarget <= 0 {
		calorieTarget = 2000
	}
	kcal := n.Calories
	if kcal <= 0 {
		kcal = 4*n.Carbs + 4*n.Protein + 9*n.Fat
	}

	// Sodium against the daily limit.
	if n.Sodium > 0 {
		share := n.Sodium / sodiumDailyLimitMg
		switch {
		case share >= 0.40:
			flags = append(flags, NutritionFlag{Code: "sodium_very_high", Severity: FlagHigh,
				Message: fmt.Sprintf("Very high sodium for one serving (about %.0f%% of the daily limit).", share*100),
				Value:   Round2(share * 100)})
		case share >= 0.20:
			flags = append(flags, NutritionFlag{Code: "sodium_high", Severity: FlagCaution,
				Message: fmt.Sprintf("High sodium for one serving (about %.0f%% of the daily limit).", share*100),
				Value:   Round2(share * 100)})
		}
	}

	// Sugars as a share of the item's own calories; total sugar stands in for added.
	if kcal > 0 && n.Sugar > 0 {
		if p := n.Sugar * 4 / kcal; p >= 0.25 {
			flags = append(flags, NutritionFlag{Code: "sugars_high", Severity: FlagCaution,
				Message: fmt.Sprintf("Sugars supply %.0f%% of this item's calories.", p*100),
				Value:   Round2(p * 100)})
		}
	}

	// Share of the day's calories in one serving.
	if n.Calories > 0 {
		if p := n.Calories / calorieTarget; p >= 0.40 {
			flags = append(flags, NutritionFlag{Code: "calories_large_share", Severity: FlagInfo,
				Message: fmt.Sprintf("One serving is %.0f%% of a %.0f calorie day.", p*100, calorieTarget),
				Value:   Round2(p * 100)})
		}
	}

	// Protein density per 100 kcal.
	if kcal >= 100 && n.Protein > 0 {
		if d := n.Protein / kcal * 100; d >= 6 {
			flags = append(flags, NutritionFlag{Code: "protein_dense", Severity: FlagInfo,
				Message: "Good source of protein for its calories.", Value: Round2(d)})
		}
	}

	// Fiber density for carbohydrate foods.
	if kcal > 0 && n.Carbs >= 15 {
		d := n.Fiber / kcal * 100
		switch {
		case d < 1:
			flags = append(flags, NutritionFlag{Code: "fiber_low", Severity: FlagInfo,
				Message: "Low fiber for a carbohydrate food.", Value: Round2(d)})
		case d >= 2.5:
			flags = append(flags, NutritionFlag{Code: "fiber_good", Severity: FlagInfo,
				Message: "Good fiber density.", Value: Round2(d)})
		}
	}

	lower := strings.ToLower(name)
	if containsAny(lower, "whole wheat", "whole grain", "whole-grain", "brown rice", "oat", "quinoa") {
		flags = append(flags, NutritionFlag{Code: "whole_grain", Severity: FlagInfo,
			Message: "Whole-grain choice."})
	}
	if n.Fat > 0 && containsAny(lower, "bacon", "sausage", "butter", "cream", "cheese") {
		flags = append(flags, NutritionFlag{Code: "sat_fat_source", Severity: FlagInfo,
			Message: "Likely high in saturated fat."})
	}
	return flags
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
