package nutrition

import "strings"

// ActivityLevel describes how physically active a user is.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "Sedentary"
	ActivityActive     ActivityLevel = "Active"
	ActivityVeryActive ActivityLevel = "Very Active"
)

// DietType describes the user's dietary category.
type DietType string

const (
	DietVegetarian    DietType = "Vegetarian"
	DietNonVegetarian DietType = "Non-Vegetarian"
	DietVegan         DietType = "Vegan"
)

// Gender is used for the BMR formula's constant term.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityActive:     1.55,
	ActivityVeryActive: 1.9,
}

// EnergyTarget computes the daily calorie requirement (TDEE) from biometrics
// using the Mifflin-St Jeor equation scaled by an activity multiplier.
// Unknown activity levels fall back to the sedentary multiplier.
func EnergyTarget(weightKg, heightCm float64, age int, gender Gender, activity ActivityLevel) int {
	var bmr float64
	if gender == GenderMale {
		bmr = (10 * weightKg) + (6.25 * heightCm) - (5 * float64(age)) + 5
	} else {
		bmr = (10 * weightKg) + (6.25 * heightCm) - (5 * float64(age)) - 161
	}

	multiplier, ok := activityMultipliers[activity]
	if !ok {
		multiplier = 1.2
	}
	return int(bmr * multiplier)
}

// ProteinTarget returns the daily protein requirement in grams.
func ProteinTarget(weightKg float64) float64 {
	return weightKg * 2
}

// AdjustForGoal shifts the energy target by the surplus or deficit the
// objective implies: +300 kcal for gain objectives, -400 kcal for loss.
func AdjustForGoal(tdee int, goal string) int {
	switch {
	case strings.Contains(goal, "Gain"):
		return tdee + 300
	case strings.Contains(goal, "Loss"):
		return tdee - 400
	default:
		return tdee
	}
}

// ObjectiveFor derives the objective from current versus goal weight.
func ObjectiveFor(currentWeight, goalWeight float64) string {
	if currentWeight > goalWeight {
		return "Weight Loss"
	}
	return "Muscle Gain"
}
