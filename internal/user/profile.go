package user

import "nutrition-planner/internal/nutrition"

// Profile is the per-user biometric and preference snapshot. The planning
// workflow only reads it; mutations go through the repository.
type Profile struct {
	Email       string
	Username    string
	Age         int
	Gender      nutrition.Gender
	HeightCm    float64
	WeightKg    float64
	GoalWeight  float64
	Activity    nutrition.ActivityLevel
	MealsPerDay int
	DietType    nutrition.DietType
	SleepHours  float64
	Allergies   string
	Cuisine     string
}
