package nutrition

import "testing"

func TestEnergyTarget(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		height   float64
		age      int
		gender   Gender
		activity ActivityLevel
		want     int
	}{
		// BMR = 10*70 + 6.25*175 - 5*25 + 5 = 1736.25, * 1.2 = 2083.5 -> 2083
		{"MaleSedentary", 70, 175, 25, GenderMale, ActivitySedentary, 2083},
		// BMR = 10*60 + 6.25*160 - 5*30 - 161 = 1289, * 1.55 = 1997.95 -> 1997
		{"FemaleActive", 60, 160, 30, GenderFemale, ActivityActive, 1997},
		// BMR = 10*80 + 6.25*180 - 5*40 + 5 = 1730, * 1.9 = 3287
		{"MaleVeryActive", 80, 180, 40, GenderMale, ActivityVeryActive, 3287},
		// Unknown activity falls back to sedentary multiplier.
		{"UnknownActivity", 70, 175, 25, GenderMale, ActivityLevel("Couch"), 2083},
		// Non-male genders use the -161 constant.
		{"OtherGender", 70, 175, 25, GenderOther, ActivitySedentary, 1884},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnergyTarget(tt.weight, tt.height, tt.age, tt.gender, tt.activity)
			if got != tt.want {
				t.Errorf("EnergyTarget() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProteinTarget(t *testing.T) {
	if got := ProteinTarget(70); got != 140 {
		t.Errorf("ProteinTarget(70) = %v, want 140", got)
	}
}

func TestAdjustForGoal(t *testing.T) {
	if got := AdjustForGoal(2000, "Muscle Gain"); got != 2300 {
		t.Errorf("Gain adjustment = %d, want 2300", got)
	}
	if got := AdjustForGoal(2000, "Weight Loss"); got != 1600 {
		t.Errorf("Loss adjustment = %d, want 1600", got)
	}
	if got := AdjustForGoal(2000, "General Health"); got != 2000 {
		t.Errorf("Neutral adjustment = %d, want 2000", got)
	}
}

func TestObjectiveFor(t *testing.T) {
	if got := ObjectiveFor(80, 70); got != "Weight Loss" {
		t.Errorf("ObjectiveFor(80, 70) = %q, want Weight Loss", got)
	}
	if got := ObjectiveFor(60, 70); got != "Muscle Gain" {
		t.Errorf("ObjectiveFor(60, 70) = %q, want Muscle Gain", got)
	}
}
