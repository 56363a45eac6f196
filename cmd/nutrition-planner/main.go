package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"nutrition-planner/internal/chat"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/database"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/nutrition"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/user"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "register":
		runRegister(ctx, db, os.Args[2:])
	case "plan":
		runPlan(ctx, cfg, db, os.Args[2:])
	case "metrics":
		runMetrics(db, os.Args[2:])
	case "metrics-cleanup":
		runMetricsCleanup(db, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func runRegister(ctx context.Context, db *database.DB, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Email address (login key)")
	username := fs.String("username", "", "Display name")
	password := fs.String("password", "", "Password")
	age := fs.Int("age", 25, "Age in years")
	gender := fs.String("gender", "Male", "Male, Female or Other")
	height := fs.Float64("height", 170, "Height in cm")
	weight := fs.Float64("weight", 70, "Current weight in kg")
	goalWeight := fs.Float64("goal-weight", 70, "Goal weight in kg")
	activity := fs.String("activity", "Sedentary", "Sedentary, Active or Very Active")
	meals := fs.Int("meals", 3, "Meals per day")
	diet := fs.String("diet", "Vegetarian", "Vegetarian, Non-Vegetarian or Vegan")
	sleep := fs.Float64("sleep", 7, "Sleep hours")
	allergies := fs.String("allergies", "None", "Allergy notes")
	cuisine := fs.String("cuisine", "North Indian", "Cuisine preference")
	fs.Parse(args)

	if !user.ValidEmail(*email) {
		log.Fatalf("Invalid email address: %q", *email)
	}
	if len(*password) < user.MinPasswordLength {
		log.Fatalf("Password must be at least %d characters", user.MinPasswordLength)
	}

	profile := user.Profile{
		Email:       *email,
		Username:    *username,
		Age:         *age,
		Gender:      nutrition.Gender(*gender),
		HeightCm:    *height,
		WeightKg:    *weight,
		GoalWeight:  *goalWeight,
		Activity:    nutrition.ActivityLevel(*activity),
		MealsPerDay: *meals,
		DietType:    nutrition.DietType(*diet),
		SleepHours:  *sleep,
		Allergies:   *allergies,
		Cuisine:     *cuisine,
	}

	created, err := user.NewRepository(db.SQL).Create(ctx, profile, *password)
	if err != nil {
		log.Fatalf("Failed to create account: %v", err)
	}
	if !created {
		log.Fatalf("An account with email %q already exists", *email)
	}
	fmt.Printf("Account created for %s\n", *email)
}

func runPlan(ctx context.Context, cfg *config.Config, db *database.DB, args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	days := fs.Int("days", 3, "Plan duration in days (1-7)")
	meals := fs.Int("meals", 0, "Meals per day (0 = profile default)")
	feedback := fs.String("feedback", "", "Free-text feedback to steer the plan")
	previousCost := fs.Float64("previous-cost", 0, "Cost of the previous plan, for relative adjustments")
	fs.Parse(args)

	profile, err := user.NewRepository(db.SQL).GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}
	if profile == nil {
		log.Fatalf("No account found for %q", *email)
	}

	mealsPerDay := profile.MealsPerDay
	if *meals > 0 {
		mealsPerDay = *meals
	}
	var prev *float64
	if *previousCost > 0 {
		prev = previousCost
	}

	duration := chat.ClampDuration(*days)
	if duration != *days {
		fmt.Printf("Plan duration adjusted to %d days (supported range is 1-7)\n", duration)
	}

	mealPlanner := planner.NewPlanner(llm.NewGroqClient(cfg, 0.3), cfg.CalorieTolerance, cfg.MaxCalorieCorrections)
	result, metas, err := mealPlanner.Run(ctx, planner.Request{
		Profile:      *profile,
		Goal:         nutrition.ObjectiveFor(profile.WeightKg, profile.GoalWeight),
		DurationDays: duration,
		MealsPerDay:  mealsPerDay,
		Feedback:     *feedback,
		PreviousCost: prev,
	})

	store := metrics.NewStore(db.SQL)
	for _, m := range metas {
		if recErr := store.RecordMeta(m); recErr != nil {
			logger.Warn("failed to record metrics", "agent", m.AgentName, "error", recErr)
		}
	}
	if err != nil {
		log.Fatalf("Plan generation failed: %v", err)
	}

	fmt.Println(result.PlanText)
	fmt.Printf("\n---\nTarget: %d kcal/day, %.0fg protein/day\n", result.TargetCalories, result.ProteinGrams)
	fmt.Printf("Estimated cost: ₹%s\n", result.Cost)
	if result.CorrectionRounds > 0 {
		fmt.Printf("Calorie corrections applied: %d\n", result.CorrectionRounds)
	}
}

func runMetrics(db *database.DB, args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	days := fs.Int("days", 7, "Days of usage to report")
	fs.Parse(args)

	usage, err := metrics.NewStore(db.SQL).GetDailyUsage(*days)
	if err != nil {
		log.Fatalf("Failed to fetch metrics: %v", err)
	}
	if len(usage) == 0 {
		fmt.Println("No usage recorded yet.")
		return
	}
	for _, d := range usage {
		fmt.Printf("%s  prompt=%d completion=%d execs=%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
}

func runMetricsCleanup(db *database.DB, args []string) {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	deleted, err := metrics.NewStore(db.SQL).Cleanup(*days)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Deleted %d metric rows older than %d days\n", deleted, *days)
}

func printUsage() {
	usage := []string{
		"Usage: nutrition-planner <command> [flags]",
		"",
		"Commands:",
		"  register          Create a user account",
		"  plan              Generate a meal plan for a user",
		"  metrics           Show recent token usage",
		"  metrics-cleanup   Delete old metric rows",
	}
	fmt.Fprintln(os.Stderr, strings.Join(usage, "\n"))
}
