package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"nutrition-planner/internal/carbon"
	"nutrition-planner/internal/chat"
	"nutrition-planner/internal/clipper"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/database"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/telegram"
	"nutrition-planner/internal/user"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	workflowChat := llm.NewGroqClient(cfg, 0.3)
	jsonChat := llm.NewGroqClient(cfg, 0.2)
	liveChat := llm.NewGroqClient(cfg, 0.7)

	users := user.NewRepository(db.SQL)
	plans := user.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	tokens, err := user.NewTokenIssuer(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("Failed to initialize session tokens: %v", err)
	}

	mealPlanner := planner.NewPlanner(workflowChat, cfg.CalorieTolerance, cfg.MaxCalorieCorrections)
	classifier := planner.NewClassifier(jsonChat)
	recipeClipper := clipper.NewClipper(jsonChat)
	analyst := carbon.NewAnalyst(workflowChat)

	router := chat.NewRouter(mealPlanner, classifier, liveChat, plans, metricsStore, recipeClipper)

	bot, err := telegram.NewBot(cfg, router, users, tokens, geminiClient, analyst, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize telegram bot: %v", err)
	}

	logger.Info("bot started")
	bot.Run(ctx)
	logger.Info("bot stopped")
}
