package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"DashSync/internal/di"
	"DashSync/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("env file load failed: %v", err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s store=%s", cfg.Environment, cfg.Backend.BaseURL, cfg.Session.Store)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app init failed: %v", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		log.Printf("app stopped: %v", err)
		cleanup()
		log.Fatal("exiting with error")
	}
}
