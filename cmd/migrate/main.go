package main

import (
	"log"

	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/database"
	"github.com/spf13/pflag"
)

// migrate creates or updates the schema without starting the server.
func main() {
	configPath := pflag.String("config", "config.yaml", "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("🚒 failed to load config: %v", err)
	}

	if _, err := database.InitDB(cfg.Database); err != nil {
		log.Fatalf("🚒 failed to initialize database: %v", err)
	}
	log.Printf("✅ schema is up to date (%s)", cfg.Database.Driver)
}
