package main

import (
	"log/slog"
	"os"

	"github.com/anhbaysgalan1/leaderboardd/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	// Create and start leaderboard server
	leaderboardServer, err := server.NewLeaderboardServer()
	if err != nil {
		slog.Error("Failed to create leaderboard server", "error", err)
		os.Exit(1)
	}

	// Start server (blocks until shutdown)
	if err := leaderboardServer.Start(); err != nil {
		slog.Error("Failed to start leaderboard server", "error", err)
		os.Exit(1)
	}
}
