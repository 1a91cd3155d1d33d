package main

import (
	"github.com/joho/godotenv"

	"github.com/splitsmart/backend/internal/cli"
	"github.com/splitsmart/backend/pkg/logging"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()
	logging.Setup()

	cli.Execute()
}
