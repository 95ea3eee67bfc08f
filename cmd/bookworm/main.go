package main

import (
	"os"

	"github.com/bookworm-app/bookworm/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	cli.Execute()
}
