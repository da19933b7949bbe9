package main

import (
	"github.com/joho/godotenv"

	"docrag/internal/cli"
)

func main() {
	_ = godotenv.Load()

	cli.Execute()
}
