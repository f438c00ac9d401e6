package main

import (
	"github.com/joho/godotenv"

	"flexitime/internal/app/server"
)

func main() {
	_ = godotenv.Load()
	server.Run()
}
