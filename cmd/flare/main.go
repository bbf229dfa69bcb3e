package main

import (
	"log"

	"github.com/MrSnakeDoc/flare/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ flare failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ flare stopped with error: %v", err)
	}
}
