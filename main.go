package main

import (
	"log"

	"revvo-sap-connector/app"
	"revvo-sap-connector/config"
)

func main() {
	cfg := config.LoadFromEnv()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ startup failed: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("❌ server error: %v", err)
	}
}
