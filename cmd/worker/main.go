package main

import (
	"context"
	"log"
	"os"

	"github.com/castcall/platform/services/trust-engine/internal/app/bootstrap"
)

func main() {
	configPath := os.Getenv("TRUST_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/default.yaml"
	}
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath)
	if err != nil {
		log.Fatalf("bootstrap trust worker: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run trust worker: %v", err)
	}
}
