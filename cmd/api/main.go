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
		log.Fatalf("bootstrap trust api: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("serve trust api: %v", err)
	}
}
