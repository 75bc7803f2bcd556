package main

import (
	"context"
	"log"

	"github.com/verdantlabs/gardensync/internal/agent/cli"
	"github.com/verdantlabs/gardensync/internal/agent/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
