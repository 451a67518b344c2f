package main

import (
	"context"
	"log"
	"os"

	"github.com/techconhub/messaging/internal/buildinfo"
	"github.com/techconhub/messaging/internal/server"
	"github.com/techconhub/messaging/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
