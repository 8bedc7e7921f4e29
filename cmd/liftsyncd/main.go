package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/liftsync/internal/app"
	"github.com/dmitrijs2005/liftsync/internal/buildinfo"
	"github.com/dmitrijs2005/liftsync/internal/config"
	"github.com/dmitrijs2005/liftsync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, MaxSizeMB: 50, MaxBackups: 3})

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
