package main

import (
	"context"
	"log"

	"notesync/internal/bootstrap"
	"notesync/internal/config"
	"notesync/internal/server"
	"notesync/internal/tracer"
	"notesync/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Background: fold remote change events into the local feed.
	if container.BridgeService != nil {
		if err := container.BridgeService.Start(); err != nil {
			log.Printf("Background Bridge Error: %v", err)
		}
	}

	// Background: drain the feed into the websocket hub.
	go func() {
		if err := container.Notifier.Run(context.Background()); err != nil {
			log.Printf("Background Notifier Error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
