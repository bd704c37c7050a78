package main

import (
	"context"
	"log"

	"wise-student-be/internal/bootstrap"
	"wise-student-be/internal/config"
	"wise-student-be/internal/server"
	"wise-student-be/internal/tracer"
	"wise-student-be/pkg/database"
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

	// Event dispatcher runs for the life of the process.
	if err := container.DispatcherService.Start(context.Background()); err != nil {
		log.Printf("Background dispatcher error: %v", err)
	}

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
