package main

import (
	"log"

	appfx "github.com/amityadav/trendfinder/internal/fx"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := fx.New(
		appfx.ConfigModule,   // Provides: config.Config
		appfx.LoggerModule,   // Provides: *zap.Logger
		appfx.AIModule,       // Provides: ai.Generator (gemini, groq or cerebras)
		appfx.DispatchModule, // Provides: *dispatch.Dispatcher
		appfx.WorkerModule,   // Provides: *worker.Refresher (optional)
		appfx.ServiceModule,  // Provides: *service.InsightsService
		appfx.ServerModule,   // Starts gRPC + HTTP servers, registers services

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
	)

	// Run blocks until the app receives a shutdown signal
	app.Run()
}
