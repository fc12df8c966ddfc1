package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locafix/core/loader"
	"locafix/core/logger"
	"locafix/core/middleware/auth"
	"locafix/core/middleware/rayid"
	"locafix/feature/runs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "locafix/docs/swagger"
)

// @title locafix API
// @version 1.0
// @description API for reconciling localization catalogs and converting resources.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the HTTP server exposing reconcile and conversion runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Configuration, logger, journal and archive
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()
		logg := a.logger
		zap.ReplaceGlobals(logg)

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 3. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(runs.NewFeature(a.service))

		// RayID first so every log line can be traced
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger stays public
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))
		if a.cfg.Server.ApiKey == "" {
			logg.Warn("SERVER_API_KEY is empty, the API is unprotected")
		}

		// 4. Load Features
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 5. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(a.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 6. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout())

		stopped := make(chan struct{})
		go func() {
			a.service.Shutdown()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(a.cfg.Server.ShutdownTimeout()):
			logg.Warn("Runs still active after shutdown timeout")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
