package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/weather-charts/internal/api/http"
	"github.com/i474232898/weather-charts/internal/chart"
	"github.com/i474232898/weather-charts/internal/config"
	"github.com/i474232898/weather-charts/internal/logger"
	"github.com/i474232898/weather-charts/internal/runner"
	"github.com/i474232898/weather-charts/internal/scheduler"
	"github.com/i474232898/weather-charts/internal/store"
	"github.com/i474232898/weather-charts/internal/weather"
	"github.com/i474232898/weather-charts/internal/weather/providers"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Close()
	log := logger.GetLogger()

	once := flag.Bool("once", false, "render every chart once and exit")
	serve := flag.Bool("serve", false, "re-render charts periodically and serve them over HTTP")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Errorw("failed to load config", "error", err)
		return 1
	}
	switch {
	case *once:
		cfg.Mode = config.ModeOnce
	case *serve:
		cfg.Mode = config.ModeServe
	}
	if err := cfg.Validate(); err != nil {
		log.Errorw("invalid configuration", "error", err)
		return 1
	}

	log.Infow("Configuration loaded",
		"mode", cfg.Mode,
		"locations", len(cfg.Locations),
		"threads", cfg.ThreadCount,
		"outputPath", cfg.OutputPath,
		"apiKey", logger.MaskSensitiveString(cfg.OpenWeatherAPIKey, 3, 2))

	// Shared HTTP client and rate limiter for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithLimiter(limiter),
	)

	var geocoder weather.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	service := weather.NewService(provider, geocoder)
	renderer := chart.NewRenderer(cfg.OutputPath)
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory)
	chartRunner := runner.New(service, renderer, cfg.ThreadCount, memStore, memStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Mode == config.ModeOnce {
		report := chartRunner.Run(ctx, cfg.Locations)
		if len(report.Failed()) > 0 {
			return 1
		}
		return 0
	}

	return serveForever(ctx, cfg, chartRunner, memStore)
}

func serveForever(ctx context.Context, cfg *config.AppConfig, chartRunner *runner.Runner, memStore *store.MemoryStore) int {
	log := logger.GetLogger()

	// Scheduler that periodically re-renders every chart.
	sched := scheduler.New(ctx, cfg.Locations, cfg.FetchInterval, chartRunner)
	if err := sched.Start(); err != nil {
		log.Errorw("failed to start scheduler", "error", err)
		return 1
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-charts",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-charts",
		})
	})

	httpapi.RegisterRoutes(app, memStore)

	go func() {
		log.Infow("HTTP server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
	return 0
}
