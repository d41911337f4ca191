package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-charts/internal/runner"
	"github.com/i474232898/weather-charts/internal/store"
	"github.com/i474232898/weather-charts/internal/weather"
)

var validate = validator.New()

// SnapshotReader is the read side of the memory store.
type SnapshotReader interface {
	GetLatest(loc weather.Location) (weather.SeriesSnapshot, error)
	LatestReport() (runner.Report, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, snapshots SnapshotReader) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/series", func(c *fiber.Ctx) error {
		snap, err := latestFor(c, snapshots)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"location":  snap.Location,
			"current":   snap.Current,
			"series":    snap.Series,
			"updatedAt": snap.UpdatedAt,
		})
	})

	v1.Get("/charts", func(c *fiber.Ctx) error {
		snap, err := latestFor(c, snapshots)
		if err != nil {
			return err
		}
		c.Type("png")
		return c.SendFile(snap.ChartPath)
	})

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		report, err := snapshots.LatestReport()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no chart run has finished yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load run report")
		}
		return c.JSON(fiber.Map{
			"id":         report.ID,
			"startedAt":  report.StartedAt,
			"finishedAt": report.FinishedAt,
			"failed":     len(report.Failed()),
			"results":    report.Results,
		})
	})
}

func latestFor(c *fiber.Ctx, snapshots SnapshotReader) (weather.SeriesSnapshot, error) {
	q, err := parseLocationQuery(c)
	if err != nil {
		return weather.SeriesSnapshot{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snap, err := snapshots.GetLatest(q.toLocation())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return weather.SeriesSnapshot{}, fiber.NewError(fiber.StatusNotFound, "no chart for requested location")
		}
		return weather.SeriesSnapshot{}, fiber.NewError(fiber.StatusInternalServerError, "failed to load chart data")
	}
	return snap, nil
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Region string `validate:"required"`
	City   string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		Region: l.Region,
		City:   l.City,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.Region = c.Query("region")
	q.City = c.Query("city")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}
