package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-charts/internal/runner"
	"github.com/i474232898/weather-charts/internal/store"
	"github.com/i474232898/weather-charts/internal/weather"
)

func newTestApp(memStore *store.MemoryStore) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, memStore)
	return app
}

// TestLocationQueryValidation verifies that region and city are both required.
func TestLocationQueryValidation(t *testing.T) {
	app := newTestApp(store.NewMemoryStore(10))

	for _, target := range []string{
		"/api/v1/series",
		"/api/v1/series?region=Europe",
		"/api/v1/charts?city=Paris",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestSeriesNotFound(t *testing.T) {
	app := newTestApp(store.NewMemoryStore(10))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/series?region=Europe&city=Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSeriesAndChart(t *testing.T) {
	memStore := store.NewMemoryStore(10)
	app := newTestApp(memStore)

	chartPath := filepath.Join(t.TempDir(), "weather_Paris.png")
	pngMagic := []byte("\x89PNG\r\n\x1a\n")
	if err := os.WriteFile(chartPath, pngMagic, 0o644); err != nil {
		t.Fatalf("write chart: %v", err)
	}

	day := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	memStore.SaveSnapshot(weather.SeriesSnapshot{
		Location:  weather.Location{Region: "Europe", City: "Paris"},
		Series:    weather.Series{{Date: day, Min: 3, Max: 11}},
		Current:   weather.Reading{Time: day.Add(12 * time.Hour), Temperature: 9},
		ChartPath: chartPath,
		UpdatedAt: time.Now(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/series?region=Europe&city=Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Series  []weather.DailyAggregate `json:"series"`
		Current weather.Reading          `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Series) != 1 || body.Series[0].Max != 11 {
		t.Fatalf("unexpected series: %+v", body.Series)
	}
	if body.Current.Temperature != 9 {
		t.Fatalf("unexpected current temperature %v", body.Current.Temperature)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/charts?region=Europe&city=Paris", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != string(pngMagic) {
		t.Fatalf("unexpected chart body %q", data)
	}
}

func TestLatestRun(t *testing.T) {
	memStore := store.NewMemoryStore(10)
	app := newTestApp(memStore)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	loc := weather.Location{Region: "Europe", City: "Berlin"}
	le := &runner.LocationError{Location: loc, Stage: runner.StageFetch, Err: weather.ErrMalformedResponse}
	memStore.SaveReport(runner.Report{
		ID:      "run-1",
		Results: []runner.Result{{Location: loc, Err: le, Error: le.Error()}},
	})

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		ID     string `json:"id"`
		Failed int    `json:"failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != "run-1" || body.Failed != 1 {
		t.Fatalf("unexpected report: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(store.NewMemoryStore(10))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
