package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type endpoint struct {
	method string
	path   string
	body   string
}

// Run drives synthetic traffic against a running instance. The profiles mix
// healthy reads with requests that are rejected on purpose, so dashboards
// show both success and error series.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan endpoint, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				req, err := http.NewRequestWithContext(ctx, ep.method, cfg.BaseURL+ep.path, strings.NewReader(ep.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if ep.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			jobs <- endpoints[i%len(endpoints)]
			i++
		}
	}
}

func endpointsForProfile(profile string) []endpoint {
	browse := []endpoint{
		{method: http.MethodGet, path: "/health/live"},
		{method: http.MethodGet, path: "/api/v1/schools"},
		{method: http.MethodGet, path: "/api/v1/schools?page=1&page_size=5"},
	}
	auth := []endpoint{
		{method: http.MethodPost, path: "/api/v1/auth/otp/request", body: `{"email":"not-an-email"}`},
		{method: http.MethodPost, path: "/api/v1/auth/otp/verify", body: `{"email":"loadgen@school.example","code":"000000"}`},
		{method: http.MethodGet, path: "/api/v1/auth/me"},
	}
	errorHeavy := []endpoint{
		{method: http.MethodGet, path: "/api/v1/schools/999999"},
		{method: http.MethodPost, path: "/api/v1/auth/otp/verify", body: `{"email":"loadgen@school.example","code":"000000"}`},
		{method: http.MethodDelete, path: "/api/v1/schools/999999"},
	}
	switch strings.ToLower(profile) {
	case "", "mixed":
		return append(append([]endpoint{}, browse...), auth...)
	case "browse":
		return browse
	case "auth":
		return auth
	case "error-heavy":
		return errorHeavy
	default:
		return nil
	}
}
