// README: Scenario cases; reference fares, error mapping, DB/Redis checks and a throughput run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusPending = "PENDING"
	StatusSkip    = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	fares := base + "/api/fares"
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "quote and holiday storage",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "geocode cache",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: StatusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name:  "Schema: tables exist",
			Focus: "tables named in the schema file",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusSkip, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.Schema)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: StatusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: StatusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: StatusPass}
			},
		},
		httpCaseMethod("API: health", http.MethodGet, base+"/health", nil, []int{200}, nil),

		// Reference fares
		fareCase("Fare: 10 km, 1 pax, Tuesday 14:00", fares, fareBody(10, 1, "2026-02-10 14:00:00", "", "EUR"), 18.50),
		fareCase("Fare: Saturday 23:00 stacks night and weekend", fares, fareBody(10, 1, "2026-02-14 23:00:00", "", "EUR"), 28.86),
		fareCase("Fare: 0 km, 7 pax is base fare times 1.5", fares, fareBody(0, 7, "2026-02-10 14:00:00", "", "EUR"), 5.25),
		fareCase("Fare: France on July 14", fares, fareBody(10, 1, "2026-07-14 14:00:00", "France", "EUR"), 27.75),
		fareCase("Fare: United States on July 4 (Saturday)", fares, fareBody(10, 1, "2026-07-04 10:00:00", "United States", "EUR"), 33.30),
		fareCase("Fare: USD conversion", fares, fareBody(10, 1, "2026-02-10 14:00:00", "", "USD"), 20.11),
		fareCase("Fare: 05:59 is night", fares, fareBody(10, 1, "2026-02-10 05:59:00", "", "EUR"), 24.05),
		fareCase("Fare: 06:00 is day", fares, fareBody(10, 1, "2026-02-10 06:00:00", "", "EUR"), 18.50),
		fareCase("Fare: 22:00 is night", fares, fareBody(10, 1, "2026-02-10 22:00:00", "", "EUR"), 24.05),
		fareCase("Fare: 7.5 km, 12 pax", fares, fareBody(7.5, 12, "2026-02-10 14:00:00", "", "EUR"), 33.19),

		// Error mapping
		httpCase("Fare: zero passengers -> 400", fares, fareBody(10, 0, "2026-02-10 14:00:00", "", "EUR"), []int{400}, nil),
		httpCase("Fare: negative distance -> 400", fares, fareBody(-1, 1, "2026-02-10 14:00:00", "", "EUR"), []int{400}, nil),
		httpCase("Fare: unknown currency -> 400", fares, fareBody(10, 1, "2026-02-10 14:00:00", "", "GBP"), []int{400}, nil),
		httpCaseMethod("Vehicle: 5 passengers", http.MethodGet, base+"/api/vehicles?passengers=5", nil, []int{200}, nil),
		httpCaseMethod("Quote: unknown id -> 404", http.MethodGet, base+"/api/quotes/00000000-0000-0000-0000-000000000000", nil, []int{404}, nil),

		// Collaborators; 502 means the upstream is unreachable from here.
		httpCase("Quote: estimate with coordinates", base+"/api/quotes", map[string]any{
			"pickup":          map[string]any{"lat": 48.8606, "lng": 2.3376, "country": "France"},
			"dropoff":         map[string]any{"lat": 48.8443, "lng": 2.3744},
			"passenger_count": 2,
			"pickup_datetime": "2026-02-10 14:00:00",
		}, []int{201}, []int{502}),
		httpCase("Quote: remote prediction", base+"/api/predictions", map[string]any{
			"pickup":          map[string]any{"lat": 40.7614327, "lng": -73.9798156},
			"dropoff":         map[string]any{"lat": 40.6513111, "lng": -73.8803331},
			"passenger_count": 2,
			"pickup_datetime": "2026-02-10 14:00:00",
		}, []int{200}, []int{502, 404}),

		{
			Name:  "Perf: fare throughput",
			Focus: "pure pricing path under load",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.Perf {
					return Result{Status: StatusSkip, Note: "perf=false"}
				}
				return perfLoad(ctx, r, fares, fareBody(10, 1, "2026-02-10 14:00:00", "", "EUR"))
			},
		},
	}
}

func fareBody(km float64, passengers int, pickup, country, currency string) map[string]any {
	return map[string]any{
		"distance_km":     km,
		"passenger_count": passengers,
		"pickup_datetime": pickup,
		"country":         country,
		"currency":        currency,
	}
}

func fareCase(name, url string, body any, want float64) TestCase {
	return TestCase{
		Name:  name,
		Focus: "reference fare",
		Run: func(ctx context.Context, r *Runner) Result {
			status, data, latency, err := r.do(ctx, http.MethodPost, url, body)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			if status != http.StatusOK {
				return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
			}
			var resp struct {
				Fare float64 `json:"fare"`
			}
			if err := json.Unmarshal(data, &resp); err != nil {
				return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
			}
			if math.Abs(resp.Fare-want) > 1e-9 {
				return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("fare=%.2f want=%.2f", resp.Fare, want)}
			}
			return Result{Status: StatusPass, Latency: latency, Note: fmt.Sprintf("fare=%.2f", resp.Fare)}
		},
	}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			status, _, latency, err := r.do(ctx, method, url, body)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			note := fmt.Sprintf("status=%d", status)
			if contains(okStatuses, status) {
				return Result{Status: StatusPass, Latency: latency, Note: note}
			}
			if contains(pendingStatuses, status) {
				return Result{Status: StatusPending, Latency: latency, Note: note}
			}
			return Result{Status: StatusFail, Latency: latency, Note: note}
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, time.Since(start), err
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: StatusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
