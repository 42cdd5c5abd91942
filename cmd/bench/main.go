// README: Scenario runner; checks a live API against the reference fares plus optional DB/Redis checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	BaseURL   string
	DSN       string
	RedisAddr string
	// Schema is read for the table names the API expects; the runner never applies it.
	Schema  string
	Strict  bool
	Timeout time.Duration

	Perf        bool
	Concurrency int
	Duration    time.Duration
}

func main() {
	cfg := loadConfig(os.Args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	t := summarize(NewRunner(cfg).RunAll(ctx))
	fmt.Println("\n== Summary ==")
	fmt.Println(t)
	if !t.ok(cfg.Strict) {
		os.Exit(1)
	}
}

// loadConfig reads TAXIFARE_BENCH_* env defaults; flags win.
func loadConfig(args []string) Config {
	v := viper.New()
	v.SetEnvPrefix("TAXIFARE_BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("base-url", "http://localhost:8080")
	v.SetDefault("schema", "migrations/0001_init.sql")
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("concurrency", 20)
	v.SetDefault("duration", 10*time.Second)

	var cfg Config
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	fs.StringVar(&cfg.BaseURL, "base-url", v.GetString("base-url"), "API base URL")
	fs.StringVar(&cfg.DSN, "dsn", v.GetString("dsn"), "Postgres DSN (empty skips DB checks)")
	fs.StringVar(&cfg.RedisAddr, "redis", v.GetString("redis"), "Redis address (empty skips Redis checks)")
	fs.StringVar(&cfg.Schema, "schema", v.GetString("schema"), "Schema SQL listing the expected tables")
	fs.BoolVar(&cfg.Strict, "strict", v.GetBool("strict"), "Fail on pending cases")
	fs.DurationVar(&cfg.Timeout, "timeout", v.GetDuration("timeout"), "Total timeout")
	fs.BoolVar(&cfg.Perf, "perf", v.GetBool("perf"), "Run the throughput case")
	fs.IntVar(&cfg.Concurrency, "concurrency", v.GetInt("concurrency"), "Workers for the throughput case")
	fs.DurationVar(&cfg.Duration, "duration", v.GetDuration("duration"), "Length of the throughput case")
	_ = fs.Parse(args)

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}

type tally map[string]int

func summarize(results []Result) tally {
	t := tally{}
	for _, r := range results {
		t[r.Status]++
	}
	return t
}

// ok reports whether the run passed; strict runs also reject pending cases.
func (t tally) ok(strict bool) bool {
	return t[StatusFail] == 0 && (!strict || t[StatusPending] == 0)
}

func (t tally) String() string {
	return fmt.Sprintf("PASS=%d FAIL=%d PENDING=%d SKIP=%d",
		t[StatusPass], t[StatusFail], t[StatusPending], t[StatusSkip])
}
