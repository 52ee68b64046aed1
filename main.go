package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"roomy-listing/internal/service"
	"roomy-listing/pkg/airbnb"
	"roomy-listing/pkg/logger"
	"roomy-listing/pkg/metadata"
	"roomy-listing/pkg/storage"
	"roomy-listing/pkg/worker"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

type cliOptions struct {
	urls      []string
	fetch     bool
	buildID   string
	locale    string
	timeoutMs int
	rps       float64
	workers   int
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		singleURL = flag.String("url", getEnvOrDefault("ROOMY_URL", ""), "Listing URL to parse (env: ROOMY_URL)")
		urlList   = flag.String("urls", "", "Comma-separated listing URLs")
		fetch     = flag.Bool("fetch", getEnvBoolOrDefault("ROOMY_FETCH", false), "Fetch Open Graph metadata (env: ROOMY_FETCH)")
		buildID   = flag.String("build", "", "Print the canonical URL for a listing id")
		locale    = flag.String("locale", airbnb.DefaultLocale, "Locale used with -build")
		timeoutMs = flag.Int("timeout", getEnvIntOrDefault("ROOMY_TIMEOUT_MS", 10000), "Fetch timeout in milliseconds (env: ROOMY_TIMEOUT_MS)")
		rps       = flag.Float64("rps", 1.0, "Maximum metadata fetches per second")
		workers   = flag.Int("workers", getEnvIntOrDefault("ROOMY_WORKERS", 4), "Concurrent lookups in batch mode (env: ROOMY_WORKERS)")
		debug     = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		help      = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	level := "info"
	if *debug {
		level = "debug"
	}
	logger.SetLogger(logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"}))

	opts := cliOptions{
		urls:      collectURLs(*singleURL, *urlList),
		fetch:     *fetch,
		buildID:   strings.TrimSpace(*buildID),
		locale:    *locale,
		timeoutMs: *timeoutMs,
		rps:       *rps,
		workers:   *workers,
	}

	if opts.buildID == "" && len(opts.urls) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: one of -url, -urls or -build is required.")
		fmt.Fprintln(os.Stderr, "")
		printUsage()
		os.Exit(2)
	}

	ctx := context.Background()
	if err := run(ctx, opts, os.Stdout); err != nil {
		logger.GetLogger().WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func collectURLs(single, list string) []string {
	var urls []string
	if strings.TrimSpace(single) != "" {
		urls = append(urls, strings.TrimSpace(single))
	}
	for _, u := range strings.Split(list, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// run writes one JSON document to out: a build result, a single response or
// an array of responses in input order.
func run(ctx context.Context, opts cliOptions, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if opts.buildID != "" {
		return enc.Encode(map[string]string{"url": airbnb.BuildURL(opts.buildID, opts.locale)})
	}

	log := logger.GetLogger().WithComponent("cli")
	cache := storage.NewMemoryResultCache(len(opts.urls), 0)
	defer cache.Close()

	limit := rate.Inf
	if opts.rps > 0 {
		limit = rate.Limit(opts.rps)
	}
	fetcher := metadata.NewFetcher(metadata.Options{
		Timeout: time.Duration(opts.timeoutMs) * time.Millisecond,
		Logger:  log,
	})
	svc := service.NewListingService(fetcher, cache, rate.NewLimiter(limit, 1), log)

	progress := logger.NewProgressReporter(log, len(opts.urls), "Processing listings", 2*time.Second)
	results := make([]interface{}, len(opts.urls))

	pool := worker.NewPool(worker.PoolConfig{
		MaxWorkers:      opts.workers,
		QueueSize:       len(opts.urls),
		ShutdownTimeout: -1,
	}, log)
	if err := pool.Start(); err != nil {
		return err
	}
	for i, raw := range opts.urls {
		err := pool.Submit(ctx, worker.Task{
			ID: fmt.Sprintf("listing-%d", i),
			Fn: func(ctx context.Context) error {
				if opts.fetch {
					resp := svc.Lookup(ctx, raw)
					results[i] = resp
					progress.Record(resp.Success)
					return nil
				}
				resp := svc.Parse(raw)
				results[i] = resp
				progress.Record(resp.Success)
				return nil
			},
		})
		if err != nil {
			pool.Stop()
			return err
		}
	}
	pool.Stop()

	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

func printUsage() {
	fmt.Println("Roomy listing import tool")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./roomy-listing -url <URL> [-fetch]")
	fmt.Println("    ./roomy-listing -urls <URL1,URL2,...> [-fetch]")
	fmt.Println("    ./roomy-listing -build <LISTING_ID> [-locale ko-KR]")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -url string       Listing URL to parse (env: ROOMY_URL)")
	fmt.Println("    -urls string      Comma-separated listing URLs")
	fmt.Println("    -fetch            Fetch Open Graph metadata (env: ROOMY_FETCH)")
	fmt.Println("    -build string     Print the canonical URL for a listing id")
	fmt.Println("    -locale string    Locale for -build (default: ko-KR)")
	fmt.Println("    -timeout int      Fetch timeout in ms (default: 10000, env: ROOMY_TIMEOUT_MS)")
	fmt.Println("    -rps float        Maximum fetches per second (default: 1)")
	fmt.Println("    -workers int      Concurrent lookups in batch mode (default: 4, env: ROOMY_WORKERS)")
	fmt.Println("    -debug            Enable debug logging (env: DEBUG)")
	fmt.Println("    -help             Show this help message")
	fmt.Println("")
	fmt.Println("Results are printed to stdout as JSON; logs go to stderr.")
}
