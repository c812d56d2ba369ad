package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"github.com/guti-foundation/stationkit/internal/connpool"
	"github.com/guti-foundation/stationkit/internal/exec"
	"github.com/guti-foundation/stationkit/internal/httpclient"
	"github.com/guti-foundation/stationkit/internal/httpwire"
)

// parseTargetURL turns a -url flag into the minimal SimpleUrl the client
// needs. Like redirect_task.go's resolveLocation, this borrows net/url for
// the one-off parse rather than hand-rolling a URL grammar.
func parseTargetURL(raw string) (httpwire.SimpleUrl, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return httpwire.SimpleUrl{}, err
	}
	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return httpwire.SimpleUrl{}, err
		}
	}
	return httpwire.SimpleUrl{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Path:   u.Path,
		Query:  u.RawQuery,
	}, nil
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func main() {
	target := flag.String("url", "http://127.0.0.1:8080/", "URL to fetch once per tick")
	interval := flag.Duration("interval", getenvDuration("STATIONBENCH_INTERVAL", 5*time.Second), "time between requests")
	metricsAddr := flag.String("metrics", ":9090", "address to serve Prometheus metrics on")
	flag.Parse()

	url, err := parseTargetURL(*target)
	if err != nil {
		log.Fatalf("bad -url: %v", err)
	}

	engine := exec.NewEngine(
		exec.WithLogger(slog.Default()),
		exec.WithMetricsNamespace("stationbench"),
	)
	for _, c := range engine.Collectors() {
		prometheus.MustRegister(c)
	}
	ex := exec.NewExecutor(engine)
	pool := connpool.New(30*time.Second, 4)
	pool.StartJanitor(10 * time.Second)
	defer pool.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("stationbench metrics on %s", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	go ex.Run(ctx)

	log.Printf("stationbench polling %s every %s", *target, *interval)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetchOnce(ctx, ex, pool, url)
		}
	}
}

func fetchOnce(ctx context.Context, ex *exec.Executor, pool *connpool.Pool, url httpwire.SimpleUrl) {
	req := httpclient.PreparedRequest{
		URL:          url,
		Method:       "GET",
		MaxRedirects: 5,
		Timeouts: httpclient.Timeouts{
			Connect:   3 * time.Second,
			IntroRead: 5 * time.Second,
			BodyRead:  10 * time.Second,
		},
	}
	cr := httpclient.NewClientRequest(ex, pool, nil, req)

	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	resp, err := cr.Send(reqCtx)
	if err != nil {
		slog.Default().Error("stationbench request failed", "url", url.RequestTarget(), "err", err)
		return
	}
	slog.Default().Info("stationbench request done", "status", resp.Status.Code, "bytes", len(resp.Body.Bytes))
}
