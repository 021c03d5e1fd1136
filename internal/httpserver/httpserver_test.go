package httpserver

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartServesPrimaryAndMetrics(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", HTTPPort: freePort(t), MetricsPort: freePort(t)}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	pair, err := Start(cfg, mux, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, testLogger())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer pair.Stop()

	waitForListener(t, cfg.Host, cfg.HTTPPort)
	waitForListener(t, cfg.Host, cfg.MetricsPort)

	resp, err := http.Get(fmt.Sprintf("http://%s:%d/ping", cfg.Host, cfg.HTTPPort))
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	metricsResp, err := http.Get(fmt.Sprintf("http://%s:%d/metrics", cfg.Host, cfg.MetricsPort))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", metricsResp.StatusCode)
	}

	healthResp, err := http.Get(fmt.Sprintf("http://%s:%d/healthz", cfg.Host, cfg.MetricsPort))
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer healthResp.Body.Close()
	if healthResp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", healthResp.StatusCode)
	}

	schemaResp, err := http.Get(fmt.Sprintf("http://%s:%d/config/schema", cfg.Host, cfg.MetricsPort))
	if err != nil {
		t.Fatalf("GET /config/schema: %v", err)
	}
	defer schemaResp.Body.Close()
	if schemaResp.StatusCode != http.StatusOK {
		t.Fatalf("schema status = %d, want 200", schemaResp.StatusCode)
	}
	body, err := io.ReadAll(schemaResp.Body)
	if err != nil {
		t.Fatalf("read schema body: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected non-empty schema body")
	}
}

func TestStartFailsOnPortConflict(t *testing.T) {
	port := freePort(t)
	blocker, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer blocker.Close()

	cfg := config.ServerConfig{Host: "127.0.0.1", HTTPPort: port, MetricsPort: freePort(t)}
	if _, err := Start(cfg, http.NewServeMux(), nil, testLogger()); err == nil {
		t.Fatal("expected an error when the primary port is already bound")
	}
}

func TestStopIsSafeOnNilPair(t *testing.T) {
	var pair *Pair
	pair.Stop()
}

func waitForListener(t *testing.T, host string, port int) {
	t.Helper()
	addr := fmt.Sprintf("%s:%d", host, port)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener at %s never became ready", addr)
}
