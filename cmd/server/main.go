package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/pocketledger/internal/auth"
	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/config"
	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/middleware"
	"github.com/mmynk/pocketledger/internal/planner"
	"github.com/mmynk/pocketledger/internal/service"
	"github.com/mmynk/pocketledger/internal/storage"
	"github.com/mmynk/pocketledger/internal/storage/sqlite"
	"github.com/mmynk/pocketledger/pkg/logging"
)

const apiPrefix = "/pocketledger.v1."

func main() {
	configPath := flag.String("config", "pocketledger.toml", "path to TOML config file")
	envFile := flag.String("env-file", ".env", "path to dotenv file")
	flag.Parse()

	logging.Setup()

	cfg, err := config.Load(config.LoadOptions{ConfigPath: *configPath, EnvFile: *envFile})
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logCloser, err := logging.Configure(logging.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		slog.Error("Failed to configure logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	// The database is opened on first use.
	store := sqlite.NewLazy(cfg.Storage.DBPath)
	defer store.Close()
	slog.Info("Storage configured", "database", cfg.Storage.DBPath)

	kv, err := localstore.Open(cfg.Storage.LocalStorePath)
	if err != nil {
		slog.Error("Failed to open local store", "path", cfg.Storage.LocalStorePath, "error", err)
		os.Exit(1)
	}
	slog.Info("Local store opened", "path", kv.Path())

	plan := planner.New(kv)
	coordinator := backup.NewCoordinator(store, kv, plan)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		slog.Warn("JWT_SECRET not set, sessions will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, cfg.Auth.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(storage.Credentials(store))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	public := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.LoggingInterceptor(),
	)
	protected := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(jwtManager, authenticator),
	)

	mux := http.NewServeMux()

	// Register Connect services
	service.NewAuthService(authenticator, jwtManager, slog.Default()).Register(mux, public)
	service.NewLedgerService(store).Register(mux, protected)
	service.NewPlannerService(plan).Register(mux, protected)
	service.NewBackupService(coordinator).Register(mux, protected)

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	staticDir, err := filepath.Abs(cfg.Server.StaticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.HandleFunc("/", staticHandler(staticDir))

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Connect server starting", "address", cfg.Server.ListenAddr)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// staticHandler serves the front end, falling back to index.html for unknown paths.
func staticHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, apiPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to generate JWT secret", "error", err)
		os.Exit(1)
	}
	return hex.EncodeToString(b)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
