package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"maintenance-cloud/internal/alerts/application"
	alertspostgres "maintenance-cloud/internal/alerts/infrastructure/postgres"
	alertshttp "maintenance-cloud/internal/alerts/interfaces/http"
	"maintenance-cloud/internal/auth"
	"maintenance-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	engineCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("alerts config error: %v", err)
	}
	policies := application.NewPolicyProvider(engineCfg)
	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		go func() {
			if err := application.WatchConfig(context.Background(), path, policies, logger); err != nil {
				logger.Printf("alerts config watch error: %v", err)
			}
		}()
	}

	store := alertspostgres.NewAlertRepository(db)
	snapshots := alertspostgres.NewSnapshotReader(db)
	service, err := application.NewService(store, snapshots, policies, logger)
	if err != nil {
		logger.Fatalf("alert service error: %v", err)
	}

	scheduler := application.NewScheduler(service, logger)
	go scheduler.Start(context.Background())

	alertHandler, err := alertshttp.NewHandler(service)
	if err != nil {
		logger.Fatalf("alert handler error: %v", err)
	}
	exportHandler, err := alertshttp.NewExportHandler(service)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/api/v1/alerts/", alertHandler)
	mux.Handle("/api/v1/exports/alerts.xlsx", exportHandler)
	mux.Handle("/api/v1/exports/alerts.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
