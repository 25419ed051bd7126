package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sumithjaya/biometric-auth-backend/internal/audit"
	audithandler "github.com/sumithjaya/biometric-auth-backend/internal/audit/handler"
	bcrypto "github.com/sumithjaya/biometric-auth-backend/internal/biometric/crypto"
	biometrichandler "github.com/sumithjaya/biometric-auth-backend/internal/biometric/handler"
	biometricservice "github.com/sumithjaya/biometric-auth-backend/internal/biometric/service"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/snapshot"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/store/enrollment"
	employeehandler "github.com/sumithjaya/biometric-auth-backend/internal/employee/handler"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/lockout"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/seed"
	employeeservice "github.com/sumithjaya/biometric-auth-backend/internal/employee/service"
	employeestore "github.com/sumithjaya/biometric-auth-backend/internal/employee/store"
	"github.com/sumithjaya/biometric-auth-backend/internal/health"
	jwttoken "github.com/sumithjaya/biometric-auth-backend/internal/jwt_token"
	"github.com/sumithjaya/biometric-auth-backend/internal/migrations"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/config"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/httpserver"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/logger"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
	platformredis "github.com/sumithjaya/biometric-auth-backend/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the services packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error("database unavailable, falling back to in-memory stores", "error", err.Error())
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable, pin lockout will be in-memory", "error", err.Error())
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	var enrollments enrollment.Store
	var auditStore audit.Store
	var employees employeestore.Store
	if db != nil {
		enrollments = enrollment.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		employees = employeestore.NewPostgres(db)
	} else {
		enrollments = enrollment.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		employees = employeestore.NewInMemory()
	}

	auditor := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(256), audit.WithLogger(log))
	defer auditor.Close()

	if err := seed.Defaults(ctx, employees); err != nil {
		log.Error("employee seeding failed", "error", err.Error())
		os.Exit(1)
	}

	saver, err := newSnapshotSaver(ctx, cfg)
	if err != nil {
		log.Error("snapshot backend unavailable, snapshots disabled", "error", err.Error())
	}

	biometricOpts := []biometricservice.Option{
		biometricservice.WithAuditor(auditor),
		biometricservice.WithMetrics(m),
		biometricservice.WithLogger(log),
	}
	if saver != nil {
		biometricOpts = append(biometricOpts, biometricservice.WithSnapshots(saver))
	}
	biometrics, err := biometricservice.New(
		enrollments,
		bcrypto.NewKeyring(cfg.SecretPassphrase, cfg.SaltBase64),
		cfg.MatchThreshold,
		biometricOpts...,
	)
	if err != nil {
		log.Error("biometric service init failed", "error", err.Error())
		os.Exit(1)
	}

	var lockouts lockout.Store
	if redisClient != nil {
		lockouts = lockout.NewRedis(redisClient.Client)
	} else {
		lockouts = lockout.NewInMemory()
	}

	sessionTokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "biometric-auth", "kiosk")

	auth, err := employeeservice.New(
		employees,
		lockouts,
		sessionTokens,
		employeeservice.Config{
			MaxFailures:   cfg.LockoutMaxFailures,
			FailureWindow: cfg.LockoutWindow,
			LockDuration:  cfg.LockoutWindow,
			SessionTTL:    cfg.SessionTTL,
		},
		employeeservice.WithAuditor(auditor),
		employeeservice.WithMetrics(m),
		employeeservice.WithLogger(log),
	)
	if err != nil {
		log.Error("auth service init failed", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		sessionValidator := jwttoken.NewJWTServiceAdapter(sessionTokens)
		biometrichandler.New(biometrics, log, m, sessionValidator).Register(r)
		employeehandler.New(auth, log, m).Register(r)
		audithandler.New(auditor, log, sessionValidator).Register(r)
		health.New(log, db, healthPinger(redisClient), cfg.MatchThreshold).Register(r)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting biometric-auth-backend", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

// openDatabase connects and applies pending migrations.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("no database configured")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newSnapshotSaver picks S3 when a bucket is configured, local disk otherwise.
func newSnapshotSaver(ctx context.Context, cfg config.Server) (snapshot.Saver, error) {
	if cfg.S3.Bucket != "" {
		return snapshot.NewS3(ctx, cfg.S3)
	}
	return snapshot.NewDir(cfg.UploadDir)
}

func healthPinger(c *platformredis.Client) health.Pinger {
	if c == nil {
		return nil
	}
	return c
}
