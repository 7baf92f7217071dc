package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/gymcoach/internal/config"
	"github.com/2beens/gymcoach/internal/db"
	"github.com/2beens/gymcoach/internal/logging"
	gcmcp "github.com/2beens/gymcoach/internal/mcp"
	"github.com/2beens/gymcoach/internal/middleware"
	"github.com/2beens/gymcoach/internal/motion"
	"github.com/2beens/gymcoach/internal/session"
	"github.com/2beens/gymcoach/internal/storage"
	"github.com/2beens/gymcoach/internal/telemetry/metrics"
	"github.com/2beens/gymcoach/internal/telemetry/tracing"
	"github.com/2beens/gymcoach/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	dbPool        *pgxpool.Pool
	redisClient   *redis.Client
	errorReporter *logging.ErrorReporter

	sessionManager *session.Manager
	motionHandler  *session.MotionHandler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
	}

	var (
		kv         storage.KV
		collectors []prometheus.Collector
	)
	switch cfg.StorageBackend {
	case config.StorageBackendRedis:
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		kv = storage.NewRedisStore(s.redisClient)
	case config.StorageBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool

		psqlStore := storage.NewPsqlStore(dbPool)
		if err := psqlStore.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure storage schema: %w", err)
		}
		kv = psqlStore
		collectors = append(collectors, db.PoolStatsCollector(dbPool, cfg.PostgresDBName))
	default:
		kv = storage.NewMemoryStore(cfg.MemoryCacheSize)
	}
	log.Debugf("using [%s] storage backend", cfg.StorageBackend)

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("gymcoach", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymcoach-backend", s.redisClient)
	if err != nil {
		s.closeStores()
		return nil, err
	}
	s.otelShutdown = otelShutdown

	s.errorReporter = logging.NewErrorReporter()
	s.errorReporter.AddHandler(logging.LogrusHandler)
	if cfg.SentryEnabled {
		s.errorReporter.AddHandler(logging.SentryHandler(sentry.CurrentHub()))
	}

	s.sessionManager = session.NewManager(session.NewManagerParams{
		Store:          storage.NewWorkoutStorage(kv, cfg.StorageKey, s.metricsManager),
		Reporter:       s.errorReporter,
		MetricsManager: s.metricsManager,
	})
	// stale or missing data is not fatal, the session starts empty
	if err := s.sessionManager.Load(ctx); err != nil {
		log.Warnf("load workout data: %s", err)
	}

	s.motionHandler = session.NewMotionHandler(
		s.sessionManager,
		motion.Config{
			Threshold:            cfg.Motion.Threshold,
			MinRepInterval:       cfg.Motion.MinRepInterval.Duration,
			CalibrationCountdown: cfg.Motion.CalibrationCountdown.Duration,
			DetectionDelay:       cfg.Motion.DetectionDelay.Duration,
		},
		motion.WithMetrics(s.metricsManager),
	)

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymcoach-router"))

	r.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS").Name("version")

	workoutHandler := session.NewHandler(s.sessionManager)
	r.HandleFunc("/workout", workoutHandler.HandleGetCurrent).Methods("GET", "OPTIONS").Name("current-workout")
	r.HandleFunc("/workout/start", workoutHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-workout")
	r.HandleFunc("/workout/exercise/{id}", workoutHandler.HandleUpdateExercise).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/workout/exercise/{id}/set", workoutHandler.HandleCompleteSet).Methods("POST", "OPTIONS").Name("complete-set")
	r.HandleFunc("/workout/notes", workoutHandler.HandleUpdateNotes).Methods("PUT", "OPTIONS").Name("update-notes")
	r.HandleFunc("/workout/end", workoutHandler.HandleEnd).Methods("POST", "OPTIONS").Name("end-workout")
	r.HandleFunc("/workout/clear", workoutHandler.HandleClear).Methods("POST", "OPTIONS").Name("clear-workout")
	r.HandleFunc("/workout/progress", workoutHandler.HandleProgress).Methods("GET", "OPTIONS").Name("workout-progress")
	r.HandleFunc("/workout/history", workoutHandler.HandleHistory).Methods("GET", "OPTIONS").Name("workout-history")
	r.HandleFunc("/workout/history", workoutHandler.HandleImportHistory).Methods("POST", "OPTIONS").Name("import-workout")
	r.HandleFunc("/workout/templates", workoutHandler.HandleListTemplates).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/workout/templates", workoutHandler.HandleAddTemplate).Methods("POST", "OPTIONS").Name("new-template")
	r.HandleFunc("/workout/analytics", workoutHandler.HandleAnalytics).Methods("GET", "OPTIONS").Name("workout-analytics")
	r.HandleFunc("/user/setup/validate", workoutHandler.HandleValidateUserSetup).Methods("POST", "OPTIONS").Name("validate-user-setup")

	r.HandleFunc("/workout/exercise/{id}/motion", s.motionHandler.HandleStart).Methods("POST", "OPTIONS").Name("motion-start")
	r.HandleFunc("/workout/motion", s.motionHandler.HandleState).Methods("GET", "OPTIONS").Name("motion-state")
	r.HandleFunc("/workout/motion/samples", s.motionHandler.HandleSamples).Methods("POST", "OPTIONS").Name("motion-samples")
	r.HandleFunc("/workout/motion/sensitivity", s.motionHandler.HandleSensitivity).Methods("PUT", "OPTIONS").Name("motion-sensitivity")
	r.HandleFunc("/workout/motion/complete", s.motionHandler.HandleComplete).Methods("POST", "OPTIONS").Name("motion-complete")
	r.HandleFunc("/workout/motion/stop", s.motionHandler.HandleStop).Methods("POST", "OPTIONS").Name("motion-stop")

	// read-only workout context for LLM clients
	r.Handle("/mcp", gcmcp.NewHTTPHandler(gcmcp.NewServer(s.sessionManager))).
		Methods("GET", "POST", "DELETE", "OPTIONS").Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	if s.redisClient != nil && s.config.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"gymcoach-router",
			s.config.RateLimitPerMinute,
			s.metricsManager,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteResponseBytes(w, pkg.ContentType.Text, []byte(s.versionInfo), http.StatusOK)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.MetricsHost, strconv.Itoa(s.config.MetricsPort))
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	// no more requests, flush the last pending save before the stores go away
	s.motionHandler.Close()
	s.sessionManager.Close()
	log.Trace("session manager closed ...")

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.closeStores()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) closeStores() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Inc()
	case http.StateClosed:
		s.metricsManager.GaugeOpenConnections.Dec()
	default:
		// do nothing
	}
}
