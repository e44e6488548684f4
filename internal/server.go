package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/teamcondition/internal/condition/charts"
	"github.com/2beens/teamcondition/internal/condition/dashboard"
	conditionmcp "github.com/2beens/teamcondition/internal/condition/mcp"
	"github.com/2beens/teamcondition/internal/condition/schema"
	"github.com/2beens/teamcondition/internal/condition/store"
	"github.com/2beens/teamcondition/internal/config"
	"github.com/2beens/teamcondition/internal/db"
	"github.com/2beens/teamcondition/internal/middleware"
	"github.com/2beens/teamcondition/internal/telemetry/metrics"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"
	"github.com/2beens/teamcondition/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config   *config.Config
	secrets  *config.Secrets
	dbPool   *pgxpool.Pool
	sqliteDB *sql.DB

	redisClient *redis.Client
	redisCache  *store.RedisSnapshotCache
	service     *dashboard.Service
	mcpServer   *mcp.Server

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombOn, "teamcondition")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		secrets:      secrets,
		versionInfo:  params.VersionInfo,
		otelShutdown: otelShutdown,
	}

	sch, err := loadSchema(cfg)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	tenantField := cfg.TenantField
	if tenantField == "" {
		tenantField = sch.Fields.Tenant
	}
	recordStore, collectors, err := s.newRecordStore(ctx, tenantField)
	if err != nil {
		s.closeResources()
		return nil, fmt.Errorf("record store: %w", err)
	}

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("teamcondition", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	snapshotCache, err := s.newSnapshotCache(ctx)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	cachedStore := store.NewCachedStore(
		recordStore,
		snapshotCache,
		cfg.CacheTTL.Duration,
		store.WithObserver(s.metricsManager),
	)

	// an empty team reads every row
	tenant := secrets.FixedTeam

	s.service, err = dashboard.NewService(dashboard.NewServiceParams{
		Store:    cachedStore,
		Schema:   sch,
		Tenant:   tenant,
		PNGCache: charts.NewPNGCache(cfg.ChartCacheSizeMB, cfg.CacheTTL.Duration),
		Metrics:  s.metricsManager,
	})
	if err != nil {
		s.closeResources()
		return nil, fmt.Errorf("dashboard service: %w", err)
	}
	s.mcpServer = conditionmcp.NewServer(s.service)

	log.Infof("serving team [%s] from %s store, snapshot cache ttl %s", tenant, recordStore.Source(), cachedStore.TTL())
	return s, nil
}

func (s *Server) newRecordStore(ctx context.Context, tenantField string) (store.RecordStore, []prometheus.Collector, error) {
	cfg := s.config
	table := cfg.Table
	if s.secrets.SupabaseTable != "" {
		table = s.secrets.SupabaseTable
	}

	switch cfg.Store {
	case config.StorePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     s.secrets.PostgresPass,
			TracingEnabled: s.secrets.HoneycombOn,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}
		s.dbPool = dbPool
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		pgStore, err := store.NewPostgresStore(dbPool, table, tenantField)
		if err != nil {
			return nil, nil, err
		}
		collector := pgxpoolprometheus.NewCollector(dbPool, map[string]string{"db_name": cfg.PostgresDBName})
		return pgStore, []prometheus.Collector{collector}, nil

	case config.StoreSQLite:
		sqliteDB, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s.sqliteDB = sqliteDB
		sqliteStore, err := store.NewSQLiteStore(sqliteDB, table, tenantField)
		if err != nil {
			return nil, nil, err
		}
		return sqliteStore, nil, nil

	default:
		if missing := s.secrets.MissingFor(cfg); len(missing) > 0 {
			log.Errorf("postgrest store: missing env vars %v", missing)
		}
		tracedHttpClient := &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		}
		restStore, err := store.NewPostgRESTStore(store.PostgRESTParams{
			HttpClient:  tracedHttpClient,
			BaseURL:     s.secrets.SupabaseURL,
			APIKey:      s.secrets.SupabaseKey,
			Table:       table,
			TenantField: tenantField,
		})
		if err != nil {
			return nil, nil, err
		}
		return restStore, nil, nil
	}
}

func (s *Server) newSnapshotCache(ctx context.Context) (store.SnapshotCache, error) {
	cfg := s.config
	if !cfg.RedisEnabled {
		return store.NewMemorySnapshotCache(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: s.secrets.RedisPassword,
		DB:       0, // use default DB
	})
	if s.secrets.HoneycombOn {
		rdb.AddHook(redisotel.NewTracingHook())
	}
	s.redisClient = rdb

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	redisCache, err := store.NewRedisSnapshotCache(rdb, cfg.CacheTTL.Duration)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot cache: %w", err)
	}
	s.redisCache = redisCache
	return redisCache, nil
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	var (
		sch *schema.Schema
		err error
	)
	if cfg.SchemaPath == "" {
		sch, err = schema.Default()
	} else {
		sch, err = schema.Load(cfg.SchemaPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	return sch.ApplyOverrides(schema.FieldOverrides{
		InjuryLocation: cfg.InjuryLocationField,
		Year:           cfg.YearField,
		SubPeriod:      cfg.SubPeriodField,
	})
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("teamcondition-router"))

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	dashboardHandler := dashboard.NewHandler(s.service)
	dashboardHandler.SetupRoutes(r)

	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcpServer },
		&mcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
	r.PathPrefix("/mcp").Handler(mcpHandler).Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(nil)
	if s.secrets.ViewerTokenHash != "" {
		authMiddleware = middleware.NewAuthMiddlewareHandler(
			middleware.NewViewerTokenVerifier(s.secrets.ViewerTokenHash),
		)
	} else {
		log.Warnln("viewer token hash not set, dashboard API is open")
	}

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	if s.redisClient != nil && s.config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"teamcondition-api",
			s.config.RateLimitPerMin,
			s.metricsManager,
		))
	}
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, healthResponse{Status: "ok", Version: s.versionInfo}, http.StatusOK)
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
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
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

// RunMCPStdio serves the condition tools over stdin/stdout until ctx is done
// or the client disconnects.
func (s *Server) RunMCPStdio(ctx context.Context) error {
	defer s.closeResources()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
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

	s.closeResources()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) closeResources() {
	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisCache != nil {
		s.redisCache.Close()
	}
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

	if s.sqliteDB != nil {
		if err := s.sqliteDB.Close(); err != nil {
			log.Errorf("failed to close sqlite db: %s", err)
		}
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
