// Package api implements app.Runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	apphttp "github.com/onurmutlu/flirtmarket/pkg/app/http"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/cache"
	chatservice "github.com/onurmutlu/flirtmarket/pkg/chat/service"
	"github.com/onurmutlu/flirtmarket/pkg/chatstore"
	"github.com/onurmutlu/flirtmarket/pkg/config"
	"github.com/onurmutlu/flirtmarket/pkg/events"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	coinservice "github.com/onurmutlu/flirtmarket/pkg/ledger/service"
	"github.com/onurmutlu/flirtmarket/pkg/ledgerstore"
	monetizationservice "github.com/onurmutlu/flirtmarket/pkg/monetization/service"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/ratelimit"
	reconcilerpkg "github.com/onurmutlu/flirtmarket/pkg/reconciler"
	referralservice "github.com/onurmutlu/flirtmarket/pkg/referral/service"
	"github.com/onurmutlu/flirtmarket/pkg/referralstore"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	userservice "github.com/onurmutlu/flirtmarket/pkg/user/service"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.APIServerConfig
}

// NewServer initializes new api server.
func NewServer(cfg *config.APIServerConfig) *Server {
	return &Server{cfg: cfg}
}

type services struct {
	users        userservice.Service
	chat         chatservice.Service
	coins        coinservice.Service
	monetization monetizationservice.Service
	referrals    referralservice.Service
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	commissionRate, err := decimal.NewFromString(cfg.Monetization.CommissionRate)
	if err != nil {
		return fmt.Errorf("invalid commission rate %q: %w", cfg.Monetization.CommissionRate, err)
	}

	db, err := s.openDB(logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if cfg.Cache.Driver == "redis" || cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
		if err = redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("Connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	appCache, stopCache := s.openCache(redisClient, logger)
	defer stopCache()

	publisher := s.openPublisher(logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	tx := pgutil.NewTransactor(db)
	userStore := userstore.NewStore(db)
	ledgerStore := ledgerstore.NewStore(db)
	coinLedger := ledger.New(ledgerStore, tx, appCache, publisher, logger)

	rec := reconcilerpkg.New(ledgerStore, logger)
	s.runInitialReconcile(ctx, rec, logger)

	stopReconcile := s.startPeriodicReconcile(rec, logger)
	// We will call stopReconcile explicitly after ServeAndWait returns for deterministic shutdown order.
	// Keep this defer as a safety net.
	defer stopReconcile()

	svcs := s.buildServices(db, tx, userStore, coinLedger, appCache, commissionRate, logger)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
		logger.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	router := s.setupRouter(svcs, limiter, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred DB/client closes kick in.
	stopReconcile()
	stopCache()

	return err
}

func (s *Server) openDB(logger *zap.Logger) (*bun.DB, error) {
	db, err := pgutil.ConnectDB(&s.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", s.cfg.Database.Host),
		zap.String("database", s.cfg.Database.Database),
	)
	return db, nil
}

// openCache picks the configured backend and returns it with a stopper for background sweeping.
func (s *Server) openCache(redisClient *redis.Client, logger *zap.Logger) (cache.Cache, func()) {
	cfg := s.cfg.Cache
	switch cfg.Driver {
	case "redis":
		logger.Info("Using redis cache")
		return cache.NewGuarded(cache.NewInstrumented(cache.NewRedis(redisClient), logger)), func() {}
	case "none":
		logger.Info("Caching disabled")
		return cache.Nop{}, func() {}
	default:
		mem := cache.NewMemory(logger)
		mem.StartSweeper(cfg.SweepInterval)
		logger.Info("Using in-memory cache", zap.Duration("sweep_interval", cfg.SweepInterval))
		return cache.NewGuarded(cache.NewInstrumented(mem, logger)), mem.Stop
	}
}

func (s *Server) openPublisher(logger *zap.Logger) events.Publisher {
	cfg := s.cfg.Events
	if !cfg.Enabled {
		return events.Nop{}
	}
	logger.Info("Publishing ledger events",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.Int("buffer_size", cfg.BufferSize),
	)
	return events.NewBuffered(events.NewKafkaPublisher(cfg.Brokers, cfg.Topic), cfg.BufferSize, cfg.WriteTimeout, logger)
}

func (s *Server) buildServices(
	db *bun.DB,
	tx pgutil.Transactor,
	userStore userstore.Store,
	coinLedger *ledger.Ledger,
	appCache cache.Cache,
	commissionRate decimal.Decimal,
	logger *zap.Logger,
) *services {
	m := s.cfg.Monetization

	referrals := referralservice.NewService(
		referralstore.NewStore(db),
		userStore,
		coinLedger,
		tx,
		m.ReferralBonus,
		logger,
	)

	monetization := monetizationservice.NewService(
		monetizationstore.NewStore(db),
		userStore,
		coinLedger,
		tx,
		monetizationservice.Config{
			GiftFeePercent:          m.GiftFeePercent,
			SubscriptionFeePercent:  m.SubscriptionFeePercent,
			SubscriptionPricePerDay: m.SubscriptionBasePricePerDay,
			MaxSubscriptionDays:     m.MaxSubscriptionDays,
		},
		logger,
	)

	chat := chatservice.NewService(
		chatstore.NewStore(db),
		userStore,
		coinLedger,
		monetization,
		tx,
		appCache,
		chatservice.Config{
			DefaultMessagePrice: m.DefaultMessagePrice,
			CommissionRate:      commissionRate,
			MessagesTTL:         s.cfg.Cache.MessagesTTL,
		},
		logger,
	)

	users := userservice.NewService(
		userStore,
		referrals,
		tx,
		appCache,
		userservice.Config{
			UserTTL:       s.cfg.Cache.UserTTL,
			PerformersTTL: s.cfg.Cache.PerformersTTL,
		},
		logger,
	)

	packages := make([]ledger.CoinPackage, 0, len(m.CoinPackages))
	for _, p := range m.CoinPackages {
		packages = append(packages, ledger.CoinPackage{ID: p.ID, Coins: p.Coins, PriceCents: p.PriceCents})
	}
	coins := coinservice.NewService(
		coinLedger,
		userStore,
		monetization,
		coinservice.Config{
			Packages:          packages,
			MaxPurchaseAmount: m.MaxPurchaseAmount,
			MaxAdjustAmount:   m.MaxAdjustAmount,
		},
		logger,
	)

	return &services{
		users:        userservice.NewLog(users, logger),
		chat:         chatservice.NewLog(chat, logger),
		coins:        coinservice.NewLog(coins, logger),
		monetization: monetizationservice.NewLog(monetization, logger),
		referrals:    referralservice.NewLog(referrals, logger),
	}
}

func (s *Server) runInitialReconcile(
	ctx context.Context,
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) {
	if s.cfg.Reconciliation.InitialTimeout <= 0 {
		return
	}

	logger.Info("Running initial balance reconciliation",
		zap.Duration("timeout", s.cfg.Reconciliation.InitialTimeout),
	)

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.Reconciliation.InitialTimeout)
	defer cancel()

	drift, err := reconciler.ReconcileAll(startupCtx)
	if err != nil {
		logger.Warn("Initial reconciliation failed (will retry periodically)", zap.Error(err))
		return
	}

	logger.Info("Initial balance reconciliation completed", zap.Int("drifted_accounts", len(drift)))
}

func (s *Server) startPeriodicReconcile(
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) func() {
	if s.cfg.Reconciliation.Interval <= 0 {
		return func() {}
	}

	logger.Info("Starting periodic reconciliation", zap.Duration("interval", s.cfg.Reconciliation.Interval))
	reconciler.StartPeriodicReconciliation(s.cfg.Reconciliation.Interval)

	return func() { reconciler.Stop() }
}

func (s *Server) setupRouter(svcs *services, limiter *ratelimit.Limiter, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	r.Use(apphttp.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	validator := auth.NewJWTValidator(s.cfg.Auth.JWTSecret, s.cfg.Auth.Issuer)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(validator, logger))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		userservice.RegisterRoutes(r, svcs.users, logger)
		chatservice.RegisterRoutes(r, svcs.chat, logger)
		coinservice.RegisterRoutes(r, svcs.coins, logger)
		monetizationservice.RegisterRoutes(r, svcs.monetization, logger)
		referralservice.RegisterRoutes(r, svcs.referrals, logger)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleAdmin))
			userservice.RegisterAdminRoutes(r, svcs.users, logger)
			coinservice.RegisterAdminRoutes(r, svcs.coins, logger)
		})
	})

	return r
}
