package http

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"catetrust/internal/config"
	"catetrust/internal/domain"
	"catetrust/internal/infra/cachemem"
	"catetrust/internal/infra/db"
	"catetrust/internal/infra/memstore"
	"catetrust/internal/infra/policyopa"
	"catetrust/internal/infra/ratelimit"
	"catetrust/internal/infra/replay"
	"catetrust/internal/usecase"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	trust   *usecase.TrustService
	publish *usecase.PublishDecision
	verify  *usecase.VerifyDecision
	query   *usecase.QueryRiskStatus
	audit   *usecase.AuditEmitter

	auditRepo usecase.AuditEventRepository

	adminAPIKey string

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	// Asset IDs contain slashes ("BTC/USD"); match routes on the escaped path.
	r.UseRawPath = true
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

// ServerDeps lets tests assemble a server from fakes without touching
// postgres or redis.
type ServerDeps struct {
	Trust       *usecase.TrustService
	Publish     *usecase.PublishDecision
	Verify      *usecase.VerifyDecision
	Query       *usecase.QueryRiskStatus
	Audit       *usecase.AuditEmitter
	AuditRepo   usecase.AuditEventRepository
	AdminAPIKey string
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.UseRawPath = true
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		trust:       deps.Trust,
		publish:     deps.Publish,
		verify:      deps.Verify,
		query:       deps.Query,
		audit:       deps.Audit,
		auditRepo:   deps.AuditRepo,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	s.adminAPIKey = s.cfg.AdminAPIKey

	var (
		configs  usecase.TrustConfigStore
		registry usecase.RiskRegistry
	)
	if s.store != nil && s.store.DB != nil {
		configs = db.NewTrustConfigRepository(s.store.DB)
		registry = db.NewAssetRiskRepository(s.store.DB)
		s.auditRepo = db.NewAuditEventRepository(s.store.DB)
	} else {
		configs = memstore.NewTrustConfigStore()
		registry = memstore.NewRiskRegistry()
		s.auditRepo = memstore.NewAuditEventRepository()
	}

	ledgerCfg := replay.MemoryLedgerConfig{
		Capacity:         s.cfg.LedgerCapacity,
		RetentionSeconds: int64(s.cfg.LedgerRetentionSeconds),
	}
	var ledger usecase.ReplayLedger
	if s.cfg.RedisAddr != "" {
		redisLedger, err := replay.NewRedisLedger(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, ledgerCfg)
		if err != nil {
			log.Printf("redis ledger unavailable: %v; falling back to in-memory ledger", err)
		} else {
			ledger = redisLedger
		}
	}
	if ledger == nil {
		ledger = replay.NewMemoryLedger(ledgerCfg)
	}

	var policy usecase.PolicyEngine
	if s.cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), s.cfg.PolicyBundlePath, s.cfg.PolicyBundleID)
		if err != nil {
			log.Printf("policy bundle %q not loaded: %v; publishes run ungated", s.cfg.PolicyBundlePath, err)
		} else {
			policy = engine
		}
	}

	s.audit = usecase.NewAuditEmitter(s.auditRepo, nil)
	s.trust = usecase.NewTrustService(configs, ledger, s.audit, nil)
	s.publish = &usecase.PublishDecision{
		Configs:  configs,
		Registry: registry,
		Ledger:   ledger,
		Policy:   policy,
		Audit:    s.audit,
	}
	s.verify = &usecase.VerifyDecision{
		Configs:  configs,
		Ledger:   ledger,
		Cache:    cachemem.New(),
		CacheTTL: s.cfg.VerifyCacheTTL(),
	}
	s.query = &usecase.QueryRiskStatus{Registry: registry}

	var limiter domain.RateLimiter
	if s.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if rl, err := ratelimit.NewRedisLimiter(client, nil); err == nil {
			limiter = rl
		}
	}
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: s.cfg.RateLimitMaxKeys})
	}
	s.initRateLimit(limiter)
}

func (s *Server) initRateLimit(limiter domain.RateLimiter) {
	s.rateLimiter = limiter
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)

	v1 := s.r.Group("/v1")
	v1.POST("/trust/bootstrap", s.handleBootstrap)
	v1.POST("/trust/signer", s.handleRotateSigner)
	v1.GET("/trust/config", s.handleGetTrustConfig)

	v1.POST("/risk/decisions", s.handlePublishDecision)
	v1.POST("/risk/decisions/verify", s.handleVerifyDecision)
	v1.GET("/risk/assets/:asset_id", s.handleGetAssetRisk)

	v1.GET("/audit/events", s.handleListAuditEvents)
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() *gin.Engine {
	return s.r
}
