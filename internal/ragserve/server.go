// Package ragserve provides the RAG query service server implementation.
package ragserve

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/ragserve/internal/ragserve/biz"
	"github.com/kart-io/ragserve/internal/ragserve/handler"
	"github.com/kart-io/ragserve/internal/ragserve/metrics"
	"github.com/kart-io/ragserve/internal/ragserve/router"
	"github.com/kart-io/ragserve/internal/ragserve/store"
	"github.com/kart-io/ragserve/pkg/llm"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/ragserve/pkg/llm/ollama"
	_ "github.com/kart-io/ragserve/pkg/llm/openai"

	cacheopts "github.com/kart-io/ragserve/pkg/options/cache"
	httpopts "github.com/kart-io/ragserve/pkg/options/http"
	llmopts "github.com/kart-io/ragserve/pkg/options/llm"
	logopts "github.com/kart-io/ragserve/pkg/options/logger"
	metricsopts "github.com/kart-io/ragserve/pkg/options/metrics"
	ragopts "github.com/kart-io/ragserve/pkg/options/rag"
	storeopts "github.com/kart-io/ragserve/pkg/options/store"
)

// Name is the name of the application.
const Name = "ragserve"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	StoreOptions     *storeopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	RAGOptions       *ragopts.Options
	CacheOptions     *cacheopts.Options
	MetricsOptions   *metricsopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the RAG server.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	storeClose      func()
	redisClose      func()
	sinkClose       func()
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting RAG service...")

	// 2. 初始化向量存储
	vectorStore, err := newVectorStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if err := vectorStore.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare vector store: %w", err)
	}
	logger.Infow("Vector store initialized", "backend", cfg.StoreOptions.Backend)

	// 3. 初始化 Redis 客户端（用于缓存）
	redisClient, redisClose := newRedisClient(ctx, cfg)
	queryCache := biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
		Enabled:   cfg.CacheOptions.Enabled && redisClient != nil,
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	})

	// 4. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	if cfg.RAGOptions.CacheEmbeddings && redisClient != nil {
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisClient, nil)
		logger.Info("Embedding cache enabled")
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	// 对话供应商初始化失败不阻止启动：替换为不可用供应商，
	// 查询降级为固定回答
	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		logger.Warnw("Chat provider unavailable, queries will degrade to the fallback answer",
			"provider", cfg.ChatOptions.Provider,
			"error", err.Error(),
		)
		chatProvider = llm.UnavailableChatProvider(cfg.ChatOptions.Provider)
	} else {
		if p, ok := chatProvider.(llm.Pinger); ok {
			if pingErr := p.Ping(ctx); pingErr != nil {
				logger.Warnw("Chat provider ping failed, continuing startup",
					"provider", cfg.ChatOptions.Provider,
					"error", pingErr.Error(),
				)
			}
		}
		logger.Infow("Chat provider initialized",
			"provider", cfg.ChatOptions.Provider,
			"model", cfg.ChatOptions.Model,
		)
	}

	// 5. 初始化指标记录
	sink, sinkClose, err := newMetricsSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics sink: %w", err)
	}

	// 6. 初始化 Biz 层
	chunker, err := biz.NewChunker(cfg.RAGOptions.ChunkStrategy, &biz.ChunkerConfig{
		ChunkSize:    cfg.RAGOptions.ChunkSize,
		ChunkOverlap: cfg.RAGOptions.ChunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	ragService := biz.NewRAGService(vectorStore, embedProvider, chatProvider, chunker, queryCache, sink, &biz.ServiceConfig{
		IndexerConfig:   &biz.IndexerConfig{},
		RetrieverConfig: &biz.RetrieverConfig{TopK: cfg.RAGOptions.TopK},
		GeneratorConfig: &biz.GeneratorConfig{SystemPrompt: cfg.RAGOptions.SystemPrompt},
		CostPer1KTokens: cfg.RAGOptions.CostPer1KTokens,
	})
	logger.Infow("RAG service initialized",
		"cache.enabled", queryCache.Enabled(),
		"chunk.strategy", chunker.Name(),
		"top_k", cfg.RAGOptions.TopK,
	)

	// 7. 初始化 Handler 层并注册路由
	ragHandler := handler.NewRAGHandler(ragService, cfg.MetricsOptions.RecentLimit)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = cfg.HTTPOptions.MaxUploadSize
	router.Register(engine, ragHandler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("RAG service is ready")
	return &Server{
		httpServer:      httpServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		storeClose:      func() { _ = vectorStore.Close(context.Background()) },
		redisClose:      redisClose,
		sinkClose:       sinkClose,
	}, nil
}

// newVectorStore 根据配置的后端创建向量存储。
func newVectorStore(cfg *Config) (store.VectorStore, error) {
	switch cfg.StoreOptions.Backend {
	case storeopts.BackendMilvus:
		return store.NewMilvusStore(cfg.StoreOptions, cfg.RAGOptions.EmbeddingDim)
	case storeopts.BackendChromem:
		return store.NewChromemStore(cfg.StoreOptions)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreOptions.Backend)
	}
}

// newRedisClient 创建并验证 Redis 连接。连接失败时返回 nil，
// 缓存整体降级而不是阻止启动。
func newRedisClient(ctx context.Context, cfg *Config) (*goredis.Client, func()) {
	if !cfg.CacheOptions.Enabled {
		logger.Info("Cache is disabled")
		return nil, nil
	}

	redisOpts := cfg.CacheOptions.Redis
	if redisOpts == nil {
		logger.Warn("Cache is enabled but no Redis configuration provided")
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         redisOpts.Addr(),
		Password:     redisOpts.Password,
		DB:           redisOpts.Database,
		MaxRetries:   redisOpts.MaxRetries,
		PoolSize:     redisOpts.PoolSize,
		MinIdleConns: redisOpts.MinIdleConns,
		DialTimeout:  redisOpts.DialTimeout,
		ReadTimeout:  redisOpts.ReadTimeout,
		WriteTimeout: redisOpts.WriteTimeout,
	})

	// 测试 Redis 连接
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		_ = client.Close()
		return nil, nil
	}

	logger.Infow("Redis cache initialized",
		"addr", redisOpts.Addr(),
		"ttl", cfg.CacheOptions.TTL,
	)
	return client, func() { _ = client.Close() }
}

// newMetricsSink 创建查询记录存储。禁用时使用空实现。
func newMetricsSink(cfg *Config) (metrics.Sink, func(), error) {
	if !cfg.MetricsOptions.Enabled {
		logger.Info("Query metrics recording is disabled")
		return metrics.NopSink{}, nil, nil
	}

	sink, err := metrics.NewSQLiteSink(cfg.MetricsOptions)
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("Metrics sink initialized", "path", cfg.MetricsOptions.Path)
	return sink, func() { _ = sink.Close() }, nil
}

// Run starts the server and blocks until a termination signal arrives,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if s.storeClose != nil {
			s.storeClose()
		}
		if s.redisClose != nil {
			s.redisClose()
		}
		if s.sinkClose != nil {
			s.sinkClose()
		}
	}()

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-signalCtx.Done():
	}

	logger.Info("Shutting down...")

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
