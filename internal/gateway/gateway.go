// ABOUTME: Gateway orchestrator that wires the store, services, and HTTP server
// ABOUTME: Manages tool registration, rate limiting, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/laburen/shop-gateway/internal/cart"
	"github.com/laburen/shop-gateway/internal/catalog"
	"github.com/laburen/shop-gateway/internal/chatwoot"
	"github.com/laburen/shop-gateway/internal/config"
	"github.com/laburen/shop-gateway/internal/mcp"
	"github.com/laburen/shop-gateway/internal/store"
	"github.com/laburen/shop-gateway/internal/tools"
)

// Version is reported in MCP initialize responses. Overridden at build time
// via -ldflags.
var Version = "dev"

// Gateway orchestrates the shop-gateway server components. It owns the
// store, the domain services, the tool registry, and the HTTP server.
type Gateway struct {
	config     *config.Config
	store      store.Store
	catalog    *catalog.Service
	cart       *cart.Service
	chatwoot   *chatwoot.Client
	registry   *tools.Registry
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates and returns a store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SHOP_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// registerTools registers the full tool catalog on the registry in the
// order it is advertised by tools/list.
func registerTools(registry *tools.Registry, cat *catalog.Service, crt *cart.Service, cw *chatwoot.Client) error {
	if err := registry.Register(tools.CatalogTools(cat)...); err != nil {
		return fmt.Errorf("registering catalog tools: %w", err)
	}
	if err := registry.Register(tools.CartTools(crt)...); err != nil {
		return fmt.Errorf("registering cart tools: %w", err)
	}
	if err := registry.Register(tools.ChatwootTools(cw)...); err != nil {
		return fmt.Errorf("registering chatwoot tools: %w", err)
	}
	return nil
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	catalogSvc := catalog.New(s, logger.With("component", "catalog"))
	cartSvc := cart.New(s, logger.With("component", "cart"))

	chatwootClient := chatwoot.New(chatwoot.Config{
		BaseURL:   cfg.Chatwoot.BaseURL,
		AccountID: cfg.Chatwoot.AccountID,
		APIToken:  cfg.Chatwoot.APIToken,
		Timeout:   cfg.Chatwoot.Timeout,
		Logger:    logger,
	})
	if chatwootClient.Configured() {
		logger.Info("chatwoot integration enabled", "base_url", cfg.Chatwoot.BaseURL)
	} else {
		logger.Warn("chatwoot integration disabled - CRM tools will return errors")
	}

	registry := tools.NewRegistry(logger.With("component", "tool-registry"))
	if err := registerTools(registry, catalogSvc, cartSvc, chatwootClient); err != nil {
		_ = s.Close()
		return nil, err
	}
	dispatcher := tools.NewDispatcher(registry, logger.With("component", "dispatcher"))

	gw := &Gateway{
		config:   cfg,
		store:    s,
		catalog:  catalogSvc,
		cart:     cartSvc,
		chatwoot: chatwootClient,
		registry: registry,
		logger:   logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoint, outside the MCP surface and never rate limited
	mux.HandleFunc("/health", gw.handleHealth)

	gw.mcpServer = mcp.NewServer(mcp.Config{
		Registry:       registry,
		Dispatcher:     dispatcher,
		Logger:         logger.With("component", "mcp"),
		AllowedOrigins: cfg.ParsedOrigins(),
		ServerName:     "shop-gateway",
		ServerVersion:  Version,
	})

	mcpMux := http.NewServeMux()
	gw.mcpServer.RegisterRoutes(mcpMux)
	mux.Handle("/mcp", gw.rateLimitMiddleware(mcpMux))

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// rateLimitMiddleware wraps the MCP endpoint with a token-bucket rate
// limiter when one is configured. Exhausted budgets get HTTP 429.
func (g *Gateway) rateLimitMiddleware(next http.Handler) http.Handler {
	if g.config.Server.RateLimit <= 0 {
		return next
	}

	burst := g.config.Server.RateBurst
	if burst <= 0 {
		burst = int(g.config.Server.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(g.config.Server.RateLimit), burst)

	g.logger.Info("rate limiting enabled",
		"requests_per_second", g.config.Server.RateLimit,
		"burst", burst,
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the
// server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// Handler returns the gateway's root HTTP handler. Exposed for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
