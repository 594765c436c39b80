package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/LeJamon/goMarketd/internal/config"
	"github.com/LeJamon/goMarketd/internal/core/ledger/genesis"
	"github.com/LeJamon/goMarketd/internal/core/ledger/service"
	"github.com/LeJamon/goMarketd/internal/logging"
	"github.com/LeJamon/goMarketd/internal/rpc"
	"github.com/LeJamon/goMarketd/internal/storage/database"
	"github.com/LeJamon/goMarketd/internal/storage/database/leveldb"
	"github.com/LeJamon/goMarketd/internal/storage/database/pebble"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb/postgres"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const metricsNamespace = "marketd"

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketd server",
	Long: `Start the marketd server which provides:
- HTTP JSON-RPC API on /
- WebSocket transaction and ledger streams on /ws
- Prometheus metrics on /metrics
- Health check on /health

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if debugLog {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer n.Close()

	addr := net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return n.Serve(ctx, ln)
}

// node is a running ledger service with its storage and HTTP surface
type node struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       database.DB
	service  *service.Service
	handler  *rpc.Handler
	registry *prometheus.Registry
}

func openNode(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*node, error) {
	db, err := openStateDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	history, err := openHistory(ctx, cfg.History)
	if err != nil {
		db.Close()
		return nil, err
	}

	var gen *genesis.Config
	if cfg.GenesisFile != "" {
		if gen, err = genesis.Load(cfg.GenesisFile); err != nil {
			db.Close()
			if history != nil {
				history.Close()
			}
			return nil, fmt.Errorf("load genesis: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := service.New(ctx, service.Config{
		DB:               db,
		Genesis:          gen,
		EntryRent:        cfg.Engine.EntryRent,
		VerifySignatures: cfg.Engine.VerifySignatures,
		History:          history,
		Logger:           logger,
		Metrics:          service.NewMetrics(metricsNamespace, registry),
	})
	if err != nil {
		db.Close()
		if history != nil {
			history.Close()
		}
		return nil, err
	}

	handler := rpc.NewHandler(svc, rpc.HandlerOptions{
		Logger:       logger,
		Gatherer:     registry,
		PingInterval: cfg.Server.WebsocketPingInterval,
	})

	logger.Info("node opened",
		zap.String("backend", cfg.Database.Backend),
		zap.String("compression", cfg.Database.Compression),
		zap.String("history", cfg.History.Driver),
		zap.Bool("verify_signatures", cfg.Engine.VerifySignatures),
		zap.Uint64("entry_rent", cfg.Engine.EntryRent))

	return &node{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		service:  svc,
		handler:  handler,
		registry: registry,
	}, nil
}

// Serve runs the HTTP server on ln until ctx is done, then shuts it down
// within the configured timeout.
func (n *node) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      n.handler,
		ReadTimeout:  n.cfg.Server.ReadTimeout,
		WriteTimeout: n.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n.logger.Info("listening",
			zap.String("rpc", "http://"+ln.Addr().String()+"/"),
			zap.String("websocket", "ws://"+ln.Addr().String()+"/ws"))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		n.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), n.cfg.Server.ShutdownTimeout)
		defer cancel()
		n.handler.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close stops the service and closes storage
func (n *node) Close() error {
	return errors.Join(n.service.Close(), n.db.Close())
}

// openStateDB opens the configured key-value backend, wrapped with
// value compression unless it is disabled.
func openStateDB(cfg config.DatabaseConfig) (database.DB, error) {
	var (
		db  database.DB
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "pebble":
		db, err = pebble.Open(cfg.Path)
	case "leveldb":
		db, err = leveldb.Open(cfg.Path)
	case "memory":
		db, err = leveldb.OpenMemory()
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Backend, err)
	}

	if cfg.Compression == "" || cfg.Compression == "none" {
		return db, nil
	}
	compressed, err := database.NewCompressed(db, cfg.Compression)
	if err != nil {
		db.Close()
		return nil, err
	}
	return compressed, nil
}

// openHistory opens the transaction history repository. It returns nil
// when history is disabled.
func openHistory(ctx context.Context, cfg relationaldb.Config) (relationaldb.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}

	var (
		repo *relationaldb.SQLRepository
		err  error
	)
	switch cfg.Driver {
	case relationaldb.DriverSQLite:
		repo, err = sqlite.Open(ctx, &cfg)
	case relationaldb.DriverPostgres:
		repo, err = postgres.Open(ctx, &cfg)
	default:
		return nil, relationaldb.ErrInvalidDriver
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize <= 0 {
		return repo, nil
	}
	cached, err := relationaldb.NewCachedRepository(repo, cfg.CacheSize)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return cached, nil
}
