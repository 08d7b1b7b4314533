package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kevbol04/JuegoMultijugador/internal/config"
	"github.com/kevbol04/JuegoMultijugador/internal/repository/redis"
	"github.com/kevbol04/JuegoMultijugador/internal/repository/sqldb"
	"github.com/kevbol04/JuegoMultijugador/internal/service/bot"
	"github.com/kevbol04/JuegoMultijugador/internal/service/cleanup"
	"github.com/kevbol04/JuegoMultijugador/internal/service/game"
	"github.com/kevbol04/JuegoMultijugador/internal/service/login"
	"github.com/kevbol04/JuegoMultijugador/internal/service/matchmaking"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
	"github.com/kevbol04/JuegoMultijugador/internal/transport/client"
	transportHttp "github.com/kevbol04/JuegoMultijugador/internal/transport/http"
	"github.com/kevbol04/JuegoMultijugador/internal/transport/tcp"
	"github.com/kevbol04/JuegoMultijugador/internal/transport/websocket"
	"github.com/kevbol04/JuegoMultijugador/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found")
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStatsStore(ctx, cfg, log.Named("stats"))
	if err != nil {
		return err
	}
	defer closeStore()

	sessionManager := game.NewSessionManager(store, bot.NewEngine(), log.Named("session"))
	defer sessionManager.Shutdown()

	registry := login.NewRegistry()
	handler := client.NewHandler(
		registry,
		matchmaking.NewMatchmakingQueue(log.Named("matchmaking")),
		sessionManager,
		store,
		rate.Limit(cfg.RateLimitPerSec),
		cfg.RateLimitBurst,
		log.Named("handler"),
	)
	slots := client.NewSlots(cfg.MaxClients)

	g, gctx := errgroup.WithContext(ctx)

	tcpServer := tcp.NewServer(handler, slots, cfg.WriteTimeout, log.Named("tcp"))
	g.Go(func() error {
		return tcpServer.ListenAndServe(gctx, cfg.Addr())
	})

	if cfg.HTTPAddr != "" {
		gateway := websocket.NewGateway(gctx, handler, slots, cfg.WriteTimeout, log.Named("ws"))
		watch := transportHttp.NewWatchHandler(sessionManager, registry, store, log.Named("http"))
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           transportHttp.NewRouter(watch, gateway, log.Named("http")),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err := httpServer.Shutdown(shutdownCtx)
			gateway.Wait()
			return err
		})
	}

	if cfg.SessionMaxIdle > 0 {
		worker := cleanup.NewWorker(sessionManager, cfg.SessionMaxIdle, log.Named("cleanup"))
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	log.Info("server starting",
		zap.String("addr", cfg.Addr()),
		zap.Int("maxClients", cfg.MaxClients),
		zap.String("statsBackend", cfg.StatsBackend),
	)
	return g.Wait()
}

// openStatsStore picks the configured backend and wraps it with the redis
// snapshot cache when REDIS_URL is set. An unreachable redis only disables
// the cache.
func openStatsStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (stats.Store, func(), error) {
	var (
		store   stats.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pool := sqldb.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeMin) * time.Minute,
	}

	switch cfg.StatsBackend {
	case config.BackendPostgres:
		db, err := sqldb.Open(ctx, sqldb.DriverPostgres, cfg.DatabaseURL, pool)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		store = sqldb.NewStatsRepo(db)

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := sqldb.Open(ctx, sqldb.DriverSQLite, sqldb.SQLiteDSN(cfg.SQLitePath), pool)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		store = sqldb.NewStatsRepo(db)

	default:
		fs, err := stats.NewFileStore(cfg.StatsFile)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	}

	if cfg.RedisURL == "" {
		return store, closeAll, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, serving stats without cache", zap.Error(err))
		return store, closeAll, nil
	}
	closers = append(closers, func() { client.Close() })
	log.Info("redis connected", zap.String("url", cfg.RedisURL))

	return stats.NewCachedStore(store, redis.NewRedisCache(client), cfg.StatsCacheTTL, log), closeAll, nil
}
