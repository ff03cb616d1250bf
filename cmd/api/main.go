// @title                      Accounts API
// @version                    1.0
// @description                User registration, login and profile management with opaque bearer tokens.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	_ "github.com/useraccounts/accounts-api/docs"
	"github.com/useraccounts/accounts-api/internal/api"
	"github.com/useraccounts/accounts-api/internal/api/handler"
	"github.com/useraccounts/accounts-api/internal/core/ports"
	"github.com/useraccounts/accounts-api/internal/core/service"
	mongodb "github.com/useraccounts/accounts-api/internal/infrastructure/db/mongo"
	"github.com/useraccounts/accounts-api/internal/infrastructure/db/postgres"
	redisdb "github.com/useraccounts/accounts-api/internal/infrastructure/db/redis"
	"github.com/useraccounts/accounts-api/internal/pkg/config"
	"github.com/useraccounts/accounts-api/pkg/logger"
)

// stores groups the persistence adapters for the selected driver.
type stores struct {
	users  ports.UserStore
	tokens ports.TokenStore
	tx     ports.Transactor
	pinger handler.Pinger
	close  func(ctx context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})
	log := logger.Get()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open stores")
	}

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	locker := redisdb.NewMintLock(rdb, cfg.Auth.MintLockTTL, cfg.Auth.MintLockWait)
	authService := service.NewAuthService(st.users, st.tokens, st.tx, locker, hasher, log)
	accountService := service.NewAccountService(st.users, st.tokens, st.tx, authService, hasher, log)

	e := api.NewRouter(api.Deps{
		AuthService:    authService,
		AccountService: accountService,
		Log:            log,
		Readiness: map[string]handler.Pinger{
			cfg.StoreDriver: st.pinger,
			"redis":         redisdb.NewPinger(rdb),
		},
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	st.close(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("postgres migrations applied")
		return &stores{
			users:  postgres.NewUserStore(pool),
			tokens: postgres.NewTokenStore(pool),
			tx:     postgres.NewTransactor(pool),
			pinger: postgres.NewPinger(pool),
			close:  func(context.Context) { pool.Close() },
		}, nil

	default:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		users := mongodb.NewUserStore(db)
		tokens := mongodb.NewTokenStore(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := tokens.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			users:  users,
			tokens: tokens,
			tx:     mongodb.NewTransactor(client),
			pinger: mongodb.NewPinger(db),
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					log.Error().Err(err).Msg("mongo disconnect")
				}
			},
		}, nil
	}
}
