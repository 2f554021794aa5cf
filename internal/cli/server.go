package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"driving-exam-service/internal/app"
	"driving-exam-service/internal/config"
	"driving-exam-service/internal/infra/memory"
	pgloader "driving-exam-service/internal/infra/postgres"
	infraredis "driving-exam-service/internal/infra/redis"
	"driving-exam-service/internal/infra/sqlite"
	"driving-exam-service/internal/logger"
	transport "driving-exam-service/internal/transport/http"
)

const redisKVPrefix = "exam:kv:"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	loader, closeLoader, err := bankLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bankRepo app.BankRepository
	var store app.SessionRepository
	if redisClient != nil {
		bankRepo = infraredis.NewBankRepository(redisClient, loader, bankTTL)
		store = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		bankRepo = memory.NewBankRepository(loader, bankTTL)
		store = memory.NewSessionStore()
	}

	bank, err := bankRepo.GetBank(ctx)
	if err != nil {
		return err
	}
	if bank.Len() < cfg.Exam.TotalQuestions {
		log.Warn().Int("bank", bank.Len()).Int("total_questions", cfg.Exam.TotalQuestions).
			Msg("bank holds fewer questions than the exam draws from")
	}

	storage, closeStorage, err := historyStorage(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStorage()

	service := app.NewExamService(store, bankRepo, app.NewHistory(storage, cfg.History.Limit), cfg.ExamConfig(),
		app.WithLogger(log))
	ws := transport.NewWSHandler(service, log, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           transport.NewRouter(service, ws, log),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("bank", cfg.Bank.Source).
			Str("history", cfg.History.Backend).
			Bool("redis", redisClient != nil).
			Msg("starting exam service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func bankLoader(ctx context.Context, cfg config.Config) (memory.BankLoader, func(), error) {
	switch cfg.Bank.Source {
	case config.BankSourcePostgres:
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgloader.NewBankLoader(pool), pool.Close, nil
	case config.BankSourceFile:
		return memory.NewFileBankLoader(cfg.Bank.File), func() {}, nil
	default:
		return memory.SampleBankLoader(), func() {}, nil
	}
}

func historyStorage(ctx context.Context, cfg config.Config, client *redis.Client) (app.Storage, func(), error) {
	switch cfg.History.Backend {
	case config.HistoryBackendRedis:
		return infraredis.NewStorage(client, redisKVPrefix), func() {}, nil
	case config.HistoryBackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memory.NewStorage(), func() {}, nil
	}
}

