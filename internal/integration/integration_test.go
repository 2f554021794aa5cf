package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"driving-exam-service/internal/app"
	"driving-exam-service/internal/domain"
	"driving-exam-service/internal/infra/memory"
	pgloader "driving-exam-service/internal/infra/postgres"
	pgmigrations "driving-exam-service/internal/infra/postgres/migrations"
	infraredis "driving-exam-service/internal/infra/redis"
)

func TestExamEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisURL := startRedis(t, ctx)

	seedBank(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewBankLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	bankRepo := infraredis.NewBankRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	history := app.NewHistory(infraredis.NewStorage(redisClient, "exam:kv:"), app.DefaultHistoryLimit)
	service := app.NewExamService(sessionStore, bankRepo, history, domain.DefaultExamConfig())

	bank, err := bankRepo.GetBank(ctx)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if bank.Len() != 50 {
		t.Fatalf("expected 50 questions from postgres, got %d", bank.Len())
	}

	session, err := service.StartExam(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	questions := session.Questions()
	if len(questions) != 20 {
		t.Fatalf("expected 20 resolved questions, got %d", len(questions))
	}
	for _, q := range questions[:14] {
		if _, err := service.SelectOption(session.ID(), q.ID, q.CorrectOptionID); err != nil {
			t.Fatalf("select: %v", err)
		}
	}

	result, err := service.CompleteExam(ctx, session.ID())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.CorrectCount != 14 || result.ScorePercentage != 70 || !result.HasPassed {
		t.Fatalf("expected a 70%% pass, got %+v", result)
	}

	stored, err := service.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(stored) != 1 || stored[0].SessionID != session.ID() || len(stored[0].AnswerDetails) != 20 {
		t.Fatalf("expected stored result, got %+v", stored)
	}
}

// startContainer runs image and returns host:port of the exposed port.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "exam", "POSTGRES_PASSWORD": "exampass", "POSTGRES_DB": "examdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://exam:exampass@%s/examdb?sslmode=disable", addr)
}

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return "redis://" + addr
}

func seedBank(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	questions, err := memory.SampleBankLoader().LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("sample bank: %v", err)
	}
	if _, err := pgloader.ImportQuestions(ctx, db, questions); err != nil {
		t.Fatalf("import questions: %v", err)
	}
	// a second import must update in place
	if n, err := pgloader.ImportQuestions(ctx, db, questions); err != nil || n != len(questions) {
		t.Fatalf("re-import: n=%d err=%v", n, err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
