package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"history-quiz/internal/app"
	"history-quiz/internal/domain"
	"history-quiz/internal/infra/memory"
	pgloader "history-quiz/internal/infra/postgres"
	pgmigrations "history-quiz/internal/infra/postgres/migrations"
	infraredis "history-quiz/internal/infra/redis"
)

func TestPlayHistoryBankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	banks := infraredis.NewBankRepository(redisClient, pgloader.NewBankLoader(pool), 5*time.Minute)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(store, banks)

	bank, err := banks.GetBank(ctx, memory.DefaultBankID)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if len(bank.Questions) != 10 {
		t.Fatalf("expected 10 seeded questions, got %d", len(bank.Questions))
	}
	if n, err := redisClient.Exists(ctx, "quiz:bank:"+memory.DefaultBankID).Result(); err != nil || n != 1 {
		t.Fatalf("expected bank cached in redis, got n=%d err=%v", n, err)
	}

	session, err := service.StartSession(ctx, memory.DefaultBankID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+session.ID()).Result(); n != 1 {
		t.Fatalf("expected session marker in redis")
	}

	for {
		st := session.State()
		if st.Phase != domain.InProgress {
			break
		}
		session.Dispatch(app.Select{Option: st.Questions[st.Index].CorrectOption})
		session.Dispatch(app.Advance{})
	}

	snap, err := service.Snapshot(ctx, session.ID())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Result == nil || *snap.Result != (domain.Result{Score: 10, Total: 10}) {
		t.Fatalf("expected 10/10, got %+v", snap.Result)
	}

	service.EndSession(ctx, session.ID())
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+session.ID()).Result(); n != 0 {
		t.Fatalf("expected session marker removed")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// migrateAndSeed runs the same migrations as the migrate command, which also
// seed the embedded banks.
func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
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
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
