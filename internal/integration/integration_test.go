package integration

import (
	"context"
	"database/sql"
	"encoding/json"
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

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
	"trivia-live-service/internal/infra/memory"
	pgloader "trivia-live-service/internal/infra/postgres"
	pgmigrations "trivia-live-service/internal/infra/postgres/migrations"
	infraredis "trivia-live-service/internal/infra/redis"
)

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgloader.NewQuizLoader(pool)
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, time.Hour)

	service := app.NewSessionService(app.ServiceConfig{
		Registry: memory.NewRegistry(),
		Sessions: sessionStore,
		Quizzes:  quizRepo,
	})

	sess, err := service.CreateSession(ctx, "host-1", "quiz-1", "", domain.Settings{
		MaxParticipants: 10,
		ShowLeaderboard: true,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	alice, err := service.Join(ctx, sess.Code, app.JoinRequest{DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	bob, err := service.Join(ctx, sess.Code, app.JoinRequest{DisplayName: "Bob"})
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}

	if _, err := service.Start(ctx, sess.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := service.SubmitAnswer(ctx, sess.Code, alice.ID, "q1", "o2", 800)
	if err != nil {
		t.Fatalf("submit alice: %v", err)
	}
	if !resp.Correct || resp.Points != 1 {
		t.Fatalf("expected correct with 1 point, got %+v", resp)
	}
	if _, err := service.SubmitAnswer(ctx, sess.Code, bob.ID, "q1", "o1", 950); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	final, err := service.End(ctx, sess.Code, "host-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if final.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", final.Status)
	}
	lb := final.Stats.Leaderboard
	if len(lb) != 2 || lb[0].ParticipantID != alice.ID {
		t.Fatalf("expected alice leading, got %+v", lb)
	}

	// The committed snapshot survives in redis, readable by another
	// process through a fresh store.
	other := infraredis.NewSessionStore(redisClient, time.Hour)
	persisted, err := other.ByCode(ctx, sess.Code)
	if err != nil {
		t.Fatalf("load persisted session: %v", err)
	}
	if persisted.Status != domain.StatusFinished || len(persisted.Participants) != 2 {
		t.Fatalf("persisted snapshot off: %+v", persisted)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
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

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "General Knowledge",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Type:   domain.QuestionQCM,
				Prompt: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3", Correct: false},
					{ID: "o2", Text: "4", Correct: true},
					{ID: "o3", Text: "5", Correct: false},
				},
				Points:       1,
				TimeLimitSec: 120,
			},
		},
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
