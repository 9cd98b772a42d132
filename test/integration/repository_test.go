package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	pgRepo "github.com/kitbuilder587/lesson-gate/internal/repository/postgres"
)

var testDB *pgRepo.DB

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	testDB, err = pgRepo.New(ctx, connStr)
	if err != nil {
		panic(err)
	}

	if err := testDB.EnsureSchema(ctx); err != nil {
		panic(err)
	}
	// повторный вызов не должен падать
	if err := testDB.EnsureSchema(ctx); err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	pgContainer.Terminate(ctx)

	os.Exit(code)
}

func cleanSessions(t *testing.T) {
	t.Helper()
	if _, err := testDB.Pool.Exec(context.Background(), `TRUNCATE sessions`); err != nil {
		t.Fatalf("truncate sessions: %v", err)
	}
}

func TestSessionRepository_SaveAndGet_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cleanSessions(t)

	ctx := context.Background()
	repo := pgRepo.NewSessionRepo(testDB)

	overall := 0.87
	rec := &domain.SessionRecord{
		ID:           "11111111-1111-1111-1111-111111111111",
		RequesterID:  12345,
		Topic:        "Photosynthesis",
		PolicyType:   domain.PolicyStandard,
		Status:       domain.SessionAccepted,
		AttemptsUsed: 2,
		Overall:      &overall,
		FinalTitle:   "Light and Life",
		FinalContent: "# Intro\n...",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Topic != rec.Topic || got.Status != domain.SessionAccepted || got.PolicyType != domain.PolicyStandard {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.Overall == nil || *got.Overall != 0.87 {
		t.Errorf("Overall = %v, want 0.87", got.Overall)
	}
	if got.FinalTitle != "Light and Life" || got.ErrorKind != domain.KindNone {
		t.Errorf("unexpected fields %+v", got)
	}

	_, err = repo.GetByID(ctx, "no-such-session")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_Upsert_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cleanSessions(t)

	ctx := context.Background()
	repo := pgRepo.NewSessionRepo(testDB)

	rec := &domain.SessionRecord{
		ID:          "s-upsert",
		RequesterID: 1,
		Topic:       "Fractions",
		PolicyType:  domain.PolicyQuick,
		Status:      domain.SessionError,
		ErrorKind:   domain.KindGeneration,
		Message:     "generation error: 503",
		CreatedAt:   time.Now(),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Overall != nil {
		t.Errorf("Overall = %v, want NULL", *got.Overall)
	}
	if got.ErrorKind != domain.KindGeneration || got.Message != rec.Message {
		t.Errorf("unexpected error fields %+v", got)
	}

	rec.Status = domain.SessionExhausted
	rec.ErrorKind = domain.KindNone
	rec.Message = ""
	rec.AttemptsUsed = 3
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, _ = repo.GetByID(ctx, rec.ID)
	if got.Status != domain.SessionExhausted || got.AttemptsUsed != 3 || got.ErrorKind != domain.KindNone {
		t.Errorf("upsert did not update record: %+v", got)
	}
}

func TestSessionRepository_ListByRequester_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cleanSessions(t)

	ctx := context.Background()
	repo := pgRepo.NewSessionRepo(testDB)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		err := repo.Save(ctx, &domain.SessionRecord{
			ID:          fmt.Sprintf("s-%d", i),
			RequesterID: 777,
			Topic:       fmt.Sprintf("topic %d", i),
			PolicyType:  domain.PolicyStandard,
			Status:      domain.SessionExhausted,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	repo.Save(ctx, &domain.SessionRecord{
		ID: "other", RequesterID: 1, Topic: "x", PolicyType: domain.PolicyQuick,
		Status: domain.SessionAccepted, CreatedAt: time.Now(),
	})

	list, err := repo.ListByRequester(ctx, 777, 3)
	if err != nil {
		t.Fatalf("ListByRequester() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []string{"s-4", "s-3", "s-2"} {
		if list[i].ID != want {
			t.Errorf("list[%d].ID = %s, want %s", i, list[i].ID, want)
		}
	}

	empty, err := repo.ListByRequester(ctx, 404, 10)
	if err != nil {
		t.Fatalf("ListByRequester() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}
}
