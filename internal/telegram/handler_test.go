package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

func TestMapErrorToMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty topic", domain.ErrEmptyTopic, "Пустая тема. Напишите, о чем нужен урок."},
		{"too long", domain.ErrTopicTooLong, "Тема слишком длинная. Максимум 500 символов."},
		{"invalid level", domain.ErrInvalidLevel, "Неизвестный уровень. Доступны: beginner, intermediate, advanced."},
		{"configuration", domain.ErrConfiguration, "Сервис настроен неверно. Сообщите администратору."},
		{"cancelled", domain.ErrCancelled, "Время на подготовку урока истекло. Попробуйте /quick."},
		{"deadline", fmt.Errorf("%w: %w", domain.ErrGeneration, context.DeadlineExceeded), "Время на подготовку урока истекло. Попробуйте /quick."},
		{"schema", domain.ErrSchema, "Критик вернул некорректную оценку. Попробуйте еще раз."},
		{"validation", domain.ErrValidation, "Критик вернул некорректную оценку. Попробуйте еще раз."},
		{"generation", domain.ErrGeneration, "Не удалось написать урок. Попробуйте позже."},
		{"evaluation", domain.ErrEvaluation, "Не удалось оценить урок. Попробуйте позже."},
		{"unknown", errors.New("some random error"), "Произошла ошибка. Попробуйте позже."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErrorToMessage(tt.err)
			if got != tt.want {
				t.Errorf("mapErrorToMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapErrorToMessage_WrappedErrors(t *testing.T) {
	wrappedErr := fmt.Errorf("attempt 2: %w", domain.ErrEvaluation)
	got := mapErrorToMessage(wrappedErr)
	want := "Не удалось оценить урок. Попробуйте позже."
	if got != want {
		t.Errorf("mapErrorToMessage(wrapped) = %v, want %v", got, want)
	}
}

func TestHandler_LessonPolicies(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTopic  string
		wantPolicy domain.PolicyType
		wantMarker string
	}{
		{"quick", "/quick закон Ома", "закон Ома", domain.PolicyQuick, "Быстрый режим"},
		{"thorough", "/thorough фотосинтез", "фотосинтез", domain.PolicyThorough, "Тщательный режим"},
		{"lesson", "/lesson дроби", "дроби", domain.PolicyStandard, ""},
		{"plain text", "простые   числа", "простые числа", domain.PolicyStandard, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLessonService{}
			bot, api := createTestBot(svc, BotConfig{})

			bot.handler.HandleMessage(context.Background(), createTestMessage(123, tt.text))

			calls := svc.calls()
			if len(calls) != 1 {
				t.Fatalf("Generate calls = %d, want 1", len(calls))
			}
			req := calls[0]
			if req.Topic != tt.wantTopic {
				t.Errorf("Topic = %q, want %q", req.Topic, tt.wantTopic)
			}
			if req.Policy.Type != tt.wantPolicy {
				t.Errorf("Policy = %v, want %v", req.Policy.Type, tt.wantPolicy)
			}
			if req.RequesterID != 123 {
				t.Errorf("RequesterID = %d, want 123", req.RequesterID)
			}
			if api.actions != 1 {
				t.Errorf("typing actions = %d, want 1", api.actions)
			}

			reply := api.last()
			if !strings.Contains(reply, "Mock lesson") {
				t.Errorf("reply should contain the lesson, got %q", reply)
			}
			if tt.wantMarker != "" && !strings.Contains(reply, tt.wantMarker) {
				t.Errorf("reply should contain %q, got %q", tt.wantMarker, reply)
			}
		})
	}
}

func TestHandler_ConfiguredPolicyIsUsed(t *testing.T) {
	capped := domain.ThoroughPolicy()
	capped.MaxAttempts = 6

	svc := &MockLessonService{}
	bot, _ := createTestBot(svc, BotConfig{
		Policies: map[domain.PolicyType]domain.Policy{domain.PolicyThorough: capped},
	})

	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "/thorough клетка"))

	calls := svc.calls()
	if len(calls) != 1 || calls[0].Policy.MaxAttempts != 6 {
		t.Fatalf("expected capped thorough policy, got %+v", calls)
	}
}

func TestHandler_EmptyTopic(t *testing.T) {
	svc := &MockLessonService{}
	bot, api := createTestBot(svc, BotConfig{})

	bot.handler.HandleMessage(context.Background(), createTestMessage(123, "/quick   "))

	if len(svc.calls()) != 0 {
		t.Error("Generate must not be called without a topic")
	}
	if !strings.Contains(api.last(), "Укажите тему") {
		t.Errorf("unexpected reply %q", api.last())
	}
}

func TestHandler_RateLimit(t *testing.T) {
	svc := &MockLessonService{}
	bot, api := createTestBot(svc, BotConfig{RequestsPerMinute: 1})

	bot.handler.HandleMessage(context.Background(), createTestMessage(5, "первая тема"))
	bot.handler.HandleMessage(context.Background(), createTestMessage(5, "вторая тема"))
	bot.handler.HandleMessage(context.Background(), createTestMessage(6, "тема другого пользователя"))

	if got := len(svc.calls()); got != 2 {
		t.Errorf("Generate calls = %d, want 2", got)
	}

	found := false
	for _, text := range api.texts() {
		if strings.Contains(text, "Слишком много запросов") {
			found = true
		}
	}
	if !found {
		t.Error("expected rate limit reply")
	}
}

func TestHandler_GenerateError(t *testing.T) {
	svc := &MockLessonService{
		GenerateFunc: func(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error) {
			return &domain.SessionResult{Status: domain.SessionError, ErrorKind: domain.KindEvaluation},
				fmt.Errorf("%w: critic timeout", domain.ErrEvaluation)
		},
	}
	bot, api := createTestBot(svc, BotConfig{})

	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "/lesson клетка"))

	if got := api.last(); got != "Не удалось оценить урок. Попробуйте позже." {
		t.Errorf("reply = %q", got)
	}
}

func TestHandler_LongLessonIsSplit(t *testing.T) {
	long := strings.Repeat("Очень длинный абзац урока. ", 400)
	svc := &MockLessonService{
		GenerateFunc: func(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error) {
			return &domain.SessionResult{
				Status:        domain.SessionAccepted,
				AttemptsUsed:  1,
				FinalArtifact: &domain.Lesson{Title: "T", Content: long},
				FinalVerdict:  &domain.Verdict{Aggregate: domain.Aggregate{Overall: 0.9, Status: domain.StatusPass}},
			}, nil
		},
	}
	bot, api := createTestBot(svc, BotConfig{})

	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "тема"))

	texts := api.texts()
	if len(texts) < 2 {
		t.Fatalf("expected split reply, got %d messages", len(texts))
	}
	for i, text := range texts {
		if len(text) > maxMessageLen {
			t.Errorf("message %d is %d bytes, limit %d", i, len(text), maxMessageLen)
		}
	}
}

func TestHandler_Commands(t *testing.T) {
	overall := 0.91
	svc := &MockLessonService{
		RecentFunc: func(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error) {
			if requesterID != 9 {
				return nil, nil
			}
			return []domain.SessionRecord{{
				Topic:        "Простые числа",
				Status:       domain.SessionAccepted,
				AttemptsUsed: 2,
				Overall:      &overall,
				CreatedAt:    time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
			}}, nil
		},
	}

	tests := []struct {
		name   string
		userID int64
		text   string
		want   string
	}{
		{"start", 1, "/start", "Добро пожаловать"},
		{"help lists modes", 1, "/help", "/thorough тема - Тщательный (до 10 попыток)"},
		{"rubric", 1, "/rubric", "accuracy: вес 0.25, порог 0.80"},
		{"history", 9, "/history", "Простые числа"},
		{"empty history", 1, "/history", "У вас пока нет уроков"},
		{"unknown", 1, "/sources", "Неизвестная команда"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, api := createTestBot(svc, BotConfig{})

			bot.handler.HandleMessage(context.Background(), createTestMessage(tt.userID, tt.text))

			if !strings.Contains(api.last(), tt.want) {
				t.Errorf("reply = %q, want it to contain %q", api.last(), tt.want)
			}
		})
	}

	if len(svc.calls()) != 0 {
		t.Error("commands must not start lesson sessions")
	}
}

func TestHandler_HistoryError(t *testing.T) {
	svc := &MockLessonService{
		RecentFunc: func(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error) {
			return nil, errors.New("db down")
		},
	}
	bot, api := createTestBot(svc, BotConfig{})

	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "/history"))

	if api.last() != "Произошла ошибка. Попробуйте позже." {
		t.Errorf("reply = %q", api.last())
	}
}
