package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

const (
	// лимит телеграма
	maxMessageLen = 4096
	historyLimit  = 10
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if isLessonCommand(msg) {
		h.handleLesson(ctx, msg)
		return
	}
	h.handleCommand(ctx, msg)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch strings.ToLower(msg.Command()) {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "rubric":
		h.handleRubric(ctx, msg)
	case "history":
		h.handleHistory(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, "Добро пожаловать! Пришлите тему, и я подготовлю урок, "+
		"который прошел проверку критиком.\n\nИспользуйте /help для просмотра доступных команд.")
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	helpText := fmt.Sprintf(`<b>Доступные команды:</b>

/start - Начало работы
/help - Показать эту справку
/rubric - Рубрика, по которой оценивается урок
/history - Ваши последние уроки

<b>Режимы:</b>
/quick тема - Быстрый (до %d попыток)
/lesson тема - Стандартный (до %d попыток)
/thorough тема - Тщательный (до %d попыток)

<b>Как использовать:</b>
Просто отправьте тему урока. Черновик проверяет критик, и пока оценка ниже порога, автор переписывает урок по его замечаниям.

<b>Примеры:</b>
• Обычный урок: "Простые числа"
• Быстро: /quick закон Ома
• Тщательно: /thorough фотосинтез`,
		h.bot.policy(domain.PolicyQuick).MaxAttempts,
		h.bot.policy(domain.PolicyStandard).MaxAttempts,
		h.bot.policy(domain.PolicyThorough).MaxAttempts,
	)

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleRubric(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, FormatRubric(h.bot.lessons.Rubric()))
}

func (h *Handler) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	recs, err := h.bot.lessons.Recent(ctx, msg.From.ID, historyLimit)
	if err != nil {
		h.bot.logger.Error("failed to list sessions", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if len(recs) == 0 {
		h.bot.Send(msg.Chat.ID, "У вас пока нет уроков. Пришлите тему, чтобы начать.")
		return
	}

	h.bot.Send(msg.Chat.ID, FormatHistory(recs))
}

func (h *Handler) handleLesson(ctx context.Context, msg *tgbotapi.Message) {
	topic, policyType := ParseLessonCommand(msg.Text, h.bot.lessons.DefaultPolicy().Type)
	if topic == "" {
		h.bot.Send(msg.Chat.ID, "Укажите тему урока: /lesson простые числа")
		return
	}

	h.processLesson(ctx, msg, topic, h.bot.policy(policyType))
}

func (h *Handler) processLesson(ctx context.Context, msg *tgbotapi.Message, topic string, policy domain.Policy) {
	if !h.bot.rateLimiter.Allow(msg.From.ID) {
		resetTime := h.bot.rateLimiter.ResetTime(msg.From.ID)
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", msg.From.ID),
			zap.Time("reset_at", resetTime),
		)
		h.bot.RecordRateLimitHit(msg.From.ID)
		h.bot.Send(msg.Chat.ID, "Слишком много запросов. Пожалуйста, подождите минуту.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	h.bot.logger.Info("processing lesson with policy",
		zap.Int64("user_id", msg.From.ID),
		zap.String("policy", policy.Type.String()),
		zap.Int("max_attempts", policy.MaxAttempts),
		zap.Int("brief_size", policy.BriefSize),
	)

	res, err := h.bot.lessons.Generate(ctx, domain.LessonRequest{
		RequesterID: msg.From.ID,
		Topic:       topic,
		Policy:      policy,
	})
	if err != nil {
		h.bot.logger.Error("lesson session failed",
			zap.Error(err),
			zap.Int64("user_id", msg.From.ID),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	formatted := FormatSessionResult(res)
	if indicator := FormatPolicyIndicator(policy); indicator != "" {
		formatted = indicator + "\n\n" + formatted
	}

	for _, m := range SplitMessage(formatted, maxMessageLen) {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTopic):
		return "Пустая тема. Напишите, о чем нужен урок."
	case errors.Is(err, domain.ErrTopicTooLong):
		return fmt.Sprintf("Тема слишком длинная. Максимум %d символов.", domain.MaxTopicLength)
	case errors.Is(err, domain.ErrInvalidLevel):
		return "Неизвестный уровень. Доступны: beginner, intermediate, advanced."
	case errors.Is(err, domain.ErrConfiguration):
		return "Сервис настроен неверно. Сообщите администратору."
	case errors.Is(err, domain.ErrCancelled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "Время на подготовку урока истекло. Попробуйте /quick."
	case errors.Is(err, domain.ErrSchema), errors.Is(err, domain.ErrValidation):
		return "Критик вернул некорректную оценку. Попробуйте еще раз."
	case errors.Is(err, domain.ErrGeneration):
		return "Не удалось написать урок. Попробуйте позже."
	case errors.Is(err, domain.ErrEvaluation):
		return "Не удалось оценить урок. Попробуйте позже."
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}
