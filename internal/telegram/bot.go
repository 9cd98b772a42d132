package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/metrics"
	"github.com/kitbuilder587/lesson-gate/internal/ratelimit"
)

// LessonService - то, что бот умеет просить у сервиса (service.LessonService)
type LessonService interface {
	Generate(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error)
	Recent(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error)
	Rubric() domain.Rubric
	DefaultPolicy() domain.Policy
}

// sender - кусок tgbotapi.BotAPI, который нужен боту
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
	// Policies - пресеты с ограничениями из конфига; чего нет - берется domain.PolicyFor
	Policies map[domain.PolicyType]domain.Policy
}

type Bot struct {
	api         sender
	lessons     LessonService
	policies    map[domain.PolicyType]domain.Policy
	logger      *zap.Logger
	metrics     *metrics.Metrics
	handler     *Handler
	rateLimiter *ratelimit.Limiter
	wg          sync.WaitGroup
}

func New(cfg BotConfig, lessons LessonService, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(api, cfg, lessons, logger, m)

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(api sender, cfg BotConfig, lessons LessonService, logger *zap.Logger, m *metrics.Metrics) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	bot := &Bot{
		api:      api,
		lessons:  lessons,
		policies: cfg.Policies,
		logger:   logger,
		metrics:  m,
		rateLimiter: ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}
	bot.handler = NewHandler(bot)
	return bot
}

func (b *Bot) Run(ctx context.Context) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return fmt.Errorf("bot api is not connected")
	}
	defer b.rateLimiter.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	startTime := time.Now()
	reqType := requestType(update.Message)

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message != nil && update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			if b.metrics != nil {
				b.metrics.RecordRequest(reqType, "panic", time.Since(startTime))
			}
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	if b.metrics != nil {
		b.metrics.RecordRequest(reqType, "processed", time.Since(startTime))
	}
}

func requestType(msg *tgbotapi.Message) string {
	if msg == nil {
		return "unknown"
	}
	if isLessonCommand(msg) {
		return "lesson"
	}
	return "command"
}

// policy - пресет с ограничениями из конфига
func (b *Bot) policy(t domain.PolicyType) domain.Policy {
	if p, ok := b.policies[t]; ok {
		return p
	}
	if p, ok := domain.PolicyFor(t); ok {
		return p
	}
	return b.lessons.DefaultPolicy()
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.api == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.api == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.api.Send(action)
}

func (b *Bot) RecordRateLimitHit(userID int64) {
	if b.metrics != nil {
		b.metrics.RecordRateLimitHit(strconv.FormatInt(userID, 10))
	}
}
