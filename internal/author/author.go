// Package author генерирует черновики уроков через LLM.
package author

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/llm"
)

const SystemPrompt = `You are an experienced instructional designer who writes lessons.

Write a complete, self-contained lesson in Markdown:
- a short introduction that motivates the topic
- clearly stated learning objectives
- explanation broken into sections with examples
- a short practice task or check-for-understanding questions
- a brief summary

When a revision brief is provided, fix every listed issue, starting with the most severe,
and keep what already works in the previous draft.

Response format (JSON only):
{
  "title": "lesson title",
  "content": "full lesson in markdown"
}`

// максимальная длина предыдущего черновика в промпте
const maxPreviousDraft = 12000

type Config struct {
	Temperature *float64
}

type LLMAuthor struct {
	llm    llm.Client
	logger *zap.Logger
	config Config
}

func New(client llm.Client, logger *zap.Logger, cfg Config) *LLMAuthor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAuthor{llm: client, logger: logger, config: cfg}
}

func (a *LLMAuthor) Produce(ctx context.Context, req domain.AuthorRequest) (*domain.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Debug("producing lesson",
		zap.Int("attempt", req.Attempt),
		zap.Int("brief_items", req.Brief.Len()),
		zap.Bool("has_previous", req.Previous != nil),
	)

	response, err := a.llm.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(req),
		Temperature: a.config.Temperature,
		JSON:        true,
	})
	if err != nil {
		a.logger.Error("LLM generation failed", zap.Error(err), zap.Int("attempt", req.Attempt))
		return nil, err
	}

	lesson := a.parseResponse(response, req.Lesson.Topic)
	return lesson, nil
}

func BuildPrompt(req domain.AuthorRequest) string {
	var sb strings.Builder
	lr := req.Lesson

	sb.WriteString("=== LESSON REQUEST ===\n")
	fmt.Fprintf(&sb, "Topic: %s\n", lr.Topic)
	if lr.Level != "" {
		fmt.Fprintf(&sb, "Level: %s\n", lr.Level)
	}
	if lr.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", lr.Audience)
	}
	if len(lr.Objectives) > 0 {
		sb.WriteString("Learning objectives:\n")
		for _, o := range lr.Objectives {
			fmt.Fprintf(&sb, "- %s\n", o)
		}
	}
	sb.WriteString("\n")

	if req.Previous != nil {
		sb.WriteString("=== PREVIOUS DRAFT ===\n")
		fmt.Fprintf(&sb, "# %s\n", req.Previous.Title)
		content := llm.Truncate(req.Previous.Content, maxPreviousDraft)
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	if !req.Brief.IsEmpty() {
		sb.WriteString("=== REVISION BRIEF ===\n")
		for i, is := range req.Brief.Items {
			fmt.Fprintf(&sb, "%d. [%s] (%s) %s", i+1, strings.ToUpper(is.Severity.String()), is.Dimension, is.Description)
			if is.SuggestedAction != "" {
				fmt.Fprintf(&sb, " -> %s", is.SuggestedAction)
			}
			sb.WriteString("\n")
		}
		if req.Brief.Dropped > 0 {
			fmt.Fprintf(&sb, "(%d lower-priority issues omitted)\n", req.Brief.Dropped)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== INSTRUCTIONS ===\n")
	if req.Previous != nil {
		sb.WriteString("Revise the previous draft so that every issue in the brief is resolved. ")
	} else {
		sb.WriteString("Write the lesson from scratch. ")
	}
	sb.WriteString("Respond with JSON only.")

	return sb.String()
}

// parseResponse: JSON {title, content}; если модель вернула просто текст - берем его как контент
func (a *LLMAuthor) parseResponse(response, topic string) *domain.Lesson {
	var result struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}

	if err := llm.DecodeJSON(response, &result); err != nil || strings.TrimSpace(result.Content) == "" {
		a.logger.Warn("author response is not JSON, using raw text",
			zap.Error(err),
			zap.Int("response_length", len(response)),
		)
		return &domain.Lesson{Title: topic, Content: strings.TrimSpace(response)}
	}

	title := strings.TrimSpace(result.Title)
	if title == "" {
		title = topic
	}
	return &domain.Lesson{Title: title, Content: result.Content}
}
