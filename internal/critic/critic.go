// Package critic оценивает уроки по рубрике через LLM.
// Оценки возвращаются как есть: пересчет и проверка схемы делаются в scoring.
package critic

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/llm"
)

const SystemPrompt = `You are a strict reviewer of educational lessons.

Score the lesson on every rubric dimension from 0.0 (unacceptable) to 1.0 (excellent).
Report concrete issues; each issue must reference exactly one rubric dimension and have
a severity: critical, high, medium or low.

Response format (JSON only):
{
  "scores": {"<dimension>": 0.0-1.0},
  "issues": [
    {"dimension": "<dimension>", "severity": "critical|high|medium|low",
     "description": "what is wrong", "suggested_action": "how to fix it"}
  ],
  "overall": 0.0-1.0,
  "status": "pass|needs_revision"
}`

const maxLessonInPrompt = 16000

type Config struct {
	Temperature *float64
}

type LLMCritic struct {
	llm    llm.Client
	rubric domain.Rubric
	logger *zap.Logger
	config Config
}

func New(client llm.Client, rubric domain.Rubric, logger *zap.Logger, cfg Config) *LLMCritic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMCritic{llm: client, rubric: rubric.Clone(), logger: logger, config: cfg}
}

func (c *LLMCritic) Evaluate(ctx context.Context, req domain.LessonRequest, candidate *domain.Lesson) (*domain.RawVerdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("%w: nil candidate", domain.ErrEvaluation)
	}

	c.logger.Debug("evaluating lesson",
		zap.String("title", candidate.Title),
		zap.Int("content_length", len(candidate.Content)),
	)

	response, err := c.llm.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		Prompt:      c.buildPrompt(req, candidate),
		Temperature: c.config.Temperature,
		JSON:        true,
	})
	if err != nil {
		c.logger.Error("LLM review failed", zap.Error(err))
		return nil, err
	}

	raw, err := parseResponse(response)
	if err != nil {
		c.logger.Warn("failed to parse critic response",
			zap.Error(err),
			zap.Int("response_length", len(response)),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrEvaluation, err)
	}

	c.logger.Debug("review completed",
		zap.Int("scores", len(raw.Scores)),
		zap.Int("issues", len(raw.Issues)),
		zap.String("reported_status", raw.ReportedStatus.String()),
	)
	return raw, nil
}

func (c *LLMCritic) buildPrompt(req domain.LessonRequest, candidate *domain.Lesson) string {
	var sb strings.Builder

	sb.WriteString("=== RUBRIC DIMENSIONS ===\n")
	for _, d := range c.rubric.Dimensions {
		fmt.Fprintf(&sb, "- %s (pass threshold %.2f)\n", d.Name, d.Threshold)
	}
	sb.WriteString("\n")

	sb.WriteString("=== LESSON REQUEST ===\n")
	fmt.Fprintf(&sb, "Topic: %s\n", req.Topic)
	if req.Level != "" {
		fmt.Fprintf(&sb, "Level: %s\n", req.Level)
	}
	if req.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", req.Audience)
	}
	for _, o := range req.Objectives {
		fmt.Fprintf(&sb, "Objective: %s\n", o)
	}
	sb.WriteString("\n")

	sb.WriteString("=== LESSON TO REVIEW ===\n")
	fmt.Fprintf(&sb, "# %s\n", candidate.Title)
	content := llm.Truncate(candidate.Content, maxLessonInPrompt)
	sb.WriteString(content)
	sb.WriteString("\n\n")

	sb.WriteString("=== INSTRUCTIONS ===\n")
	sb.WriteString("Score every dimension listed above and use only these dimension names. ")
	sb.WriteString("Respond with JSON only.")

	return sb.String()
}

type criticResponse struct {
	Scores map[string]float64 `json:"scores"`
	Issues []struct {
		Dimension       string `json:"dimension"`
		Severity        string `json:"severity"`
		Description     string `json:"description"`
		SuggestedAction string `json:"suggested_action"`
	} `json:"issues"`
	Overall *float64 `json:"overall"`
	Status  string   `json:"status"`
}

func parseResponse(response string) (*domain.RawVerdict, error) {
	var result criticResponse
	if err := llm.DecodeJSON(response, &result); err != nil {
		return nil, err
	}
	if len(result.Scores) == 0 {
		return nil, fmt.Errorf("%w: no scores", llm.ErrMalformedJSON)
	}

	raw := &domain.RawVerdict{
		Scores:          result.Scores,
		Issues:          make([]domain.Issue, 0, len(result.Issues)),
		ReportedOverall: result.Overall,
		ReportedStatus:  domain.Status(strings.ToLower(strings.TrimSpace(result.Status))),
	}
	for _, is := range result.Issues {
		raw.Issues = append(raw.Issues, domain.Issue{
			Dimension:       strings.TrimSpace(is.Dimension),
			Severity:        domain.ParseSeverity(is.Severity),
			Description:     strings.TrimSpace(is.Description),
			SuggestedAction: strings.TrimSpace(is.SuggestedAction),
		})
	}
	return raw, nil
}
