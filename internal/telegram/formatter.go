package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

const (
	separator = "━━━━━━━━━━━━━━━━━━━━━"
	// сколько замечаний показываем у исчерпанной сессии
	maxShownIssues = 5
)

func FormatSessionResult(res *domain.SessionResult) string {
	switch res.Status {
	case domain.SessionAccepted:
		return formatAccepted(res)
	case domain.SessionExhausted:
		return formatExhausted(res)
	default:
		return fmt.Sprintf("%s Сессия прервана на попытке %d (%s).",
			getStatusIcon(res.Status), res.AttemptIndex, html.EscapeString(res.ErrorKind.String()))
	}
}

func formatAccepted(res *domain.SessionResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b>\n", getStatusIcon(res.Status), html.EscapeString(res.FinalArtifact.Title)))
	sb.WriteString(fmt.Sprintf("<i>Оценка %.2f, попыток: %d</i>\n\n", res.FinalVerdict.Rounded(), res.AttemptsUsed))
	sb.WriteString(html.EscapeString(res.FinalArtifact.Content))
	return sb.String()
}

func formatExhausted(res *domain.SessionResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>Порог качества не пройден</b>\n", getStatusIcon(res.Status)))
	sb.WriteString(fmt.Sprintf("Попыток: %d, баллы: %s\n", res.AttemptsUsed, formatTrajectory(res.Trajectory())))

	best, ok := res.BestAttempt()
	if !ok {
		return sb.String()
	}

	sb.WriteString("\n" + separator + "\n")
	sb.WriteString(fmt.Sprintf("<b>Лучший черновик</b> (попытка %d, %.2f):\n", best.Index, best.Verdict.Rounded()))
	if len(best.Verdict.FailedDimensions) > 0 {
		sb.WriteString(fmt.Sprintf("<i>Ниже порога: %s</i>\n", html.EscapeString(strings.Join(best.Verdict.FailedDimensions, ", "))))
	}
	sb.WriteString("\n")
	if best.Candidate.Title != "" {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(best.Candidate.Title)))
	}
	sb.WriteString(html.EscapeString(best.Candidate.Content))

	last := res.History[len(res.History)-1]
	if last.Verdict != nil && len(last.Verdict.Issues) > 0 {
		sb.WriteString("\n\n" + separator + "\n")
		sb.WriteString("<b>Замечания критика:</b>\n")
		sb.WriteString(formatIssues(last.Verdict.Issues, maxShownIssues))
	}
	return sb.String()
}

func formatIssues(issues []domain.Issue, limit int) string {
	var sb strings.Builder
	for i, is := range issues {
		if i == limit {
			sb.WriteString(fmt.Sprintf("...и еще %d\n", len(issues)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("• [%s] (%s) %s\n",
			strings.ToUpper(is.Severity.String()),
			html.EscapeString(is.Dimension),
			html.EscapeString(is.Description),
		))
	}
	return sb.String()
}

func formatTrajectory(scores []float64) string {
	if len(scores) == 0 {
		return "-"
	}
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%.2f", domain.RoundScore(s))
	}
	return strings.Join(parts, " → ")
}

func FormatRubric(r domain.Rubric) string {
	var sb strings.Builder
	sb.WriteString("<b>Рубрика оценки:</b>\n\n")
	for _, d := range r.Dimensions {
		sb.WriteString(fmt.Sprintf("• %s: вес %.2f, порог %.2f\n", html.EscapeString(d.Name), d.Weight, d.Threshold))
	}
	sb.WriteString(fmt.Sprintf("\nОбщий порог: %.2f", r.OverallThreshold))
	return sb.String()
}

func FormatHistory(recs []domain.SessionRecord) string {
	var sb strings.Builder
	sb.WriteString("<b>Ваши последние уроки:</b>\n\n")

	for i, r := range recs {
		score := "-"
		if r.Overall != nil {
			score = fmt.Sprintf("%.2f", *r.Overall)
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s\n   %s, %s, попыток: %d [%s]\n\n",
			i+1,
			getStatusIcon(r.Status),
			html.EscapeString(truncateText(r.Topic, 60)),
			r.Status,
			score,
			r.AttemptsUsed,
			r.CreatedAt.Format("02.01 15:04"),
		))
	}

	sb.WriteString(fmt.Sprintf("Всего: %d", len(recs)))
	return sb.String()
}

// FormatPolicyIndicator - пометка режима над ответом; для standard пусто
func FormatPolicyIndicator(p domain.Policy) string {
	switch p.Type {
	case domain.PolicyQuick:
		return fmt.Sprintf("<i>Быстрый режим: до %d попыток</i>", p.MaxAttempts)
	case domain.PolicyThorough:
		return fmt.Sprintf("<i>Тщательный режим: до %d попыток</i>", p.MaxAttempts)
	default:
		return ""
	}
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}
		// без пробелов режем по границе руны
		for splitPoint > 1 && !utf8.RuneStart(text[splitPoint]) {
			splitPoint--
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func getStatusIcon(status domain.SessionStatus) string {
	switch status {
	case domain.SessionAccepted:
		return "●"
	case domain.SessionExhausted:
		return "◐"
	default:
		return "○"
	}
}

// truncateText режет по рунам, чтобы не ломать кириллицу
func truncateText(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
