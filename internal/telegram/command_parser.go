package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// /lesson -> standard, /quick -> quick, /thorough -> thorough
var lessonCommands = map[string]domain.PolicyType{
	"lesson":   domain.PolicyStandard,
	"quick":    domain.PolicyQuick,
	"thorough": domain.PolicyThorough,
}

// ParseLessonCommand достает тему и тип политики.
// Обычный текст -> defaultPolicy; неизвестная команда остается текстом.
func ParseLessonCommand(text string, defaultPolicy domain.PolicyType) (topic string, policy domain.PolicyType) {
	text = strings.TrimSpace(text)

	if text == "" {
		return "", defaultPolicy
	}

	if !strings.HasPrefix(text, "/") {
		return normalizeSpaces(text), defaultPolicy
	}

	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	// /quick@lesson_gate_bot в группах
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	var rest string
	if len(parts) > 1 {
		rest = normalizeSpaces(parts[1])
	}

	if t, ok := lessonCommands[command]; ok {
		return rest, t
	}
	return text, defaultPolicy
}

func isLessonCommand(msg *tgbotapi.Message) bool {
	if !msg.IsCommand() {
		return true
	}
	_, ok := lessonCommands[strings.ToLower(msg.Command())]
	return ok
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
