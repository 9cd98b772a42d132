package telegram

import (
	"testing"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

func TestParseLessonCommand(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		defaultPolicy domain.PolicyType
		wantTopic     string
		wantPolicy    domain.PolicyType
	}{
		{
			name:          "/quick command",
			text:          "/quick дроби",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "дроби",
			wantPolicy:    domain.PolicyQuick,
		},
		{
			name:          "/thorough command",
			text:          "/thorough фотосинтез",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "фотосинтез",
			wantPolicy:    domain.PolicyThorough,
		},
		{
			name:          "/lesson command",
			text:          "/lesson закон Ома",
			defaultPolicy: domain.PolicyQuick,
			wantTopic:     "закон Ома",
			wantPolicy:    domain.PolicyStandard,
		},
		{
			name:          "plain text with standard default",
			text:          "простые числа",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "простые числа",
			wantPolicy:    domain.PolicyStandard,
		},
		{
			name:          "plain text with thorough default",
			text:          "простые числа",
			defaultPolicy: domain.PolicyThorough,
			wantTopic:     "простые числа",
			wantPolicy:    domain.PolicyThorough,
		},
		{
			name:          "/quick without topic",
			text:          "/quick",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "",
			wantPolicy:    domain.PolicyQuick,
		},
		{
			name:          "empty string",
			text:          "",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "",
			wantPolicy:    domain.PolicyStandard,
		},
		{
			name:          "/quick with extra spaces",
			text:          "/quick   много   пробелов  ",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "много пробелов",
			wantPolicy:    domain.PolicyQuick,
		},
		{
			name:          "/QUICK uppercase",
			text:          "/QUICK тест",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "тест",
			wantPolicy:    domain.PolicyQuick,
		},
		{
			name:          "command with bot mention",
			text:          "/thorough@lesson_gate_bot клетка",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "клетка",
			wantPolicy:    domain.PolicyThorough,
		},
		{
			name:          "unknown command treated as plain text",
			text:          "/unknown тест",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "/unknown тест",
			wantPolicy:    domain.PolicyStandard,
		},
		{
			name:          "whitespace only",
			text:          "   ",
			defaultPolicy: domain.PolicyStandard,
			wantTopic:     "",
			wantPolicy:    domain.PolicyStandard,
		},
		{
			name:          "multiword topic",
			text:          "/lesson как устроен   двигатель внутреннего сгорания",
			defaultPolicy: domain.PolicyQuick,
			wantTopic:     "как устроен двигатель внутреннего сгорания",
			wantPolicy:    domain.PolicyStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, policy := ParseLessonCommand(tt.text, tt.defaultPolicy)

			if topic != tt.wantTopic {
				t.Errorf("ParseLessonCommand() topic = %q, want %q", topic, tt.wantTopic)
			}
			if policy != tt.wantPolicy {
				t.Errorf("ParseLessonCommand() policy = %v, want %v", policy, tt.wantPolicy)
			}
		})
	}
}

func TestIsLessonCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/lesson тема", true},
		{"/quick тема", true},
		{"/thorough тема", true},
		{"просто тема", true},
		{"/start", false},
		{"/history", false},
		{"/rubric", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := isLessonCommand(createTestMessage(1, tt.text)); got != tt.want {
				t.Errorf("isLessonCommand(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
