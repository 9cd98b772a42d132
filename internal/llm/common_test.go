package llm

import (
	"errors"
	"net/http"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestNewChatRequest(t *testing.T) {
	cr := NewChatRequest("m", 0, Request{Prompt: "only user"})
	if len(cr.Messages) != 1 || cr.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user message", cr.Messages)
	}
	if cr.ResponseFormat != nil || cr.Temperature != nil {
		t.Error("optional fields must stay empty")
	}

	cr = NewChatRequest("m", 100, Request{System: "s", Prompt: "p", JSON: true, Temperature: Temperature(0.7)})
	if len(cr.Messages) != 2 || cr.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", cr.Messages)
	}
	if cr.ResponseFormat == nil || cr.ResponseFormat.Type != "json_object" {
		t.Error("json mode not requested")
	}
	if *cr.Temperature != 0.7 || cr.MaxTokens != 100 {
		t.Errorf("temperature/max_tokens = %v/%d", *cr.Temperature, cr.MaxTokens)
	}
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthFailed},
		{http.StatusForbidden, ErrAuthFailed},
		{http.StatusTooManyRequests, ErrRateLimit},
		{http.StatusInternalServerError, ErrRequestFailed},
	}

	for _, tt := range tests {
		err := HandleHTTPError(tt.status, []byte("body"), zap.NewNop(), "test")
		if !errors.Is(err, tt.want) {
			t.Errorf("HandleHTTPError(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestExtractContent(t *testing.T) {
	if _, err := ExtractContent(&ChatResponse{}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("ExtractContent() error = %v, want ErrEmptyResponse", err)
	}

	resp, err := ParseChatResponse([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	if err != nil {
		t.Fatalf("ParseChatResponse() error = %v", err)
	}
	got, err := ExtractContent(resp)
	if err != nil || got != "hello" {
		t.Errorf("ExtractContent() = %q, %v", got, err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii", "abcdef", 3, "abc..."},
		{"cyrillic", "жжжжж", 3, "жжж..."},
		{"emoji", "🙂🙂🙂", 1, "🙂..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
			}
		})
	}
}
