package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var ErrMalformedJSON = errors.New("malformed json in model output")

// ExtractJSON достает первый JSON-объект из ответа, который может содержать текст
// или markdown-обертку вокруг. Кавычки учитываются, скобки внутри строк не считаются.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	// обрезанный ответ - пусть jsonrepair попробует закрыть
	return s[start:]
}

// DecodeJSON: извлечь, распарсить, при ошибке - починить через jsonrepair и распарсить еще раз.
func DecodeJSON(s string, v any) error {
	raw := ExtractJSON(s)
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return fmt.Errorf("%w: no object found", ErrMalformedJSON)
	}

	err := json.Unmarshal([]byte(raw), v)
	if err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return fmt.Errorf("%w: %v (repair: %v)", ErrMalformedJSON, err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}
