package domain

import "strings"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank: critical=0 ... low=3, неизвестная severity уходит в конец
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

func (s Severity) String() string { return string(s) }

// ParseSeverity нормализует регистр и пробелы; невалидное значение возвращается как есть
func ParseSeverity(s string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(s)))
}

// Issue - одна претензия критика к кандидату. Не мутируется после создания.
type Issue struct {
	Dimension       string
	Severity        Severity
	Description     string
	SuggestedAction string
}
