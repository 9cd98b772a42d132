package domain

import "fmt"

type PolicyType string

const (
	PolicyQuick    PolicyType = "quick"
	PolicyStandard PolicyType = "standard"
	PolicyThorough PolicyType = "thorough"
)

func (p PolicyType) IsValid() bool {
	switch p {
	case PolicyQuick, PolicyStandard, PolicyThorough:
		return true
	}
	return false
}

func (p PolicyType) String() string { return string(p) }

const DefaultBriefSize = 5

// Policy - параметры одной сессии ревизий
type Policy struct {
	Type           PolicyType
	MaxAttempts    int
	BriefSize      int
	TimeoutSeconds int
}

// Validate - все ошибки оборачиваются в ErrConfiguration
func (p Policy) Validate() error {
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrInvalidPolicyType, p.Type)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrInvalidMaxAttempts)
	}
	if p.BriefSize < 1 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrInvalidBriefSize)
	}
	if p.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrInvalidTimeout)
	}
	return nil
}

func (p Policy) IsZero() bool { return p == Policy{} }

// Предустановленные политики

func QuickPolicy() Policy {
	return Policy{
		Type:           PolicyQuick,
		MaxAttempts:    3,
		BriefSize:      3,
		TimeoutSeconds: 120,
	}
}

func StandardPolicy() Policy {
	return Policy{
		Type:           PolicyStandard,
		MaxAttempts:    5,
		BriefSize:      DefaultBriefSize,
		TimeoutSeconds: 300,
	}
}

func ThoroughPolicy() Policy {
	return Policy{
		Type:           PolicyThorough,
		MaxAttempts:    10,
		BriefSize:      8,
		TimeoutSeconds: 900,
	}
}

func PolicyFor(t PolicyType) (Policy, bool) {
	switch t {
	case PolicyQuick:
		return QuickPolicy(), true
	case PolicyStandard:
		return StandardPolicy(), true
	case PolicyThorough:
		return ThoroughPolicy(), true
	}
	return Policy{}, false
}
