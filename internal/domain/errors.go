package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// таксономия ошибок сессии; needs_revision и exhausted ошибками не являются
var (
	ErrConfiguration = errors.New("configuration error")
	ErrSchema        = errors.New("schema error")
	ErrValidation    = errors.New("validation error")
	ErrGeneration    = errors.New("generation error")
	ErrEvaluation    = errors.New("evaluation error")
	ErrCancelled     = errors.New("session cancelled")
)

var (
	ErrEmptyTopic    = errors.New("empty topic")
	ErrTopicTooLong  = errors.New("topic too long")
	ErrInvalidLevel  = errors.New("invalid lesson level")
	ErrEmptyLesson   = errors.New("empty lesson content")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrSessionFailed = errors.New("session failed")
)

var (
	ErrInvalidPolicyType  = errors.New("invalid policy type")
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	ErrInvalidBriefSize   = errors.New("brief size must be at least 1")
	ErrInvalidTimeout     = errors.New("timeout seconds must be at least 1")
)

var (
	ErrEmptyRubric        = errors.New("rubric has no dimensions")
	ErrDuplicateDimension = errors.New("duplicate dimension")
	ErrZeroTotalWeight    = errors.New("total dimension weight must be positive")
)

type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindSchema        ErrorKind = "schema"
	KindValidation    ErrorKind = "validation"
	KindGeneration    ErrorKind = "generation"
	KindEvaluation    ErrorKind = "evaluation"
	KindCancelled     ErrorKind = "cancelled"
	KindInternal      ErrorKind = "internal"
)

func (k ErrorKind) String() string { return string(k) }

// KindOf сопоставляет ошибку с её видом по цепочке %w.
// Отмена контекста считается KindCancelled, даже если её обернул внешний клиент.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrSchema):
		return KindSchema
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrGeneration):
		return KindGeneration
	case errors.Is(err, ErrEvaluation):
		return KindEvaluation
	default:
		return KindInternal
	}
}
