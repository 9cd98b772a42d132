package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// Request - один вызов модели.
// Temperature nil - провайдерский дефолт. JSON просит у модели json_object.
type Request struct {
	System      string
	Prompt      string
	Temperature *float64
	JSON        bool
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Temperature - удобный конструктор для Request.Temperature
func Temperature(t float64) *float64 {
	return &t
}
