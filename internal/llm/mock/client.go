package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/lesson-gate/internal/llm"
)

// Client отдает Responses по очереди, потом Response.
type Client struct {
	mu sync.Mutex

	Response  string
	Responses []string
	Error     error
	Delay     time.Duration

	calls []llm.Request
}

func New() *Client {
	return &Client{
		Response: `{"title": "Mock lesson", "content": "This is a mock lesson."}`,
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

func (c *Client) WithResponses(responses ...string) *Client {
	c.Responses = append(c.Responses, responses...)
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	idx := len(c.calls)
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Error != nil {
		return "", c.Error
	}
	if idx < len(c.Responses) {
		return c.Responses[idx], nil
	}
	return c.Response, nil
}

func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *Client) LastCall() llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return llm.Request{}
	}
	return c.calls[len(c.calls)-1]
}

func (c *Client) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

var _ llm.Client = (*Client)(nil)
