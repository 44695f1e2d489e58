package llm

import "sync"

// TokenUsage is a snapshot of accumulated usage
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	Requests         int   `json:"successful_requests"`
	CachedRequests   int   `json:"cached_requests"`
}

// TokenTracker accumulates token usage across completions. Safe for
// concurrent use.
type TokenTracker struct {
	mu     sync.Mutex
	prompt int64
	output int64
	calls  int
	cached int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Record adds the usage reported by a response
func (t *TokenTracker) Record(resp *Response) {
	if resp == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if resp.Cached {
		t.cached++
		return
	}
	t.prompt += resp.PromptTokens
	t.output += resp.CompletionTokens
	t.calls++
}

// Usage returns the accumulated totals
func (t *TokenTracker) Usage() TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TokenUsage{
		PromptTokens:     t.prompt,
		CompletionTokens: t.output,
		TotalTokens:      t.prompt + t.output,
		Requests:         t.calls,
		CachedRequests:   t.cached,
	}
}

// Reset clears all tracked token usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt, t.output, t.calls, t.cached = 0, 0, 0, 0
}
