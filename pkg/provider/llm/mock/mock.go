// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the dialogue controller sends
// correct CompletionRequests and to feed controlled responses without a live
// LLM backend. All fields are safe to set before calling any method; mutating
// them during a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Responses: []string{"What is a goroutine?", "Can you give an example?"},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
// Zero values for response fields cause Complete to return an empty response
// and a nil error. Set Err to inject errors.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Responses is a scripted queue of completion contents. Each call to
	// Complete pops the next entry; when the queue is exhausted the last entry
	// is repeated. Ignored if empty.
	Responses []string

	// next is the cursor into Responses.
	next int

	// CompleteResponse is returned by Complete when Responses is empty.
	// May be nil (an empty response is returned instead).
	CompleteResponse *llm.CompletionResponse

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// --- Call records (read after test) ---

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Complete records the call and returns the next scripted response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})

	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Responses) > 0 {
		i := p.next
		if i >= len(p.Responses) {
			i = len(p.Responses) - 1
		}
		p.next++
		return &llm.CompletionResponse{Content: p.Responses[i]}, nil
	}
	if p.CompleteResponse != nil {
		return p.CompleteResponse, nil
	}
	return &llm.CompletionResponse{}, nil
}

// Reset clears all recorded calls and rewinds the response queue. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
	p.next = 0
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
