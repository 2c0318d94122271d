package llm

import (
	"context"
	"sync"
)

// Fake is a deterministic StructuredLLM for tests: Responses is consumed
// in call order, one entry per Generate invocation, and recycles once
// exhausted so a fixed-length fixture can back an unbounded batch. Safe
// for concurrent use, since C8's tournament rounds call GenerateBatch
// from multiple goroutines at once.
type Fake struct {
	Responses []Result
	Requests  []Request

	mu    sync.Mutex
	calls int
}

func (f *Fake) Generate(ctx context.Context, req Request) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if len(f.Responses) == 0 {
		return map[string]any{}, nil
	}
	r := f.Responses[f.calls%len(f.Responses)]
	f.calls++
	return r.Data, r.Err
}

func (f *Fake) GenerateBatch(ctx context.Context, reqs []Request) []Result {
	out := make([]Result, len(reqs))
	for i, req := range reqs {
		data, err := f.Generate(ctx, req)
		out[i] = Result{Data: data, Err: err}
	}
	return out
}
