// Package providertest holds test doubles shared by the provider adapter tests.
package providertest

import (
	"context"
	"net/url"
	"sync"
)

// Call is one request observed by RecordingFetcher.
type Call struct {
	Endpoint string
	Params   url.Values
}

// RecordingFetcher answers every request with a canned payload and records the
// calls. It never touches the network.
type RecordingFetcher struct {
	mu        sync.Mutex
	Calls     []Call
	Responses map[string]any
	Err       error
}

func (f *RecordingFetcher) FetchJSON(_ context.Context, endpoint string, params url.Values) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Endpoint: endpoint, Params: params})
	if f.Err != nil {
		return nil, f.Err
	}
	if payload, ok := f.Responses[endpoint]; ok {
		return payload, nil
	}
	return map[string]any{}, nil
}

func (f *RecordingFetcher) Last() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}
