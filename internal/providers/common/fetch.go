package common

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrMissingID      = errors.New("id is required")
)

// Fetcher is the gateway transport as seen by an adapter.
type Fetcher interface {
	FetchJSON(ctx context.Context, endpoint string, params url.Values) (any, error)
}

// List is one named list endpoint of a provider. Fixed params are sent on every
// call; Paged endpoints also receive the caller's page.
type List struct {
	Path   string
	Paged  bool
	Params url.Values
}

type Lists map[string]List

// Fetch calls the named list endpoint. The page is forwarded untouched and
// defaults to 1.
func (l Lists) Fetch(ctx context.Context, fetcher Fetcher, name string, page int) (any, error) {
	list, ok := l[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, name)
	}
	params := url.Values{}
	for key, values := range list.Params {
		params[key] = append([]string(nil), values...)
	}
	if list.Paged {
		params.Set("page", PageParam(page))
	}
	return fetcher.FetchJSON(ctx, list.Path, params)
}

func (l Lists) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func PageParam(page int) string {
	if page <= 0 {
		page = 1
	}
	return strconv.Itoa(page)
}

// FetchByID calls an id-keyed endpoint (detail, episode listing). An empty id
// fails before any request is made.
func FetchByID(ctx context.Context, fetcher Fetcher, endpoint, param, id string) (any, error) {
	value := strings.TrimSpace(id)
	if value == "" {
		return nil, ErrMissingID
	}
	return fetcher.FetchJSON(ctx, endpoint, url.Values{param: {value}})
}

// FetchQuery calls a search endpoint with the trimmed query plus extra params.
func FetchQuery(ctx context.Context, fetcher Fetcher, endpoint, query string, extra url.Values) (any, error) {
	params := url.Values{"query": {strings.TrimSpace(query)}}
	for key, values := range extra {
		params[key] = append([]string(nil), values...)
	}
	return fetcher.FetchJSON(ctx, endpoint, params)
}
