package domain

import "time"

type SearchRequest struct {
	Query string
	// GateKey scopes the single in-flight search rule. Requests sharing a key
	// never overlap.
	GateKey string
}

type SearchResultGroup struct {
	Label      string        `json:"label"`
	SourceType SourceType    `json:"sourceType"`
	Items      []CatalogItem `json:"items"`
}

type ProviderStatus struct {
	Name      SourceType `json:"name"`
	OK        bool       `json:"ok"`
	Count     int        `json:"count"`
	Error     string     `json:"error,omitempty"`
	ElapsedMS int64      `json:"elapsedMs"`
}

type SearchResponse struct {
	Query      string              `json:"query"`
	Groups     []SearchResultGroup `json:"groups"`
	Providers  []ProviderStatus    `json:"providers"`
	TotalItems int                 `json:"totalItems"`
	NoResults  bool                `json:"noResults"`
	ElapsedMS  int64               `json:"elapsedMs"`
}

// SearchEvent is one step of a streamed search: a settled provider branch, or
// the final summary when Final is set.
type SearchEvent struct {
	Status   ProviderStatus     `json:"status"`
	Group    *SearchResultGroup `json:"group,omitempty"`
	Final    bool               `json:"final"`
	Response *SearchResponse    `json:"response,omitempty"`
}

type ProviderDiagnostics struct {
	Name          SourceType `json:"name"`
	Label         string     `json:"label"`
	LastError     string     `json:"lastError,omitempty"`
	LastQuery     string     `json:"lastQuery,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS int64      `json:"lastLatencyMs,omitempty"`
	LastTimeout   bool       `json:"lastTimeout,omitempty"`
	TotalRequests int64      `json:"totalRequests"`
	TotalFailures int64      `json:"totalFailures"`
	TimeoutCount  int64      `json:"timeoutCount"`

	ConsecutiveFailures int `json:"consecutiveFailures"`
}
