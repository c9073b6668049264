package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"streamverse/gateway/internal/domain"
)

const (
	DefaultResultCap      = 8
	DefaultMinQueryLength = 2
	// SharedGateKey is used by callers that do not scope the gate per client.
	SharedGateKey = "shared"
)

var (
	ErrQueryTooShort    = errors.New("query is too short")
	ErrSearchInProgress = errors.New("a search is already in progress")
	ErrNoProviders      = errors.New("no search providers configured")
)

type Provider interface {
	Name() domain.SourceType
	Info() domain.ProviderInfo
	Search(ctx context.Context, query string) (any, error)
}

// Participant is a provider taking part in search, with the label of its
// result group.
type Participant struct {
	Provider Provider
	Label    string
}

type Service struct {
	participants []Participant
	gate         Gate
	resultCap    int
	minQuery     int
	logger       *slog.Logger
	healthMu     sync.Mutex
	health       map[domain.SourceType]*providerHealth
}

type ServiceOption func(*Service)

func WithGate(gate Gate) ServiceOption {
	return func(s *Service) {
		if gate != nil {
			s.gate = gate
		}
	}
}

func WithResultCap(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.resultCap = limit
		}
	}
}

func WithMinQueryLength(length int) ServiceOption {
	return func(s *Service) {
		if length > 0 {
			s.minQuery = length
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService keeps participants in the given order; result groups follow it.
func NewService(participants []Participant, opts ...ServiceOption) *Service {
	registered := make([]Participant, 0, len(participants))
	seen := make(map[domain.SourceType]struct{}, len(participants))
	for _, participant := range participants {
		if participant.Provider == nil {
			continue
		}
		name := participant.Provider.Name()
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		if participant.Label == "" {
			participant.Label = participant.Provider.Info().Label
		}
		registered = append(registered, participant)
	}

	svc := &Service{
		participants: registered,
		gate:         NewMemoryGate(),
		resultCap:    DefaultResultCap,
		minQuery:     DefaultMinQueryLength,
		logger:       slog.Default(),
		health:       make(map[domain.SourceType]*providerHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Providers() []domain.ProviderInfo {
	if len(s.participants) == 0 {
		return nil
	}
	items := make([]domain.ProviderInfo, 0, len(s.participants))
	for _, participant := range s.participants {
		info := participant.Provider.Info()
		if info.Name == "" {
			info.Name = participant.Provider.Name()
		}
		if info.Label == "" {
			info.Label = participant.Label
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}
