package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/metrics"
	"streamverse/gateway/internal/normalize"
	"streamverse/gateway/internal/telemetry"
)

// maxConcurrentProviders bounds provider calls of one search.
const maxConcurrentProviders = 10

// SearchAll runs a grouped search under the shared gate key and returns only
// the non-empty groups, in participant order.
func (s *Service) SearchAll(ctx context.Context, query string) ([]domain.SearchResultGroup, error) {
	response, err := s.Search(ctx, domain.SearchRequest{Query: query, GateKey: SharedGateKey})
	if err != nil {
		return nil, err
	}
	return response.Groups, nil
}

// Search validates the query, takes the gate and fans out to every participant.
// A second search on a held gate key returns ErrSearchInProgress without
// calling any provider.
func (s *Service) Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error) {
	query, err := s.prepareQuery(request.Query)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	release, err := s.acquire(ctx, request.GateKey)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	defer release()

	return s.execute(ctx, query, nil), nil
}

// SearchStream is Search delivering each settled branch as soon as it
// completes, followed by one final event carrying the full response. The
// channel is closed after the final event; the gate is held until then.
func (s *Service) SearchStream(ctx context.Context, request domain.SearchRequest) (<-chan domain.SearchEvent, error) {
	query, err := s.prepareQuery(request.Query)
	if err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx, request.GateKey)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.SearchEvent, len(s.participants)+1)
	go func() {
		defer close(events)
		defer release()
		response := s.execute(ctx, query, func(event domain.SearchEvent) {
			events <- event
		})
		events <- domain.SearchEvent{Final: true, Response: &response}
	}()
	return events, nil
}

func (s *Service) prepareQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if utf8.RuneCountInString(query) < s.minQuery {
		return "", ErrQueryTooShort
	}
	if len(s.participants) == 0 {
		return "", ErrNoProviders
	}
	return query, nil
}

func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	release, ok := s.gate.TryAcquire(ctx, key)
	if !ok {
		metrics.SearchGateRejectionsTotal.Inc()
		return nil, ErrSearchInProgress
	}
	return release, nil
}

// execute fans out one branch per participant. Each branch writes only its own
// slot; emit, when set, is called once per settled branch in completion order.
func (s *Service) execute(ctx context.Context, query string, emit func(domain.SearchEvent)) domain.SearchResponse {
	startedAt := time.Now()
	statuses := make([]domain.ProviderStatus, len(s.participants))
	groups := make([]*domain.SearchResultGroup, len(s.participants))
	totals := make([]int, len(s.participants))

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var emitMu sync.Mutex
	var wg sync.WaitGroup
	for i, participant := range s.participants {
		wg.Add(1)
		go func(index int, current Participant) {
			defer wg.Done()
			name := current.Provider.Name()

			if err := sem.Acquire(ctx, 1); err != nil {
				statuses[index] = domain.ProviderStatus{Name: name, Error: "context cancelled"}
				emitSettled(emit, &emitMu, statuses[index], nil)
				return
			}
			defer sem.Release(1)

			branchCtx, span := telemetry.Tracer("streamverse/search").Start(ctx, "search.provider",
				trace.WithAttributes(attribute.String("provider", string(name))))
			defer span.End()

			branchStartedAt := time.Now()
			raw, err := current.Provider.Search(branchCtx, query)
			elapsed := time.Since(branchStartedAt)
			s.recordProviderResult(name, query, err, elapsed, time.Now())

			status := domain.ProviderStatus{
				Name:      name,
				OK:        err == nil,
				ElapsedMS: elapsed.Milliseconds(),
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "provider search failed")
				status.Error = err.Error()
				metrics.SearchBranchesTotal.WithLabelValues(string(name), "error").Inc()
				s.logger.Warn("search branch failed",
					slog.String("provider", string(name)),
					slog.String("query", query),
					slog.String("error", err.Error()),
				)
				statuses[index] = status
				emitSettled(emit, &emitMu, status, nil)
				return
			}

			items := normalize.NormalizeSearchList(raw, normalize.ItemKeys, name)
			totals[index] = len(items)
			status.Count = len(items)
			statuses[index] = status
			if len(items) == 0 {
				metrics.SearchBranchesTotal.WithLabelValues(string(name), "empty").Inc()
				emitSettled(emit, &emitMu, status, nil)
				return
			}
			metrics.SearchBranchesTotal.WithLabelValues(string(name), "ok").Inc()
			group := &domain.SearchResultGroup{
				Label:      current.Label,
				SourceType: name,
				Items:      normalize.Capped(items, s.resultCap),
			}
			groups[index] = group
			emitSettled(emit, &emitMu, status, group)
		}(i, participant)
	}
	wg.Wait()

	response := domain.SearchResponse{
		Query:     query,
		Groups:    make([]domain.SearchResultGroup, 0, len(groups)),
		Providers: statuses,
	}
	for i, group := range groups {
		response.TotalItems += totals[i]
		if group != nil {
			response.Groups = append(response.Groups, *group)
		}
	}
	response.NoResults = len(response.Groups) == 0
	response.ElapsedMS = time.Since(startedAt).Milliseconds()
	return response
}

func emitSettled(emit func(domain.SearchEvent), mu *sync.Mutex, status domain.ProviderStatus, group *domain.SearchResultGroup) {
	if emit == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	emit(domain.SearchEvent{Status: status, Group: group})
}
