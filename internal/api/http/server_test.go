package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"streamverse/gateway/internal/catalog"
	"streamverse/gateway/internal/domain"
	"streamverse/gateway/internal/gateway"
	"streamverse/gateway/internal/search"
)

type fakeSearchService struct {
	mu          sync.Mutex
	lastRequest domain.SearchRequest
	callCount   int
	err         error
	events      []domain.SearchEvent
}

func (f *fakeSearchService) record(request domain.SearchRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	f.lastRequest = request
}

func (f *fakeSearchService) Search(_ context.Context, request domain.SearchRequest) (domain.SearchResponse, error) {
	f.record(request)
	if f.err != nil {
		return domain.SearchResponse{}, f.err
	}
	return domain.SearchResponse{
		Query: request.Query,
		Groups: []domain.SearchResultGroup{{
			Label:      "Drama",
			SourceType: domain.SourceDramaBox,
			Items:      []domain.CatalogItem{{ID: "41000", Title: request.Query + " result", SourceType: domain.SourceDramaBox}},
		}},
		Providers: []domain.ProviderStatus{
			{Name: domain.SourceDramaBox, OK: true, Count: 1},
			{Name: domain.SourceAnime, OK: false, Error: "gateway /anime/search: HTTP 502"},
		},
		TotalItems: 1,
		ElapsedMS:  3,
	}, nil
}

func (f *fakeSearchService) SearchStream(_ context.Context, request domain.SearchRequest) (<-chan domain.SearchEvent, error) {
	f.record(request)
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan domain.SearchEvent, len(f.events))
	for _, event := range f.events {
		ch <- event
	}
	close(ch)
	return ch, nil
}

func (f *fakeSearchService) Providers() []domain.ProviderInfo {
	return []domain.ProviderInfo{
		{Name: domain.SourceAnime, Label: "Anime", Kind: "anime", Searchable: true, Enabled: true},
		{Name: domain.SourceDramaBox, Label: "DramaBox", Kind: "drama", Searchable: true, Enabled: true},
	}
}

func (f *fakeSearchService) ProviderDiagnostics() []domain.ProviderDiagnostics {
	return []domain.ProviderDiagnostics{
		{Name: domain.SourceDramaBox, Label: "DramaBox", TotalRequests: 4, LastLatencyMS: 120},
		{Name: domain.SourceAnime, Label: "Anime", TotalRequests: 4, TotalFailures: 3, ConsecutiveFailures: 3},
	}
}

type fakeCatalogService struct {
	mu         sync.Mutex
	lastSource domain.SourceType
	lastID     string
	lastIndex  int
	lastPage   int
	err        error
}

func (f *fakeCatalogService) remember(source domain.SourceType, id string, index, page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSource = source
	f.lastID = id
	f.lastIndex = index
	f.lastPage = page
}

func (f *fakeCatalogService) LoadSections(context.Context) []domain.Section {
	return []domain.Section{
		{ID: catalog.HeroSectionID, Title: "Featured", SourceType: domain.SourceDramaBox, Items: []domain.CatalogItem{{ID: "1", Title: "One"}}},
		{ID: "anime-latest", Title: "Latest Anime", SourceType: domain.SourceAnime, Items: []domain.CatalogItem{}, Error: "gateway /anime/latest: HTTP 500"},
	}
}

func (f *fakeCatalogService) LoadSection(_ context.Context, id string, page int) (domain.Section, error) {
	f.remember("", id, 0, page)
	if id != "anime-latest" {
		return domain.Section{}, fmt.Errorf("%w: %s", catalog.ErrUnknownSection, id)
	}
	return domain.Section{ID: id, Page: page, SourceType: domain.SourceAnime, Items: []domain.CatalogItem{}}, nil
}

func (f *fakeCatalogService) LoadList(_ context.Context, source domain.SourceType, name string, page int) (domain.Section, error) {
	f.remember(source, name, 0, page)
	if name != "vip" {
		return domain.Section{}, fmt.Errorf("%w: %s/%s", catalog.ErrUnknownSection, source, name)
	}
	return domain.Section{
		ID:         string(source) + "/" + name,
		SourceType: source,
		Page:       page,
		Items:      []domain.CatalogItem{{ID: "v1", OpenID: "v1", Title: "VIP", CoverImage: "https://img.example/v1.jpg", SourceType: source}},
	}, nil
}

func (f *fakeCatalogService) OpenPlayer(_ context.Context, source domain.SourceType, id string) (domain.PlayerView, error) {
	f.remember(source, id, 0, 0)
	if f.err != nil {
		return domain.PlayerView{}, f.err
	}
	return domain.PlayerView{
		SourceType: source,
		ID:         id,
		Title:      "Show",
		Episodes:   []domain.Episode{{Index: 0, DisplayName: "EP 1"}, {Index: 1, DisplayName: "EP 2"}},
	}, nil
}

func (f *fakeCatalogService) PlayEpisode(_ context.Context, source domain.SourceType, id string, index int) (domain.Playback, error) {
	f.remember(source, id, index, 0)
	if f.err != nil {
		return domain.Playback{}, f.err
	}
	if index > 1 {
		return domain.Playback{}, fmt.Errorf("%w: index %d of 2", catalog.ErrEpisodeNotFound, index)
	}
	return domain.Playback{
		SourceType: source,
		ID:         id,
		Episode:    domain.Episode{Index: index, DisplayName: "EP 1"},
		Media:      domain.ResolvedMedia{VideoURL: "https://cdn.example/ep.mp4", Strategy: domain.StrategyInlineCDN},
		HasNext:    true,
		NextIndex:  index + 1,
	}, nil
}

func (f *fakeCatalogService) OpenReader(_ context.Context, mangaID string) (domain.ReaderView, error) {
	f.remember(domain.SourceKomik, mangaID, 0, 0)
	if strings.TrimSpace(mangaID) == "" {
		return domain.ReaderView{}, catalog.ErrMissingID
	}
	return domain.ReaderView{MangaID: mangaID, Title: "Solo", Chapters: []domain.Chapter{{Index: 0, ID: "c1", Title: "Chapter 1"}}}, nil
}

func (f *fakeCatalogService) ChapterImages(_ context.Context, chapterID string) ([]string, error) {
	f.remember(domain.SourceKomik, chapterID, 0, 0)
	if f.err != nil {
		return nil, f.err
	}
	return []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}, nil
}

func newTestServer(searchService *fakeSearchService, catalogService *fakeCatalogService, options ...ServerOption) http.Handler {
	return NewServer(searchService, catalogService, options...).Handler()
}

func doRequest(handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestSearchMissingQuery(t *testing.T) {
	searchService := &fakeSearchService{}
	rec := doRequest(newTestServer(searchService, &fakeCatalogService{}), http.MethodGet, "/api/search", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "invalid_request" {
		t.Fatalf("unexpected error code %q", code)
	}
	if searchService.callCount != 0 {
		t.Fatalf("search must not run without a query")
	}
}

func TestSearchScopesGateKeyPerClient(t *testing.T) {
	searchService := &fakeSearchService{}
	handler := newTestServer(searchService, &fakeCatalogService{})

	rec := doRequest(handler, http.MethodGet, "/api/search?q=love", map[string]string{clientIDHeader: "tab-7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if searchService.lastRequest.GateKey != "client:tab-7" {
		t.Fatalf("unexpected gate key %q", searchService.lastRequest.GateKey)
	}

	doRequest(handler, http.MethodGet, "/api/search?q=love", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	if searchService.lastRequest.GateKey != "ip:203.0.113.9" {
		t.Fatalf("unexpected gate key %q", searchService.lastRequest.GateKey)
	}
}

func TestSearchReturnsGroups(t *testing.T) {
	rec := doRequest(newTestServer(&fakeSearchService{}, &fakeCatalogService{}), http.MethodGet, "/api/search?q=ceo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var response domain.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(response.Groups) != 1 || response.Groups[0].Label != "Drama" {
		t.Fatalf("unexpected groups %#v", response.Groups)
	}
	if len(response.Providers) != 2 || response.Providers[1].OK {
		t.Fatalf("expected partial provider failure to be reported, got %#v", response.Providers)
	}
}

func TestSearchMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"short query", search.ErrQueryTooShort, http.StatusBadRequest, "invalid_request"},
		{"gate held", search.ErrSearchInProgress, http.StatusConflict, "search_in_progress"},
		{"no providers", search.ErrNoProviders, http.StatusServiceUnavailable, "service_unavailable"},
		{"upstream", &gateway.TransportError{Endpoint: "/dramabox/search", Status: 502, Err: gateway.ErrBadStatus}, http.StatusBadGateway, "upstream_error"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "upstream_timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(newTestServer(&fakeSearchService{err: tc.err}, &fakeCatalogService{}), http.MethodGet, "/api/search?q=ab", nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if code := decodeErrorCode(t, rec); code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, code)
			}
		})
	}
}

func TestSearchRejectsLongQuery(t *testing.T) {
	searchService := &fakeSearchService{}
	target := "/api/search?q=" + url.QueryEscape(strings.Repeat("a", maxQueryLength+1))
	rec := doRequest(newTestServer(searchService, &fakeCatalogService{}), http.MethodGet, target, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if searchService.callCount != 0 {
		t.Fatalf("search must not run for an oversized query")
	}
}

func TestSearchStreamSendsEvents(t *testing.T) {
	group := &domain.SearchResultGroup{Label: "Anime", SourceType: domain.SourceAnime, Items: []domain.CatalogItem{{ID: "a1", Title: "Frieren"}}}
	final := &domain.SearchResponse{Query: "frieren", Groups: []domain.SearchResultGroup{*group}, TotalItems: 1}
	searchService := &fakeSearchService{events: []domain.SearchEvent{
		{Status: domain.ProviderStatus{Name: domain.SourceDramaBox, OK: true}},
		{Status: domain.ProviderStatus{Name: domain.SourceAnime, OK: true, Count: 1}, Group: group},
		{Final: true, Response: final},
	}}

	rec := doRequest(newTestServer(searchService, &fakeCatalogService{}), http.MethodGet, "/api/search/stream?q=frieren", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, required := range []string{"event: bootstrap", "event: group", "event: done", `"Frieren"`} {
		if !strings.Contains(body, required) {
			t.Fatalf("missing %q in stream body: %s", required, body)
		}
	}
	if count := strings.Count(body, "event: group"); count != 1 {
		t.Fatalf("empty branches must not produce group events, got %d", count)
	}
	if strings.Index(body, "event: bootstrap") > strings.Index(body, "event: done") {
		t.Fatalf("bootstrap must precede done: %s", body)
	}
}

func TestSearchStreamRejectsHeldGate(t *testing.T) {
	rec := doRequest(newTestServer(&fakeSearchService{err: search.ErrSearchInProgress}, &fakeCatalogService{}), http.MethodGet, "/api/search/stream?q=frieren", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("rejected stream must answer with JSON, got %q", ct)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	infos := []domain.ProviderInfo{{Name: domain.SourceKomik, Label: "Komik", Kind: "comic", Enabled: true}}
	cases := []struct {
		name    string
		options []ServerOption
		want    []domain.SourceType
	}{
		{"explicit list", []ServerOption{WithProviders(infos)}, []domain.SourceType{domain.SourceKomik}},
		{"search participants", nil, []domain.SourceType{domain.SourceAnime, domain.SourceDramaBox}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(newTestServer(&fakeSearchService{}, &fakeCatalogService{}, tc.options...), http.MethodGet, "/api/providers", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var payload struct {
				Items []domain.ProviderInfo `json:"items"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(payload.Items) != len(tc.want) {
				t.Fatalf("unexpected items %#v", payload.Items)
			}
			for i, name := range tc.want {
				if payload.Items[i].Name != name {
					t.Fatalf("item %d: expected %q, got %q", i, name, payload.Items[i].Name)
				}
			}
		})
	}
}

func TestProvidersHealthEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(&fakeSearchService{}, &fakeCatalogService{}), http.MethodGet, "/api/providers/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		CheckedAt string                       `json:"checkedAt"`
		Items     []domain.ProviderDiagnostics `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.CheckedAt == "" || len(payload.Items) != 2 {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if payload.Items[1].ConsecutiveFailures != 3 {
		t.Fatalf("expected consecutive failures to be exposed, got %#v", payload.Items[1])
	}
}

func TestSectionsEndpoints(t *testing.T) {
	catalogService := &fakeCatalogService{}
	handler := newTestServer(&fakeSearchService{}, catalogService)

	rec := doRequest(handler, http.MethodGet, "/api/sections", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var all struct {
		Items []domain.Section `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Items) != 2 || all.Items[1].Error == "" {
		t.Fatalf("a failed section must come back with its error, got %#v", all.Items)
	}

	rec = doRequest(handler, http.MethodGet, "/api/sections/anime-latest?page=3", nil)
	if rec.Code != http.StatusOK || catalogService.lastPage != 3 {
		t.Fatalf("expected page 3 to be forwarded, got status %d page %d", rec.Code, catalogService.lastPage)
	}

	rec = doRequest(handler, http.MethodGet, "/api/sections/anime-latest", nil)
	if rec.Code != http.StatusOK || catalogService.lastPage != 1 {
		t.Fatalf("expected default page 1, got status %d page %d", rec.Code, catalogService.lastPage)
	}

	rec = doRequest(handler, http.MethodGet, "/api/sections/anime-latest?page=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0, got %d", rec.Code)
	}

	rec = doRequest(handler, http.MethodGet, "/api/sections/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown section, got %d", rec.Code)
	}
}

func TestProviderListEndpoint(t *testing.T) {
	catalogService := &fakeCatalogService{}
	handler := newTestServer(&fakeSearchService{}, catalogService)

	rec := doRequest(handler, http.MethodGet, "/api/providers/dramabox/lists/vip?page=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if catalogService.lastSource != domain.SourceDramaBox || catalogService.lastID != "vip" || catalogService.lastPage != 2 {
		t.Fatalf("unexpected forwarded list %q/%q page %d", catalogService.lastSource, catalogService.lastID, catalogService.lastPage)
	}
	var section domain.Section
	if err := json.Unmarshal(rec.Body.Bytes(), &section); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if section.ID != "dramabox/vip" || len(section.Items) != 1 {
		t.Fatalf("unexpected section %#v", section)
	}

	cases := []struct {
		target string
		status int
	}{
		{"/api/providers/dramabox/lists/vip?page=0", http.StatusBadRequest},
		{"/api/providers/nope/lists/vip", http.StatusNotFound},
		{"/api/providers/dramabox/lists/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		if rec := doRequest(handler, http.MethodGet, tc.target, nil); rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, rec.Code)
		}
	}
}

func TestHeroEndpoints(t *testing.T) {
	hero := catalog.NewHeroRotator(catalog.DefaultHeroInterval)
	t.Cleanup(hero.Stop)
	hero.Replace([]domain.CatalogItem{{ID: "1", Title: "One"}, {ID: "2", Title: "Two"}, {ID: "3", Title: "Three"}})
	handler := newTestServer(&fakeSearchService{}, &fakeCatalogService{}, WithHero(hero))

	rec := doRequest(handler, http.MethodGet, "/api/hero", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(handler, http.MethodPost, "/api/hero/select?index=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state domain.HeroState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Index != 2 || state.Item == nil || state.Item.ID != "3" {
		t.Fatalf("unexpected hero state %#v", state)
	}

	if rec := doRequest(handler, http.MethodPost, "/api/hero/select?index=9", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out of range index, got %d", rec.Code)
	}
	if rec := doRequest(handler, http.MethodPost, "/api/hero/select", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without index, got %d", rec.Code)
	}
	if rec := doRequest(handler, http.MethodGet, "/api/hero/select?index=1", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET select, got %d", rec.Code)
	}
}

func TestHeroWithoutRotator(t *testing.T) {
	rec := doRequest(newTestServer(&fakeSearchService{}, &fakeCatalogService{}), http.MethodGet, "/api/hero", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestPlayerRoutes(t *testing.T) {
	catalogService := &fakeCatalogService{}
	handler := newTestServer(&fakeSearchService{}, catalogService)

	rec := doRequest(handler, http.MethodGet, "/api/play/DramaBox/41000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if catalogService.lastSource != domain.SourceDramaBox || catalogService.lastID != "41000" {
		t.Fatalf("unexpected player call %q/%q", catalogService.lastSource, catalogService.lastID)
	}

	rec = doRequest(handler, http.MethodGet, "/api/play/melolo/m-9/episodes/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var playback domain.Playback
	if err := json.Unmarshal(rec.Body.Bytes(), &playback); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if catalogService.lastIndex != 1 || playback.Media.VideoURL == "" || !playback.HasNext {
		t.Fatalf("unexpected playback %#v", playback)
	}

	cases := []struct {
		target string
		status int
	}{
		{"/api/play/youtube/1", http.StatusNotFound},
		{"/api/play/komik/1", http.StatusBadRequest},
		{"/api/play/anime/1/episodes/x", http.StatusBadRequest},
		{"/api/play/anime/1/episodes/-1", http.StatusBadRequest},
		{"/api/play/anime/1/episodes/5", http.StatusNotFound},
	}
	for _, tc := range cases {
		if rec := doRequest(handler, http.MethodGet, tc.target, nil); rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, rec.Code)
		}
	}
}

func TestPlayerUpstreamFailure(t *testing.T) {
	catalogService := &fakeCatalogService{err: &gateway.TransportError{Endpoint: "/anime/detail", Err: errors.New("connection refused")}}
	rec := doRequest(newTestServer(&fakeSearchService{}, catalogService), http.MethodGet, "/api/play/anime/slug", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestReaderRoutes(t *testing.T) {
	catalogService := &fakeCatalogService{}
	handler := newTestServer(&fakeSearchService{}, catalogService)

	rec := doRequest(handler, http.MethodGet, "/api/komik/solo-leveling", nil)
	if rec.Code != http.StatusOK || catalogService.lastID != "solo-leveling" {
		t.Fatalf("unexpected reader response %d for %q", rec.Code, catalogService.lastID)
	}

	rec = doRequest(handler, http.MethodGet, "/api/komik/chapters/c1/images", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		ChapterID string   `json:"chapterId"`
		Items     []string `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.ChapterID != "c1" || len(payload.Items) != 2 {
		t.Fatalf("unexpected images payload %#v", payload)
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := newTestServer(&fakeSearchService{}, &fakeCatalogService{})

	rec := doRequest(handler, http.MethodGet, "/health", map[string]string{requestIDHeader: "req-42"})
	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}

	rec = doRequest(handler, http.MethodGet, "/health", nil)
	if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", rec.Header().Get(requestIDHeader))
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := doRequest(newTestServer(&fakeSearchService{}, &fakeCatalogService{}), http.MethodGet, "/api/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"/health":                           "/health",
		"/api/search":                       "/api/search",
		"/api/providers/health":             "/api/providers",
		"/api/providers/dramabox/lists/vip": "/api/providers/{source}/lists/{name}",
		"/api/sections/hero":                "/api/sections/{id}",
		"/api/play/anime/x":                 "/api/play/{source}/{id}",
		"/api/play/anime/x/episodes/3":      "/api/play/{source}/{id}/episodes/{index}",
		"/api/komik/solo":                   "/api/komik/{id}",
		"/api/komik/chapters/c1/images":     "/api/komik/chapters/{chapterId}/images",
		"/wp-login.php":                     "/other",
	}
	for path, want := range cases {
		if got := normalizeRoute(path); got != want {
			t.Fatalf("normalizeRoute(%q) = %q, want %q", path, got, want)
		}
	}
}
