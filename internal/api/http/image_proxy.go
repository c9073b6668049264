package apihttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"streamverse/gateway/internal/domain"
)

const (
	coverProxyPath     = "/api/image"
	maxCoverBytes      = int64(10 << 20)
	coverFetchTimeout  = 12 * time.Second
	coverMaxRedirects  = 5
	coverSniffBytes    = 512
	coverLookupTimeout = 2 * time.Second
)

var (
	errCoverURL     = errors.New("invalid cover url")
	errCoverBlocked = errors.New("blocked cover host")
)

// Loopback aliases and the service names of the deployment stack.
var blockedCoverHosts = map[string]struct{}{
	"localhost":           {},
	"127.0.0.1":           {},
	"::1":                 {},
	"redis":               {},
	"otel-collector":      {},
	"streamverse-gateway": {},
}

var blockedCoverSuffixes = []string{".local", ".localhost", ".internal"}

// coverURL points a provider cover at the image proxy. Empty and non-http
// values are returned unchanged.
func coverURL(raw string) string {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return raw
	}
	return coverProxyPath + "?url=" + url.QueryEscape(value)
}

func proxiedItems(items []domain.CatalogItem) []domain.CatalogItem {
	if items == nil {
		return nil
	}
	out := make([]domain.CatalogItem, len(items))
	for i, item := range items {
		item.CoverImage = coverURL(item.CoverImage)
		out[i] = item
	}
	return out
}

func proxiedEpisodes(episodes []domain.Episode) []domain.Episode {
	if episodes == nil {
		return nil
	}
	out := make([]domain.Episode, len(episodes))
	for i, episode := range episodes {
		episode.Thumbnail = coverURL(episode.Thumbnail)
		out[i] = episode
	}
	return out
}

// The with* helpers rewrite cover URLs on copies when the cover proxy is
// enabled, and are the identity otherwise. Service results may share their
// slices with long-lived state (the hero rotator) and are never edited in place.

func (s *Server) withSection(section domain.Section) domain.Section {
	if s.proxyCovers {
		section.Items = proxiedItems(section.Items)
	}
	return section
}

func (s *Server) withSections(sections []domain.Section) []domain.Section {
	if !s.proxyCovers {
		return sections
	}
	out := make([]domain.Section, len(sections))
	for i, section := range sections {
		out[i] = s.withSection(section)
	}
	return out
}

func (s *Server) withGroup(group domain.SearchResultGroup) domain.SearchResultGroup {
	if s.proxyCovers {
		group.Items = proxiedItems(group.Items)
	}
	return group
}

func (s *Server) withSearch(response domain.SearchResponse) domain.SearchResponse {
	if !s.proxyCovers {
		return response
	}
	groups := make([]domain.SearchResultGroup, len(response.Groups))
	for i, group := range response.Groups {
		groups[i] = s.withGroup(group)
	}
	response.Groups = groups
	return response
}

func (s *Server) withHero(state domain.HeroState) domain.HeroState {
	if !s.proxyCovers {
		return state
	}
	state.Items = proxiedItems(state.Items)
	if state.Item != nil {
		item := *state.Item
		item.CoverImage = coverURL(item.CoverImage)
		state.Item = &item
	}
	return state
}

func (s *Server) withPlayer(view domain.PlayerView) domain.PlayerView {
	if s.proxyCovers {
		view.Episodes = proxiedEpisodes(view.Episodes)
	}
	return view
}

func (s *Server) withPlayback(playback domain.Playback) domain.Playback {
	if s.proxyCovers {
		playback.Episode.Thumbnail = coverURL(playback.Episode.Thumbnail)
	}
	return playback
}

// handleImageProxy relays one cover image. Several providers refuse
// hotlinked covers, so the gateway fetches them with the origin as referer.
// Only public http(s) hosts are reachable and only image bodies are relayed.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing url")
		return
	}
	target, err := url.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", errCoverURL.Error())
		return
	}
	if err := s.checkImageURL(r.Context(), target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := s.covers.R().
		SetContext(r.Context()).
		SetDoNotParseResponse(true).
		SetHeader("Referer", target.Scheme+"://"+target.Host+"/").
		Get(target.String())
	if err != nil {
		s.logger.Debug("cover fetch failed",
			slog.String("host", target.Hostname()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to fetch image")
		return
	}
	body := resp.RawBody()
	defer body.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		writeError(w, http.StatusBadGateway, "upstream_error", fmt.Sprintf("image host returned HTTP %d", status))
		return
	}
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > maxCoverBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "image too large")
		return
	}

	limited := io.LimitReader(body, maxCoverBytes)
	head := make([]byte, coverSniffBytes)
	n, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to read image")
		return
	}
	head = head[:n]

	contentType := strings.TrimSpace(resp.Header().Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(head)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		writeError(w, http.StatusBadGateway, "upstream_error", "not an image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(head)
	_, _ = io.Copy(w, limited)
}

// newCoverClient builds the resty client used by the image proxy. Every
// redirect hop is checked again so a public host cannot bounce the gateway
// onto an internal one.
func newCoverClient(check func(context.Context, *url.URL) error) *resty.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = (&net.Dialer{Timeout: 8 * time.Second, KeepAlive: 30 * time.Second}).DialContext

	return resty.NewWithClient(&http.Client{Transport: otelhttp.NewTransport(transport)}).
		SetTimeout(coverFetchTimeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "streamverse-gateway/1.0").
		SetHeader("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8").
		SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(coverMaxRedirects),
			resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
				if req.URL == nil {
					return errCoverURL
				}
				return check(req.Context(), req.URL)
			}),
		)
}

// validateCoverURL accepts public http(s) targets only. Host names are
// resolved and every address must be public.
func validateCoverURL(ctx context.Context, target *url.URL) error {
	if target == nil {
		return errCoverURL
	}
	switch strings.ToLower(target.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme", errCoverURL)
	}
	host := strings.ToLower(strings.TrimSpace(target.Hostname()))
	if host == "" {
		return fmt.Errorf("%w: missing host", errCoverURL)
	}
	if _, blocked := blockedCoverHosts[host]; blocked {
		return errCoverBlocked
	}
	for _, suffix := range blockedCoverSuffixes {
		if strings.HasSuffix(host, suffix) {
			return errCoverBlocked
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if !publicIP(ip) {
			return errCoverBlocked
		}
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, coverLookupTimeout)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupIPAddr(lookupCtx, host)
	if err != nil || len(addrs) == 0 {
		return fmt.Errorf("%w: unresolvable host", errCoverURL)
	}
	for _, addr := range addrs {
		if !publicIP(addr.IP) {
			return errCoverBlocked
		}
	}
	return nil
}

func publicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified())
}
