package melolo

import (
	"context"
	"testing"

	"streamverse/gateway/internal/providers/providertest"
)

func TestSearchSendsLimitAndOffset(t *testing.T) {
	fetcher := &providertest.RecordingFetcher{}
	provider := NewProvider(fetcher, WithSearchLimit(25))
	if _, err := provider.Search(context.Background(), "love"); err != nil {
		t.Fatalf("search: %v", err)
	}
	last := fetcher.Last()
	if last.Endpoint != "/melolo/search" {
		t.Fatalf("unexpected endpoint %q", last.Endpoint)
	}
	if last.Params.Get("limit") != "25" || last.Params.Get("offset") != "0" || last.Params.Get("query") != "love" {
		t.Fatalf("unexpected params %#v", last.Params)
	}
}

func TestStreamUsesVideoID(t *testing.T) {
	fetcher := &providertest.RecordingFetcher{}
	provider := NewProvider(fetcher)
	if provider.StreamKey() != "vid" {
		t.Fatalf("unexpected stream key %q", provider.StreamKey())
	}
	if _, err := provider.Stream(context.Background(), "v-9"); err != nil {
		t.Fatalf("stream: %v", err)
	}
	last := fetcher.Last()
	if last.Endpoint != "/melolo/stream" || last.Params.Get("videoId") != "v-9" {
		t.Fatalf("unexpected call %#v", last)
	}
}

func TestEpisodesReadDetail(t *testing.T) {
	fetcher := &providertest.RecordingFetcher{}
	if _, err := NewProvider(fetcher).Episodes(context.Background(), "b-1"); err != nil {
		t.Fatalf("episodes: %v", err)
	}
	last := fetcher.Last()
	if last.Endpoint != "/melolo/detail" || last.Params.Get("bookId") != "b-1" {
		t.Fatalf("unexpected call %#v", last)
	}
}
