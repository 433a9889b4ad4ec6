package avatar

import (
	"context"
	"testing"

	"github.com/you/groupme-archive/internal/core"
)

type countingFetcher struct {
	calls map[string]int
	urls  map[string]string
}

func (f *countingFetcher) GetChat(_ context.Context, name string, isGroup bool) (core.Chat, error) {
	f.calls[name]++
	return core.Chat{Name: name, IsGroup: isGroup, ImageURL: f.urls[name]}, nil
}

func TestResolveFetchesOncePerChat(t *testing.T) {
	fetcher := &countingFetcher{
		calls: map[string]int{},
		urls:  map[string]string{"Hiking Club": "https://img/hc"},
	}
	cache := NewCache(fetcher)

	for i := 0; i < 3; i++ {
		url, err := cache.Resolve(context.Background(), "Hiking Club", true)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if url != "https://img/hc" {
			t.Fatalf("unexpected url %q", url)
		}
	}
	if fetcher.calls["Hiking Club"] != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.calls["Hiking Club"])
	}
}

func TestResolveCachesMissingAvatar(t *testing.T) {
	fetcher := &countingFetcher{calls: map[string]int{}, urls: map[string]string{}}
	cache := NewCache(fetcher)

	for i := 0; i < 2; i++ {
		url, err := cache.Resolve(context.Background(), "Alice", false)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if url != "" {
			t.Fatalf("expected empty url, got %q", url)
		}
	}
	if fetcher.calls["Alice"] != 1 {
		t.Fatalf("absent avatars should also be cached, got %d fetches", fetcher.calls["Alice"])
	}
}

func TestResolveDistinctChats(t *testing.T) {
	fetcher := &countingFetcher{
		calls: map[string]int{},
		urls:  map[string]string{"A": "https://img/a", "B": "https://img/b"},
	}
	cache := NewCache(fetcher)

	if url, _ := cache.Resolve(context.Background(), "A", true); url != "https://img/a" {
		t.Fatalf("wrong url for A: %q", url)
	}
	if url, _ := cache.Resolve(context.Background(), "B", false); url != "https://img/b" {
		t.Fatalf("wrong url for B: %q", url)
	}
	if fetcher.calls["A"] != 1 || fetcher.calls["B"] != 1 {
		t.Fatalf("each chat should fetch once: %v", fetcher.calls)
	}
}
