// Package avatar memoizes chat avatar lookups so each distinct chat's
// detail is fetched from the API at most once per export run.
package avatar

import (
	"context"
	"sync"

	"github.com/you/groupme-archive/internal/core"
)

// Fetcher is the collaborator that looks up a chat's detail by name.
type Fetcher interface {
	GetChat(ctx context.Context, name string, isGroup bool) (core.Chat, error)
}

// Cache is scoped to one export run and handed to the report builder at
// construction. Entries are never invalidated or evicted; run length is
// bounded by a single export.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[string]string
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]string),
	}
}

// Resolve returns the chat's avatar URL, which may be empty when the
// chat has no picture. The first call for a name hits the collaborator;
// later calls are served from the cache, including cached absences.
func (c *Cache) Resolve(ctx context.Context, chatName string, isGroup bool) (string, error) {
	c.mu.Lock()
	if url, ok := c.entries[chatName]; ok {
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	chat, err := c.fetcher.GetChat(ctx, chatName, isGroup)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[chatName] = chat.ImageURL
	c.mu.Unlock()
	return chat.ImageURL, nil
}
