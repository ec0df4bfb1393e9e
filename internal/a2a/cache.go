package a2a

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cardCache holds fetched agent cards keyed by URL and token.
type cardCache struct {
	lru *expirable.LRU[string, *FetchedCard]
}

// newCardCache returns nil when size is not positive, which disables caching.
func newCardCache(size int, ttl time.Duration) *cardCache {
	if size <= 0 {
		return nil
	}
	return &cardCache{lru: expirable.NewLRU[string, *FetchedCard](size, nil, ttl)}
}

func cardKey(url, token string) string {
	return url + "\x00" + token
}

func (c *cardCache) get(url, token string) (*FetchedCard, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(cardKey(url, token))
}

func (c *cardCache) put(url, token string, card *FetchedCard) {
	if c == nil {
		return
	}
	c.lru.Add(cardKey(url, token), card)
}
