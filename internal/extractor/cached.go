package extractor

import (
	"context"

	"vidbrief/internal/cache"
)

// Cached wraps an Extractor and memoizes probe results by URL. Fetch and
// Captions pass straight through.
type Cached struct {
	Extractor
	store cache.Cache
}

func NewCached(inner Extractor, store cache.Cache) *Cached {
	return &Cached{Extractor: inner, store: store}
}

func (c *Cached) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	key := "probe:" + url
	var info VideoInfo
	if cache.GetJSON(c.store, key, &info) {
		return &info, nil
	}
	got, err := c.Extractor.Probe(ctx, url)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(c.store, key, got)
	return got, nil
}
