package summary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"vidbrief/internal/cache"
	"vidbrief/internal/metrics"
)

// Cached memoizes summaries by transcript and duration bucket, and records
// the outcome of every request.
type Cached struct {
	inner Summarizer
	store cache.Cache
}

func NewCached(inner Summarizer, store cache.Cache) *Cached {
	return &Cached{inner: inner, store: store}
}

// Key returns the cache key for a transcript. Durations that yield the same
// number of key points share a key.
func Key(transcript string, duration time.Duration) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(KeyPoints(duration))))
	h.Write([]byte{0})
	h.Write([]byte(transcript))
	return "summary:" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cached) Summarize(ctx context.Context, transcript string, duration time.Duration) (string, error) {
	if isEmpty(transcript) {
		metrics.SummariesTotal.WithLabelValues("rejected").Inc()
		return "", ErrEmptyTranscript
	}

	key := Key(transcript, duration)
	if raw, ok := c.store.Get(key); ok {
		metrics.SummariesTotal.WithLabelValues("cached").Inc()
		return string(raw), nil
	}

	out, err := c.inner.Summarize(ctx, transcript, duration)
	if err != nil {
		metrics.SummariesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.SummariesTotal.WithLabelValues("ok").Inc()
	c.store.Set(key, []byte(out))
	return out, nil
}
