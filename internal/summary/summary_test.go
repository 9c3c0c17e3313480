package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"vidbrief/internal/cache"
	"vidbrief/internal/metrics"
)

type fakeGenerator struct {
	mu           sync.Mutex
	calls        int
	failures     int
	err          error
	reply        string
	lastPrompt   string
	lastInstruct string
}

func (f *fakeGenerator) Generate(_ context.Context, instruction, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPrompt = prompt
	f.lastInstruct = instruction
	if f.calls <= f.failures {
		return "", f.err
	}
	return f.reply, nil
}

func TestKeyPoints(t *testing.T) {
	cases := []struct {
		duration time.Duration
		want     int
	}{
		{0, 3},
		{9*time.Minute + 59*time.Second, 3},
		{10 * time.Minute, 5},
		{29 * time.Minute, 5},
		{30 * time.Minute, 7},
		{3 * time.Hour, 7},
	}
	for _, tc := range cases {
		if got := KeyPoints(tc.duration); got != tc.want {
			t.Errorf("KeyPoints(%v) = %d, want %d", tc.duration, got, tc.want)
		}
	}
	if !strings.Contains(Instruction(45*time.Minute), "7 key points") {
		t.Fatalf("instruction does not carry the key point count")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("short input changed: %q", got)
	}
	if got := Truncate("你好世界", 2); got != "你好..." {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("zero limit should disable truncation, got %q", got)
	}
}

func TestGeminiSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: "## 🎯 Main topic"}
	g := newGemini(gen, Options{MaxInputChars: 5, RetryDelay: time.Millisecond})

	out, err := g.Summarize(context.Background(), "abcdefghij", 12*time.Minute)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != gen.reply {
		t.Fatalf("unexpected output %q", out)
	}
	if gen.lastPrompt != "abcde..." {
		t.Fatalf("expected truncated prompt, got %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastInstruct, "5 key points") {
		t.Fatalf("expected 5 key points in instruction")
	}
}

func TestGeminiEmptyTranscript(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	g := newGemini(gen, Options{})

	if _, err := g.Summarize(context.Background(), "  \n", time.Minute); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("model must not be called for an empty transcript")
	}
}

func TestGeminiRetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{reply: "ok", failures: 2, err: errors.New("503 unavailable")}
	g := newGemini(gen, Options{RetryDelay: time.Millisecond})

	out, err := g.Summarize(context.Background(), "some transcript", time.Minute)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if out != "ok" || gen.calls != 3 {
		t.Fatalf("expected 3 calls and ok, got %d calls and %q", gen.calls, out)
	}
}

func TestGeminiGivesUpAfterRetries(t *testing.T) {
	gen := &fakeGenerator{reply: "ok", failures: 10, err: errors.New("quota exceeded")}
	g := newGemini(gen, Options{RetryDelay: time.Millisecond})

	if _, err := g.Summarize(context.Background(), "some transcript", time.Minute); err == nil {
		t.Fatalf("expected an error")
	}
	if gen.calls != 1+defaultMaxRetries {
		t.Fatalf("expected %d attempts, got %d", 1+defaultMaxRetries, gen.calls)
	}
}

type countingSummarizer struct {
	calls int
	err   error
}

func (c *countingSummarizer) Summarize(_ context.Context, transcript string, _ time.Duration) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "summary of " + transcript, nil
}

func TestCachedSummarizer(t *testing.T) {
	store, err := cache.New("memory", cache.ProviderConfig{Size: 8, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	inner := &countingSummarizer{}
	c := NewCached(inner, store)
	before := testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("cached"))

	for _, d := range []time.Duration{time.Minute, 5 * time.Minute} {
		out, err := c.Summarize(context.Background(), "text", d)
		if err != nil {
			t.Fatalf("summarize: %v", err)
		}
		if out != "summary of text" {
			t.Fatalf("unexpected output %q", out)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("durations in the same bucket should share a cache entry, got %d calls", inner.calls)
	}
	if got := testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("cached")) - before; got != 1 {
		t.Fatalf("expected one cached hit recorded, got %v", got)
	}

	if _, err := c.Summarize(context.Background(), "text", time.Hour); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("a different bucket should miss, got %d calls", inner.calls)
	}
}

func TestCachedSummarizerErrors(t *testing.T) {
	store, _ := cache.New("memory", cache.ProviderConfig{Size: 8, TTL: time.Hour})
	boom := errors.New("boom")
	inner := &countingSummarizer{err: boom}
	c := NewCached(inner, store)

	if _, err := c.Summarize(context.Background(), "", time.Minute); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := c.Summarize(context.Background(), "text", time.Minute); !errors.Is(err, boom) {
			t.Fatalf("expected inner error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", inner.calls)
	}
}

func TestKeyDependsOnTranscript(t *testing.T) {
	if Key("a", time.Minute) == Key("b", time.Minute) {
		t.Fatalf("different transcripts must not share a key")
	}
	if Key("a", time.Minute) != Key("a", 9*time.Minute) {
		t.Fatalf("same bucket must share a key")
	}
}
