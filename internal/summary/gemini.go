package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// errEmptyResponse is returned when the model answers without any text.
var errEmptyResponse = errors.New("model returned an empty response")

const (
	defaultMaxRetries = 2
	defaultRetryDelay = time.Second
	maxRetryDelay     = 8 * time.Second
)

// Options configures the Gemini adapter.
type Options struct {
	APIKey        string
	Model         string
	MaxInputChars int
	MaxTokens     int
	Temperature   float32

	// RetryDelay is the first backoff delay. Zero means one second.
	RetryDelay time.Duration
}

// generator performs a single model call.
type generator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

// Gemini summarizes transcripts with a Gemini model.
type Gemini struct {
	gen      generator
	maxChars int
	retry    retrypolicy.RetryPolicy[string]
	closer   func() error
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("summary: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := newGemini(&modelGenerator{client: client, opts: opts}, opts)
	g.closer = client.Close
	return g, nil
}

func newGemini(gen generator, opts Options) *Gemini {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	policy := retrypolicy.NewBuilder[string]().
		AbortOnErrors(context.Canceled, context.DeadlineExceeded).
		WithMaxRetries(defaultMaxRetries).
		WithBackoff(delay, maxRetryDelay).
		OnRetry(func(e failsafe.ExecutionEvent[string]) {
			log.Warn().Err(e.LastError()).Int("attempt", e.Attempts()).Msg("summary request failed, retrying")
		}).
		Build()

	return &Gemini{gen: gen, maxChars: opts.MaxInputChars, retry: policy}
}

// Summarize implements Summarizer.
func (g *Gemini) Summarize(ctx context.Context, transcript string, duration time.Duration) (string, error) {
	if isEmpty(transcript) {
		return "", ErrEmptyTranscript
	}
	prompt := Truncate(transcript, g.maxChars)
	instruction := Instruction(duration)

	started := time.Now()
	out, err := failsafe.With[string](g.retry).WithContext(ctx).Get(func() (string, error) {
		return g.gen.Generate(ctx, instruction, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	log.Info().
		Int("input_chars", len([]rune(prompt))).
		Dur("elapsed", time.Since(started)).
		Msg("summary generated")
	return out, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

// modelGenerator builds a fresh model handle per call since the system
// instruction varies with the video length.
type modelGenerator struct {
	client *genai.Client
	opts   Options
}

func (m *modelGenerator) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	model := m.client.GenerativeModel(m.opts.Model)
	model.SetTemperature(m.opts.Temperature)
	model.SetMaxOutputTokens(int32(m.opts.MaxTokens))
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errEmptyResponse
	}
	return b.String(), nil
}
