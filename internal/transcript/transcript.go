// Package transcript turns a video's captions into plain text suitable for
// summarization.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"vidbrief/internal/cache"
	"vidbrief/internal/extractor"
)

// ErrNoTranscript is returned when a video has no usable captions.
var ErrNoTranscript = errors.New("no transcript available for this video")

// minTranscriptChars is the shortest cleaned text accepted as a transcript.
const minTranscriptChars = 10

// Pick returns the caption track for the first language in langs that is
// present, falling back to the remaining languages in name order.
func Pick(captions map[string]string, langs []string) (string, string, bool) {
	for _, lang := range langs {
		if text, ok := captions[lang]; ok && strings.TrimSpace(text) != "" {
			return lang, text, true
		}
	}
	rest := make([]string, 0, len(captions))
	for lang := range captions {
		rest = append(rest, lang)
	}
	sort.Strings(rest)
	for _, lang := range rest {
		if text := captions[lang]; strings.TrimSpace(text) != "" {
			return lang, text, true
		}
	}
	return "", "", false
}

// Service fetches, selects and cleans captions.
type Service struct {
	extractor extractor.Extractor
	langs     []string
	store     cache.Cache
}

func NewService(ex extractor.Extractor, langs []string, store cache.Cache) *Service {
	return &Service{extractor: ex, langs: langs, store: store}
}

// Get returns the cleaned transcript for url.
func (s *Service) Get(ctx context.Context, url string) (string, error) {
	canonical, videoID, err := extractor.Canonicalize(url)
	if err != nil {
		return "", err
	}

	key := "transcript:" + videoID
	if s.store != nil {
		if cached, ok := s.store.Get(key); ok {
			return string(cached), nil
		}
	}

	captions, err := s.extractor.Captions(ctx, canonical, s.langs)
	if err != nil {
		return "", fmt.Errorf("fetch captions: %w", err)
	}
	lang, raw, ok := Pick(captions, s.langs)
	if !ok {
		return "", ErrNoTranscript
	}

	text := CleanVTT(raw)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTranscriptChars {
		log.Warn().Str("video_id", videoID).Str("lang", lang).Msg("caption text too short")
		return "", ErrNoTranscript
	}

	log.Info().Str("video_id", videoID).Str("lang", lang).Int("chars", len(text)).Msg("transcript extracted")
	if s.store != nil {
		s.store.Set(key, []byte(text))
	}
	return text, nil
}
