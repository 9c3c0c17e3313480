// Package summary produces markdown outlines of video transcripts using a
// hosted language model.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTranscript is returned when there is nothing to summarize.
var ErrEmptyTranscript = errors.New("cannot summarize: transcript is empty")

// Summarizer turns a transcript into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, duration time.Duration) (string, error)
}

const systemInstruction = `You are a video summary assistant. Write the summary in markdown using this layout, with an emoji on every heading:

## 🎯 Main topic
One sentence describing the core subject of the video.

## 📝 Key points
A numbered list of %d key points, each starting with a short **bold** label followed by a description.

## 💡 Insights
Two or three bullet points with the most important takeaways.

## 🔍 Conclusion
A short paragraph summarizing the video's conclusions.

Keep the formatting clean and reply in the language of the transcript.`

// KeyPoints returns how many key points a summary of a video of the given
// length should list.
func KeyPoints(duration time.Duration) int {
	switch {
	case duration < 10*time.Minute:
		return 3
	case duration < 30*time.Minute:
		return 5
	default:
		return 7
	}
}

// Instruction builds the system instruction for a video of the given length.
func Instruction(duration time.Duration) string {
	return fmt.Sprintf(systemInstruction, KeyPoints(duration))
}

// Truncate limits transcript to maxChars runes, appending "..." when cut.
// A non-positive maxChars disables truncation.
func Truncate(transcript string, maxChars int) string {
	if maxChars <= 0 {
		return transcript
	}
	runes := []rune(transcript)
	if len(runes) <= maxChars {
		return transcript
	}
	return string(runes[:maxChars]) + "..."
}

func isEmpty(transcript string) bool {
	return strings.TrimSpace(transcript) == ""
}
