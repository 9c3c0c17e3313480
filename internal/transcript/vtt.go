package transcript

import (
	"regexp"
	"strings"
)

var (
	vttHeaderRe    = regexp.MustCompile(`^WEBVTT\b`)
	timingLineRe   = regexp.MustCompile(`^(\d{2}:)?\d{2}:\d{2}\.\d{3}\s*-->\s*(\d{2}:)?\d{2}:\d{2}\.\d{3}`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	soundCueRe     = regexp.MustCompile(`\[[^\]]*\]`)
	cueIDRe        = regexp.MustCompile(`^\d+$`)
	metadataLineRe = regexp.MustCompile(`^(Kind|Language|NOTE|STYLE|REGION)\b`)
)

// CleanVTT turns raw WebVTT into plain text, one caption line per line.
// Timing, cue IDs, markup and bracketed sound cues are dropped, and the
// rolling duplicates produced by auto-generated captions are collapsed.
func CleanVTT(raw string) string {
	if raw == "" {
		return ""
	}

	var cleaned []string
	prevLine := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")

		if vttHeaderRe.MatchString(line) ||
			metadataLineRe.MatchString(line) ||
			timingLineRe.MatchString(line) ||
			cueIDRe.MatchString(strings.TrimSpace(line)) {
			continue
		}

		line = htmlTagRe.ReplaceAllString(line, "")
		line = soundCueRe.ReplaceAllString(line, "")
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || line == prevLine {
			continue
		}

		cleaned = append(cleaned, line)
		prevLine = line
	}
	return strings.Join(cleaned, "\n")
}
