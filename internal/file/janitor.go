package file

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// per-format streams written before muxing, e.g. "title.f137.mp4"
var formatFragmentRe = regexp.MustCompile(`\.f\d+\.[A-Za-z0-9]+$`)

// merge and partial outputs keep the media extension, e.g. "title.temp.mp4"
var infixTempRe = regexp.MustCompile(`(?i)\.(temp|part|tmp)\.[A-Za-z0-9]+$`)

var tempSuffixes = []string{".part", ".temp", ".tmp", ".ytdl"}

// Janitor removes intermediate download artifacts from a directory.
type Janitor struct {
	remove func(string) error
}

// NewJanitor returns a janitor that deletes files from the local filesystem.
func NewJanitor() *Janitor {
	return &Janitor{remove: os.Remove}
}

// IsTempArtifact reports whether name looks like a partial or intermediate
// download artifact.
func IsTempArtifact(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	if strings.Contains(lower, ".part-frag") {
		return true
	}
	return formatFragmentRe.MatchString(name) || infixTempRe.MatchString(name)
}

// Cleanup deletes temp artifacts in dir and returns how many were removed.
// A missing directory is not an error; individual failures are logged and
// skipped.
func (j *Janitor) Cleanup(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", dir).Msg("janitor: read dir failed")
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsTempArtifact(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := j.remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("janitor: remove temp file failed")
			continue
		}
		removed++
		log.Debug().Str("path", path).Msg("janitor: removed temp file")
	}
	return removed
}
