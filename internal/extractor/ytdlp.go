package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"

	"vidbrief/internal/progress"
)

const (
	progressFrequency = 500 * time.Millisecond
	mediaExt          = "mp4"
	socketTimeout     = 30
)

// YTDLP implements Extractor on top of the yt-dlp binary.
type YTDLP struct {
	binary string
	format string
}

// NewYTDLP creates an extractor. An empty binary resolves yt-dlp from PATH
// (or the go-ytdlp install cache); an empty format uses the mp4/avc1 default.
func NewYTDLP(binary, format string) *YTDLP {
	if format == "" {
		format = "bestvideo[ext=mp4][vcodec^=avc1]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
	return &YTDLP{binary: binary, format: format}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		SocketTimeout(socketTimeout)
	if y.binary != "" {
		cmd = cmd.SetExecutable(y.binary)
	}
	return cmd
}

// probeOutput is the subset of yt-dlp's info JSON the service needs.
type probeOutput struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
}

func (y *YTDLP) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	res, err := y.command().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, runError(res, err))
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}
	return &VideoInfo{
		ID:          out.ID,
		Title:       out.Title,
		Duration:    out.Duration,
		Thumbnail:   out.Thumbnail,
		Description: out.Description,
	}, nil
}

func (y *YTDLP) Fetch(ctx context.Context, url, outputDir, baseName string, onProgress ProgressFunc) error {
	dl := y.command().
		Format(y.format).
		MergeOutputFormat(mediaExt).
		Output(filepath.Join(outputDir, baseName+".%(ext)s"))

	if onProgress != nil {
		dl.ProgressFunc(progressFrequency, func(update ytdlp.ProgressUpdate) {
			phase, fraction := mapProgress(update)
			onProgress(phase, fraction)
		})
	}

	res, err := dl.Run(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, runError(res, err))
	}
	return nil
}

// mapProgress turns a yt-dlp progress update into a phase fraction. Post
// processing (muxing) carries no byte counts, so it only marks the start of
// the merge phase.
func mapProgress(update ytdlp.ProgressUpdate) (progress.Phase, float64) {
	switch update.Status {
	case ytdlp.ProgressStatusPostProcessing:
		return progress.PhaseMerging, 0
	case ytdlp.ProgressStatusFinished:
		return progress.PhaseDownloading, 1
	}
	if update.TotalBytes > 0 {
		return progress.PhaseDownloading, float64(update.DownloadedBytes) / float64(update.TotalBytes)
	}
	if update.FragmentCount > 0 {
		return progress.PhaseDownloading, float64(update.FragmentIndex) / float64(update.FragmentCount)
	}
	return progress.PhaseDownloading, 0
}

func (y *YTDLP) Captions(ctx context.Context, url string, langs []string) (map[string]string, error) {
	tmpDir, err := os.MkdirTemp("", "vidbrief-subs-*")
	if err != nil {
		return nil, fmt.Errorf("create caption dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn().Err(err).Str("dir", tmpDir).Msg("remove caption dir failed")
		}
	}()

	res, err := y.command().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubFormat("vtt").
		SubLangs(strings.Join(langs, ",")).
		Output(filepath.Join(tmpDir, "%(id)s.%(ext)s")).
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("captions %s: %w", url, runError(res, err))
	}

	return readCaptionFiles(tmpDir)
}

// readCaptionFiles loads "<id>.<lang>.vtt" files written by yt-dlp.
func readCaptionFiles(dir string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if err != nil {
		return nil, fmt.Errorf("list captions: %w", err)
	}
	captions := make(map[string]string, len(matches))
	for _, path := range matches {
		lang := captionLanguage(filepath.Base(path))
		if lang == "" {
			continue
		}
		data, err := os.ReadFile(path) //nolint:gosec // path is inside our temp dir
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("read caption file failed")
			continue
		}
		captions[lang] = string(data)
	}
	return captions, nil
}

// captionLanguage extracts "en" from "abc123.en.vtt".
func captionLanguage(name string) string {
	trimmed := strings.TrimSuffix(name, ".vtt")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}

// runError prefers yt-dlp's own error line over the generic exit status.
func runError(res *ytdlp.Result, err error) error {
	if res == nil {
		return err
	}
	for _, line := range strings.Split(res.Stderr, "\n") {
		if msg, ok := strings.CutPrefix(strings.TrimSpace(line), "ERROR: "); ok {
			return errors.New(msg)
		}
	}
	return err
}
