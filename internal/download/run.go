package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	fileutil "vidbrief/internal/file"
	"vidbrief/internal/metrics"
	"vidbrief/internal/progress"
)

// Run downloads url into outputDir. It never returns a raw error: failures
// are reported through an error Result. Only one Run proceeds at a time;
// others return immediately with ErrBusy and leave the filesystem alone.
func (s *Service) Run(ctx context.Context, url, outputDir string) Result {
	lease, ok := s.opts.Guard.Acquire()
	if !ok {
		metrics.GuardRejectionsTotal.Inc()
		metrics.DownloadsTotal.WithLabelValues("rejected").Inc()
		log.Info().Str("url", url).Msg("download rejected: guard held")
		return errorResult(ErrBusy)
	}
	defer lease.Release()

	job := s.begin(url, outputDir)
	started := time.Now()
	logger := log.With().Str("job_id", job.ID).Str("url", url).Logger()
	logger.Info().Str("dir", job.Dir).Msg("download started")

	s.cleanup(outputDir)
	result := s.process(ctx, job, url, outputDir, lease.Owned)

	// after a stale reclaim the directory and tracker belong to the new job
	owned := lease.Owned()
	if owned {
		s.cleanup(outputDir)
	} else {
		logger.Warn().Msg("guard reclaimed while running, skipping cleanup")
	}

	metrics.DownloadDuration.Observe(time.Since(started).Seconds())
	metrics.DownloadsTotal.WithLabelValues(string(result.Status)).Inc()
	if result.OK() {
		logger.Info().Str("path", result.Path).Str("resolution", string(result.Resolution)).
			Dur("elapsed", time.Since(started)).Msg("download finished")
	} else {
		logger.Error().Str("error", result.Message).Msg("download failed")
	}
	s.finish(job, result, owned)
	return result
}

func (s *Service) process(ctx context.Context, job Job, url, outputDir string, owned func() bool) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job_id", job.ID).Interface("panic", r).Msg("download panicked")
			result = errorResult(fmt.Errorf("download failed: %v", r))
		}
	}()

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return errorResult(fmt.Errorf("create output dir: %w", err))
	}
	tracker := s.opts.Tracker
	tracker.Reset()
	update := func(phase progress.Phase, fraction float64) {
		if owned() {
			tracker.Update(phase, fraction)
		}
	}

	info, err := s.opts.Extractor.Probe(ctx, url)
	if err != nil {
		return errorResult(err)
	}
	if info == nil || strings.TrimSpace(info.Title) == "" {
		return errorResult(ErrNoTitle)
	}

	name := fileutil.Sanitize(info.Title)
	if name == "" {
		name = fileutil.Sanitize(info.ID)
	}
	if name == "" {
		name = "video_" + job.ID[:8]
	}
	expected := filepath.Join(outputDir, name+mediaExt)

	fetchCtx := s.baseContext()
	err = s.opts.Extractor.Fetch(fetchCtx, url, outputDir, name, update)
	if err != nil {
		return errorResult(err)
	}

	if err := wait(fetchCtx, s.opts.Grace); err != nil {
		return errorResult(fmt.Errorf("%w: %w", ErrCancelled, err))
	}

	if fileutil.Exists(expected) {
		update(progress.PhaseMerging, 1)
		metrics.OutputResolutionTotal.WithLabelValues(string(ResolutionExpected)).Inc()
		return successResult(expected, ResolutionExpected)
	}

	if found, ok := fileutil.FindNewest(outputDir, mediaExt); ok {
		log.Warn().Str("job_id", job.ID).Str("expected", expected).Str("path", found).
			Str("resolution", string(ResolutionFallback)).Msg("expected output missing, using newest media file")
		update(progress.PhaseMerging, 1)
		metrics.OutputResolutionTotal.WithLabelValues(string(ResolutionFallback)).Inc()
		return successResult(found, ResolutionFallback)
	}

	return errorResult(ErrOutputNotFound)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func successResult(path string, resolution Resolution) Result {
	return Result{
		Status:     StatusSuccess,
		Filename:   filepath.Base(path),
		Path:       path,
		Resolution: resolution,
	}
}

func errorResult(err error) Result {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result{Status: StatusError, Message: err.Error(), Err: err}
}
