package download

import (
	"time"

	"vidbrief/internal/extractor"
	fileutil "vidbrief/internal/file"
	"vidbrief/internal/guard"
	"vidbrief/internal/progress"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Resolution records how the output file was located.
type Resolution string

const (
	ResolutionExpected Resolution = "expected"
	ResolutionFallback Resolution = "fallback"
)

// Result is the outcome of a download. Exactly one of Path or Message is
// set, depending on Status.
type Result struct {
	Status     Status     `json:"status"`
	Filename   string     `json:"filename,omitempty"`
	Path       string     `json:"path,omitempty"`
	Message    string     `json:"message,omitempty"`
	Resolution Resolution `json:"resolution,omitempty"`

	// Err is the underlying error for error results.
	Err error `json:"-"`
}

// OK reports whether the download succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Job identifies the download currently holding the guard.
type Job struct {
	ID        string    `json:"job_id"`
	URL       string    `json:"url"`
	Dir       string    `json:"dir"`
	StartedAt time.Time `json:"started_at"`
}

// Finished is a completed job together with its result.
type Finished struct {
	Job
	Result     Result    `json:"result"`
	FinishedAt time.Time `json:"finished_at"`
}

// Snapshot is a point-in-time view of the service.
type Snapshot struct {
	Active   bool             `json:"active"`
	Job      *Job             `json:"job,omitempty"`
	Progress progress.Reading `json:"progress"`
	Last     *Finished        `json:"last,omitempty"`
}

type Options struct {
	Extractor extractor.Extractor
	Tracker   *progress.Tracker
	Guard     *guard.Guard
	Janitor   *fileutil.Janitor

	// Grace is how long to wait after the extractor returns before looking
	// for the output file. Zero skips the wait.
	Grace time.Duration
}

const mediaExt = ".mp4"
