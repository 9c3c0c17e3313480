package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download metrics
var (
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_downloads_total",
			Help: "Total number of download jobs by outcome.",
		},
		[]string{"status"},
	)

	// OutputResolutionTotal counts how the output file was located after a
	// reported-successful download.
	OutputResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_download_output_resolution_total",
			Help: "Total number of located download outputs by resolution path (expected or fallback).",
		},
		[]string{"resolution"},
	)

	GuardRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_download_guard_rejections_total",
			Help: "Total number of download requests rejected because another download was active.",
		},
	)

	DownloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_download_duration_seconds",
			Help:    "Duration of download jobs that acquired the guard.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	TempFilesRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "video_download_temp_files_removed_total",
			Help: "Total number of intermediate artifacts removed by the janitor.",
		},
	)

	SummariesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summaries_total",
			Help: "Total number of summary requests by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		DownloadsTotal,
		OutputResolutionTotal,
		GuardRejectionsTotal,
		DownloadDuration,
		TempFilesRemovedTotal,
		SummariesTotal,
	)
}
