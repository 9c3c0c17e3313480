package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"vidbrief/internal/download"
	"vidbrief/internal/extractor"
	"vidbrief/internal/progress"
	"vidbrief/internal/summary"
	"vidbrief/internal/transcript"
)

type urlRequest struct {
	URL string `json:"url" form:"url"`
}

type summaryRequest struct {
	Transcript string  `json:"transcript" form:"transcript"`
	Duration   float64 `json:"duration" form:"duration"`
}

type statusResponse struct {
	Active    bool               `json:"active"`
	JobID     string             `json:"job_id,omitempty"`
	URL       string             `json:"url,omitempty"`
	StartedAt string             `json:"started_at,omitempty"`
	Progress  float64            `json:"progress"`
	Stage     progress.Stage     `json:"stage"`
	Last      *download.Finished `json:"last,omitempty"`
}

// Options wires the API to its services. Summarizer may be nil when no
// model is configured.
type Options struct {
	Downloads        *download.Service
	Extractor        extractor.Extractor
	Transcripts      *transcript.Service
	Summarizer       summary.Summarizer
	DownloadDir      string
	ProgressInterval time.Duration
	SummaryPerMinute int
	CORSOrigins      []string
}

type API struct {
	downloads        *download.Service
	extractor        extractor.Extractor
	transcripts      *transcript.Service
	summarizer       summary.Summarizer
	downloadDir      string
	progressInterval time.Duration
	summaryPerMinute int
	corsOrigins      []string
}

func NewAPI(opts Options) *API {
	return &API{
		downloads:        opts.Downloads,
		extractor:        opts.Extractor,
		transcripts:      opts.Transcripts,
		summarizer:       opts.Summarizer,
		downloadDir:      opts.DownloadDir,
		progressInterval: opts.ProgressInterval,
		summaryPerMinute: opts.SummaryPerMinute,
		corsOrigins:      opts.CORSOrigins,
	}
}

// RegisterRoutes registers API routes on the provided gin engine
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.Use(CORS(a.corsOrigins))

	api := router.Group("/api")
	{
		api.POST("/video/info", a.VideoInfo)
		api.POST("/transcript", a.Transcript)
		api.POST("/summary", RateLimit(a.summaryPerMinute), a.Summary)
		api.POST("/video/download", a.Download)
		api.GET("/progress", a.Progress)
		api.GET("/process/status", a.ProcessStatus)
	}
	router.GET("/healthz", a.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func bindURL(c *gin.Context) (string, bool) {
	var req urlRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return "", false
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return "", false
	}
	return url, true
}

// VideoInfo returns metadata for a video without downloading it
func (a *API) VideoInfo(c *gin.Context) {
	url, ok := bindURL(c)
	if !ok {
		return
	}
	canonical, videoID, err := extractor.Canonicalize(url)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := a.extractor.Probe(c.Request.Context(), canonical)
	if err != nil {
		log.Warn().Str("video_id", videoID).Err(err).Msg("probe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if info.ID == "" {
		info.ID = videoID
	}
	c.JSON(http.StatusOK, info)
}

// Transcript returns the cleaned caption text for a video
func (a *API) Transcript(c *gin.Context) {
	url, ok := bindURL(c)
	if !ok {
		return
	}
	text, err := a.transcripts.Get(c.Request.Context(), url)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"transcript": text})
	case errors.Is(err, transcript.ErrNoTranscript):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": "error"})
	case errors.Is(err, extractor.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Warn().Str("url", url).Err(err).Msg("transcript failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Summary summarizes a transcript
func (a *API) Summary(c *gin.Context) {
	if a.summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summarizer not configured"})
		return
	}
	var req summaryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	duration := time.Duration(req.Duration * float64(time.Second))
	out, err := a.summarizer.Summarize(c.Request.Context(), req.Transcript, duration)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"summary": out})
	case errors.Is(err, summary.ErrEmptyTranscript):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Download runs a download and streams the resulting file back
func (a *API) Download(c *gin.Context) {
	url, ok := bindURL(c)
	if !ok {
		return
	}
	result := a.downloads.Run(c.Request.Context(), url, a.downloadDir)
	if !result.OK() {
		code := http.StatusInternalServerError
		if errors.Is(result.Err, download.ErrBusy) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": result.Message, "status": "error"})
		return
	}
	log.Info().Str("path", result.Path).Msg("serving download")
	c.FileAttachment(result.Path, result.Filename)
}

// ProcessStatus reports the active download and the last finished one
func (a *API) ProcessStatus(c *gin.Context) {
	c.JSON(http.StatusOK, toStatusResponse(a.downloads.Status()))
}

func toStatusResponse(snap download.Snapshot) statusResponse {
	resp := statusResponse{
		Active:   snap.Active,
		Progress: snap.Progress.Progress,
		Stage:    snap.Progress.Stage,
		Last:     snap.Last,
	}
	if snap.Job != nil {
		resp.JobID = snap.Job.ID
		resp.URL = snap.Job.URL
		resp.StartedAt = snap.Job.StartedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
