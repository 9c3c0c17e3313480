package api

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vidbrief/internal/progress"
)

// Progress streams tracker readings as server-sent events until the client
// goes away.
func (a *API) Progress(c *gin.Context) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	reporter := progress.NewReporter(a.downloads.Tracker(), a.progressInterval)
	err := reporter.Run(c.Request.Context(), func(r progress.Reading) error {
		if err := sse.Encode(c.Writer, sse.Event{Data: r}); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Msg("progress stream closed")
	}
}
