package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Busy          bool    `json:"busy"`
	DownloadDir   string  `json:"download_dir"`
	DiskFreeBytes uint64  `json:"disk_free_bytes,omitempty"`
	MemUsedPct    float64 `json:"mem_used_percent,omitempty"`
}

// Health reports liveness along with free space in the download directory
func (a *API) Health(c *gin.Context) {
	resp := healthResponse{
		Status:      "ok",
		Busy:        a.downloads.Busy(),
		DownloadDir: a.downloadDir,
	}
	if usage, err := disk.UsageWithContext(c.Request.Context(), a.downloadDir); err == nil {
		resp.DiskFreeBytes = usage.Free
	} else {
		log.Debug().Err(err).Str("dir", a.downloadDir).Msg("disk usage unavailable")
	}
	if vm, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		resp.MemUsedPct = vm.UsedPercent
	}
	c.JSON(http.StatusOK, resp)
}
