package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/paper-digest/internal/services"
)

// SyncStateResponse reports the orchestrator phase.
type SyncStateResponse struct {
	State   services.SyncState `json:"state"   example:"IDLE"`
	Running bool               `json:"running" example:"false"`
}

// SyncAccepted is returned when a sync was started in the background.
type SyncAccepted struct {
	Status string `json:"status" example:"started"`
}

// StartSync godoc
// @ID          startSync
// @Summary     Run a sync
// @Description Fetches missing days, stores new papers and backfills summaries. Runs in the background unless wait=true.
// @Tags        Sync
// @Produce     json
// @Param       wait  query  bool  false  "Block until the sync finishes"
// @Success     200  {object}  services.SyncReport
// @Success     202  {object}  handlers.SyncAccepted
// @Failure     409  {object}  handlers.ErrorResponse "Sync already running"
// @Failure     500  {object}  handlers.ErrorResponse "Store failure"
// @Router      /sync [post]
func (h *Handlers) StartSync(c *gin.Context) {
	if h.sync.Running() {
		failErr(c, services.ErrSyncInProgress)
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		report, err := h.sync.Run(c.Request.Context())
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, report)
		return
	}

	go func(ctx context.Context) {
		if _, err := h.sync.Run(ctx); err != nil && !errors.Is(err, services.ErrSyncInProgress) {
			log.Error().Err(err).Str("component", "sync").Msg("background sync failed")
		}
	}(h.bg)
	ok(c, http.StatusAccepted, SyncAccepted{Status: "started"})
}

// SyncState godoc
// @ID          syncState
// @Summary     Current sync phase
// @Tags        Sync
// @Produce     json
// @Success     200  {object}  handlers.SyncStateResponse
// @Router      /sync/state [get]
func (h *Handlers) SyncState(c *gin.Context) {
	ok(c, http.StatusOK, SyncStateResponse{State: h.sync.State(), Running: h.sync.Running()})
}
