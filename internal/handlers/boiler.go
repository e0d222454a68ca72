package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusBoosting = "boosting"
	statusLatched  = "safety_latched"
	statusReset    = "reset"

	errBoost       = "failed to start boost"
	errSafety      = "failed to latch safety"
	errReset       = "failed to reset"
	errGetStatus   = "failed to load status"
	errGetSettings = "failed to load settings"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include the current snapshot (best-effort).
func (h *Handler) respondWithStatusAndSnapshot(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if st, err := h.services.Monitoring.Status(ctx); err == nil {
		resp["snapshot"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for the safety latch.
type safetyRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get boiler status
// @Tags         boiler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/boiler/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.Status(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "boiler_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Start boost
// @Description  Opens a full-power boost window: fan 100%%, damper open. Refused while the safety latch is set.
// @Tags         boiler
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, snapshot"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/boiler/boost [post]
// @Security     BearerAuth
func (h *Handler) startBoost(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Boiler.StartBoost(ctx); err != nil {
		if errors.Is(err, service.ErrSafetyLatched) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errBoost, "boiler_boost_failed", err)
		return
	}
	h.respondWithStatusAndSnapshot(c, statusBoosting, gin.H{})
}

// @Summary      Latch safety
// @Description  Fan off, damper closed, all timers cancelled. Holds until reset.
// @Tags         boiler
// @Accept       json
// @Produce      json
// @Param        body  body   safetyRequest  false  "Optional reason"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/boiler/safety [post]
// @Security     BearerAuth
func (h *Handler) forceSafety(c *gin.Context) {
	var req safetyRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	ctx := c.Request.Context()
	if err := h.services.Boiler.ForceSafety(ctx, req.Reason); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSafety, "boiler_safety_failed", err)
		return
	}
	h.respondWithStatusAndSnapshot(c, statusLatched, gin.H{})
}

// @Summary      Clear safety / restart control
// @Description  Releases the latch and restarts control through the power-on path. With auto-boost enabled this opens a boost window.
// @Tags         boiler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/boiler/reset [post]
// @Security     BearerAuth
func (h *Handler) clearSafety(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Boiler.ClearSafety(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errReset, "boiler_reset_failed", err)
		return
	}
	h.respondWithStatusAndSnapshot(c, statusReset, gin.H{})
}

// @Summary      Get parameters
// @Tags         boiler
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/boiler/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	ctx := c.Request.Context()
	cfg, err := h.services.Boiler.GetSettings(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "boiler_get_settings_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary      Update parameters
// @Description  Partial update; omitted fields keep their value. Out-of-range values are clamped, never rejected.
// @Tags         boiler
// @Accept       json
// @Produce      json
// @Param        body  body   service.SettingsPatch  true  "Fields to change"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/boiler/settings [patch]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var patch service.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.services.Boiler.UpdateSettings(ctx, patch)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to update settings", "boiler_update_settings_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "settings": cfg})
}
