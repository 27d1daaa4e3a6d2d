package handler

import (
	"log"
	"net/http"

	"streetwalk/internal/middleware"
	"streetwalk/internal/service"
	"streetwalk/pkg/pagination"
	"streetwalk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
	auth            *middleware.Auth
}

// NewActivityHandler sets up the routing dependencies for activity endpoints
func NewActivityHandler(activityService service.ActivityService, auth *middleware.Auth) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, auth: auth}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/activity", h.auth.OptionalAuth(), h.Record)
	router.GET("/dashboard/activity", h.auth.RequireAuth(), h.Dashboard)
}

// Record handles POST /api/activity (fire-and-forget)
// @Summary      Record an activity event
// @Description  Appends a viewer event to the activity log; always 204, even for anonymous visitors
// @Tags         activity
// @Accept       json
// @Success      204  "No Content"
// @Router       /api/activity [post]
func (h *ActivityHandler) Record(c *gin.Context) {
	var req service.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusNoContent)
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		// Anonymous events are dropped silently
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.activityService.Record(c.Request.Context(), user, req, c.Request.UserAgent()); err != nil {
		log.Println("WARNING: failed to record activity:", err)
	}
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /dashboard/activity
// @Summary      Activity analytics
// @Description  Event counts by type and mode plus the most recent entries
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /dashboard/activity [get]
func (h *ActivityHandler) Dashboard(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	params := pagination.Parse(c)

	stats, err := h.activityService.Stats(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch activity stats"))
		return
	}

	entries, total, err := h.activityService.List(c.Request.Context(), user, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch activity entries"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stats":   stats,
		"entries": entries,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}
