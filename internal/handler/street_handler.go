package handler

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"streetwalk/internal/middleware"
	"streetwalk/internal/repository"
	"streetwalk/internal/service"
	"streetwalk/internal/websocket"
	"streetwalk/pkg/pagination"
	"streetwalk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const likeSessionCookie = "like_session"

type StreetHandler struct {
	streetService service.StreetService
	auth          *middleware.Auth
	hub           *websocket.Hub
}

// NewStreetHandler sets up the routing dependencies for Street endpoints
func NewStreetHandler(streetService service.StreetService, auth *middleware.Auth, hub *websocket.Hub) *StreetHandler {
	return &StreetHandler{streetService: streetService, auth: auth, hub: hub}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *StreetHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.GET("/streets", h.ListStreets)
	router.GET("/streets/categories", h.ListCategories)
	router.GET("/streets/:id", h.GetStreet)
	router.POST("/like/:id", h.auth.OptionalAuth(), h.LikeStreet)

	// Protected routes
	router.POST("/upload", h.auth.RequireAuth(), h.Upload)
	router.PUT("/streets/:id", h.auth.RequireAuth(), h.UpdateStreet)
	router.DELETE("/streets/:id", h.auth.RequireAuth(), h.DeleteStreet)
	router.GET("/dashboard/streets", h.auth.RequireAuth(), h.DashboardStreets)

	// Admin routes
	router.GET("/admin/streets", h.auth.RequireAdmin(), h.AdminStreets)
}

// ListStreets handles GET /streets with mode/category/type filters
// @Summary      List published streets
// @Description  Retrieves published, non-deleted streets filtered by mode, category, and type
// @Tags         streets
// @Produce      json
// @Param        mode      query  string  false  "Viewer mode (walk, drive, fly, sit)"
// @Param        category  query  string  false  "Category filter"
// @Param        type      query  string  false  "Street type (video, 3d)"
// @Param        page      query  int     false  "Page number"
// @Param        limit     query  int     false  "Items per page"
// @Success      200  {object}  response.Response
// @Router       /streets [get]
func (h *StreetHandler) ListStreets(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.StreetFilter{
		Type:     c.Query("type"),
		Mode:     c.Query("mode"),
		Category: c.Query("category"),
	}

	streets, total, err := h.streetService.ListPublished(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch streets"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"streets": streets,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// ListCategories handles GET /streets/categories?mode=
// @Summary      List categories for a mode
// @Description  Returns sorted, de-duplicated categories of published video streets in one mode
// @Tags         streets
// @Produce      json
// @Param        mode  query  string  false  "Viewer mode (defaults to walk)"
// @Success      200  {object}  response.Response
// @Router       /streets/categories [get]
func (h *StreetHandler) ListCategories(c *gin.Context) {
	categories, err := h.streetService.Categories(c.Request.Context(), c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch categories"))
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// GetStreet handles GET /streets/:id
// @Summary      Get street by ID
// @Description  Fetch a single published street
// @Tags         streets
// @Produce      json
// @Param        id  path  string  true  "Street ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /streets/{id} [get]
func (h *StreetHandler) GetStreet(c *gin.Context) {
	street, err := h.streetService.GetPublished(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Street not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, street))
}

// likerKey identifies who is liking: the user id when signed in, otherwise
// an opaque HttpOnly session cookie set on first like.
func (h *StreetHandler) likerKey(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return "u:" + user.ID.String()
	}

	if session, err := c.Cookie(likeSessionCookie); err == nil && session != "" {
		return "s:" + session
	}

	session := uuid.New().String()
	c.SetCookie(likeSessionCookie, session, 3600*24*365, "/", "", false, true)
	return "s:" + session
}

// LikeStreet handles POST /like/:id
// @Summary      Like a street
// @Description  Increments the like counter once per session; repeats return the current count
// @Tags         streets
// @Produce      json
// @Param        id  path  string  true  "Street ID"
// @Success      200  {object}  map[string]int64
// @Failure      400  {object}  map[string]string
// @Router       /like/{id} [post]
func (h *StreetHandler) LikeStreet(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed street id"})
		return
	}

	likes, err := h.streetService.Like(c.Request.Context(), id, h.likerKey(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "street not found"})
		return
	}

	h.broadcastLike(id, likes)
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

// broadcastLike pushes the new count to connected dashboard clients.
func (h *StreetHandler) broadcastLike(streetID string, likes int64) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":      "street.liked",
		"street_id": streetID,
		"likes":     likes,
	})
	if err != nil {
		return
	}
	select {
	case h.hub.Broadcast <- payload:
	default:
		// Drop the event rather than block the request
	}
}

// Upload handles POST /upload (multipart)
// @Summary      Upload a street
// @Description  Creates a video or 3D street from multipart form fields and files or pasted links
// @Tags         streets
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        street_type  formData  string  true   "video or 3d"
// @Param        lat          formData  number  true   "Latitude"
// @Param        lng          formData  number  true   "Longitude"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /upload [post]
func (h *StreetHandler) Upload(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	lat, latErr := strconv.ParseFloat(c.PostForm("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.PostForm("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "lat and lng are required numbers"))
		return
	}

	input := service.CreateStreetInput{
		Type:         c.PostForm("street_type"),
		Mode:         c.PostForm("mode"),
		Name:         c.PostForm("name"),
		City:         c.PostForm("city"),
		Country:      c.PostForm("country"),
		Category:     c.PostForm("category"),
		Description:  c.PostForm("description"),
		Lat:          lat,
		Lng:          lng,
		VideoLinks:   c.PostForm("video_links"),
		ModelLink:    c.PostForm("model_link"),
		IsTour:       c.PostForm("is_tour") == "true" || c.PostForm("is_tour") == "on",
		TourCategory: c.PostForm("tour_category"),
		TourBestTime: c.PostForm("tour_best_time"),
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}()

	// Link-only uploads carry no files, so a missing multipart form is fine
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["video"] {
			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded video"))
				return
			}
			closers = append(closers, file)
			input.VideoFiles = append(input.VideoFiles, service.FileUpload{
				Reader:      file,
				Size:        header.Size,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
			})
		}

		if headers := form.File["model"]; len(headers) > 0 {
			file, err := headers[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded model"))
				return
			}
			closers = append(closers, file)
			input.ModelFile = &service.FileUpload{
				Reader:      file,
				Size:        headers[0].Size,
				Filename:    headers[0].Filename,
				ContentType: headers[0].Header.Get("Content-Type"),
			}
		}

		if headers := form.File["thumbnail"]; len(headers) > 0 {
			file, err := headers[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded thumbnail"))
				return
			}
			closers = append(closers, file)
			input.Thumbnail = &service.FileUpload{
				Reader:      file,
				Size:        headers[0].Size,
				Filename:    headers[0].Filename,
				ContentType: headers[0].Header.Get("Content-Type"),
			}
		}
	}

	street, err := h.streetService.Create(c.Request.Context(), user, input)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, street))
}

// writeCreateError maps service failures: validation stays 400, upstream
// storage failures are logged and reported generically as 502.
func (h *StreetHandler) writeCreateError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUploadFailed) {
		log.Println("ERROR: street upload:", err)
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "File upload failed, please try again"))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

// UpdateStreet handles PUT /streets/:id
// @Summary      Update a street
// @Description  Owner/admin edit; non-owners receive not-found
// @Tags         streets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Street ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /streets/{id} [put]
func (h *StreetHandler) UpdateStreet(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input service.UpdateStreetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	street, err := h.streetService.Update(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoordinates) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Street not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, street))
}

// DeleteStreet handles DELETE /streets/:id (soft delete)
// @Summary      Delete a street
// @Description  Soft-deletes a street; it stays visible to admins
// @Tags         streets
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Street ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /streets/{id} [delete]
func (h *StreetHandler) DeleteStreet(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.streetService.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Street not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Street deleted successfully"))
}

// DashboardStreets handles GET /dashboard/streets
// @Summary      Dashboard street listing
// @Description  Admins see all non-deleted streets, users only their own
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /dashboard/streets [get]
func (h *StreetHandler) DashboardStreets(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	params := pagination.Parse(c)

	streets, total, err := h.streetService.Dashboard(c.Request.Context(), user, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch streets"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"streets": streets,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// AdminStreets handles GET /admin/streets, including soft-deleted rows
// @Summary      Admin street audit listing
// @Description  Lists every street including soft-deleted ones
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/streets [get]
func (h *StreetHandler) AdminStreets(c *gin.Context) {
	params := pagination.Parse(c)

	streets, total, err := h.streetService.AdminList(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch streets"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"streets": streets,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}
