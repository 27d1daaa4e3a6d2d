package handler

import (
	"errors"
	"log"
	"net/http"

	"streetwalk/internal/geocode"
	"streetwalk/internal/service"
	"streetwalk/pkg/response"

	"github.com/gin-gonic/gin"
)

// PriceRequest accepts both the origin/destination and from/to key pairs.
type PriceRequest struct {
	Origin      string `json:"origin"`
	From        string `json:"from"`
	Destination string `json:"destination"`
	To          string `json:"to"`
}

type TripHandler struct {
	tripService service.TripService
}

// NewTripHandler sets up the routing dependencies for trip price endpoints
func NewTripHandler(tripService service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TripHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/price", h.EstimatePrice)
}

// EstimatePrice handles POST /api/price
// @Summary      Estimate trip price
// @Description  Geocodes both endpoints and returns the distance and a heuristic price band
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        payload  body      PriceRequest  true  "Origin and destination place names"
// @Success      200      {object}  service.PriceEstimateResponse
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/price [post]
func (h *TripHandler) EstimatePrice(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = req.From
	}
	destination := req.Destination
	if destination == "" {
		destination = req.To
	}
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "origin and destination are required"))
		return
	}

	estimate, err := h.tripService.EstimatePrice(c.Request.Context(), origin, destination)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlaceNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, geocode.ErrUnavailable):
			log.Println("ERROR: price estimate:", err)
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Geocoding service is unavailable, please try again later"))
		default:
			log.Println("ERROR: price estimate:", err)
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to estimate price"))
		}
		return
	}

	c.JSON(http.StatusOK, estimate)
}
