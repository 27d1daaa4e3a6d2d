package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"streetwalk/internal/geocode"
	"streetwalk/internal/service"

	"github.com/gin-gonic/gin"
)

// stubResolver resolves from a fixed map; unknown names are misses.
type stubResolver struct {
	places map[string]*geocode.Result
	err    error
}

func (s *stubResolver) Resolve(_ context.Context, query string) (*geocode.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.places[geocode.Normalize(query)], nil
}

func newTripRouter(resolver geocode.Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewTripHandler(service.NewTripService(resolver)).RegisterRoutes(router.Group(""))
	return router
}

func postPrice(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEstimatePriceSuccess(t *testing.T) {
	router := newTripRouter(&stubResolver{places: map[string]*geocode.Result{
		"equator a": {Lat: 0, Lng: 0, DisplayName: "Equator A"},
		"equator b": {Lat: 0, Lng: 1, DisplayName: "Equator B"},
	}})

	w := postPrice(t, router, `{"origin":"Equator A","destination":"Equator B"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res service.PriceEstimateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// One degree of longitude on the equator is about 111.2 km
	if res.DistanceKm != 111.2 {
		t.Errorf("expected distance 111.2, got %v", res.DistanceKm)
	}
	if res.OriginFormatted != "Equator A" || res.DestinationFormatted != "Equator B" {
		t.Errorf("unexpected formatted names: %+v", res)
	}
	if res.PriceText == "" || res.Price.Mid <= 0 {
		t.Errorf("expected a price band, got %+v", res.Price)
	}
	if res.Price.Low > res.Price.Mid || res.Price.Mid > res.Price.High {
		t.Errorf("price band out of order: %+v", res.Price)
	}
}

func TestEstimatePriceAcceptsFromToKeys(t *testing.T) {
	router := newTripRouter(&stubResolver{places: map[string]*geocode.Result{
		"a": {Lat: 0, Lng: 0, DisplayName: "A"},
		"b": {Lat: 1, Lng: 1, DisplayName: "B"},
	}})

	w := postPrice(t, router, `{"from":"A","to":"B"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for from/to keys, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEstimatePriceMissingFields(t *testing.T) {
	router := newTripRouter(&stubResolver{})

	w := postPrice(t, router, `{"origin":"somewhere"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing destination, got %d", w.Code)
	}

	w = postPrice(t, router, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestEstimatePriceUnknownPlace(t *testing.T) {
	router := newTripRouter(&stubResolver{places: map[string]*geocode.Result{
		"known": {Lat: 0, Lng: 0, DisplayName: "Known"},
	}})

	w := postPrice(t, router, `{"origin":"known","destination":"atlantis"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown place, got %d", w.Code)
	}
}

func TestEstimatePriceGeocoderDown(t *testing.T) {
	router := newTripRouter(&stubResolver{err: geocode.ErrUnavailable})

	w := postPrice(t, router, `{"origin":"a","destination":"b"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when the geocoder is down, got %d", w.Code)
	}
}
