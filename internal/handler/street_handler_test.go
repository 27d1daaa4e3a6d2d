package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streetwalk/internal/config"
	"streetwalk/internal/database"
	"streetwalk/internal/middleware"
	"streetwalk/internal/model"
	"streetwalk/internal/repository"
	"streetwalk/internal/service"
	"streetwalk/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testStack struct {
	router    *gin.Engine
	db        *gorm.DB
	streetSvc service.StreetService
	userSvc   service.UserService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:        "handler-test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		MaxVideoBytes:    200 << 20,
		MaxModelBytes:    50 << 20,
	}

	userRepo := repository.NewUserRepository(db)
	streetSvc := service.NewStreetService(repository.NewStreetRepository(db), nil, cfg)
	userSvc := service.NewUserService(userRepo, repository.NewTokenRepository(db), nil, nil, cfg)

	auth := middleware.NewAuth([]byte(cfg.JWTSecret), userRepo)
	hub := websocket.NewHub()

	router := gin.New()
	NewStreetHandler(streetSvc, auth, hub).RegisterRoutes(router.Group(""))

	return &testStack{router: router, db: db, streetSvc: streetSvc, userSvc: userSvc}
}

// signup creates an account and returns the user with a bearer token.
func (s *testStack) signup(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	res, err := s.userSvc.Signup(context.Background(), service.SignupRequest{
		Name: "Tester", Email: email, Password: "secret1",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	var user model.User
	if err := s.db.First(&user, "id = ?", res.User.ID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	return &user, res.Token
}

func (s *testStack) seedStreet(t *testing.T, owner *model.User) *model.Street {
	t.Helper()
	street, err := s.streetSvc.Create(context.Background(), owner, service.CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Name:       "Test Street",
		Lat:        10,
		Lng:        10,
		VideoLinks: "https://a.test/1.mp4",
	})
	if err != nil {
		t.Fatalf("failed to seed street: %v", err)
	}
	return street
}

func TestLikeDedupesBySessionCookie(t *testing.T) {
	stack := newTestStack(t)
	owner, _ := stack.signup(t, "owner@example.com")
	street := stack.seedStreet(t, owner)

	// First anonymous like: counts, sets the session cookie
	req := httptest.NewRequest(http.MethodPost, "/like/"+street.ID.String(), nil)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["likes"] != 1 {
		t.Fatalf("expected 1 like, got %d", body["likes"])
	}

	cookies := w.Result().Cookies()
	var session *http.Cookie
	for _, ck := range cookies {
		if ck.Name == "like_session" {
			session = ck
		}
	}
	if session == nil {
		t.Fatal("anonymous like should set the like_session cookie")
	}
	if !session.HttpOnly {
		t.Error("like_session cookie should be HttpOnly")
	}

	// Replay with the same cookie: no increment
	req = httptest.NewRequest(http.MethodPost, "/like/"+street.ID.String(), nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["likes"] != 1 {
		t.Errorf("repeat like from the same session should not increment, got %d", body["likes"])
	}

	// A fresh session counts again
	req = httptest.NewRequest(http.MethodPost, "/like/"+street.ID.String(), nil)
	w = httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["likes"] != 2 {
		t.Errorf("a new session should increment, got %d", body["likes"])
	}
}

func TestLikeMalformedID(t *testing.T) {
	stack := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/like/not-a-uuid", nil)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	stack := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/streets", nil)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	// The client uses next to come back after login
	if !strings.Contains(w.Body.String(), `"next":"/dashboard/streets"`) {
		t.Errorf("401 body should carry the return path, got %s", w.Body.String())
	}
}

func TestUpdateStreetOwnership(t *testing.T) {
	stack := newTestStack(t)
	owner, _ := stack.signup(t, "owner@example.com")
	_, strangerToken := stack.signup(t, "stranger@example.com")
	street := stack.seedStreet(t, owner)

	req := httptest.NewRequest(http.MethodPut, "/streets/"+street.ID.String(),
		strings.NewReader(`{"name":"Hijacked"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strangerToken)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("non-owner edit should read as not found, got %d", w.Code)
	}
}

func TestAdminStreetsForbiddenForUsers(t *testing.T) {
	stack := newTestStack(t)
	_, token := stack.signup(t, "plain@example.com")

	req := httptest.NewRequest(http.MethodGet, "/admin/streets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-admin, got %d", w.Code)
	}
}

func TestListStreetsPublic(t *testing.T) {
	stack := newTestStack(t)
	owner, _ := stack.signup(t, "owner@example.com")
	stack.seedStreet(t, owner)

	req := httptest.NewRequest(http.MethodGet, "/streets?mode=walk", nil)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Test Street") {
		t.Errorf("listing should include the seeded street, got %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/streets?mode=drive", nil)
	w = httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), "Test Street") {
		t.Error("a walk street must not appear in the drive listing")
	}
}
