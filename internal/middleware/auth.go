package middleware

import (
	"net/http"
	"os"
	"strings"

	"streetwalk/internal/model"
	"streetwalk/internal/repository"
	"streetwalk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys populated by the auth middleware
const (
	CtxUserKey  = "currentUser"
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Auth resolves the signed-in user from the access token and guards routes.
type Auth struct {
	secret []byte
	users  repository.UserRepository
}

// NewAuth builds the auth middleware over the user repository.
func NewAuth(secret []byte, users repository.UserRepository) *Auth {
	return &Auth{secret: secret, users: users}
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// tokenFromRequest tries the access_token cookie first, then the
// Authorization header.
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// resolveUser parses the token and re-checks that the referenced user still
// exists. Returns nil if either step fails.
func (a *Auth) resolveUser(c *gin.Context) *model.User {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil
	}

	user, err := a.users.GetByID(c.Request.Context(), sub)
	if err != nil {
		return nil
	}
	return user
}

// RequireAuth rejects unauthenticated requests with 401 and echoes the
// requested path so the client can redirect back after login.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.resolveUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Authentication required", c.Request.URL.Path))
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserID, user.ID.String())
		c.Set(CtxUserRole, user.Role)
		c.Next()
	}
}

// RequireAdmin rejects non-admin users with 403, never a redirect.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.resolveUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Authentication required", c.Request.URL.Path))
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.Error(http.StatusForbidden, "Access denied: admin role required"))
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserID, user.ID.String())
		c.Set(CtxUserRole, user.Role)
		c.Next()
	}
}

// OptionalAuth resolves the current user when a valid token is present but
// never blocks the request.
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := a.resolveUser(c); user != nil {
			c.Set(CtxUserKey, user)
			c.Set(CtxUserID, user.ID.String())
			c.Set(CtxUserRole, user.Role)
		}
		c.Next()
	}
}

// CurrentUser returns the resolved user from the request context, if any.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(CtxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
