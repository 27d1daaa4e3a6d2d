package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"streetwalk/internal/config"
	"streetwalk/internal/mailer"
	"streetwalk/internal/model"
	"streetwalk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for request validation
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserResponse returns User data without exposing sensitive fields
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	LastLoginAt string    `json:"last_login_at,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")
	ErrInvalidRole        = errors.New("invalid role: must be user or admin")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService defines the interface for business logic related to User
type UserService interface {
	Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*UserResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	verifier GoogleVerifier
	mail     mailer.Mailer
	cfg      *config.Config
}

// NewUserService returns a new instance of UserService
func NewUserService(users repository.UserRepository, tokens repository.TokenRepository,
	verifier GoogleVerifier, mail mailer.Mailer, cfg *config.Config) UserService {
	return &userService{users: users, tokens: tokens, verifier: verifier, mail: mail, cfg: cfg}
}

func mapUserToResponse(user *model.User) UserResponse {
	res := UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		res.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	return res
}

func (s *userService) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	now := time.Now()
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         model.RoleUser,
		LastLoginAt:  &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// OAuth-only account
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// GoogleLogin verifies the ID token with the external provider and finds or
// creates the matching account.
func (s *userService) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*TokenResponse, error) {
	profile, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user, err := s.users.GetByGoogleID(ctx, profile.Subject)
	if err != nil {
		// Link to an existing password account with the same email, else create
		user, err = s.users.GetByEmail(ctx, profile.Email)
		if err != nil {
			user = &model.User{
				Name:        profile.Name,
				Email:       profile.Email,
				GoogleID:    &profile.Subject,
				Role:        model.RoleUser,
				LastLoginAt: &now,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return nil, err
			}
			return s.issueTokens(ctx, user)
		}
		user.GoogleID = &profile.Subject
	}

	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.tokens.GetRefresh(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Rotate: the old refresh token is consumed
	if err := s.tokens.DeleteRefresh(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.DeleteRefresh(ctx, refreshToken)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	res := mapUserToResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, mapUserToResponse(&users[i]))
	}
	return responses, total, nil
}

// UpdateRole changes a user's persisted role. This is the only way admin
// rights are granted.
func (s *userService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*UserResponse, error) {
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return nil, ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.Role = req.Role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	res := mapUserToResponse(user)
	return &res, nil
}

// ForgotPassword never reports whether the email exists; lookup misses and
// send failures are logged server-side only.
func (s *userService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return
	}

	token, err := randomToken()
	if err != nil {
		log.Println("ERROR: failed to generate reset token:", err)
		return
	}

	reset := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.tokens.CreateReset(ctx, reset); err != nil {
		log.Println("ERROR: failed to store reset token:", err)
		return
	}

	resetURL := s.cfg.ResetBaseURL + "?token=" + token
	if err := s.mail.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		log.Println("ERROR: failed to send password reset email:", err)
	}
}

func (s *userService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	reset, err := s.tokens.GetReset(ctx, req.Token)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, reset.UserID.String())
	if err != nil {
		return ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	// Single use: consumed on success, and any other live sessions drop
	if err := s.tokens.DeleteReset(ctx, req.Token); err != nil {
		return err
	}
	return s.tokens.DeleteRefreshByUser(ctx, user.ID)
}

// issueTokens signs a new access token and stores a fresh refresh token.
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refreshValue, err := randomToken()
	if err != nil {
		return nil, errors.New("failed to generate refresh token")
	}
	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshValue,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.tokens.CreateRefresh(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenResponse{
		Token:        accessToken,
		RefreshToken: refreshValue,
		User:         mapUserToResponse(user),
	}, nil
}

// randomToken returns 32 bytes of hex-encoded randomness.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
