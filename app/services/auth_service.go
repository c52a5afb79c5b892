package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/config"
	"github.com/vendora/vendora/pkg/auth"
	"github.com/vendora/vendora/pkg/logger"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	verifyTokenTTL  = 48 * time.Hour
	resetTokenTTL   = time.Hour
)

// TokenPair is the credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the signup form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,in=consumer,shopkeeper"`
	Mobile   string `json:"mobile" validate:"nullable,phone"`
	Address  string `json:"address" validate:"nullable,max=500"`
	ShopName string `json:"shopName" validate:"nullable,max=200"`
}

// AuthService implements signup, login, refresh-token rotation and the
// email-driven verify and reset flows.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	mailer Mailer
}

func NewAuthService(users UserStore, tokens TokenStore, mailer Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: mailer}
}

// Register creates an account and mails a verification link. The mail is
// best-effort; signup succeeds even when SMTP is down.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
		Profile: models.Profile{
			Mobile:   in.Mobile,
			Address:  in.Address,
			ShopName: in.ShopName,
		},
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	verifyID := uuid.NewString()
	token := models.Token{
		UserID:    user.ID,
		TokenID:   verifyID,
		Kind:      models.TokenVerify,
		ExpiresAt: time.Now().UTC().Add(verifyTokenTTL),
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		logger.WithCtx(ctx).Warn("auth: create verify token", "error", err)
		return user, nil
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", config.FrontendOrigin(), verifyID)
	if err := s.mailer.Send([]string{user.Email}, "Verify your email",
		"Welcome to Vendora! Confirm your email address: "+link); err != nil {
		logger.WithCtx(ctx).Warn("auth: send verify mail", "error", err)
	}
	return user, nil
}

// Login checks credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return TokenPair{}, models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, models.User{}, err
	}
	if !auth.CheckPassword(user.Password, password) {
		return TokenPair{}, models.User{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A consumed or unknown token is rejected, so a stolen
// refresh token stops working the moment the legitimate client rotates.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := auth.ValidateToken(refreshToken)
	if err != nil || claims.TokenID == "" {
		return TokenPair{}, ErrTokenInvalid
	}

	if err := s.tokens.Consume(ctx, claims.TokenID, models.TokenRefresh); err != nil {
		return TokenPair{}, ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token. Unknown tokens are ignored so
// logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := auth.ValidateToken(refreshToken)
	if err != nil || claims.TokenID == "" {
		return
	}
	if err := s.tokens.Consume(ctx, claims.TokenID, models.TokenRefresh); err != nil &&
		!errors.Is(err, models.ErrNotFound) {
		logger.WithCtx(ctx).Warn("auth: revoke refresh token", "error", err)
	}
}

// VerifyEmail consumes a verification token and flags the account.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenID string) error {
	rec, err := s.tokens.Find(ctx, tokenID, models.TokenVerify)
	if err != nil {
		return ErrTokenInvalid
	}
	if err := s.tokens.Consume(ctx, tokenID, models.TokenVerify); err != nil {
		return ErrTokenInvalid
	}
	return s.users.MarkVerified(ctx, rec.UserID)
}

// ResendVerification mails a fresh verification link. Unknown or already
// verified addresses report success without sending, mirroring the password
// reset flow.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}

	verifyID := uuid.NewString()
	token := models.Token{
		UserID:    user.ID,
		TokenID:   verifyID,
		Kind:      models.TokenVerify,
		ExpiresAt: time.Now().UTC().Add(verifyTokenTTL),
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", config.FrontendOrigin(), verifyID)
	return s.mailer.Send([]string{user.Email}, "Verify your email",
		"Confirm your email address: "+link)
}

// RequestPasswordReset mails a reset link. To avoid leaking which addresses
// exist, an unknown email reports success without sending anything.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resetID := uuid.NewString()
	token := models.Token{
		UserID:    user.ID,
		TokenID:   resetID,
		Kind:      models.TokenReset,
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", config.FrontendOrigin(), resetID)
	return s.mailer.Send([]string{user.Email}, "Reset your password",
		"A password reset was requested for your account. Reset it here: "+link+
			"\nThe link expires in one hour. Ignore this mail if you did not ask for it.")
}

// ResetPassword consumes a reset token, sets the new password and revokes
// all refresh tokens for the account.
func (s *AuthService) ResetPassword(ctx context.Context, tokenID, newPassword string) error {
	rec, err := s.tokens.Find(ctx, tokenID, models.TokenReset)
	if err != nil {
		return ErrTokenInvalid
	}
	if err := s.tokens.Consume(ctx, tokenID, models.TokenReset); err != nil {
		return ErrTokenInvalid
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, rec.UserID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, rec.UserID, models.TokenRefresh)
}

// Profile returns the account for userID.
func (s *AuthService) Profile(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile replaces name and role-specific profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name string, profile models.Profile) (models.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, name, profile); err != nil {
		return models.User{}, err
	}
	return s.users.FindByID(ctx, userID)
}

// ChangePassword verifies the current password before setting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, userID, models.TokenRefresh)
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (TokenPair, error) {
	access, err := auth.GenerateAccessToken(user.ID.Hex(), user.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshID := uuid.NewString()
	refresh, err := auth.GenerateRefreshToken(user.ID.Hex(), user.Role, refreshID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	rec := models.Token{
		UserID:    user.ID,
		TokenID:   refreshID,
		Kind:      models.TokenRefresh,
		ExpiresAt: time.Now().UTC().Add(refreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, &rec); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
