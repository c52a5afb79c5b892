package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/app/models"
)

func newAuthService() (*AuthService, *fakeUserStore, *fakeTokenStore, *fakeMailer) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	mailer := &fakeMailer{}
	return NewAuthService(users, tokens, mailer), users, tokens, mailer
}

func registerInput() RegisterInput {
	return RegisterInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "correct-horse",
		Role:     models.RoleConsumer,
		Mobile:   "+15550100123",
		Address:  "12 Hill Road, Pune",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, mailer := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())
	assert.NotEqual(t, "correct-horse", user.Password)

	// Verification mail went out.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, mailer.sent[0].To)

	pair, logged, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	svc, _, _, mailer := newAuthService()
	mailer.fail = assert.AnError

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token is dead after rotation.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// The new one still works.
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	require.NoError(t, err)

	svc.Logout(ctx, pair.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyEmailFlow(t *testing.T) {
	svc, users, tokens, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// Grab the verify token the service stored.
	var verifyID string
	for _, tok := range tokens.tokens {
		if tok.Kind == models.TokenVerify {
			verifyID = tok.TokenID
		}
	}
	require.NotEmpty(t, verifyID)

	require.NoError(t, svc.VerifyEmail(ctx, verifyID))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	// Single use.
	assert.ErrorIs(t, svc.VerifyEmail(ctx, verifyID), ErrTokenInvalid)
}

func TestResendVerification(t *testing.T) {
	svc, users, _, mailer := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)

	// Unverified account gets a fresh link.
	require.NoError(t, svc.ResendVerification(ctx, "asha@example.com"))
	assert.Len(t, mailer.sent, 2)

	// Unknown address reports success without sending.
	require.NoError(t, svc.ResendVerification(ctx, "nobody@example.com"))
	assert.Len(t, mailer.sent, 2)

	// Verified account is left alone.
	require.NoError(t, users.MarkVerified(ctx, user.ID))
	require.NoError(t, svc.ResendVerification(ctx, "asha@example.com"))
	assert.Len(t, mailer.sent, 2)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, tokens, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "asha@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "asha@example.com"))

	// Unknown addresses are indistinguishable from known ones.
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))

	var resetID string
	for _, tok := range tokens.tokens {
		if tok.Kind == models.TokenReset {
			resetID = tok.TokenID
		}
	}
	require.NotEmpty(t, resetID)

	require.NoError(t, svc.ResetPassword(ctx, resetID, "new-password-1"))

	// Old password and old refresh tokens are dead, new password works.
	_, _, err = svc.Login(ctx, "asha@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, _, err = svc.Login(ctx, "asha@example.com", "new-password-1")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "correct-horse", "new-password-1"))
	_, _, err = svc.Login(ctx, "asha@example.com", "new-password-1")
	require.NoError(t, err)
}
