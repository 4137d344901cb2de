package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/auth"
)

func TestRegisterLoginMe(t *testing.T) {
	store := repositories.NewMemoryStore()
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := NewAuthService(store, tokens, auth.NewAdminPolicy("boss@hayat.shop"))
	ctx := context.Background()

	sess, err := svc.Register(ctx, Credentials{Email: " Boss@Hayat.shop ", Password: "hunter22", Name: "Boss"})
	require.NoError(t, err)
	assert.Equal(t, "boss@hayat.shop", sess.User.Email)
	assert.True(t, sess.IsAdmin)
	assert.NotEqual(t, "hunter22", sess.User.PasswordHash)

	claims, err := tokens.Validate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)

	_, err = svc.Register(ctx, Credentials{Email: "boss@hayat.shop", Password: "another1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, Credentials{Email: "BOSS@hayat.shop", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, Credentials{Email: "nobody@hayat.shop", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	again, err := svc.Login(ctx, Credentials{Email: "BOSS@hayat.shop", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)

	u, admin, err := svc.Me(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boss", u.Name)
	assert.True(t, admin)

	shopper, err := svc.Register(ctx, Credentials{Email: "noa@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, shopper.IsAdmin)

	users, err := svc.Users(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
