package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)

	raw, err := tokens.Generate("u1", "dana@example.com")
	require.NoError(t, err)

	claims, err := tokens.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "dana@example.com", claims.Email)
}

func TestTokensRejectWrongSecret(t *testing.T) {
	raw, err := NewTokens("one", time.Hour).Generate("u1", "a@b.co")
	require.NoError(t, err)

	_, err = NewTokens("two", time.Hour).Validate(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensRejectExpired(t *testing.T) {
	tokens := NewTokens("s3cret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Generate("u1", "a@b.co")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Validate(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestAdminPolicy(t *testing.T) {
	p := NewAdminPolicy(" Owner@Shop.com , ops@shop.com", "", "ops@shop.com")

	assert.Equal(t, 2, p.Len())
	assert.True(t, p.IsAdmin("owner@shop.com"))
	assert.True(t, p.IsAdmin("  OPS@shop.com "))
	assert.False(t, p.IsAdmin("guest@shop.com"))
	assert.False(t, p.IsAdmin(""))

	var empty AdminPolicy
	assert.False(t, empty.IsAdmin("owner@shop.com"))
}

func TestClaimsContext(t *testing.T) {
	_, ok := FromCtx(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{UserID: "u1"})
	c, ok := FromCtx(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", c.UserID)
}
