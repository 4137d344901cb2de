package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type registerInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Items    []lineInput `json:"items" validate:"dive"`
}

func request(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestJSONValid(t *testing.T) {
	var in registerInput
	errs, err := JSON(request(`{"email":"a@b.co","password":"secret1"}`), &in)
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, "a@b.co", in.Email)
}

func TestJSONFieldErrorsUseJSONNames(t *testing.T) {
	var in registerInput
	errs, err := JSON(request(`{"email":"nope","password":"x","items":[{"productId":"","quantity":0}]}`), &in)
	require.NoError(t, err)

	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Equal(t, "must be at least 6 characters", errs["password"])
	assert.Equal(t, "is required", errs["items[0].productId"])
	assert.Equal(t, "must be greater than 0", errs["items[0].quantity"])
}

func TestJSONMalformed(t *testing.T) {
	var in registerInput
	errs, err := JSON(request(`{"email":`), &in)
	assert.Nil(t, errs)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestJSONTooLarge(t *testing.T) {
	SetMaxBodyBytes(16)
	t.Cleanup(func() { SetMaxBodyBytes(4 << 20) })

	var in registerInput
	_, err := JSON(request(`{"email":"someone@example.com","password":"secret1"}`), &in)
	assert.ErrorContains(t, err, "too large")
}

func TestJSONEmptyBody(t *testing.T) {
	var in registerInput
	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	_, err := JSON(r, &in)
	assert.ErrorIs(t, err, ErrEmptyBody)
}
