package controllers

import (
	"errors"
	"net/http"

	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (c *AuthController) Register(x *ctx.Context) {
	var in services.Credentials
	if !x.BindJSON(&in) {
		return
	}

	sess, err := c.auth.Register(x.Context(), in)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		x.Error(http.StatusConflict, "Email already registered")
	case err != nil:
		fail(x, "AuthController.Register", err, "User not found")
	default:
		x.JSON(http.StatusCreated, sess)
	}
}

func (c *AuthController) Login(x *ctx.Context) {
	var in services.Credentials
	if !x.BindJSON(&in) {
		return
	}

	sess, err := c.auth.Login(x.Context(), in)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		x.Error(http.StatusUnauthorized, "Invalid email or password")
	case err != nil:
		fail(x, "AuthController.Login", err, "User not found")
	default:
		x.Success(sess)
	}
}

func (c *AuthController) Me(x *ctx.Context) {
	u, admin, err := c.auth.Me(x.Context(), x.UserID())
	if err != nil {
		fail(x, "AuthController.Me", err, "User not found")
		return
	}
	x.Success(map[string]any{"user": u, "isAdmin": admin})
}

// Users lists accounts for the back office.
func (c *AuthController) Users(x *ctx.Context) {
	users, err := c.auth.Users(x.Context(), x.QueryInt("limit", 0))
	if err != nil {
		fail(x, "AuthController.Users", err, "User not found")
		return
	}
	x.Success(map[string]any{"users": users})
}
