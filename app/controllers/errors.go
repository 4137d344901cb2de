package controllers

import (
	"errors"
	"strings"

	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/logger"
)

// fail maps a service error to the storefront's error responses. Anything
// not recognised is logged and answered with the generic 500.
func fail(c *ctx.Context, op string, err error, notFound string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(notFound)
	case errors.Is(err, services.ErrInvalidArgument):
		c.BadRequest(reason(err))
	default:
		logger.WithCtx(c.Context()).Error("request failed", "op", op, "error", err)
		c.ServerError()
	}
}

// reason strips op prefixes and the sentinel text from an invalid-argument
// error, leaving the part meant for the caller.
func reason(err error) string {
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, services.ErrInvalidArgument.Error()+": "); ok {
		return after
	}
	return msg
}
