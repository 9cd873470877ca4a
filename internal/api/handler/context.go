package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-manager/internal/core/domain"
)

// Keys under which the Auth middleware stores the verified token claims.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// ctxActor builds the caller identity from the claims injected by the Auth
// middleware. A missing subject or an unknown role means the middleware did
// not run, so the request is rejected before any service call.
func ctxActor(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get(CtxUserID).(string)
	email, _ := c.Get(CtxEmail).(string)
	role, _ := c.Get(CtxRole).(string)

	actor := domain.Actor{ID: id, Email: email, Role: domain.Role(role)}
	if actor.ID == "" || !actor.Role.Valid() {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}
