package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core/principal"
	"github.com/darasahub/darasa/realtime"
)

type (
	NotificationRequest struct {
		Type       string   `json:"type" validate:"required"`
		Title      string   `json:"title" validate:"required"`
		Body       string   `json:"body"`
		TenantID   string   `json:"tenant_id"`
		LearnerIDs []string `json:"learner_ids" validate:"required,min=1,dive,required"`
	}

	notificationApi struct {
		router   *realtime.Router
		validate *validator.Validate
	}
)

func registerNotificationAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *ServerDeps) {
	api := notificationApi{
		router:   deps.Router,
		validate: deps.Validate,
	}

	staffOnly := roleMiddleware(deps.Guard, principal.StaffRoles...)
	g.POST("/notifications", api.create, authed, staffOnly)
}

// create fans the event out to the named learners and their linked
// guardians. Delivery is fire-and-forget, so the request is accepted as soon
// as the fan-out has run; recipients without an open connection miss it.
func (api *notificationApi) create(ctx echo.Context) error {
	var data NotificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotificationRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	evt := realtime.NewEvent(data.Type, data.Title, data.Body)
	evt.TenantID = data.TenantID

	api.router.Deliver(ctx.Request().Context(), evt, data.LearnerIDs...)

	return ctx.NoContent(http.StatusAccepted)
}
