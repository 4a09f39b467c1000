package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/auth"
	"github.com/darasahub/darasa/core/principal"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		// Role pins the store to authenticate against. Optional; without it
		// staff accounts win ties over learners.
		Role string `json:"role" validate:"omitempty,roletag"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	authApi struct {
		svc        *principal.Service
		codec      *auth.Codec
		guard      *auth.Guard
		conf       *core.Config
		validate   *validator.Validate
		translator ut.Translator
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	lr.Role = core.CleanString(lr.Role, true /* lower */)
	return validate.Struct(lr)
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *ServerDeps) {
	api := authApi{
		svc:        deps.PrincipalSvc,
		codec:      deps.Codec,
		guard:      deps.Guard,
		conf:       deps.Conf,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)

	// authed endpoints
	rg := ag.Group("", authed)
	rg.POST("/refresh", api.refresh)
	rg.GET("/me", api.me)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password, data.Role)
	if err != nil {
		return err
	}
	token, err := api.codec.Issue(p)
	if err != nil {
		return errors.Wrap(err, "issuing credential")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// refresh re-issues the presented credential while the refresh window allows
// it. The principal is re-resolved, so a deactivation or lock since issuance
// denies the refresh.
func (api *authApi) refresh(ctx echo.Context) error {
	token, err := api.guard.Refresh(ctx.Request().Context(), bearerToken(ctx), api.conf.Auth.JWTRefreshExpirationDelta)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
