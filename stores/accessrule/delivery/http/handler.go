package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/delivery"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/accessrule"
	"github.com/mintgate/goapi/middleware"
	authMiddleware "github.com/mintgate/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	rule accessrule.Usecase
}

func New(e *echo.Echo, us accessrule.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{us}

	gs := e.Group("/rules")

	gs.GET("", h.listIds, middleware.CacheHttp(30*time.Second))

	gs.GET("/creator/:creator", h.listIdsByCreator, middleware.CacheHttp(30*time.Second))

	gs.POST("", h.create, authMiddleware.Auth())

	gs.POST("/paused", h.setPaused, authMiddleware.Auth(), authMiddleware.IsAdmin())

	g := e.Group("/rule/:ruleId")

	g.GET("", h.get, middleware.CacheHttp(1*time.Minute))

	g.POST("/status", h.updateStatus, authMiddleware.Auth())

	g.POST("/grant", h.grant, authMiddleware.Auth())

	g.POST("/revoke", h.revoke, authMiddleware.Auth())

	g.GET("/grant/:user", h.getGrant)

	g.GET("/verify/:user", h.verify)

	g.POST("/verify-batch", h.verifyBatch)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrEmptyContentType),
		errors.Is(err, domain.ErrArrayLengthMismatch),
		errors.Is(err, domain.ErrPaused),
		errors.Is(err, domain.ErrInsufficientFee):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// create godoc
//
//	@Summary		Create access rule
//	@Description	Create a token gating rule over one or more collections
//	@Tags			rule
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200
//	@Router			/rules [post]
func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	creator := c.Get("address").(domain.Address)

	p := accessrule.CreatePayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.rule.CreateRule(ctx, creator, p)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) listIds(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.rule.GetRuleIds(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) listIdsByCreator(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	creator := domain.Address(c.Param("creator"))
	if creator.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.rule.GetRuleIdsByCreator(ctx, creator)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.rule.GetRule(ctx, c.Param("ruleId"))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) updateStatus(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		IsActive bool `json:"isActive"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.rule.UpdateRuleStatus(ctx, c.Param("ruleId"), caller, p.IsActive); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setPaused(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		Paused bool `json:"paused"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.rule.SetPaused(ctx, caller, p.Paused); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) grant(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		User domain.Address `json:"user"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.rule.GrantAccess(ctx, c.Param("ruleId"), caller, p.User); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) revoke(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		User domain.Address `json:"user"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.rule.RevokeAccess(ctx, c.Param("ruleId"), caller, p.User); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) getGrant(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	user := domain.Address(c.Param("user"))
	if user.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.rule.GetGrant(ctx, c.Param("ruleId"), user)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// verify godoc
//
//	@Summary		Verify access
//	@Description	Evaluate a rule for one user, hex address or ENS name
//	@Tags			rule
//	@Produce		json
//	@Success		200
//	@Router			/rule/{ruleId}/verify/{user} [get]
func (h *handler) verify(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	user := c.Param("user")
	if user == "" {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.rule.VerifyAccess(ctx, c.Param("ruleId"), user)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) verifyBatch(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Users []string `json:"users"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if len(p.Users) == 0 {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	res, err := h.rule.BatchVerifyAccess(ctx, c.Param("ruleId"), p.Users)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
