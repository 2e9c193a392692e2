package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/delivery"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/account"
	"github.com/mintgate/goapi/middleware"
	authMiddleware "github.com/mintgate/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	au account.Usecase
}

// New registers account endpoints
func New(e *echo.Echo, au account.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{au: au}
	g := e.Group("/account")
	g.GET("/:account", h.getAccount, middleware.IsValidAddress("account"))

	// self
	g.PATCH("", h.updateAccount, authMiddleware.Auth())
	g.POST("/nonce", h.generateNonce, authMiddleware.Auth())
}

func (h *handler) getAccount(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	pAccount := domain.Address(c.Param("account"))
	info, err := h.au.Get(ctx, pAccount)
	if err == domain.ErrNotFound {
		return delivery.MakeJsonResp(c, http.StatusNotFound, err)
	} else if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, info)
}

func (h *handler) updateAccount(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type payload struct {
		account.Updater
		Signature string `json:"signature"`
	}

	p := &payload{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.au.ValidateSignature(ctx, address, p.Signature); err != nil {
		return delivery.MakeJsonResp(c, http.StatusMethodNotAllowed, err)
	}

	if info, err := h.au.Update(ctx, address, &p.Updater); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, info)
	}
}

// generateNonce
//
//	@Summary		Generate nonce for signing
//	@Description	Generate nonce for signing
//	@Tags			account
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{integer}	integer	"nonce"
//	@Failure		500
//	@Router			/account/nonce [post]
func (h *handler) generateNonce(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	address := c.Get("address").(domain.Address)
	nonce, err := h.au.GenerateNonce(ctx, address)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, nonce)
}
