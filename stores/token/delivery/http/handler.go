package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/delivery"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/token"
	authMiddleware "github.com/mintgate/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	token token.Usecase
}

func New(e *echo.Echo, us token.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{us}

	gs := e.Group("/tokens")

	gs.GET("", h.search)

	gs.POST("/verify-ownership", h.batchVerifyOwnership)

	e.GET("/balance/:chainId/:contract/:address", h.balanceOf)

	g := e.Group("/token/:chainId/:contract/:tokenId")

	g.GET("", h.get)

	g.GET("/owner", h.ownerOf)

	g.POST("/transfer", h.transfer, authMiddleware.Auth())

	g.GET("/content-grant/:tag", h.getContentGrant)

	g.POST("/content-grant", h.setContentGrant, authMiddleware.Auth())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotTokenOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type tokenParams struct {
	ChainId  domain.ChainId `param:"chainId"`
	Contract domain.Address `param:"contract"`
	TokenId  domain.TokenId `param:"tokenId"`
}

func bindTokenId(c echo.Context) (token.Id, error) {
	p := tokenParams{}
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &p); err != nil {
		return token.Id{}, domain.ErrBadParamInput
	}
	if p.Contract.IsEmpty() {
		return token.Id{}, domain.ErrInvalidAddress
	}
	return token.Id{
		ChainId:         p.ChainId,
		ContractAddress: p.Contract.ToLower(),
		TokenId:         p.TokenId,
	}, nil
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Offset   int32           `query:"offset"`
		Limit    int32           `query:"limit"`
		ChainId  *domain.ChainId `query:"chainId"`
		Contract *domain.Address `query:"contract"`
		Owner    *domain.Address `query:"owner"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []token.FindAllOptionsFunc{
		token.WithPagination(p.Offset, p.Limit),
	}
	if p.ChainId != nil {
		opts = append(opts, token.WithChainId(*p.ChainId))
	}
	if p.Contract != nil {
		opts = append(opts, token.WithContractAddress(*p.Contract))
	}
	if p.Owner != nil {
		opts = append(opts, token.WithOwner(*p.Owner))
	}

	res, err := h.token.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := bindTokenId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.token.Get(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) balanceOf(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		ChainId  domain.ChainId `param:"chainId"`
		Contract domain.Address `param:"contract"`
		Address  domain.Address `param:"address"`
	}
	p := &params{}
	if err := (&echo.DefaultBinder{}).BindPathParams(c, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if p.Contract.IsEmpty() || p.Address.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	balance, err := h.token.BalanceOf(ctx, collection.CollectionId{ChainId: p.ChainId, Address: p.Contract}, p.Address)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int{"balance": balance})
}

func (h *handler) ownerOf(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := bindTokenId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	owner, err := h.token.OwnerOf(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]domain.Address{"owner": owner})
}

func (h *handler) transfer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := bindTokenId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		To domain.Address `json:"to"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.token.Transfer(ctx, id, caller, p.To); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) batchVerifyOwnership(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		ChainId  domain.ChainId   `json:"chainId"`
		Contract domain.Address   `json:"contract"`
		TokenIds []domain.TokenId `json:"tokenIds"`
		Claimed  domain.Address   `json:"claimed"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if p.Contract.IsEmpty() || p.Claimed.IsEmpty() || len(p.TokenIds) == 0 {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	res, err := h.token.BatchVerifyOwnership(ctx, collection.CollectionId{ChainId: p.ChainId, Address: p.Contract}, p.TokenIds, p.Claimed)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getContentGrant(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := bindTokenId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.token.GetContentGrant(ctx, id, c.Param("tag"))
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) setContentGrant(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := bindTokenId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Tag     string `json:"tag"`
		Granted bool   `json:"granted"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.token.SetContentGrant(ctx, id, caller, p.Tag, p.Granted); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
