package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/delivery"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/event"
)

type handler struct {
	event event.Repo
}

func New(e *echo.Echo, repo event.Repo) {
	h := &handler{repo}

	e.GET("/events", h.list)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Offset   int32           `query:"offset"`
		Limit    int32           `query:"limit"`
		Type     *event.Type     `query:"type"`
		ChainId  *domain.ChainId `query:"chainId"`
		Contract *domain.Address `query:"contract"`
		RuleId   *string         `query:"ruleId"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []event.FindAllOptionsFunc{
		event.WithPagination(p.Offset, p.Limit),
	}
	if p.Type != nil {
		opts = append(opts, event.WithType(*p.Type))
	}
	if p.ChainId != nil {
		opts = append(opts, event.WithChainId(*p.ChainId))
	}
	if p.Contract != nil {
		opts = append(opts, event.WithContractAddress(*p.Contract))
	}
	if p.RuleId != nil {
		opts = append(opts, event.WithRuleId(*p.RuleId))
	}

	res, err := h.event.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
