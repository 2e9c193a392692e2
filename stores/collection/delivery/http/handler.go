package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/delivery"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/middleware"
	authMiddleware "github.com/mintgate/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	collection collection.Usecase
}

func New(e *echo.Echo, us collection.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{us}

	gs := e.Group("/collections")

	gs.GET("", h.list, middleware.CacheHttp(30*time.Second))

	gs.POST("", h.register, authMiddleware.Auth())

	g := e.Group("/collection/:chainId/:contract")

	// short ttl, supply and phase move while a mint is open
	g.GET("", h.get, middleware.CacheHttp(10*time.Second))

	g.GET("/mint-counts/:address", h.getMintCounts)

	g.POST("/phase", h.setPhase, authMiddleware.Auth())

	g.POST("/price", h.setMintPrice, authMiddleware.Auth())

	g.POST("/max-supply", h.setMaxSupply, authMiddleware.Auth())

	g.POST("/whitelist", h.setWhitelist, authMiddleware.Auth())

	g.POST("/paused", h.setPaused, authMiddleware.Auth())

	g.POST("/withdraw", h.withdraw, authMiddleware.Auth())

	g.POST("/mint/owner", h.ownerMint, authMiddleware.Auth())

	g.POST("/mint/whitelist", h.whitelistMint, authMiddleware.Auth())

	g.POST("/mint/public", h.publicMint, authMiddleware.Auth())
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
		errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrPaused),
		errors.Is(err, domain.ErrSupplyExceeded),
		errors.Is(err, domain.ErrMaxSupplyBelowSupply),
		errors.Is(err, domain.ErrExceedsUserLimit),
		errors.Is(err, domain.ErrExceedsBatchLimit),
		errors.Is(err, domain.ErrInsufficientPayment),
		errors.Is(err, domain.ErrInvalidProof),
		errors.Is(err, domain.ErrExceedsWhitelistAllocation),
		errors.Is(err, domain.ErrWhitelistNotConfigured):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// list godoc
//
//	@Summary		List collections
//	@Description	List hosted collections with optional filters
//	@Tags			collection
//	@Produce		json
//	@Param			chainId	query	int	false	"chain id"
//	@Param			owner	query	string	false	"owner address"
//	@Param			phase	query	string	false	"mint phase"
//	@Success		200
//	@Router			/collections [get]
func (h *handler) list(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Offset  int32                 `query:"offset"`
		Limit   int32                 `query:"limit"`
		ChainId *domain.ChainId       `query:"chainId"`
		Owner   *domain.Address       `query:"owner"`
		Phase   *collection.MintPhase `query:"phase"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []collection.FindAllOptionsFunc{
		collection.WithPagination(p.Offset, p.Limit),
	}
	if p.ChainId != nil {
		opts = append(opts, collection.WithChainId(*p.ChainId))
	}
	if p.Owner != nil {
		opts = append(opts, collection.WithOwner(*p.Owner))
	}
	if p.Phase != nil {
		opts = append(opts, collection.WithPhase(*p.Phase))
	}

	res, err := h.collection.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// register godoc
//
//	@Summary		Register collection
//	@Description	Register a deployed collection for hosted minting
//	@Tags			collection
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200
//	@Router			/collections [post]
func (h *handler) register(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	owner := c.Get("address").(domain.Address)

	p := collection.RegisterPayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.collection.Register(ctx, owner, p)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) bindId(c echo.Context) (collection.CollectionId, error) {
	id := collection.CollectionId{}
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &id); err != nil {
		return id, domain.ErrBadParamInput
	}
	if id.Address.IsEmpty() {
		return id, domain.ErrInvalidAddress
	}
	return id.ToLower(), nil
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.collection.Get(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getMintCounts(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	address := domain.Address(c.Param("address"))
	if address.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.collection.GetMintCounts(ctx, id, address.ToLower())
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) setPhase(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Phase collection.MintPhase `json:"phase"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetPhase(ctx, id, caller, p.Phase); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setMintPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Price string `json:"price"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetMintPrice(ctx, id, caller, p.Price); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setMaxSupply(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		MaxSupply int64 `json:"maxSupply"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetMaxSupply(ctx, id, caller, p.MaxSupply); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setWhitelist(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Root  string `json:"root"`
		Limit int64  `json:"limit"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetWhitelist(ctx, id, caller, p.Root, p.Limit); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setPaused(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Paused bool `json:"paused"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetPaused(ctx, id, caller, p.Paused); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	amount, err := h.collection.Withdraw(ctx, id, caller)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]string{"amount": amount})
}

// ownerMint godoc
//
//	@Summary	Owner mint
//	@Description	Mint to any recipient, collection owner only
//	@Tags		collection
//	@Security	ApiKeyAuth
//	@Success	200
//	@Router		/collection/{chainId}/{contract}/mint/owner [post]
func (h *handler) ownerMint(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		To       domain.Address `json:"to"`
		Quantity int64          `json:"quantity"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.collection.OwnerMint(ctx, id, caller, p.To, p.Quantity)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) whitelistMint(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Quantity  int64    `json:"quantity"`
		Payment   string   `json:"payment"`
		Allowance int64    `json:"allowance"`
		Proof     []string `json:"proof"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.collection.WhitelistMint(ctx, id, caller, p.Quantity, p.Payment, p.Allowance, p.Proof)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) publicMint(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := h.bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Quantity int64  `json:"quantity"`
		Payment  string `json:"payment"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	res, err := h.collection.PublicMint(ctx, id, caller, p.Quantity, p.Payment)
	if err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
