package usecase

import (
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/log"
	"github.com/mintgate/goapi/base/merkle"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/domain/whitelist"
)

type CollectionUseCaseCfg struct {
	CollectionRepo collection.Repo
	MintCountRepo  collection.MintCountRepo
	ClaimRepo      whitelist.ClaimRepo
	TokenRepo      token.Repo
	EventRepo      event.Repo
}

type impl struct {
	collection collection.Repo
	mintCount  collection.MintCountRepo
	claim      whitelist.ClaimRepo
	token      token.Repo
	event      event.Repo
	// per collection mutexes, every mutating call of one collection runs
	// under its lock so limit reads and the conditional supply advance
	// observe a settled document
	locks sync.Map
}

func NewCollection(cfg *CollectionUseCaseCfg) collection.Usecase {
	return &impl{
		collection: cfg.CollectionRepo,
		mintCount:  cfg.MintCountRepo,
		claim:      cfg.ClaimRepo,
		token:      cfg.TokenRepo,
		event:      cfg.EventRepo,
	}
}

func (im *impl) lock(id collection.CollectionId) func() {
	v, _ := im.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (im *impl) appendEvent(c ctx.Ctx, e event.Event) {
	e.Id = uuid.New().String()
	e.CreatedAt = time.Now()
	if err := im.event.Create(c, e); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"type": e.Type,
		}).Warn("event.Create failed")
	}
}

func (im *impl) Register(c ctx.Ctx, owner domain.Address, payload collection.RegisterPayload) (*collection.Collection, error) {
	if payload.ContractAddress.IsEmpty() || payload.Name == "" || payload.Symbol == "" {
		return nil, domain.ErrBadParamInput
	}
	if payload.MaxSupply <= 0 {
		return nil, domain.ErrBadParamInput
	}
	price := payload.MintPrice
	if price == "" {
		price = "0"
	}
	if p, err := decimal.NewFromString(price); err != nil || p.IsNegative() {
		return nil, domain.ErrBadParamInput
	}
	maxBatch := payload.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = collection.DefaultMaxBatchSize
	}

	id := collection.CollectionId{ChainId: payload.ChainId, Address: payload.ContractAddress.ToLower()}
	if _, err := im.collection.FindOne(c, id); err == nil {
		return nil, domain.ErrConflict
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	col := collection.Collection{
		ChainId:         payload.ChainId,
		ContractAddress: payload.ContractAddress.ToLower(),
		Name:            payload.Name,
		Symbol:          payload.Symbol,
		BaseURI:         payload.BaseURI,
		Owner:           owner.ToLower(),
		MaxSupply:       payload.MaxSupply,
		TotalSupply:     0,
		MintPrice:       price,
		Phase:           collection.PhaseClosed,
		Paused:          false,
		Balance:         "0",
		WhitelistLimit:  payload.WhitelistLimit,
		PublicLimit:     payload.PublicLimit,
		MaxBatchSize:    maxBatch,
		CreatedAt:       time.Now(),
	}
	if err := im.collection.Create(c, col); err != nil {
		return nil, err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeCollectionRegistered,
		ChainId:         col.ChainId,
		ContractAddress: col.ContractAddress,
		Actor:           col.Owner,
		Payload: map[string]interface{}{
			"name":      col.Name,
			"symbol":    col.Symbol,
			"maxSupply": col.MaxSupply,
			"mintPrice": col.MintPrice,
		},
	})

	return &col, nil
}

func (im *impl) Get(c ctx.Ctx, id collection.CollectionId) (*collection.Info, error) {
	col, err := im.collection.FindOne(c, id.ToLower())
	if err != nil {
		return nil, err
	}
	return col.ToInfo(), nil
}

func (im *impl) FindAll(c ctx.Ctx, opts ...collection.FindAllOptionsFunc) ([]collection.Collection, error) {
	return im.collection.FindAll(c, opts...)
}

// requireOwner loads the collection and rejects callers other than its
// owner with domain.ErrUnauthorized.
func (im *impl) requireOwner(c ctx.Ctx, id collection.CollectionId, caller domain.Address) (*collection.Collection, error) {
	col, err := im.collection.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if !col.Owner.Equals(caller) {
		return nil, domain.ErrUnauthorized
	}
	return col, nil
}

func (im *impl) SetPhase(c ctx.Ctx, id collection.CollectionId, caller domain.Address, phase collection.MintPhase) error {
	if !phase.IsValid() {
		return domain.ErrBadParamInput
	}

	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return err
	}
	if col.Phase == phase {
		return nil
	}
	if err := im.collection.Patch(c, id, collection.UpdatePayload{Phase: &phase}); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypePhaseChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"from": col.Phase,
			"to":   phase,
		},
	})
	return nil
}

func (im *impl) SetMintPrice(c ctx.Ctx, id collection.CollectionId, caller domain.Address, price string) error {
	if p, err := decimal.NewFromString(price); err != nil || p.IsNegative() {
		return domain.ErrBadParamInput
	}

	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return err
	}
	if err := im.collection.Patch(c, id, collection.UpdatePayload{MintPrice: &price}); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypePriceChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"from": col.MintPrice,
			"to":   price,
		},
	})
	return nil
}

func (im *impl) SetMaxSupply(c ctx.Ctx, id collection.CollectionId, caller domain.Address, maxSupply int64) error {
	if maxSupply <= 0 {
		return domain.ErrBadParamInput
	}

	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return err
	}
	if err := im.collection.SetMaxSupply(c, id, maxSupply); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeMaxSupplyChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"from": col.MaxSupply,
			"to":   maxSupply,
		},
	})
	return nil
}

func (im *impl) SetWhitelist(c ctx.Ctx, id collection.CollectionId, caller domain.Address, root string, limit int64) error {
	if raw, err := hexutil.Decode(root); err != nil || len(raw) != 32 {
		return domain.ErrBadParamInput
	}
	if limit < 0 {
		return domain.ErrBadParamInput
	}

	id = id.ToLower()
	defer im.lock(id)()

	if _, err := im.requireOwner(c, id, caller); err != nil {
		return err
	}
	// claims are keyed by root, a new root starts everyone's consumption
	// from zero without touching old claim documents
	if err := im.collection.Patch(c, id, collection.UpdatePayload{
		WhitelistRoot:  &root,
		WhitelistLimit: &limit,
	}); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeWhitelistChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"root":  root,
			"limit": limit,
		},
	})
	return nil
}

func (im *impl) SetPaused(c ctx.Ctx, id collection.CollectionId, caller domain.Address, paused bool) error {
	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return err
	}
	if col.Paused == paused {
		return nil
	}
	if err := im.collection.Patch(c, id, collection.UpdatePayload{Paused: &paused}); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypePausedChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"paused": paused,
		},
	})
	return nil
}

// checkBatch applies the pause flag and per transaction ceiling shared by
// every mint path.
func checkBatch(col *collection.Collection, quantity int64) error {
	if col.Paused {
		return domain.ErrPaused
	}
	if quantity <= 0 {
		return domain.ErrBadParamInput
	}
	maxBatch := col.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = collection.DefaultMaxBatchSize
	}
	if quantity > maxBatch {
		return domain.ErrExceedsBatchLimit
	}
	return nil
}

// settlePayment prices the batch and splits the submitted payment into
// retained cost and refund. Underpayment fails, overpayment is returned.
func settlePayment(payment, price string, quantity int64) (cost, refund decimal.Decimal, err error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, decimal.Zero, domain.ErrBadParamInput
	}
	paid, err := decimal.NewFromString(payment)
	if err != nil || paid.IsNegative() {
		return decimal.Zero, decimal.Zero, domain.ErrBadParamInput
	}
	cost = p.Mul(decimal.NewFromInt(quantity))
	if paid.LessThan(cost) {
		return decimal.Zero, decimal.Zero, domain.ErrInsufficientPayment
	}
	return cost, paid.Sub(cost), nil
}

// mintTokens advances the supply and materializes the minted units. The
// conditional supply advance is the only guard that has to hold under
// concurrency, everything after it is bookkeeping derived from the
// already reserved id range.
func (im *impl) mintTokens(c ctx.Ctx, col *collection.Collection, to domain.Address, quantity int64, cost decimal.Decimal) (*collection.MintResult, error) {
	id := col.ToId()
	if err := im.collection.IncrementSupply(c, id, quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	tokenIds := make([]domain.TokenId, 0, quantity)
	for i := int64(0); i < quantity; i++ {
		tokenId := domain.TokenId(strconv.FormatInt(col.TotalSupply+i, 10))
		tokenIds = append(tokenIds, tokenId)
		if err := im.token.Create(c, token.Token{
			ChainId:         col.ChainId,
			ContractAddress: col.ContractAddress,
			TokenId:         tokenId,
			Owner:           to.ToLower(),
			MintPhase:       col.Phase,
			MintedAt:        now,
		}); err != nil {
			c.WithFields(log.Fields{
				"err":     err,
				"tokenId": tokenId,
			}).Error("token.Create failed")
			return nil, err
		}
	}

	if !cost.IsZero() {
		balance, err := decimal.NewFromString(col.Balance)
		if err != nil {
			balance = decimal.Zero
		}
		newBalance := balance.Add(cost).String()
		if err := im.collection.Patch(c, id, collection.UpdatePayload{Balance: &newBalance}); err != nil {
			return nil, err
		}
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeTransfer,
		ChainId:         col.ChainId,
		ContractAddress: col.ContractAddress,
		Actor:           to.ToLower(),
		Payload: map[string]interface{}{
			"from":     domain.EmptyAddress,
			"to":       to.ToLower(),
			"tokenIds": tokenIds,
			"phase":    col.Phase,
		},
	})

	return &collection.MintResult{
		TokenIds: tokenIds,
		To:       to.ToLower(),
		Cost:     cost.String(),
		Refund:   "0",
		Supply:   col.TotalSupply + quantity,
	}, nil
}

func (im *impl) OwnerMint(c ctx.Ctx, id collection.CollectionId, caller, to domain.Address, quantity int64) (*collection.MintResult, error) {
	if to.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}

	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(col, quantity); err != nil {
		return nil, err
	}

	// owner minting is free and exempt from phase and per address limits
	return im.mintTokens(c, col, to, quantity, decimal.Zero)
}

func (im *impl) WhitelistMint(c ctx.Ctx, id collection.CollectionId, caller domain.Address, quantity int64, payment string, allowance int64, proof []string) (*collection.MintResult, error) {
	id = id.ToLower()
	caller = caller.ToLower()
	defer im.lock(id)()

	col, err := im.collection.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(col, quantity); err != nil {
		return nil, err
	}
	if col.Phase != collection.PhaseWhitelist {
		return nil, domain.ErrWrongPhase
	}
	if col.WhitelistRoot == "" {
		return nil, domain.ErrWhitelistNotConfigured
	}

	leaf := merkle.AllocationLeaf(caller, allowance)
	if !merkle.VerifyHexProof(leaf, proof, common.HexToHash(col.WhitelistRoot)) {
		return nil, domain.ErrInvalidProof
	}

	claimId := whitelist.ClaimId{
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Root:            col.WhitelistRoot,
		Claimer:         caller,
	}
	claimed := int64(0)
	if claim, err := im.claim.FindOne(c, claimId); err == nil {
		claimed = claim.Claimed
	} else if err != domain.ErrNotFound {
		return nil, err
	}
	if claimed+quantity > allowance {
		return nil, domain.ErrExceedsWhitelistAllocation
	}

	if err := im.checkUserLimit(c, col, caller, quantity, col.WhitelistLimit); err != nil {
		return nil, err
	}

	cost, refund, err := settlePayment(payment, col.MintPrice, quantity)
	if err != nil {
		return nil, err
	}
	if col.TotalSupply+quantity > col.MaxSupply {
		return nil, domain.ErrSupplyExceeded
	}

	// the claim is spent before the supply advance, a failure in between
	// must never leave minted tokens without a recorded claim
	if err := im.claim.Increment(c, claimId, quantity); err != nil {
		return nil, err
	}
	res, err := im.mintTokens(c, col, caller, quantity, cost)
	if err != nil {
		return nil, err
	}
	if err := im.bumpMintCount(c, col, caller, quantity); err != nil {
		return nil, err
	}
	res.Refund = refund.String()
	return res, nil
}

func (im *impl) PublicMint(c ctx.Ctx, id collection.CollectionId, caller domain.Address, quantity int64, payment string) (*collection.MintResult, error) {
	id = id.ToLower()
	caller = caller.ToLower()
	defer im.lock(id)()

	col, err := im.collection.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(col, quantity); err != nil {
		return nil, err
	}
	if col.Phase != collection.PhasePublic {
		return nil, domain.ErrWrongPhase
	}

	if err := im.checkUserLimit(c, col, caller, quantity, col.PublicLimit); err != nil {
		return nil, err
	}

	cost, refund, err := settlePayment(payment, col.MintPrice, quantity)
	if err != nil {
		return nil, err
	}

	res, err := im.mintTokens(c, col, caller, quantity, cost)
	if err != nil {
		return nil, err
	}
	if err := im.bumpMintCount(c, col, caller, quantity); err != nil {
		return nil, err
	}
	res.Refund = refund.String()
	return res, nil
}

func (im *impl) checkUserLimit(c ctx.Ctx, col *collection.Collection, minter domain.Address, quantity, limit int64) error {
	if limit <= 0 {
		return nil
	}
	count := int64(0)
	mc, err := im.mintCount.FindOne(c, collection.MintCountId{
		ChainId:         col.ChainId,
		ContractAddress: col.ContractAddress,
		Minter:          minter,
		Phase:           col.Phase,
	})
	if err == nil {
		count = mc.Count
	} else if err != domain.ErrNotFound {
		return err
	}
	if count+quantity > limit {
		return domain.ErrExceedsUserLimit
	}
	return nil
}

func (im *impl) bumpMintCount(c ctx.Ctx, col *collection.Collection, minter domain.Address, quantity int64) error {
	return im.mintCount.Increment(c, collection.MintCountId{
		ChainId:         col.ChainId,
		ContractAddress: col.ContractAddress,
		Minter:          minter,
		Phase:           col.Phase,
	}, quantity)
}

func (im *impl) Withdraw(c ctx.Ctx, id collection.CollectionId, caller domain.Address) (string, error) {
	id = id.ToLower()
	defer im.lock(id)()

	col, err := im.requireOwner(c, id, caller)
	if err != nil {
		return "", err
	}

	amount, err := decimal.NewFromString(col.Balance)
	if err != nil {
		amount = decimal.Zero
	}
	if amount.IsZero() {
		return "0", nil
	}

	zero := "0"
	if err := im.collection.Patch(c, id, collection.UpdatePayload{Balance: &zero}); err != nil {
		return "", err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeWithdrawal,
		ChainId:         id.ChainId,
		ContractAddress: id.Address,
		Actor:           caller.ToLower(),
		Payload: map[string]interface{}{
			"amount": amount.String(),
		},
	})

	return amount.String(), nil
}

func (im *impl) GetMintCounts(c ctx.Ctx, id collection.CollectionId, address domain.Address) (map[collection.MintPhase]int64, error) {
	counts, err := im.mintCount.FindByMinter(c, id.ToLower(), address)
	if err != nil {
		return nil, err
	}
	res := map[collection.MintPhase]int64{}
	for _, mc := range counts {
		res[mc.Phase] = mc.Count
	}
	return res, nil
}
