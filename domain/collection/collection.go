package collection

import (
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

// MintPhase is a collection's minting eligibility state. Transitions are
// owner triggered and unordered, any phase is reachable from any phase.
type MintPhase string

const (
	PhaseClosed    MintPhase = "closed"
	PhaseWhitelist MintPhase = "whitelist"
	PhasePublic    MintPhase = "public"
)

func (p MintPhase) IsValid() bool {
	switch p {
	case PhaseClosed, PhaseWhitelist, PhasePublic:
		return true
	}
	return false
}

// DefaultMaxBatchSize is the per transaction mint ceiling applied when a
// collection does not configure its own.
const DefaultMaxBatchSize = int64(20)

type CollectionId struct {
	domain.ChainId `json:"chainId" bson:"chainId" param:"chainId"`
	domain.Address `json:"contractAddress" bson:"contractAddress" param:"contract"`
}

func (id CollectionId) ToLower() CollectionId {
	return CollectionId{
		ChainId: id.ChainId,
		Address: id.Address.ToLower(),
	}
}

type Collection struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	Name            string         `json:"name" bson:"name"`
	Symbol          string         `json:"symbol" bson:"symbol"`
	BaseURI         string         `json:"baseUri" bson:"baseUri"`
	Owner           domain.Address `json:"owner" bson:"owner"`
	MaxSupply       int64          `json:"maxSupply" bson:"maxSupply"`
	TotalSupply     int64          `json:"totalSupply" bson:"totalSupply"`
	// display units of the chain's native currency, decimal string
	MintPrice string    `json:"mintPrice" bson:"mintPrice"`
	Phase     MintPhase `json:"phase" bson:"phase"`
	Paused    bool      `json:"paused" bson:"paused"`
	// native currency retained from paid mints, decimal string
	Balance string `json:"balance" bson:"balance"`
	// presale allocation commitment, empty until configured
	WhitelistRoot string `json:"whitelistRoot" bson:"whitelistRoot"`
	// per address caps by phase
	WhitelistLimit int64 `json:"whitelistLimit" bson:"whitelistLimit"`
	PublicLimit    int64 `json:"publicLimit" bson:"publicLimit"`
	// per transaction ceiling
	MaxBatchSize int64     `json:"maxBatchSize" bson:"maxBatchSize"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

func (c *Collection) ToId() CollectionId {
	return CollectionId{
		ChainId: c.ChainId,
		Address: c.ContractAddress,
	}
}

// Info is the contract info view exposed to callers
type Info struct {
	CollectionId
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol"`
	Owner          domain.Address `json:"owner"`
	TotalSupply    int64          `json:"totalSupply"`
	MaxSupply      int64          `json:"maxSupply"`
	MintPrice      string         `json:"mintPrice"`
	Phase          MintPhase      `json:"phase"`
	Paused         bool           `json:"paused"`
	Balance        string         `json:"balance"`
	WhitelistRoot  string         `json:"whitelistRoot"`
	WhitelistLimit int64          `json:"whitelistLimit"`
	PublicLimit    int64          `json:"publicLimit"`
	MaxBatchSize   int64          `json:"maxBatchSize"`
}

func (c *Collection) ToInfo() *Info {
	return &Info{
		CollectionId:   c.ToId(),
		Name:           c.Name,
		Symbol:         c.Symbol,
		Owner:          c.Owner,
		TotalSupply:    c.TotalSupply,
		MaxSupply:      c.MaxSupply,
		MintPrice:      c.MintPrice,
		Phase:          c.Phase,
		Paused:         c.Paused,
		Balance:        c.Balance,
		WhitelistRoot:  c.WhitelistRoot,
		WhitelistLimit: c.WhitelistLimit,
		PublicLimit:    c.PublicLimit,
		MaxBatchSize:   c.MaxBatchSize,
	}
}

type RegisterPayload struct {
	ChainId         domain.ChainId `json:"chainId"`
	ContractAddress domain.Address `json:"contractAddress"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	BaseURI         string         `json:"baseUri"`
	MaxSupply       int64          `json:"maxSupply"`
	MintPrice       string         `json:"mintPrice"`
	WhitelistLimit  int64          `json:"whitelistLimit"`
	PublicLimit     int64          `json:"publicLimit"`
	MaxBatchSize    int64          `json:"maxBatchSize"`
}

// UpdatePayload carries owner settable fields. Pointers so unset fields
// are skipped when building the bson patch.
type UpdatePayload struct {
	Phase          *MintPhase `bson:"phase"`
	MintPrice      *string    `bson:"mintPrice"`
	Paused         *bool      `bson:"paused"`
	Balance        *string    `bson:"balance"`
	WhitelistRoot  *string    `bson:"whitelistRoot"`
	WhitelistLimit *int64     `bson:"whitelistLimit"`
	PublicLimit    *int64     `bson:"publicLimit"`
	MaxBatchSize   *int64     `bson:"maxBatchSize"`
}

// MintResult reports one settled mint call
type MintResult struct {
	TokenIds []domain.TokenId `json:"tokenIds"`
	To       domain.Address   `json:"to"`
	Cost     string           `json:"cost"`
	Refund   string           `json:"refund"`
	Supply   int64            `json:"totalSupply"`
}

type FindAllOptions struct {
	SortBy  *string         `bson:"-"`
	SortDir *domain.SortDir `bson:"-"`
	Offset  *int32          `bson:"-"`
	Limit   *int32          `bson:"-"`
	ChainId *domain.ChainId `bson:"chainId"`
	Owner   *domain.Address `bson:"owner"`
	Phase   *MintPhase      `bson:"phase"`
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithSort(sortby string, sortdir domain.SortDir) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.SortBy = &sortby
		options.SortDir = &sortdir
		return nil
	}
}

func WithPagination(offset int32, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func WithChainId(chainId domain.ChainId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ChainId = &chainId
		return nil
	}
}

func WithOwner(owner domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Owner = owner.ToLowerPtr()
		return nil
	}
}

func WithPhase(phase MintPhase) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Phase = &phase
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id CollectionId) (*Collection, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]Collection, error)
	Create(c ctx.Ctx, col Collection) error
	Patch(c ctx.Ctx, id CollectionId, patch UpdatePayload) error
	// IncrementSupply advances totalSupply by quantity only when the
	// result stays within maxSupply, otherwise domain.ErrSupplyExceeded
	IncrementSupply(c ctx.Ctx, id CollectionId, quantity int64) error
	// SetMaxSupply rejects values below the current supply with
	// domain.ErrMaxSupplyBelowSupply
	SetMaxSupply(c ctx.Ctx, id CollectionId, maxSupply int64) error
}

type Usecase interface {
	Register(c ctx.Ctx, owner domain.Address, payload RegisterPayload) (*Collection, error)
	Get(c ctx.Ctx, id CollectionId) (*Info, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]Collection, error)

	SetPhase(c ctx.Ctx, id CollectionId, caller domain.Address, phase MintPhase) error
	SetMintPrice(c ctx.Ctx, id CollectionId, caller domain.Address, price string) error
	SetMaxSupply(c ctx.Ctx, id CollectionId, caller domain.Address, maxSupply int64) error
	SetWhitelist(c ctx.Ctx, id CollectionId, caller domain.Address, root string, limit int64) error
	SetPaused(c ctx.Ctx, id CollectionId, caller domain.Address, paused bool) error

	OwnerMint(c ctx.Ctx, id CollectionId, caller, to domain.Address, quantity int64) (*MintResult, error)
	WhitelistMint(c ctx.Ctx, id CollectionId, caller domain.Address, quantity int64, payment string, allowance int64, proof []string) (*MintResult, error)
	PublicMint(c ctx.Ctx, id CollectionId, caller domain.Address, quantity int64, payment string) (*MintResult, error)

	Withdraw(c ctx.Ctx, id CollectionId, caller domain.Address) (string, error)
	GetMintCounts(c ctx.Ctx, id CollectionId, address domain.Address) (map[MintPhase]int64, error)
}
