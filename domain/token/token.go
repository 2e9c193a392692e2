package token

import (
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
)

type Id struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
}

// Token is one minted unit of a hosted collection. Ids are sequential
// integers assigned at mint time starting at 0.
type Token struct {
	ChainId         domain.ChainId       `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address       `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId       `json:"tokenId" bson:"tokenID"`
	Owner           domain.Address       `json:"owner" bson:"owner"`
	MintPhase       collection.MintPhase `json:"mintPhase" bson:"mintPhase"`
	MintedAt        time.Time            `json:"mintedAt" bson:"mintedAt"`
}

func (t *Token) ToId() Id {
	return Id{
		ChainId:         t.ChainId,
		ContractAddress: t.ContractAddress,
		TokenId:         t.TokenId,
	}
}

// OwnershipResult is one entry of a batch ownership verification
type OwnershipResult struct {
	TokenId domain.TokenId `json:"tokenId"`
	Owner   domain.Address `json:"owner"`
	IsOwner bool           `json:"isOwner"`
}

type FindAllOptions struct {
	SortBy          *string         `bson:"-"`
	SortDir         *domain.SortDir `bson:"-"`
	Offset          *int32          `bson:"-"`
	Limit           *int32          `bson:"-"`
	ChainId         *domain.ChainId `bson:"chainId"`
	ContractAddress *domain.Address `bson:"contractAddress"`
	Owner           *domain.Address `bson:"owner"`
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

func WithContractAddress(address domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ContractAddress = address.ToLowerPtr()
		return nil
	}
}

func WithOwner(owner domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Owner = owner.ToLowerPtr()
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id Id) (*Token, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]Token, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	Create(c ctx.Ctx, t Token) error
	UpdateOwner(c ctx.Ctx, id Id, owner domain.Address) error
}

type Usecase interface {
	Get(c ctx.Ctx, id Id) (*Token, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]Token, error)
	BalanceOf(c ctx.Ctx, id collection.CollectionId, owner domain.Address) (int, error)
	OwnerOf(c ctx.Ctx, id Id) (domain.Address, error)
	Transfer(c ctx.Ctx, id Id, caller, to domain.Address) error
	VerifyOwnership(c ctx.Ctx, id Id, claimed domain.Address) (*OwnershipResult, error)
	BatchVerifyOwnership(c ctx.Ctx, collectionId collection.CollectionId, tokenIds []domain.TokenId, claimed domain.Address) ([]OwnershipResult, error)

	SetContentGrant(c ctx.Ctx, id Id, caller domain.Address, tag string, granted bool) error
	GetContentGrant(c ctx.Ctx, id Id, tag string) (*ContentGrant, error)
}
