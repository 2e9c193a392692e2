package collection

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

type MintCountId struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	Minter          domain.Address `json:"minter" bson:"minter"`
	Phase           MintPhase      `json:"phase" bson:"phase"`
}

// MintCount tracks how many units an address has minted during one phase
// of one collection.
type MintCount struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	Minter          domain.Address `json:"minter" bson:"minter"`
	Phase           MintPhase      `json:"phase" bson:"phase"`
	Count           int64          `json:"count" bson:"count"`
}

type MintCountRepo interface {
	FindOne(c ctx.Ctx, id MintCountId) (*MintCount, error)
	FindByMinter(c ctx.Ctx, id CollectionId, minter domain.Address) ([]MintCount, error)
	Increment(c ctx.Ctx, id MintCountId, delta int64) error
}
