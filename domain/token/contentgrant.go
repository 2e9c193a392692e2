package token

import (
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

type ContentGrantId struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
	Tag             string         `json:"tag" bson:"tag"`
}

// ContentGrant is a named gated-access flag attached to a single token,
// mutable only by the token's current owner.
type ContentGrant struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
	Tag             string         `json:"tag" bson:"tag"`
	Granted         bool           `json:"granted" bson:"granted"`
	UpdatedAt       time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type ContentGrantRepo interface {
	FindOne(c ctx.Ctx, id ContentGrantId) (*ContentGrant, error)
	Upsert(c ctx.Ctx, grant ContentGrant) error
}
