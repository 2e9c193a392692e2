package whitelist

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

type ClaimId struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	// claims are namespaced by the published root so replacing the root
	// mid presale starts counting from zero under the new commitment
	Root    string         `json:"root" bson:"root"`
	Claimer domain.Address `json:"claimer" bson:"claimer"`
}

// Claim is the cumulative whitelist consumption of one address under one
// published root.
type Claim struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	Root            string         `json:"root" bson:"root"`
	Claimer         domain.Address `json:"claimer" bson:"claimer"`
	Claimed         int64          `json:"claimed" bson:"claimed"`
}

type ClaimRepo interface {
	FindOne(c ctx.Ctx, id ClaimId) (*Claim, error)
	Increment(c ctx.Ctx, id ClaimId, delta int64) error
}
