package event

import (
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

type Type string

const (
	TypeCollectionRegistered Type = "collection.registered"
	TypeTransfer             Type = "token.transfer"
	TypePhaseChanged         Type = "collection.phase_changed"
	TypePriceChanged         Type = "collection.price_changed"
	TypeMaxSupplyChanged     Type = "collection.max_supply_changed"
	TypeWhitelistChanged     Type = "collection.whitelist_changed"
	TypePausedChanged        Type = "collection.paused_changed"
	TypeWithdrawal           Type = "collection.withdrawal"
	TypeRuleCreated          Type = "rule.created"
	TypeGatingPausedChanged  Type = "gating.paused_changed"
	TypeRuleStatusChanged    Type = "rule.status_changed"
	TypeAccessGranted        Type = "rule.access_granted"
	TypeAccessRevoked        Type = "rule.access_revoked"
	TypeContentGrantChanged  Type = "token.content_grant_changed"
)

// Event is one append-only structured record. The log carries enough to
// let an off-chain indexer reconstruct state without re-querying.
type Event struct {
	Id              string                 `json:"id" bson:"id"`
	Type            Type                   `json:"type" bson:"type"`
	ChainId         domain.ChainId         `json:"chainId,omitempty" bson:"chainId,omitempty"`
	ContractAddress domain.Address         `json:"contractAddress,omitempty" bson:"contractAddress,omitempty"`
	RuleId          string                 `json:"ruleId,omitempty" bson:"ruleId,omitempty"`
	Actor           domain.Address         `json:"actor,omitempty" bson:"actor,omitempty"`
	Payload         map[string]interface{} `json:"payload" bson:"payload"`
	CreatedAt       time.Time              `json:"createdAt" bson:"createdAt"`
}

type FindAllOptions struct {
	SortBy          *string         `bson:"-"`
	SortDir         *domain.SortDir `bson:"-"`
	Offset          *int32          `bson:"-"`
	Limit           *int32          `bson:"-"`
	Type            *Type           `bson:"type"`
	ChainId         *domain.ChainId `bson:"chainId"`
	ContractAddress *domain.Address `bson:"contractAddress"`
	RuleId          *string         `bson:"ruleId"`
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

func WithType(t Type) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Type = &t
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

func WithRuleId(ruleId string) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.RuleId = &ruleId
		return nil
	}
}

type Repo interface {
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]Event, error)
	Create(c ctx.Ctx, e Event) error
}
