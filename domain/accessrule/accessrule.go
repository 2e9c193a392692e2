package accessrule

import (
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

// CollectionRef points at one required collection, hosted or external.
type CollectionRef struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
}

// AccessRule is a creator owned policy granting off-chain content access
// to holders meeting minimum balances across every referenced collection.
// Rules are never destroyed, only deactivated.
type AccessRule struct {
	RuleId      string         `json:"ruleId" bson:"ruleId"`
	Creator     domain.Address `json:"creator" bson:"creator"`
	ContentType string         `json:"contentType" bson:"contentType"`
	Description string         `json:"description" bson:"description"`
	// parallel arrays, equal non zero length
	RequiredCollections []CollectionRef `json:"requiredCollections" bson:"requiredCollections"`
	MinimumBalances     []int64         `json:"minimumBalances" bson:"minimumBalances"`
	IsActive            bool            `json:"isActive" bson:"isActive"`
	CreatedAt           time.Time       `json:"createdAt" bson:"createdAt"`
	// unix seconds, 0 means no expiry
	ExpiryTime int64 `json:"expiryTime" bson:"expiryTime"`
}

func (r *AccessRule) IsExpired(now time.Time) bool {
	return r.ExpiryTime != 0 && now.Unix() >= r.ExpiryTime
}

type GrantId struct {
	RuleId string         `json:"ruleId" bson:"ruleId"`
	User   domain.Address `json:"user" bson:"user"`
}

// Grant is a creator issued manual override for one (rule, user) pair.
// Once granted it is authoritative until revoked, regardless of live
// balances; it does not outlive the rule's expiry.
type Grant struct {
	RuleId       string         `json:"ruleId" bson:"ruleId"`
	User         domain.Address `json:"user" bson:"user"`
	HasAccess    bool           `json:"hasAccess" bson:"hasAccess"`
	GrantedAt    time.Time      `json:"grantedAt" bson:"grantedAt"`
	LastVerified time.Time      `json:"lastVerified" bson:"lastVerified"`
}

type CreatePayload struct {
	ContentType         string          `json:"contentType"`
	Description         string          `json:"description"`
	RequiredCollections []CollectionRef `json:"requiredCollections"`
	MinimumBalances     []int64         `json:"minimumBalances"`
	ExpiryTime          int64           `json:"expiryTime"`
	// native currency attached to the call, decimal string
	Fee string `json:"fee"`
}

// VerifyResult is a normal evaluation outcome, pass or fail with a human
// readable reason. Failing is not an error.
type VerifyResult struct {
	RuleId    string         `json:"ruleId"`
	User      domain.Address `json:"user"`
	HasAccess bool           `json:"hasAccess"`
	Reason    string         `json:"reason"`
}

type FindAllOptions struct {
	SortBy   *string         `bson:"-"`
	SortDir  *domain.SortDir `bson:"-"`
	Offset   *int32          `bson:"-"`
	Limit    *int32          `bson:"-"`
	Creator  *domain.Address `bson:"creator"`
	IsActive *bool           `bson:"isActive"`
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

func WithCreator(creator domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Creator = creator.ToLowerPtr()
		return nil
	}
}

func WithIsActive(isActive bool) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.IsActive = &isActive
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, ruleId string) (*AccessRule, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]AccessRule, error)
	Create(c ctx.Ctx, rule AccessRule) error
	UpdateStatus(c ctx.Ctx, ruleId string, isActive bool) error
}

type GrantRepo interface {
	FindOne(c ctx.Ctx, id GrantId) (*Grant, error)
	Upsert(c ctx.Ctx, grant Grant) error
}

type Usecase interface {
	CreateRule(c ctx.Ctx, creator domain.Address, payload CreatePayload) (*AccessRule, error)
	GetRule(c ctx.Ctx, ruleId string) (*AccessRule, error)
	GetRuleIds(c ctx.Ctx) ([]string, error)
	GetRuleIdsByCreator(c ctx.Ctx, creator domain.Address) ([]string, error)
	UpdateRuleStatus(c ctx.Ctx, ruleId string, caller domain.Address, isActive bool) error
	// SetPaused suspends or resumes rule creation, admin only
	SetPaused(c ctx.Ctx, caller domain.Address, paused bool) error

	GrantAccess(c ctx.Ctx, ruleId string, caller, user domain.Address) error
	RevokeAccess(c ctx.Ctx, ruleId string, caller, user domain.Address) error
	GetGrant(c ctx.Ctx, ruleId string, user domain.Address) (*Grant, error)

	// user may be a hex address or an ENS name
	VerifyAccess(c ctx.Ctx, ruleId string, user string) (*VerifyResult, error)
	BatchVerifyAccess(c ctx.Ctx, ruleId string, users []string) ([]VerifyResult, error)
}
