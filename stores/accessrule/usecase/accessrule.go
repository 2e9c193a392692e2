package usecase

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/goroutine"
	"github.com/mintgate/goapi/base/log"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/accessrule"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/service/discord"
	"github.com/mintgate/goapi/service/ens"
)

const verifyConcurrency = 10

type AccessRuleUseCaseCfg struct {
	RuleRepo  accessrule.Repo
	GrantRepo accessrule.GrantRepo
	TokenUC   token.Usecase
	EventRepo event.Repo
	Ens       ens.ENS
	Notifier  discord.Notifier
	// native currency charged per rule creation, decimal string
	CreationFee string
	// system operators allowed to manage any rule
	Admins []domain.Address
	// start with rule creation suspended
	Paused bool
}

type impl struct {
	rule        accessrule.Repo
	grant       accessrule.GrantRepo
	token       token.Usecase
	event       event.Repo
	ens         ens.ENS
	notifier    discord.Notifier
	creationFee decimal.Decimal
	admins      map[domain.Address]struct{}
	paused      int32
}

func New(cfg *AccessRuleUseCaseCfg) accessrule.Usecase {
	fee, err := decimal.NewFromString(cfg.CreationFee)
	if err != nil {
		fee = decimal.Zero
	}
	admins := make(map[domain.Address]struct{}, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a.ToLower()] = struct{}{}
	}
	im := &impl{
		rule:        cfg.RuleRepo,
		grant:       cfg.GrantRepo,
		token:       cfg.TokenUC,
		event:       cfg.EventRepo,
		ens:         cfg.Ens,
		notifier:    cfg.Notifier,
		creationFee: fee,
		admins:      admins,
	}
	if cfg.Paused {
		im.paused = 1
	}
	return im
}

func (im *impl) isAdmin(addr domain.Address) bool {
	_, ok := im.admins[addr.ToLower()]
	return ok
}

func (im *impl) isPaused() bool {
	return atomic.LoadInt32(&im.paused) == 1
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

// makeRuleId derives a collision free identifier from the rule's creator,
// content and creation instant.
func makeRuleId(creator domain.Address, contentType, description string, createdAt time.Time) string {
	nanos := make([]byte, 8)
	binary.BigEndian.PutUint64(nanos, uint64(createdAt.UnixNano()))
	digest := crypto.Keccak256(
		[]byte(creator.ToLowerStr()),
		[]byte(contentType),
		[]byte(description),
		nanos,
	)
	return hexutil.Encode(digest)
}

func (im *impl) CreateRule(c ctx.Ctx, creator domain.Address, payload accessrule.CreatePayload) (*accessrule.AccessRule, error) {
	if im.isPaused() {
		return nil, domain.ErrPaused
	}
	if payload.ContentType == "" {
		return nil, domain.ErrEmptyContentType
	}
	if len(payload.RequiredCollections) == 0 ||
		len(payload.RequiredCollections) != len(payload.MinimumBalances) {
		return nil, domain.ErrArrayLengthMismatch
	}
	for _, min := range payload.MinimumBalances {
		if min <= 0 {
			return nil, domain.ErrBadParamInput
		}
	}
	fee := payload.Fee
	if fee == "" {
		fee = "0"
	}
	if paid, err := decimal.NewFromString(fee); err != nil {
		return nil, domain.ErrBadParamInput
	} else if paid.LessThan(im.creationFee) {
		return nil, domain.ErrInsufficientFee
	}

	refs := make([]accessrule.CollectionRef, 0, len(payload.RequiredCollections))
	for _, ref := range payload.RequiredCollections {
		if ref.ContractAddress.IsEmpty() {
			return nil, domain.ErrInvalidAddress
		}
		refs = append(refs, accessrule.CollectionRef{
			ChainId:         ref.ChainId,
			ContractAddress: ref.ContractAddress.ToLower(),
		})
	}

	now := time.Now()
	rule := accessrule.AccessRule{
		RuleId:              makeRuleId(creator, payload.ContentType, payload.Description, now),
		Creator:             creator.ToLower(),
		ContentType:         payload.ContentType,
		Description:         payload.Description,
		RequiredCollections: refs,
		MinimumBalances:     payload.MinimumBalances,
		IsActive:            true,
		CreatedAt:           now,
		ExpiryTime:          payload.ExpiryTime,
	}
	if err := im.rule.Create(c, rule); err != nil {
		return nil, err
	}

	im.appendEvent(c, event.Event{
		Type:   event.TypeRuleCreated,
		RuleId: rule.RuleId,
		Actor:  rule.Creator,
		Payload: map[string]interface{}{
			"contentType": rule.ContentType,
			"collections": rule.RequiredCollections,
			"minimums":    rule.MinimumBalances,
			"expiryTime":  rule.ExpiryTime,
			"fee":         fee,
		},
	})

	if im.notifier != nil {
		addrs := make([]string, 0, len(refs))
		for _, ref := range refs {
			addrs = append(addrs, string(ref.ContractAddress))
		}
		goroutine.RecoverableGo(func() {
			im.notifier.NotifyRuleCreated(c, rule.RuleId, string(rule.Creator), rule.ContentType, addrs)
		})
	}

	return &rule, nil
}

func (im *impl) GetRule(c ctx.Ctx, ruleId string) (*accessrule.AccessRule, error) {
	return im.rule.FindOne(c, ruleId)
}

func (im *impl) GetRuleIds(c ctx.Ctx) ([]string, error) {
	rules, err := im.rule.FindAll(c)
	if err != nil {
		return nil, err
	}
	return ruleIds(rules), nil
}

func (im *impl) GetRuleIdsByCreator(c ctx.Ctx, creator domain.Address) ([]string, error) {
	rules, err := im.rule.FindAll(c, accessrule.WithCreator(creator))
	if err != nil {
		return nil, err
	}
	return ruleIds(rules), nil
}

func ruleIds(rules []accessrule.AccessRule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.RuleId)
	}
	return ids
}

// requireCreator loads the rule and rejects callers other than its
// creator or a system admin.
func (im *impl) requireCreator(c ctx.Ctx, ruleId string, caller domain.Address) (*accessrule.AccessRule, error) {
	rule, err := im.rule.FindOne(c, ruleId)
	if err != nil {
		return nil, err
	}
	if !rule.Creator.Equals(caller) && !im.isAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	return rule, nil
}

// SetPaused suspends or resumes rule creation. Admin only.
func (im *impl) SetPaused(c ctx.Ctx, caller domain.Address, paused bool) error {
	if !im.isAdmin(caller) {
		return domain.ErrUnauthorized
	}
	v := int32(0)
	if paused {
		v = 1
	}
	if atomic.SwapInt32(&im.paused, v) == v {
		return nil
	}

	im.appendEvent(c, event.Event{
		Type:  event.TypeGatingPausedChanged,
		Actor: caller.ToLower(),
		Payload: map[string]interface{}{
			"paused": paused,
		},
	})
	return nil
}

func (im *impl) UpdateRuleStatus(c ctx.Ctx, ruleId string, caller domain.Address, isActive bool) error {
	rule, err := im.requireCreator(c, ruleId, caller)
	if err != nil {
		return err
	}
	if rule.IsActive == isActive {
		return nil
	}
	if err := im.rule.UpdateStatus(c, ruleId, isActive); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:   event.TypeRuleStatusChanged,
		RuleId: ruleId,
		Actor:  caller.ToLower(),
		Payload: map[string]interface{}{
			"isActive": isActive,
		},
	})
	return nil
}

func (im *impl) GrantAccess(c ctx.Ctx, ruleId string, caller, user domain.Address) error {
	return im.setGrant(c, ruleId, caller, user, true)
}

func (im *impl) RevokeAccess(c ctx.Ctx, ruleId string, caller, user domain.Address) error {
	return im.setGrant(c, ruleId, caller, user, false)
}

func (im *impl) setGrant(c ctx.Ctx, ruleId string, caller, user domain.Address, hasAccess bool) error {
	if user.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	if _, err := im.requireCreator(c, ruleId, caller); err != nil {
		return err
	}

	now := time.Now()
	grant := accessrule.Grant{
		RuleId:       ruleId,
		User:         user.ToLower(),
		HasAccess:    hasAccess,
		GrantedAt:    now,
		LastVerified: now,
	}
	if prev, err := im.grant.FindOne(c, accessrule.GrantId{RuleId: ruleId, User: user}); err == nil {
		grant.GrantedAt = prev.GrantedAt
		if hasAccess && !prev.HasAccess {
			grant.GrantedAt = now
		}
	} else if err != domain.ErrNotFound {
		return err
	}
	if err := im.grant.Upsert(c, grant); err != nil {
		return err
	}

	eventType := event.TypeAccessGranted
	if !hasAccess {
		eventType = event.TypeAccessRevoked
	}
	im.appendEvent(c, event.Event{
		Type:   eventType,
		RuleId: ruleId,
		Actor:  caller.ToLower(),
		Payload: map[string]interface{}{
			"user": user.ToLower(),
		},
	})

	if im.notifier != nil {
		goroutine.RecoverableGo(func() {
			im.notifier.NotifyAccessChanged(c, ruleId, user.ToLowerStr(), hasAccess)
		})
	}
	return nil
}

func (im *impl) GetGrant(c ctx.Ctx, ruleId string, user domain.Address) (*accessrule.Grant, error) {
	return im.grant.FindOne(c, accessrule.GrantId{RuleId: ruleId, User: user})
}

// resolveUser accepts a hex address or an ENS name.
func (im *impl) resolveUser(c ctx.Ctx, user string) (domain.Address, error) {
	if strings.HasPrefix(user, "0x") {
		return domain.Address(user).ToLower(), nil
	}
	if im.ens == nil || !strings.Contains(user, ".") {
		return "", domain.ErrInvalidAddress
	}
	addr, err := im.ens.Resolve(c, user)
	if err != nil {
		return "", err
	}
	if addr.IsEmpty() {
		return "", domain.ErrInvalidAddress
	}
	return addr.ToLower(), nil
}

func (im *impl) VerifyAccess(c ctx.Ctx, ruleId string, user string) (*accessrule.VerifyResult, error) {
	rule, err := im.rule.FindOne(c, ruleId)
	if err != nil {
		return nil, err
	}
	addr, err := im.resolveUser(c, user)
	if err != nil {
		return nil, err
	}
	return im.verify(c, rule, addr)
}

// verify runs one evaluation of a rule against a resolved address. A
// failing outcome is a result, not an error.
func (im *impl) verify(c ctx.Ctx, rule *accessrule.AccessRule, user domain.Address) (*accessrule.VerifyResult, error) {
	res := &accessrule.VerifyResult{
		RuleId: rule.RuleId,
		User:   user,
	}

	if !rule.IsActive {
		res.Reason = "Rule is not active"
		return res, nil
	}
	// expiry dominates manual grants, a grant does not outlive its rule
	if rule.IsExpired(time.Now()) {
		res.Reason = "Rule has expired"
		return res, nil
	}

	if grant, err := im.grant.FindOne(c, accessrule.GrantId{RuleId: rule.RuleId, User: user}); err == nil {
		if grant.HasAccess {
			grant.LastVerified = time.Now()
			if err := im.grant.Upsert(c, *grant); err != nil {
				c.WithField("err", err).Warn("grant.Upsert failed")
			}
			res.HasAccess = true
			res.Reason = "manual grant"
			return res, nil
		}
		// a revoked grant simply removes the override, balances still count
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	for i, ref := range rule.RequiredCollections {
		balance, err := im.token.BalanceOf(c, collection.CollectionId{
			ChainId: ref.ChainId,
			Address: ref.ContractAddress,
		}, user)
		if err != nil {
			c.WithFields(log.Fields{
				"err":      err,
				"ruleId":   rule.RuleId,
				"contract": ref.ContractAddress,
			}).Error("token.BalanceOf failed")
			return nil, err
		}
		if int64(balance) < rule.MinimumBalances[i] {
			res.Reason = fmt.Sprintf("insufficient balance for %s: have %d, need %d",
				ref.ContractAddress, balance, rule.MinimumBalances[i])
			return res, nil
		}
	}

	res.HasAccess = true
	res.Reason = "all requirements met"
	return res, nil
}

func (im *impl) BatchVerifyAccess(c ctx.Ctx, ruleId string, users []string) ([]accessrule.VerifyResult, error) {
	rule, err := im.rule.FindOne(c, ruleId)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		idx int
		res *accessrule.VerifyResult
	}

	b := goroutines.NewBatch(verifyConcurrency, goroutines.WithBatchSize(len(users)))
	defer b.Close()
	for i := 0; i < len(users); i++ {
		idx := i
		b.Queue(func() (interface{}, error) {
			addr, err := im.resolveUser(c, users[idx])
			if err != nil {
				return nil, err
			}
			res, err := im.verify(c, rule, addr)
			if err != nil {
				return nil, err
			}
			return indexed{idx, res}, nil
		})
	}
	b.QueueComplete()

	results := make([]accessrule.VerifyResult, len(users))
	for ret := range b.Results() {
		if err := ret.Error(); err != nil {
			return nil, err
		}
		iv := ret.Value().(indexed)
		results[iv.idx] = *iv.res
	}
	return results, nil
}
