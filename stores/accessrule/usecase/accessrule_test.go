package usecase

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/accessrule"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
)

type fakeRuleRepo struct {
	rules map[string]*accessrule.AccessRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: map[string]*accessrule.AccessRule{}}
}

func (r *fakeRuleRepo) FindOne(c bCtx.Ctx, ruleId string) (*accessrule.AccessRule, error) {
	rule, ok := r.rules[ruleId]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *fakeRuleRepo) FindAll(c bCtx.Ctx, opts ...accessrule.FindAllOptionsFunc) ([]accessrule.AccessRule, error) {
	options, err := accessrule.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}
	res := []accessrule.AccessRule{}
	for _, rule := range r.rules {
		if options.Creator != nil && !rule.Creator.Equals(*options.Creator) {
			continue
		}
		if options.IsActive != nil && rule.IsActive != *options.IsActive {
			continue
		}
		res = append(res, *rule)
	}
	return res, nil
}

func (r *fakeRuleRepo) Create(c bCtx.Ctx, rule accessrule.AccessRule) error {
	if _, ok := r.rules[rule.RuleId]; ok {
		return domain.ErrConflict
	}
	r.rules[rule.RuleId] = &rule
	return nil
}

func (r *fakeRuleRepo) UpdateStatus(c bCtx.Ctx, ruleId string, isActive bool) error {
	rule, ok := r.rules[ruleId]
	if !ok {
		return domain.ErrNotFound
	}
	rule.IsActive = isActive
	return nil
}

type fakeGrantRepo struct {
	grants map[accessrule.GrantId]accessrule.Grant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: map[accessrule.GrantId]accessrule.Grant{}}
}

func (r *fakeGrantRepo) FindOne(c bCtx.Ctx, id accessrule.GrantId) (*accessrule.Grant, error) {
	id.User = id.User.ToLower()
	grant, ok := r.grants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := grant
	return &cp, nil
}

func (r *fakeGrantRepo) Upsert(c bCtx.Ctx, grant accessrule.Grant) error {
	grant.User = grant.User.ToLower()
	r.grants[accessrule.GrantId{RuleId: grant.RuleId, User: grant.User}] = grant
	return nil
}

// fakeTokenUC answers BalanceOf from a fixed table, the only token call
// rule evaluation makes.
type fakeTokenUC struct {
	token.Usecase
	balances map[string]int
}

func balanceKey(id collection.CollectionId, owner domain.Address) string {
	return fmt.Sprintf("%d:%s:%s", id.ChainId, id.Address.ToLowerStr(), owner.ToLowerStr())
}

func (f *fakeTokenUC) BalanceOf(c bCtx.Ctx, id collection.CollectionId, owner domain.Address) (int, error) {
	return f.balances[balanceKey(id, owner)], nil
}

type fakeEventRepo struct {
	events []event.Event
}

func (r *fakeEventRepo) FindAll(c bCtx.Ctx, opts ...event.FindAllOptionsFunc) ([]event.Event, error) {
	return r.events, nil
}

func (r *fakeEventRepo) Create(c bCtx.Ctx, e event.Event) error {
	r.events = append(r.events, e)
	return nil
}

type fakeEns struct {
	names map[string]domain.Address
}

func (f *fakeEns) Resolve(c bCtx.Ctx, name string) (domain.Address, error) {
	addr, ok := f.names[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return addr, nil
}

func (f *fakeEns) ReverseResolve(c bCtx.Ctx, address domain.Address) (string, error) {
	for name, addr := range f.names {
		if addr.Equals(address) {
			return name, nil
		}
	}
	return "", domain.ErrNotFound
}

type accessRuleSuite struct {
	suite.Suite

	rules  *fakeRuleRepo
	grants *fakeGrantRepo
	tokens *fakeTokenUC
	events *fakeEventRepo
	ens    *fakeEns
	im     accessrule.Usecase

	creator domain.Address
	holder  domain.Address
	admin   domain.Address
	gated   collection.CollectionId
}

func TestAccessRuleSuite(t *testing.T) {
	suite.Run(t, new(accessRuleSuite))
}

func (s *accessRuleSuite) SetupTest() {
	s.rules = newFakeRuleRepo()
	s.grants = newFakeGrantRepo()
	s.tokens = &fakeTokenUC{balances: map[string]int{}}
	s.events = &fakeEventRepo{}
	s.ens = &fakeEns{names: map[string]domain.Address{}}
	s.creator = domain.Address("0x000000000000000000000000000000000000aaaa")
	s.holder = domain.Address("0x000000000000000000000000000000000000bbbb")
	s.admin = domain.Address("0x00000000000000000000000000000000000000Ad")
	s.gated = collection.CollectionId{ChainId: 1, Address: "0x00000000000000000000000000000000000000c1"}
	s.im = New(&AccessRuleUseCaseCfg{
		RuleRepo:    s.rules,
		GrantRepo:   s.grants,
		TokenUC:     s.tokens,
		EventRepo:   s.events,
		Ens:         s.ens,
		CreationFee: "0",
		Admins:      []domain.Address{s.admin},
	})
}

func (s *accessRuleSuite) createRule(minimum int64, expiry int64) *accessrule.AccessRule {
	rule, err := s.im.CreateRule(bCtx.Background(), s.creator, accessrule.CreatePayload{
		ContentType: "video",
		Description: "members only",
		RequiredCollections: []accessrule.CollectionRef{
			{ChainId: s.gated.ChainId, ContractAddress: s.gated.Address},
		},
		MinimumBalances: []int64{minimum},
		ExpiryTime:      expiry,
	})
	s.Require().NoError(err)
	return rule
}

func (s *accessRuleSuite) setBalance(owner domain.Address, balance int) {
	s.tokens.balances[balanceKey(s.gated, owner)] = balance
}

func (s *accessRuleSuite) TestCreateRule() {
	rule := s.createRule(2, 0)
	s.True(strings.HasPrefix(rule.RuleId, "0x"))
	s.Len(rule.RuleId, 66)
	s.True(rule.IsActive)
	s.Equal(s.creator, rule.Creator)

	got, err := s.im.GetRule(bCtx.Background(), rule.RuleId)
	s.Require().NoError(err)
	s.Equal(rule.RuleId, got.RuleId)
}

func (s *accessRuleSuite) TestCreateRuleValidation() {
	ctx := bCtx.Background()
	ref := accessrule.CollectionRef{ChainId: 1, ContractAddress: s.gated.Address}

	_, err := s.im.CreateRule(ctx, s.creator, accessrule.CreatePayload{
		ContentType:         "",
		RequiredCollections: []accessrule.CollectionRef{ref},
		MinimumBalances:     []int64{1},
	})
	s.Equal(domain.ErrEmptyContentType, err)

	_, err = s.im.CreateRule(ctx, s.creator, accessrule.CreatePayload{
		ContentType: "video",
	})
	s.Equal(domain.ErrArrayLengthMismatch, err)

	_, err = s.im.CreateRule(ctx, s.creator, accessrule.CreatePayload{
		ContentType:         "video",
		RequiredCollections: []accessrule.CollectionRef{ref, ref},
		MinimumBalances:     []int64{1},
	})
	s.Equal(domain.ErrArrayLengthMismatch, err)

	_, err = s.im.CreateRule(ctx, s.creator, accessrule.CreatePayload{
		ContentType:         "video",
		RequiredCollections: []accessrule.CollectionRef{ref},
		MinimumBalances:     []int64{0},
	})
	s.Equal(domain.ErrBadParamInput, err)
}

func (s *accessRuleSuite) TestCreateRuleFee() {
	im := New(&AccessRuleUseCaseCfg{
		RuleRepo:    s.rules,
		GrantRepo:   s.grants,
		TokenUC:     s.tokens,
		EventRepo:   s.events,
		CreationFee: "10",
	})
	ref := accessrule.CollectionRef{ChainId: 1, ContractAddress: s.gated.Address}
	payload := accessrule.CreatePayload{
		ContentType:         "video",
		RequiredCollections: []accessrule.CollectionRef{ref},
		MinimumBalances:     []int64{1},
		Fee:                 "9",
	}
	_, err := im.CreateRule(bCtx.Background(), s.creator, payload)
	s.Equal(domain.ErrInsufficientFee, err)

	payload.Fee = "10"
	_, err = im.CreateRule(bCtx.Background(), s.creator, payload)
	s.NoError(err)
}

func (s *accessRuleSuite) TestVerifyByBalance() {
	rule := s.createRule(2, 0)
	ctx := bCtx.Background()

	res, err := s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.False(res.HasAccess)
	s.Contains(res.Reason, "insufficient balance")
	s.Contains(res.Reason, "need 2")

	s.setBalance(s.holder, 2)
	res, err = s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.True(res.HasAccess)
	s.Equal("all requirements met", res.Reason)
}

func (s *accessRuleSuite) TestVerifyDeactivatedRule() {
	rule := s.createRule(1, 0)
	ctx := bCtx.Background()
	s.setBalance(s.holder, 5)

	s.Require().NoError(s.im.UpdateRuleStatus(ctx, rule.RuleId, s.creator, false))
	res, err := s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.False(res.HasAccess)
	s.Equal("Rule is not active", res.Reason)

	s.Require().NoError(s.im.UpdateRuleStatus(ctx, rule.RuleId, s.creator, true))
	res, err = s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.True(res.HasAccess)
}

func (s *accessRuleSuite) TestUpdateRuleStatusRequiresCreator() {
	rule := s.createRule(1, 0)
	err := s.im.UpdateRuleStatus(bCtx.Background(), rule.RuleId, s.holder, false)
	s.Equal(domain.ErrUnauthorized, err)
}

func (s *accessRuleSuite) TestAdminCanManageAnyRule() {
	rule := s.createRule(1, 0)
	ctx := bCtx.Background()

	s.Require().NoError(s.im.UpdateRuleStatus(ctx, rule.RuleId, s.admin, false))
	got, err := s.im.GetRule(ctx, rule.RuleId)
	s.Require().NoError(err)
	s.False(got.IsActive)

	s.Require().NoError(s.im.GrantAccess(ctx, rule.RuleId, s.admin, s.holder))
	s.Require().NoError(s.im.RevokeAccess(ctx, rule.RuleId, s.admin, s.holder))

	// admin privilege does not extend to arbitrary callers
	err = s.im.UpdateRuleStatus(ctx, rule.RuleId, s.holder, true)
	s.Equal(domain.ErrUnauthorized, err)
}

func (s *accessRuleSuite) TestPauseBlocksRuleCreation() {
	ctx := bCtx.Background()

	s.Require().NoError(s.im.SetPaused(ctx, s.admin, true))
	_, err := s.im.CreateRule(ctx, s.creator, accessrule.CreatePayload{
		ContentType: "video",
		RequiredCollections: []accessrule.CollectionRef{
			{ChainId: s.gated.ChainId, ContractAddress: s.gated.Address},
		},
		MinimumBalances: []int64{1},
	})
	s.Equal(domain.ErrPaused, err)

	s.Require().NoError(s.im.SetPaused(ctx, s.admin, false))
	s.createRule(1, 0)
}

func (s *accessRuleSuite) TestSetPausedRequiresAdmin() {
	err := s.im.SetPaused(bCtx.Background(), s.creator, true)
	s.Equal(domain.ErrUnauthorized, err)

	// creation is still open
	s.createRule(1, 0)
}

func (s *accessRuleSuite) TestManualGrantOverridesBalance() {
	rule := s.createRule(5, 0)
	ctx := bCtx.Background()

	s.Require().NoError(s.im.GrantAccess(ctx, rule.RuleId, s.creator, s.holder))
	res, err := s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.True(res.HasAccess)
	s.Equal("manual grant", res.Reason)
}

func (s *accessRuleSuite) TestRevokedGrantFallsThroughToBalance() {
	rule := s.createRule(1, 0)
	ctx := bCtx.Background()

	s.Require().NoError(s.im.GrantAccess(ctx, rule.RuleId, s.creator, s.holder))
	s.Require().NoError(s.im.RevokeAccess(ctx, rule.RuleId, s.creator, s.holder))

	// revocation removes the override, it does not blocklist the user
	s.setBalance(s.holder, 1)
	res, err := s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.True(res.HasAccess)
	s.Equal("all requirements met", res.Reason)

	s.setBalance(s.holder, 0)
	res, err = s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.False(res.HasAccess)
}

func (s *accessRuleSuite) TestExpiryDominatesManualGrant() {
	expired := time.Now().Add(-time.Hour).Unix()
	rule := s.createRule(1, expired)
	ctx := bCtx.Background()

	s.Require().NoError(s.im.GrantAccess(ctx, rule.RuleId, s.creator, s.holder))
	s.setBalance(s.holder, 10)

	res, err := s.im.VerifyAccess(ctx, rule.RuleId, string(s.holder))
	s.Require().NoError(err)
	s.False(res.HasAccess)
	s.Equal("Rule has expired", res.Reason)
}

func (s *accessRuleSuite) TestGrantRequiresCreator() {
	rule := s.createRule(1, 0)
	err := s.im.GrantAccess(bCtx.Background(), rule.RuleId, s.holder, s.holder)
	s.Equal(domain.ErrUnauthorized, err)
}

func (s *accessRuleSuite) TestVerifyResolvesEnsNames() {
	rule := s.createRule(1, 0)
	ctx := bCtx.Background()
	s.ens.names["holder.eth"] = s.holder
	s.setBalance(s.holder, 1)

	res, err := s.im.VerifyAccess(ctx, rule.RuleId, "holder.eth")
	s.Require().NoError(err)
	s.True(res.HasAccess)
	s.Equal(s.holder, res.User)

	_, err = s.im.VerifyAccess(ctx, rule.RuleId, "nobody")
	s.Equal(domain.ErrInvalidAddress, err)
}

func (s *accessRuleSuite) TestBatchVerifyMatchesSingleVerify() {
	rule := s.createRule(2, 0)
	ctx := bCtx.Background()

	rich := domain.Address("0x000000000000000000000000000000000000dddd")
	granted := domain.Address("0x000000000000000000000000000000000000eeee")
	s.setBalance(rich, 3)
	s.Require().NoError(s.im.GrantAccess(ctx, rule.RuleId, s.creator, granted))

	users := []string{string(s.holder), string(rich), string(granted)}
	batch, err := s.im.BatchVerifyAccess(ctx, rule.RuleId, users)
	s.Require().NoError(err)
	s.Require().Len(batch, len(users))

	for i, user := range users {
		single, err := s.im.VerifyAccess(ctx, rule.RuleId, user)
		s.Require().NoError(err)
		s.Equal(single.HasAccess, batch[i].HasAccess, user)
		s.Equal(single.Reason, batch[i].Reason, user)
		s.Equal(domain.Address(user), batch[i].User)
	}
}

func (s *accessRuleSuite) TestGetRuleIdsByCreator() {
	first := s.createRule(1, 0)
	ctx := bCtx.Background()

	other := domain.Address("0x000000000000000000000000000000000000ffff")
	second, err := s.im.CreateRule(ctx, other, accessrule.CreatePayload{
		ContentType: "audio",
		RequiredCollections: []accessrule.CollectionRef{
			{ChainId: 1, ContractAddress: s.gated.Address},
		},
		MinimumBalances: []int64{1},
	})
	s.Require().NoError(err)

	all, err := s.im.GetRuleIds(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	mine, err := s.im.GetRuleIdsByCreator(ctx, s.creator)
	s.Require().NoError(err)
	s.Equal([]string{first.RuleId}, mine)

	theirs, err := s.im.GetRuleIdsByCreator(ctx, other)
	s.Require().NoError(err)
	s.Equal([]string{second.RuleId}, theirs)
}
