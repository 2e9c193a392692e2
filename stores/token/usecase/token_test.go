package usecase

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/service/chain/contract"
)

type fakeTokenRepo struct {
	tokens map[token.Id]token.Token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[token.Id]token.Token{}}
}

func (r *fakeTokenRepo) FindOne(c bCtx.Ctx, id token.Id) (*token.Token, error) {
	t, ok := r.tokens[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTokenRepo) FindAll(c bCtx.Ctx, opts ...token.FindAllOptionsFunc) ([]token.Token, error) {
	res := []token.Token{}
	for _, t := range r.tokens {
		res = append(res, t)
	}
	return res, nil
}

func (r *fakeTokenRepo) Count(c bCtx.Ctx, opts ...token.FindAllOptionsFunc) (int, error) {
	options, err := token.GetFindAllOptions(opts...)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, t := range r.tokens {
		if options.Owner != nil && !t.Owner.Equals(*options.Owner) {
			continue
		}
		if options.ContractAddress != nil && !t.ContractAddress.Equals(*options.ContractAddress) {
			continue
		}
		if options.ChainId != nil && t.ChainId != *options.ChainId {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeTokenRepo) Create(c bCtx.Ctx, t token.Token) error {
	id := t.ToId()
	if _, ok := r.tokens[id]; ok {
		return domain.ErrConflict
	}
	r.tokens[id] = t
	return nil
}

func (r *fakeTokenRepo) UpdateOwner(c bCtx.Ctx, id token.Id, owner domain.Address) error {
	t, ok := r.tokens[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Owner = owner.ToLower()
	r.tokens[id] = t
	return nil
}

type fakeContentGrantRepo struct {
	grants map[token.ContentGrantId]token.ContentGrant
}

func newFakeContentGrantRepo() *fakeContentGrantRepo {
	return &fakeContentGrantRepo{grants: map[token.ContentGrantId]token.ContentGrant{}}
}

func (r *fakeContentGrantRepo) FindOne(c bCtx.Ctx, id token.ContentGrantId) (*token.ContentGrant, error) {
	g, ok := r.grants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (r *fakeContentGrantRepo) Upsert(c bCtx.Ctx, grant token.ContentGrant) error {
	r.grants[token.ContentGrantId{
		ChainId:         grant.ChainId,
		ContractAddress: grant.ContractAddress,
		TokenId:         grant.TokenId,
		Tag:             grant.Tag,
	}] = grant
	return nil
}

type fakeCollectionRepo struct {
	collection.Repo
	hosted map[collection.CollectionId]bool
}

func (r *fakeCollectionRepo) FindOne(c bCtx.Ctx, id collection.CollectionId) (*collection.Collection, error) {
	if !r.hosted[id.ToLower()] {
		return nil, domain.ErrNotFound
	}
	return &collection.Collection{ChainId: id.ChainId, ContractAddress: id.Address}, nil
}

// fakeErc721 serves external contracts from fixed tables keyed by
// contract address.
type fakeErc721 struct {
	contract.Erc721Contract
	balances map[string]int64
	owners   map[string]string
}

func chainKey(chainId int32, addr, suffix string) string {
	return fmt.Sprintf("%d:%s:%s", chainId, addr, suffix)
}

func (f *fakeErc721) BalanceOf(c bCtx.Ctx, chainId int32, addr, owner string) (*big.Int, error) {
	return big.NewInt(f.balances[chainKey(chainId, addr, owner)]), nil
}

func (f *fakeErc721) OwnerOf(c bCtx.Ctx, chainId int32, addr string, tokenId *big.Int) (string, error) {
	owner, ok := f.owners[chainKey(chainId, addr, tokenId.String())]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
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

type tokenSuite struct {
	suite.Suite

	tokens  *fakeTokenRepo
	grants  *fakeContentGrantRepo
	cols    *fakeCollectionRepo
	erc721  *fakeErc721
	events  *fakeEventRepo
	im      token.Usecase
	holder  domain.Address
	hosted  collection.CollectionId
	foreign collection.CollectionId
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(tokenSuite))
}

func (s *tokenSuite) SetupTest() {
	s.holder = domain.Address("0x000000000000000000000000000000000000bbbb")
	s.hosted = collection.CollectionId{ChainId: 1, Address: "0x00000000000000000000000000000000000000c1"}
	s.foreign = collection.CollectionId{ChainId: 1, Address: "0x00000000000000000000000000000000000000c2"}

	s.tokens = newFakeTokenRepo()
	s.grants = newFakeContentGrantRepo()
	s.cols = &fakeCollectionRepo{hosted: map[collection.CollectionId]bool{s.hosted: true}}
	s.erc721 = &fakeErc721{balances: map[string]int64{}, owners: map[string]string{}}
	s.events = &fakeEventRepo{}
	s.im = New(&TokenUseCaseCfg{
		TokenRepo:        s.tokens,
		ContentGrantRepo: s.grants,
		CollectionRepo:   s.cols,
		Erc721:           s.erc721,
		EventRepo:        s.events,
	})
}

func (s *tokenSuite) mint(tokenId domain.TokenId, owner domain.Address) {
	s.Require().NoError(s.tokens.Create(bCtx.Background(), token.Token{
		ChainId:         s.hosted.ChainId,
		ContractAddress: s.hosted.Address,
		TokenId:         tokenId,
		Owner:           owner.ToLower(),
		MintPhase:       collection.PhasePublic,
		MintedAt:        time.Now(),
	}))
}

func (s *tokenSuite) TestBalanceOfHosted() {
	s.mint("0", s.holder)
	s.mint("1", s.holder)
	s.mint("2", "0x000000000000000000000000000000000000cccc")

	balance, err := s.im.BalanceOf(bCtx.Background(), s.hosted, s.holder)
	s.Require().NoError(err)
	s.Equal(2, balance)
}

func (s *tokenSuite) TestBalanceOfExternal() {
	s.erc721.balances[chainKey(1, string(s.foreign.Address), s.holder.ToLowerStr())] = 7

	balance, err := s.im.BalanceOf(bCtx.Background(), s.foreign, s.holder)
	s.Require().NoError(err)
	s.Equal(7, balance)
}

func (s *tokenSuite) TestOwnerOfHosted() {
	s.mint("5", s.holder)

	owner, err := s.im.OwnerOf(bCtx.Background(), token.Id{
		ChainId:         s.hosted.ChainId,
		ContractAddress: s.hosted.Address,
		TokenId:         "5",
	})
	s.Require().NoError(err)
	s.Equal(s.holder, owner)
}

func (s *tokenSuite) TestOwnerOfExternal() {
	external := "0x000000000000000000000000000000000000DDDD"
	s.erc721.owners[chainKey(1, string(s.foreign.Address), "9")] = external

	owner, err := s.im.OwnerOf(bCtx.Background(), token.Id{
		ChainId:         s.foreign.ChainId,
		ContractAddress: s.foreign.Address,
		TokenId:         "9",
	})
	s.Require().NoError(err)
	s.Equal(domain.Address(external).ToLower(), owner)
}

func (s *tokenSuite) TestTransfer() {
	s.mint("0", s.holder)
	ctx := bCtx.Background()
	id := token.Id{ChainId: s.hosted.ChainId, ContractAddress: s.hosted.Address, TokenId: "0"}
	to := domain.Address("0x000000000000000000000000000000000000cccc")

	err := s.im.Transfer(ctx, id, to, s.holder)
	s.Equal(domain.ErrNotTokenOwner, err)

	s.Require().NoError(s.im.Transfer(ctx, id, s.holder, to))
	owner, err := s.im.OwnerOf(ctx, id)
	s.Require().NoError(err)
	s.Equal(to, owner)

	// previous owner can no longer move it
	err = s.im.Transfer(ctx, id, s.holder, s.holder)
	s.Equal(domain.ErrNotTokenOwner, err)
}

func (s *tokenSuite) TestVerifyOwnership() {
	s.mint("0", s.holder)
	ctx := bCtx.Background()
	id := token.Id{ChainId: s.hosted.ChainId, ContractAddress: s.hosted.Address, TokenId: "0"}

	res, err := s.im.VerifyOwnership(ctx, id, s.holder)
	s.Require().NoError(err)
	s.True(res.IsOwner)
	s.Equal(s.holder, res.Owner)

	res, err = s.im.VerifyOwnership(ctx, id, "0x000000000000000000000000000000000000cccc")
	s.Require().NoError(err)
	s.False(res.IsOwner)

	// unknown token verifies to false instead of erroring
	res, err = s.im.VerifyOwnership(ctx, token.Id{
		ChainId:         s.hosted.ChainId,
		ContractAddress: s.hosted.Address,
		TokenId:         "999",
	}, s.holder)
	s.Require().NoError(err)
	s.False(res.IsOwner)
}

func (s *tokenSuite) TestBatchVerifyOwnership() {
	s.mint("0", s.holder)
	s.mint("1", "0x000000000000000000000000000000000000cccc")
	s.mint("2", s.holder)

	res, err := s.im.BatchVerifyOwnership(bCtx.Background(), s.hosted, []domain.TokenId{"0", "1", "2", "404"}, s.holder)
	s.Require().NoError(err)
	s.Require().Len(res, 4)
	s.True(res[0].IsOwner)
	s.False(res[1].IsOwner)
	s.True(res[2].IsOwner)
	s.False(res[3].IsOwner)
}

func (s *tokenSuite) TestContentGrant() {
	s.mint("0", s.holder)
	ctx := bCtx.Background()
	id := token.Id{ChainId: s.hosted.ChainId, ContractAddress: s.hosted.Address, TokenId: "0"}

	s.Equal(domain.ErrBadParamInput, s.im.SetContentGrant(ctx, id, s.holder, "", true))

	other := domain.Address("0x000000000000000000000000000000000000cccc")
	s.Equal(domain.ErrNotTokenOwner, s.im.SetContentGrant(ctx, id, other, "bonus", true))

	s.Require().NoError(s.im.SetContentGrant(ctx, id, s.holder, "bonus", true))
	grant, err := s.im.GetContentGrant(ctx, id, "bonus")
	s.Require().NoError(err)
	s.True(grant.Granted)

	s.Require().NoError(s.im.SetContentGrant(ctx, id, s.holder, "bonus", false))
	grant, err = s.im.GetContentGrant(ctx, id, "bonus")
	s.Require().NoError(err)
	s.False(grant.Granted)

	_, err = s.im.GetContentGrant(ctx, id, "other-tag")
	s.Equal(domain.ErrNotFound, err)
}
