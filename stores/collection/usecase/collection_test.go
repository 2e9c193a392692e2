package usecase

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/merkle"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/domain/whitelist"
)

type fakeCollectionRepo struct {
	cols map[collection.CollectionId]*collection.Collection
}

func newFakeCollectionRepo() *fakeCollectionRepo {
	return &fakeCollectionRepo{cols: map[collection.CollectionId]*collection.Collection{}}
}

func (r *fakeCollectionRepo) FindOne(c bCtx.Ctx, id collection.CollectionId) (*collection.Collection, error) {
	col, ok := r.cols[id.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *col
	return &cp, nil
}

func (r *fakeCollectionRepo) FindAll(c bCtx.Ctx, opts ...collection.FindAllOptionsFunc) ([]collection.Collection, error) {
	res := []collection.Collection{}
	for _, col := range r.cols {
		res = append(res, *col)
	}
	return res, nil
}

func (r *fakeCollectionRepo) Create(c bCtx.Ctx, col collection.Collection) error {
	id := col.ToId()
	if _, ok := r.cols[id]; ok {
		return domain.ErrConflict
	}
	r.cols[id] = &col
	return nil
}

func (r *fakeCollectionRepo) Patch(c bCtx.Ctx, id collection.CollectionId, patch collection.UpdatePayload) error {
	col, ok := r.cols[id.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Phase != nil {
		col.Phase = *patch.Phase
	}
	if patch.MintPrice != nil {
		col.MintPrice = *patch.MintPrice
	}
	if patch.Paused != nil {
		col.Paused = *patch.Paused
	}
	if patch.Balance != nil {
		col.Balance = *patch.Balance
	}
	if patch.WhitelistRoot != nil {
		col.WhitelistRoot = *patch.WhitelistRoot
	}
	if patch.WhitelistLimit != nil {
		col.WhitelistLimit = *patch.WhitelistLimit
	}
	if patch.PublicLimit != nil {
		col.PublicLimit = *patch.PublicLimit
	}
	if patch.MaxBatchSize != nil {
		col.MaxBatchSize = *patch.MaxBatchSize
	}
	return nil
}

func (r *fakeCollectionRepo) IncrementSupply(c bCtx.Ctx, id collection.CollectionId, quantity int64) error {
	col, ok := r.cols[id.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if col.TotalSupply+quantity > col.MaxSupply {
		return domain.ErrSupplyExceeded
	}
	col.TotalSupply += quantity
	return nil
}

func (r *fakeCollectionRepo) SetMaxSupply(c bCtx.Ctx, id collection.CollectionId, maxSupply int64) error {
	col, ok := r.cols[id.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if col.TotalSupply > maxSupply {
		return domain.ErrMaxSupplyBelowSupply
	}
	col.MaxSupply = maxSupply
	return nil
}

type fakeMintCountRepo struct {
	counts map[collection.MintCountId]int64
}

func newFakeMintCountRepo() *fakeMintCountRepo {
	return &fakeMintCountRepo{counts: map[collection.MintCountId]int64{}}
}

func (r *fakeMintCountRepo) FindOne(c bCtx.Ctx, id collection.MintCountId) (*collection.MintCount, error) {
	count, ok := r.counts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &collection.MintCount{
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		Minter:          id.Minter,
		Phase:           id.Phase,
		Count:           count,
	}, nil
}

func (r *fakeMintCountRepo) FindByMinter(c bCtx.Ctx, id collection.CollectionId, minter domain.Address) ([]collection.MintCount, error) {
	res := []collection.MintCount{}
	for mcId, count := range r.counts {
		if mcId.ChainId == id.ChainId && mcId.ContractAddress.Equals(id.Address) && mcId.Minter.Equals(minter) {
			res = append(res, collection.MintCount{
				ChainId:         mcId.ChainId,
				ContractAddress: mcId.ContractAddress,
				Minter:          mcId.Minter,
				Phase:           mcId.Phase,
				Count:           count,
			})
		}
	}
	return res, nil
}

func (r *fakeMintCountRepo) Increment(c bCtx.Ctx, id collection.MintCountId, delta int64) error {
	r.counts[id] += delta
	return nil
}

type fakeClaimRepo struct {
	claims map[whitelist.ClaimId]int64
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: map[whitelist.ClaimId]int64{}}
}

func (r *fakeClaimRepo) FindOne(c bCtx.Ctx, id whitelist.ClaimId) (*whitelist.Claim, error) {
	claimed, ok := r.claims[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &whitelist.Claim{
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		Root:            id.Root,
		Claimer:         id.Claimer,
		Claimed:         claimed,
	}, nil
}

func (r *fakeClaimRepo) Increment(c bCtx.Ctx, id whitelist.ClaimId, delta int64) error {
	r.claims[id] += delta
	return nil
}

type fakeTokenRepo struct {
	tokens    map[token.Id]token.Token
	createErr error
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
	if r.createErr != nil {
		return r.createErr
	}
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

func (r *fakeEventRepo) typesOf() []event.Type {
	types := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

type collectionSuite struct {
	suite.Suite

	cols   *fakeCollectionRepo
	counts *fakeMintCountRepo
	claims *fakeClaimRepo
	tokens *fakeTokenRepo
	events *fakeEventRepo
	im     collection.Usecase

	owner  domain.Address
	minter domain.Address
	id     collection.CollectionId
}

func TestCollectionSuite(t *testing.T) {
	suite.Run(t, new(collectionSuite))
}

func (s *collectionSuite) SetupTest() {
	s.cols = newFakeCollectionRepo()
	s.counts = newFakeMintCountRepo()
	s.claims = newFakeClaimRepo()
	s.tokens = newFakeTokenRepo()
	s.events = &fakeEventRepo{}
	s.im = NewCollection(&CollectionUseCaseCfg{
		CollectionRepo: s.cols,
		MintCountRepo:  s.counts,
		ClaimRepo:      s.claims,
		TokenRepo:      s.tokens,
		EventRepo:      s.events,
	})
	s.owner = domain.Address("0x000000000000000000000000000000000000aaaa")
	s.minter = domain.Address("0x000000000000000000000000000000000000bbbb")
	s.id = collection.CollectionId{ChainId: 1, Address: "0x00000000000000000000000000000000000000c1"}
}

func (s *collectionSuite) register(maxSupply int64, price string) *collection.Collection {
	col, err := s.im.Register(bCtx.Background(), s.owner, collection.RegisterPayload{
		ChainId:         s.id.ChainId,
		ContractAddress: s.id.Address,
		Name:            "Doodlers",
		Symbol:          "DDL",
		MaxSupply:       maxSupply,
		MintPrice:       price,
	})
	s.Require().NoError(err)
	return col
}

func (s *collectionSuite) TestRegisterDefaults() {
	col := s.register(100, "")
	s.Equal(collection.PhaseClosed, col.Phase)
	s.Equal("0", col.MintPrice)
	s.Equal("0", col.Balance)
	s.Equal(int64(0), col.TotalSupply)
	s.Equal(collection.DefaultMaxBatchSize, col.MaxBatchSize)
	s.Equal(s.owner, col.Owner)
	s.Equal([]event.Type{event.TypeCollectionRegistered}, s.events.typesOf())
}

func (s *collectionSuite) TestRegisterRejectsBadPayloads() {
	ctx := bCtx.Background()
	_, err := s.im.Register(ctx, s.owner, collection.RegisterPayload{
		ChainId: 1, ContractAddress: s.id.Address, Name: "n", Symbol: "s", MaxSupply: 0,
	})
	s.Equal(domain.ErrBadParamInput, err)

	_, err = s.im.Register(ctx, s.owner, collection.RegisterPayload{
		ChainId: 1, ContractAddress: s.id.Address, Name: "", Symbol: "s", MaxSupply: 10,
	})
	s.Equal(domain.ErrBadParamInput, err)

	_, err = s.im.Register(ctx, s.owner, collection.RegisterPayload{
		ChainId: 1, ContractAddress: s.id.Address, Name: "n", Symbol: "s", MaxSupply: 10, MintPrice: "-1",
	})
	s.Equal(domain.ErrBadParamInput, err)
}

func (s *collectionSuite) TestRegisterConflict() {
	s.register(100, "0")
	_, err := s.im.Register(bCtx.Background(), s.owner, collection.RegisterPayload{
		ChainId:         s.id.ChainId,
		ContractAddress: s.id.Address,
		Name:            "Doodlers",
		Symbol:          "DDL",
		MaxSupply:       100,
	})
	s.Equal(domain.ErrConflict, err)
}

func (s *collectionSuite) TestSetPhase() {
	s.register(100, "0")
	ctx := bCtx.Background()

	s.Equal(domain.ErrBadParamInput, s.im.SetPhase(ctx, s.id, s.owner, collection.MintPhase("presale")))
	s.Equal(domain.ErrUnauthorized, s.im.SetPhase(ctx, s.id, s.minter, collection.PhasePublic))

	s.NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))
	info, err := s.im.Get(ctx, s.id)
	s.Require().NoError(err)
	s.Equal(collection.PhasePublic, info.Phase)

	// setting the current phase again is a no-op and appends no event
	before := len(s.events.events)
	s.NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))
	s.Equal(before, len(s.events.events))
}

func (s *collectionSuite) TestSetMaxSupply() {
	s.register(10, "0")
	ctx := bCtx.Background()

	_, err := s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 5)
	s.Require().NoError(err)

	s.Equal(domain.ErrMaxSupplyBelowSupply, s.im.SetMaxSupply(ctx, s.id, s.owner, 4))
	s.NoError(s.im.SetMaxSupply(ctx, s.id, s.owner, 5))
	s.NoError(s.im.SetMaxSupply(ctx, s.id, s.owner, 20))
}

func (s *collectionSuite) TestOwnerMint() {
	s.register(10, "5")
	ctx := bCtx.Background()

	_, err := s.im.OwnerMint(ctx, s.id, s.minter, s.minter, 1)
	s.Equal(domain.ErrUnauthorized, err)

	// free and allowed while closed
	res, err := s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 3)
	s.Require().NoError(err)
	s.Equal([]domain.TokenId{"0", "1", "2"}, res.TokenIds)
	s.Equal("0", res.Cost)
	s.Equal(int64(3), res.Supply)

	res, err = s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 2)
	s.Require().NoError(err)
	s.Equal([]domain.TokenId{"3", "4"}, res.TokenIds)

	// owner mints are exempt from per phase counters
	counts, err := s.im.GetMintCounts(ctx, s.id, s.minter)
	s.Require().NoError(err)
	s.Empty(counts)
}

func (s *collectionSuite) TestOwnerMintSupplyCap() {
	s.register(4, "0")
	ctx := bCtx.Background()

	_, err := s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 3)
	s.Require().NoError(err)
	_, err = s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 2)
	s.Equal(domain.ErrSupplyExceeded, err)
	_, err = s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 1)
	s.NoError(err)
}

func (s *collectionSuite) TestPublicMint() {
	s.register(100, "2")
	ctx := bCtx.Background()

	_, err := s.im.PublicMint(ctx, s.id, s.minter, 2, "4")
	s.Equal(domain.ErrWrongPhase, err)

	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	_, err = s.im.PublicMint(ctx, s.id, s.minter, 2, "3")
	s.Equal(domain.ErrInsufficientPayment, err)

	res, err := s.im.PublicMint(ctx, s.id, s.minter, 2, "5")
	s.Require().NoError(err)
	s.Equal("4", res.Cost)
	s.Equal("1", res.Refund)
	s.Equal([]domain.TokenId{"0", "1"}, res.TokenIds)

	info, err := s.im.Get(ctx, s.id)
	s.Require().NoError(err)
	s.Equal("4", info.Balance)
	s.Equal(int64(2), info.TotalSupply)

	counts, err := s.im.GetMintCounts(ctx, s.id, s.minter)
	s.Require().NoError(err)
	s.Equal(int64(2), counts[collection.PhasePublic])
}

func (s *collectionSuite) TestPublicMintUserLimit() {
	s.register(100, "0")
	ctx := bCtx.Background()
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	limit := int64(3)
	s.Require().NoError(s.cols.Patch(ctx, s.id, collection.UpdatePayload{PublicLimit: &limit}))

	_, err := s.im.PublicMint(ctx, s.id, s.minter, 2, "0")
	s.Require().NoError(err)
	_, err = s.im.PublicMint(ctx, s.id, s.minter, 2, "0")
	s.Equal(domain.ErrExceedsUserLimit, err)
	_, err = s.im.PublicMint(ctx, s.id, s.minter, 1, "0")
	s.NoError(err)

	// other minters are unaffected
	_, err = s.im.PublicMint(ctx, s.id, s.owner, 3, "0")
	s.NoError(err)
}

func (s *collectionSuite) TestMintBatchLimit() {
	s.register(100, "0")
	ctx := bCtx.Background()
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	_, err := s.im.PublicMint(ctx, s.id, s.minter, collection.DefaultMaxBatchSize+1, "0")
	s.Equal(domain.ErrExceedsBatchLimit, err)
	_, err = s.im.PublicMint(ctx, s.id, s.minter, 0, "0")
	s.Equal(domain.ErrBadParamInput, err)
}

func (s *collectionSuite) TestPauseBlocksMinting() {
	s.register(100, "0")
	ctx := bCtx.Background()
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))
	s.Require().NoError(s.im.SetPaused(ctx, s.id, s.owner, true))

	_, err := s.im.PublicMint(ctx, s.id, s.minter, 1, "0")
	s.Equal(domain.ErrPaused, err)
	_, err = s.im.OwnerMint(ctx, s.id, s.owner, s.minter, 1)
	s.Equal(domain.ErrPaused, err)

	s.Require().NoError(s.im.SetPaused(ctx, s.id, s.owner, false))
	_, err = s.im.PublicMint(ctx, s.id, s.minter, 1, "0")
	s.NoError(err)
}

func (s *collectionSuite) whitelistOf(entries map[domain.Address]int64) (*merkle.Tree, []domain.Address, []int64) {
	claimers := make([]domain.Address, 0, len(entries))
	allowances := make([]int64, 0, len(entries))
	leaves := make([]common.Hash, 0, len(entries))
	for claimer, allowance := range entries {
		claimers = append(claimers, claimer)
		allowances = append(allowances, allowance)
		leaves = append(leaves, merkle.AllocationLeaf(claimer, allowance))
	}
	return merkle.NewTree(leaves), claimers, allowances
}

func hexProof(proof []common.Hash) []string {
	res := make([]string, len(proof))
	for i, p := range proof {
		res[i] = p.Hex()
	}
	return res
}

func (s *collectionSuite) TestWhitelistMint() {
	s.register(100, "1")
	ctx := bCtx.Background()

	other := domain.Address("0x000000000000000000000000000000000000cccc")
	tree, claimers, allowances := s.whitelistOf(map[domain.Address]int64{
		s.minter: 3,
		other:    1,
	})
	root := tree.Root().Hex()

	s.Require().NoError(s.im.SetWhitelist(ctx, s.id, s.owner, root, 0))
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhaseWhitelist))

	idx := 0
	for i, claimer := range claimers {
		if claimer.Equals(s.minter) {
			idx = i
		}
	}
	proof := hexProof(tree.Proof(idx))
	allowance := allowances[idx]
	s.Require().Equal(int64(3), allowance)

	// proof for a different allowance fails
	_, err := s.im.WhitelistMint(ctx, s.id, s.minter, 1, "1", allowance+5, proof)
	s.Equal(domain.ErrInvalidProof, err)

	// claims accumulate until the allowance is exhausted
	res, err := s.im.WhitelistMint(ctx, s.id, s.minter, 2, "2", allowance, proof)
	s.Require().NoError(err)
	s.Equal([]domain.TokenId{"0", "1"}, res.TokenIds)

	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 2, "2", allowance, proof)
	s.Equal(domain.ErrExceedsWhitelistAllocation, err)

	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 1, "1", allowance, proof)
	s.NoError(err)
}

func (s *collectionSuite) TestWhitelistMintRequiresRootAndPhase() {
	s.register(100, "0")
	ctx := bCtx.Background()

	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhaseWhitelist))
	_, err := s.im.WhitelistMint(ctx, s.id, s.minter, 1, "0", 1, nil)
	s.Equal(domain.ErrWhitelistNotConfigured, err)

	tree, _, _ := s.whitelistOf(map[domain.Address]int64{s.minter: 1})
	s.Require().NoError(s.im.SetWhitelist(ctx, s.id, s.owner, tree.Root().Hex(), 0))
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 1, "0", 1, hexProof(tree.Proof(0)))
	s.Equal(domain.ErrWrongPhase, err)
}

func (s *collectionSuite) TestWhitelistRootReplacementResetsClaims() {
	s.register(100, "0")
	ctx := bCtx.Background()

	tree, _, _ := s.whitelistOf(map[domain.Address]int64{s.minter: 2})
	s.Require().NoError(s.im.SetWhitelist(ctx, s.id, s.owner, tree.Root().Hex(), 0))
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhaseWhitelist))

	proof := hexProof(tree.Proof(0))
	_, err := s.im.WhitelistMint(ctx, s.id, s.minter, 2, "0", 2, proof)
	s.Require().NoError(err)
	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 1, "0", 2, proof)
	s.Equal(domain.ErrExceedsWhitelistAllocation, err)

	// a fresh root starts the minter's consumption from zero
	other := domain.Address("0x000000000000000000000000000000000000cccc")
	tree2, claimers, _ := s.whitelistOf(map[domain.Address]int64{s.minter: 2, other: 1})
	s.Require().NoError(s.im.SetWhitelist(ctx, s.id, s.owner, tree2.Root().Hex(), 0))

	idx := 0
	for i, claimer := range claimers {
		if claimer.Equals(s.minter) {
			idx = i
		}
	}
	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 2, "0", 2, hexProof(tree2.Proof(idx)))
	s.NoError(err)
}

func (s *collectionSuite) TestWhitelistClaimSpentBeforeMint() {
	s.register(100, "0")
	ctx := bCtx.Background()

	tree, _, _ := s.whitelistOf(map[domain.Address]int64{s.minter: 2})
	root := tree.Root().Hex()
	s.Require().NoError(s.im.SetWhitelist(ctx, s.id, s.owner, root, 0))
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhaseWhitelist))
	proof := hexProof(tree.Proof(0))

	// a write failure after the claim is recorded must leave the
	// allowance consumed, never mintable again
	s.tokens.createErr = errors.New("write failed")
	_, err := s.im.WhitelistMint(ctx, s.id, s.minter, 2, "0", 2, proof)
	s.Require().Error(err)

	claimId := whitelist.ClaimId{
		ChainId:         s.id.ChainId,
		ContractAddress: s.id.Address,
		Root:            root,
		Claimer:         s.minter,
	}
	claim, err := s.claims.FindOne(ctx, claimId)
	s.Require().NoError(err)
	s.Equal(int64(2), claim.Claimed)

	s.tokens.createErr = nil
	_, err = s.im.WhitelistMint(ctx, s.id, s.minter, 1, "0", 2, proof)
	s.Equal(domain.ErrExceedsWhitelistAllocation, err)
}

func (s *collectionSuite) TestSetWhitelistRejectsMalformedRoot() {
	s.register(100, "0")
	ctx := bCtx.Background()
	s.Equal(domain.ErrBadParamInput, s.im.SetWhitelist(ctx, s.id, s.owner, "not-a-root", 0))
	s.Equal(domain.ErrBadParamInput, s.im.SetWhitelist(ctx, s.id, s.owner, "0x1234", 0))
}

func (s *collectionSuite) TestWithdraw() {
	s.register(100, "3")
	ctx := bCtx.Background()
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	_, err := s.im.PublicMint(ctx, s.id, s.minter, 2, "6")
	s.Require().NoError(err)

	_, err = s.im.Withdraw(ctx, s.id, s.minter)
	s.Equal(domain.ErrUnauthorized, err)

	amount, err := s.im.Withdraw(ctx, s.id, s.owner)
	s.Require().NoError(err)
	s.Equal("6", amount)

	// drained, second withdrawal pays nothing
	amount, err = s.im.Withdraw(ctx, s.id, s.owner)
	s.Require().NoError(err)
	s.Equal("0", amount)
}

func (s *collectionSuite) TestMintedTokensRecordPhaseAndOwner() {
	s.register(100, "0")
	ctx := bCtx.Background()
	s.Require().NoError(s.im.SetPhase(ctx, s.id, s.owner, collection.PhasePublic))

	_, err := s.im.PublicMint(ctx, s.id, s.minter, 1, "0")
	s.Require().NoError(err)

	t, err := s.tokens.FindOne(ctx, token.Id{ChainId: s.id.ChainId, ContractAddress: s.id.Address, TokenId: "0"})
	s.Require().NoError(err)
	s.Equal(s.minter, t.Owner)
	s.Equal(collection.PhasePublic, t.MintPhase)
}
