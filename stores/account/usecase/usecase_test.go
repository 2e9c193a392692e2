package usecase

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/ethereum"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/account"
)

type fakeAccountRepo struct {
	accounts map[domain.Address]*account.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[domain.Address]*account.Account{}}
}

func (r *fakeAccountRepo) Get(c bCtx.Ctx, address domain.Address) (*account.Account, error) {
	a, ok := r.accounts[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) Insert(c bCtx.Ctx, a *account.Account) error {
	addr := a.Address.ToLower()
	if _, ok := r.accounts[addr]; ok {
		return domain.ErrConflict
	}
	cp := *a
	cp.Address = addr
	r.accounts[addr] = &cp
	return nil
}

func (r *fakeAccountRepo) Update(c bCtx.Ctx, address domain.Address, updater *account.Updater) error {
	a, ok := r.accounts[address.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if updater.Alias != nil {
		a.Alias = *updater.Alias
	}
	a.Nonce = updater.Nonce
	return nil
}

const signatureMsg = "sign in with nonce %s"

type accountSuite struct {
	suite.Suite

	repo *fakeAccountRepo
	im   account.Usecase
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(accountSuite))
}

func (s *accountSuite) SetupTest() {
	s.repo = newFakeAccountRepo()
	s.im = New(&AccountUseCaseCfg{
		Repo:         s.repo,
		SignatureMsg: signatureMsg,
	})
}

func (s *accountSuite) TestGenerateNonceCreatesAccount() {
	ctx := bCtx.Background()
	address := domain.Address("0x000000000000000000000000000000000000AAAA")

	nonce, err := s.im.GenerateNonce(ctx, address)
	s.Require().NoError(err)
	s.GreaterOrEqual(nonce, int32(0))

	a, err := s.repo.Get(ctx, address)
	s.Require().NoError(err)
	s.Equal(nonce, a.Nonce)
}

func (s *accountSuite) TestValidateSignature() {
	ctx := bCtx.Background()

	privateKey, publicKey, err := ethereum.GenerateKey()
	s.Require().NoError(err)
	address := domain.Address(crypto.PubkeyToAddress(*publicKey).Hex())

	// signing before requesting a nonce is rejected
	_, err = s.im.Create(ctx, address)
	s.Require().NoError(err)
	s.Equal(account.ErrInvalidNonce, s.im.ValidateSignature(ctx, address, "0x00"))

	nonce, err := s.im.GenerateNonce(ctx, address)
	s.Require().NoError(err)

	message := []byte(fmt.Sprintf(signatureMsg, fmt.Sprint(nonce)))
	signature, err := crypto.Sign(accounts.TextHash(message), privateKey)
	s.Require().NoError(err)

	s.NoError(s.im.ValidateSignature(ctx, address, hexutil.Encode(signature)))

	// the nonce is single use
	s.Equal(account.ErrInvalidNonce, s.im.ValidateSignature(ctx, address, hexutil.Encode(signature)))
}

func (s *accountSuite) TestValidateSignatureWrongSigner() {
	ctx := bCtx.Background()

	_, publicKey, err := ethereum.GenerateKey()
	s.Require().NoError(err)
	address := domain.Address(crypto.PubkeyToAddress(*publicKey).Hex())

	otherKey, _, err := ethereum.GenerateKey()
	s.Require().NoError(err)

	nonce, err := s.im.GenerateNonce(ctx, address)
	s.Require().NoError(err)

	message := []byte(fmt.Sprintf(signatureMsg, fmt.Sprint(nonce)))
	signature, err := crypto.Sign(accounts.TextHash(message), otherKey)
	s.Require().NoError(err)

	s.Equal(account.ErrInvalidSignature, s.im.ValidateSignature(ctx, address, hexutil.Encode(signature)))
}

func (s *accountSuite) TestUpdateAlias() {
	ctx := bCtx.Background()
	address := domain.Address("0x000000000000000000000000000000000000AAAA")

	_, err := s.im.Create(ctx, address)
	s.Require().NoError(err)

	alias := "collector"
	info, err := s.im.Update(ctx, address, &account.Updater{Alias: &alias})
	s.Require().NoError(err)
	s.Equal(alias, info.Alias)
}
