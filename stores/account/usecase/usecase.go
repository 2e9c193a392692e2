package usecase

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/ethereum"
	"github.com/mintgate/goapi/base/log"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/account"
)

const (
	nonceRange   = int32(9999999)
	invalidNonce = int32(-1)
)

type AccountUseCaseCfg struct {
	Repo         account.Repo
	SignatureMsg string
}

type impl struct {
	repo         account.Repo
	signatureMsg string
}

// New creates account usecase
func New(cfg *AccountUseCaseCfg) account.Usecase {
	return &impl{
		repo:         cfg.Repo,
		signatureMsg: cfg.SignatureMsg,
	}
}

func (im *impl) Get(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	a, err := im.repo.Get(c, address)
	if err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("get address error")
		return nil, err
	}
	return a.ToInfo(), nil
}

func (im *impl) Update(c ctx.Ctx, address domain.Address, a *account.Updater) (*account.Info, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"address": address,
		"alias":   a.Alias,
	})
	a.UpdatedAt = time.Now()
	if err := im.repo.Update(c, address, a); err != nil {
		c.WithField("err", err).Error("repo.Update failed")
		return nil, err
	}
	return im.Get(c, address)
}

func (im *impl) Create(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"address": address,
	})
	new, err := im.create(c, address)
	if err != nil {
		return nil, err
	}
	return new.ToInfo(), nil
}

func (im *impl) create(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	now := time.Now()
	new := &account.Account{
		Address:   address,
		Nonce:     invalidNonce,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := im.repo.Insert(c, new); err != nil {
		c.WithField("err", err).Error("repo.Insert failed")
		return nil, err
	}
	return new, nil
}

func (im *impl) GenerateNonce(c ctx.Ctx, address domain.Address) (int32, error) {
	c = ctx.WithValue(c, "address", address)
	if _, err := im.Get(c, address); err != nil && err != domain.ErrNotFound {
		c.WithField("err", err).Error("get account failed")
		return 0, err
	} else if err == domain.ErrNotFound {
		// if the account doesn't exist, create an empty account
		if _, err := im.Create(c, address); err != nil {
			c.WithField("err", err).Error("im.Create account failed")
			return 0, err
		}
		c.Info("created new account")
	}

	nonce := im.genNonce()
	if err := im.repo.Update(c, address, &account.Updater{
		Nonce: nonce,
	}); err != nil {
		c.WithField("err", err).Error("repo.Update failed")
		return 0, err
	}
	return nonce, nil
}

func (im *impl) ValidateSignature(c ctx.Ctx, address domain.Address, signature string) error {
	c = ctx.WithValues(c, map[string]interface{}{
		"address":   address,
		"signature": signature,
	})

	// get nonce and check is it valid
	a, err := im.repo.Get(c, address)
	if err != nil {
		c.WithField("err", err).Error("get address failed")
		return err
	}
	if a.Nonce == invalidNonce {
		return account.ErrInvalidNonce
	}

	// reset nonce after validated the signature
	defer im.repo.Update(c, address, &account.Updater{
		Nonce: invalidNonce,
	})

	msg := im.makeMessageWithNonce(strconv.Itoa(int(a.Nonce)))
	if isValid, err := ethereum.ValidateMsgSignature(msg, signature, string(address)); err != nil {
		c.WithField("err", err).Error("ValidateMsgSignature failed")
		return err
	} else if !isValid {
		return account.ErrInvalidSignature
	}
	return nil
}

func (im *impl) genNonce() int32 {
	return rand.Int31n(nonceRange)
}

func (im *impl) makeMessageWithNonce(nonce string) []byte {
	return []byte(fmt.Sprintf(im.signatureMsg, nonce))
}
