package usecase

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/log"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/service/chain/contract"
)

type TokenUseCaseCfg struct {
	TokenRepo        token.Repo
	ContentGrantRepo token.ContentGrantRepo
	CollectionRepo   collection.Repo
	Erc721           contract.Erc721Contract
	EventRepo        event.Repo
}

type impl struct {
	token        token.Repo
	contentGrant token.ContentGrantRepo
	collection   collection.Repo
	erc721       contract.Erc721Contract
	event        event.Repo
}

func New(cfg *TokenUseCaseCfg) token.Usecase {
	return &impl{
		token:        cfg.TokenRepo,
		contentGrant: cfg.ContentGrantRepo,
		collection:   cfg.CollectionRepo,
		erc721:       cfg.Erc721,
		event:        cfg.EventRepo,
	}
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

// isHosted reports whether the collection's ownership ledger lives in
// our store. Unknown contracts are resolved on chain instead.
func (im *impl) isHosted(c ctx.Ctx, id collection.CollectionId) (bool, error) {
	if _, err := im.collection.FindOne(c, id); err == domain.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (im *impl) Get(c ctx.Ctx, id token.Id) (*token.Token, error) {
	return im.token.FindOne(c, normalizeId(id))
}

func (im *impl) FindAll(c ctx.Ctx, opts ...token.FindAllOptionsFunc) ([]token.Token, error) {
	return im.token.FindAll(c, opts...)
}

func (im *impl) BalanceOf(c ctx.Ctx, id collection.CollectionId, owner domain.Address) (int, error) {
	id = id.ToLower()
	owner = owner.ToLower()

	hosted, err := im.isHosted(c, id)
	if err != nil {
		return 0, err
	}
	if hosted {
		return im.token.Count(c,
			token.WithChainId(id.ChainId),
			token.WithContractAddress(id.Address),
			token.WithOwner(owner),
		)
	}

	balance, err := im.erc721.BalanceOf(c, int32(id.ChainId), string(id.Address), string(owner))
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"chainId":  id.ChainId,
			"contract": id.Address,
		}).Error("erc721.BalanceOf failed")
		return 0, err
	}
	return int(balance.Int64()), nil
}

func (im *impl) OwnerOf(c ctx.Ctx, id token.Id) (domain.Address, error) {
	id = normalizeId(id)

	hosted, err := im.isHosted(c, collection.CollectionId{ChainId: id.ChainId, Address: id.ContractAddress})
	if err != nil {
		return "", err
	}
	if hosted {
		t, err := im.token.FindOne(c, id)
		if err != nil {
			return "", err
		}
		return t.Owner, nil
	}

	tokenId, ok := new(big.Int).SetString(id.TokenId.String(), 10)
	if !ok {
		return "", domain.ErrBadParamInput
	}
	owner, err := im.erc721.OwnerOf(c, int32(id.ChainId), string(id.ContractAddress), tokenId)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"chainId":  id.ChainId,
			"contract": id.ContractAddress,
			"tokenId":  id.TokenId,
		}).Error("erc721.OwnerOf failed")
		return "", err
	}
	return domain.Address(owner).ToLower(), nil
}

func (im *impl) Transfer(c ctx.Ctx, id token.Id, caller, to domain.Address) error {
	if to.IsEmpty() {
		return domain.ErrInvalidAddress
	}
	id = normalizeId(id)
	caller = caller.ToLower()
	to = to.ToLower()

	t, err := im.token.FindOne(c, id)
	if err != nil {
		return err
	}
	if !t.Owner.Equals(caller) {
		return domain.ErrNotTokenOwner
	}
	if err := im.token.UpdateOwner(c, id, to); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeTransfer,
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		Actor:           caller,
		Payload: map[string]interface{}{
			"from":     caller,
			"to":       to,
			"tokenIds": []domain.TokenId{id.TokenId},
		},
	})
	return nil
}

func (im *impl) VerifyOwnership(c ctx.Ctx, id token.Id, claimed domain.Address) (*token.OwnershipResult, error) {
	id = normalizeId(id)
	claimed = claimed.ToLower()

	owner, err := im.OwnerOf(c, id)
	if err == domain.ErrNotFound {
		return &token.OwnershipResult{TokenId: id.TokenId, IsOwner: false}, nil
	} else if err != nil {
		return nil, err
	}
	return &token.OwnershipResult{
		TokenId: id.TokenId,
		Owner:   owner,
		IsOwner: owner.Equals(claimed),
	}, nil
}

func (im *impl) BatchVerifyOwnership(c ctx.Ctx, collectionId collection.CollectionId, tokenIds []domain.TokenId, claimed domain.Address) ([]token.OwnershipResult, error) {
	collectionId = collectionId.ToLower()

	res := make([]token.OwnershipResult, 0, len(tokenIds))
	for _, tokenId := range tokenIds {
		r, err := im.VerifyOwnership(c, token.Id{
			ChainId:         collectionId.ChainId,
			ContractAddress: collectionId.Address,
			TokenId:         tokenId,
		}, claimed)
		if err != nil {
			return nil, err
		}
		res = append(res, *r)
	}
	return res, nil
}

func (im *impl) SetContentGrant(c ctx.Ctx, id token.Id, caller domain.Address, tag string, granted bool) error {
	if tag == "" {
		return domain.ErrBadParamInput
	}
	id = normalizeId(id)
	caller = caller.ToLower()

	t, err := im.token.FindOne(c, id)
	if err != nil {
		return err
	}
	if !t.Owner.Equals(caller) {
		return domain.ErrNotTokenOwner
	}

	if err := im.contentGrant.Upsert(c, token.ContentGrant{
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		TokenId:         id.TokenId,
		Tag:             tag,
		Granted:         granted,
		UpdatedAt:       time.Now(),
	}); err != nil {
		return err
	}

	im.appendEvent(c, event.Event{
		Type:            event.TypeContentGrantChanged,
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		Actor:           caller,
		Payload: map[string]interface{}{
			"tokenId": id.TokenId,
			"tag":     tag,
			"granted": granted,
		},
	})
	return nil
}

func (im *impl) GetContentGrant(c ctx.Ctx, id token.Id, tag string) (*token.ContentGrant, error) {
	if tag == "" {
		return nil, domain.ErrBadParamInput
	}
	id = normalizeId(id)
	return im.contentGrant.FindOne(c, token.ContentGrantId{
		ChainId:         id.ChainId,
		ContractAddress: id.ContractAddress,
		TokenId:         id.TokenId,
		Tag:             tag,
	})
}

func normalizeId(id token.Id) token.Id {
	id.ContractAddress = id.ContractAddress.ToLower()
	return id
}
