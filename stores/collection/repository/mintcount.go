package repository

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/service/query"
)

type mintCountImpl struct {
	q query.Mongo
}

func NewMintCount(q query.Mongo) collection.MintCountRepo {
	return &mintCountImpl{q}
}

func (im *mintCountImpl) FindOne(c ctx.Ctx, id collection.MintCountId) (*collection.MintCount, error) {
	res := &collection.MintCount{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.FindOne(c, domain.TableMintCounts, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *mintCountImpl) FindByMinter(c ctx.Ctx, id collection.CollectionId, minter domain.Address) ([]collection.MintCount, error) {
	res := []collection.MintCount{}

	qry, err := mongoclient.MakeBsonM(struct {
		ChainId         domain.ChainId `bson:"chainId"`
		ContractAddress domain.Address `bson:"contractAddress"`
		Minter          domain.Address `bson:"minter"`
	}{id.ChainId, id.Address, minter.ToLower()})
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.Search(c, domain.TableMintCounts, 0, 0, "phase", qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (im *mintCountImpl) Increment(c ctx.Ctx, id collection.MintCountId, delta int64) error {
	res := &collection.MintCount{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	if err := im.q.Increment(c, domain.TableMintCounts, qry, res, "count", delta); err != nil {
		c.WithField("err", err).Error("q.Increment failed")
		return err
	}

	return nil
}
