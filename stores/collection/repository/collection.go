package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/collection"
	"github.com/mintgate/goapi/service/query"
)

func makeFindQuery(optFns ...collection.FindAllOptionsFunc) (bson.M, error) {
	opts, err := collection.GetFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}

	query := bson.M{}

	if opts.ChainId != nil {
		query["chainId"] = *opts.ChainId
	}

	if opts.Owner != nil {
		query["owner"] = *opts.Owner
	}

	if opts.Phase != nil {
		query["phase"] = *opts.Phase
	}

	return query, nil
}

type collectionImpl struct {
	q query.Mongo
}

func NewCollection(q query.Mongo) collection.Repo {
	return &collectionImpl{q}
}

func (im *collectionImpl) FindOne(c ctx.Ctx, id collection.CollectionId) (*collection.Collection, error) {
	res := &collection.Collection{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.FindOne(c, domain.TableCollections, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *collectionImpl) FindAll(c ctx.Ctx, optFns ...collection.FindAllOptionsFunc) ([]collection.Collection, error) {
	res := []collection.Collection{}

	opts, err := collection.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("collection.GetFindAllOptions failed")
		return res, err
	}

	offset := int(0)
	limit := int(0)
	sort := "_id"

	qry, err := makeFindQuery(optFns...)
	if err != nil {
		return res, err
	}

	if opts.Offset != nil {
		offset = int(*opts.Offset)
	}

	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	if opts.SortBy != nil && opts.SortDir != nil {
		sort = *opts.SortBy
		if *opts.SortDir == domain.SortDirDesc {
			sort = "-" + sort
		}
	}

	if err := im.q.Search(c, domain.TableCollections, offset, limit, sort, qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return res, err
	}

	return res, nil
}

func (im *collectionImpl) Create(c ctx.Ctx, col collection.Collection) error {
	if err := im.q.Insert(c, domain.TableCollections, col); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}

	return nil
}

func (im *collectionImpl) Patch(c ctx.Ctx, id collection.CollectionId, patch collection.UpdatePayload) error {
	if slt, err := mongoclient.MakeBsonM(id); err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	} else if val, err := mongoclient.MakeBsonM(patch); err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	} else if err := im.q.Patch(c, domain.TableCollections, slt, val); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.Patch failed")
		return err
	}

	return nil
}

func (im *collectionImpl) IncrementSupply(c ctx.Ctx, id collection.CollectionId, quantity int64) error {
	slt, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	// the $expr guard makes the supply advance conditional, a concurrent
	// writer that consumed the remaining supply first turns this into a
	// no-match
	slt["$expr"] = bson.M{"$lte": bson.A{
		bson.M{"$add": bson.A{"$totalSupply", quantity}},
		"$maxSupply",
	}}
	update := bson.M{"$inc": bson.M{"totalSupply": quantity}}
	if err := im.q.CustomPatch(c, domain.TableCollections, slt, update, false); err == query.ErrNotFound {
		return domain.ErrSupplyExceeded
	} else if err != nil {
		c.WithField("err", err).Error("q.CustomPatch failed")
		return err
	}

	return nil
}

func (im *collectionImpl) SetMaxSupply(c ctx.Ctx, id collection.CollectionId, maxSupply int64) error {
	slt, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	slt["totalSupply"] = bson.M{"$lte": maxSupply}
	update := bson.M{"$set": bson.M{"maxSupply": maxSupply}}
	if err := im.q.CustomPatch(c, domain.TableCollections, slt, update, false); err == query.ErrNotFound {
		return domain.ErrMaxSupplyBelowSupply
	} else if err != nil {
		c.WithField("err", err).Error("q.CustomPatch failed")
		return err
	}

	return nil
}
