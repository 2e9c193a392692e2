package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/service/query"
)

func makeFindQuery(optFns ...token.FindAllOptionsFunc) (bson.M, error) {
	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}

	query := bson.M{}

	if opts.ChainId != nil {
		query["chainId"] = *opts.ChainId
	}

	if opts.ContractAddress != nil {
		query["contractAddress"] = *opts.ContractAddress
	}

	if opts.Owner != nil {
		query["owner"] = *opts.Owner
	}

	return query, nil
}

type tokenImpl struct {
	q query.Mongo
}

func NewToken(q query.Mongo) token.Repo {
	return &tokenImpl{q}
}

func (im *tokenImpl) FindOne(c ctx.Ctx, id token.Id) (*token.Token, error) {
	res := &token.Token{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.FindOne(c, domain.TableTokens, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *tokenImpl) FindAll(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) ([]token.Token, error) {
	res := []token.Token{}

	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("token.GetFindAllOptions failed")
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

	if err := im.q.Search(c, domain.TableTokens, offset, limit, sort, qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return res, err
	}

	return res, nil
}

func (im *tokenImpl) Count(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) (int, error) {
	qry, err := makeFindQuery(optFns...)
	if err != nil {
		return 0, err
	}

	res, err := im.q.Count(c, domain.TableTokens, qry)
	if err != nil {
		return 0, err
	}

	return res, nil
}

func (im *tokenImpl) Create(c ctx.Ctx, t token.Token) error {
	if err := im.q.Insert(c, domain.TableTokens, t); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}

	return nil
}

func (im *tokenImpl) UpdateOwner(c ctx.Ctx, id token.Id, owner domain.Address) error {
	slt, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	if err := im.q.Patch(c, domain.TableTokens, slt, bson.M{"owner": owner.ToLower()}); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.Patch failed")
		return err
	}

	return nil
}
