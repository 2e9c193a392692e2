package repository

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/token"
	"github.com/mintgate/goapi/service/query"
)

type contentGrantImpl struct {
	q query.Mongo
}

func NewContentGrant(q query.Mongo) token.ContentGrantRepo {
	return &contentGrantImpl{q}
}

func (im *contentGrantImpl) FindOne(c ctx.Ctx, id token.ContentGrantId) (*token.ContentGrant, error) {
	res := &token.ContentGrant{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.FindOne(c, domain.TableContentGrants, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *contentGrantImpl) Upsert(c ctx.Ctx, grant token.ContentGrant) error {
	id := token.ContentGrantId{
		ChainId:         grant.ChainId,
		ContractAddress: grant.ContractAddress,
		TokenId:         grant.TokenId,
		Tag:             grant.Tag,
	}
	slt, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	if err := im.q.Upsert(c, domain.TableContentGrants, slt, grant); err != nil {
		c.WithField("err", err).Error("q.Upsert failed")
		return err
	}

	return nil
}
