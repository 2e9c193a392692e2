package repository

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/whitelist"
	"github.com/mintgate/goapi/service/query"
)

type claimImpl struct {
	q query.Mongo
}

func NewWhitelistClaim(q query.Mongo) whitelist.ClaimRepo {
	return &claimImpl{q}
}

func (im *claimImpl) FindOne(c ctx.Ctx, id whitelist.ClaimId) (*whitelist.Claim, error) {
	res := &whitelist.Claim{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return nil, err
	}
	if err := im.q.FindOne(c, domain.TableWhitelistClaims, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *claimImpl) Increment(c ctx.Ctx, id whitelist.ClaimId, delta int64) error {
	res := &whitelist.Claim{}

	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		c.WithField("err", err).Error("mongoclient.MakeBsonM failed")
		return err
	}
	if err := im.q.Increment(c, domain.TableWhitelistClaims, qry, res, "claimed", delta); err != nil {
		c.WithField("err", err).Error("q.Increment failed")
		return err
	}

	return nil
}
