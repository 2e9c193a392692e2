package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/accessrule"
	"github.com/mintgate/goapi/service/query"
)

type grantImpl struct {
	q query.Mongo
}

func NewGrant(q query.Mongo) accessrule.GrantRepo {
	return &grantImpl{q}
}

func (im *grantImpl) FindOne(c ctx.Ctx, id accessrule.GrantId) (*accessrule.Grant, error) {
	res := &accessrule.Grant{}

	qry := bson.M{"ruleId": id.RuleId, "user": id.User.ToLower()}
	if err := im.q.FindOne(c, domain.TableAccessGrants, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *grantImpl) Upsert(c ctx.Ctx, grant accessrule.Grant) error {
	grant.User = grant.User.ToLower()
	slt := bson.M{"ruleId": grant.RuleId, "user": grant.User}
	if err := im.q.Upsert(c, domain.TableAccessGrants, slt, grant); err != nil {
		c.WithField("err", err).Error("q.Upsert failed")
		return err
	}

	return nil
}
