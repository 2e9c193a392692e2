package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/accessrule"
	"github.com/mintgate/goapi/service/query"
)

type ruleImpl struct {
	q query.Mongo
}

func NewAccessRule(q query.Mongo) accessrule.Repo {
	return &ruleImpl{q}
}

func (im *ruleImpl) FindOne(c ctx.Ctx, ruleId string) (*accessrule.AccessRule, error) {
	res := &accessrule.AccessRule{}

	if err := im.q.FindOne(c, domain.TableAccessRules, bson.M{"ruleId": ruleId}, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *ruleImpl) FindAll(c ctx.Ctx, optFns ...accessrule.FindAllOptionsFunc) ([]accessrule.AccessRule, error) {
	res := []accessrule.AccessRule{}

	opts, err := accessrule.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("accessrule.GetFindAllOptions failed")
		return res, err
	}

	qry := bson.M{}
	if opts.Creator != nil {
		qry["creator"] = *opts.Creator
	}
	if opts.IsActive != nil {
		qry["isActive"] = *opts.IsActive
	}

	offset := int(0)
	limit := int(0)
	sort := "createdAt"

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

	if err := im.q.Search(c, domain.TableAccessRules, offset, limit, sort, qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return res, err
	}

	return res, nil
}

func (im *ruleImpl) Create(c ctx.Ctx, rule accessrule.AccessRule) error {
	if err := im.q.Insert(c, domain.TableAccessRules, rule); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}

	return nil
}

func (im *ruleImpl) UpdateStatus(c ctx.Ctx, ruleId string, isActive bool) error {
	if err := im.q.Patch(c, domain.TableAccessRules, bson.M{"ruleId": ruleId}, bson.M{"isActive": isActive}); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.Patch failed")
		return err
	}

	return nil
}
