package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	"github.com/mintgate/goapi/domain/event"
	"github.com/mintgate/goapi/service/query"
)

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) event.Repo {
	return &impl{q}
}

func (im *impl) FindAll(c ctx.Ctx, optFns ...event.FindAllOptionsFunc) ([]event.Event, error) {
	res := []event.Event{}

	opts, err := event.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("event.GetFindAllOptions failed")
		return res, err
	}

	qry := bson.M{}
	if opts.Type != nil {
		qry["type"] = *opts.Type
	}
	if opts.ChainId != nil {
		qry["chainId"] = *opts.ChainId
	}
	if opts.ContractAddress != nil {
		qry["contractAddress"] = *opts.ContractAddress
	}
	if opts.RuleId != nil {
		qry["ruleId"] = *opts.RuleId
	}

	offset := int(0)
	limit := int(0)
	sort := "-createdAt"

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

	if err := im.q.Search(c, domain.TableEvents, offset, limit, sort, qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return res, err
	}

	return res, nil
}

func (im *impl) Create(c ctx.Ctx, e event.Event) error {
	if err := im.q.Insert(c, domain.TableEvents, e); err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}

	return nil
}
