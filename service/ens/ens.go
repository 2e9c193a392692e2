package ens

import (
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

type ENS interface {
	Resolve(ctx ctx.Ctx, name string) (domain.Address, error)
	ReverseResolve(ctx ctx.Ctx, address domain.Address) (string, error)
}
