package account

import (
	"errors"
	"time"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
)

// Account is a wallet known to the service, it exists to carry the login
// nonce and a display alias.
type Account struct {
	Address   domain.Address `bson:"address"`
	Alias     string         `bson:"alias"`
	Nonce     int32          `bson:"nonce"`
	CreatedAt time.Time      `bson:"createdAt,omitempty"`
	UpdatedAt time.Time      `bson:"updatedAt,omitempty"`
}

type Info struct {
	Address     domain.Address `json:"address"`
	Alias       string         `json:"alias"`
	CreatedAtMs int64          `json:"createdAtMs,omitempty"`
}

func unixMilli(t time.Time) int64 {
	return t.Unix()*1e3 + int64(t.Nanosecond())/1e6
}

func (a *Account) ToInfo() *Info {
	return &Info{
		Address:     a.Address,
		Alias:       a.Alias,
		CreatedAtMs: unixMilli(a.CreatedAt),
	}
}

// Updater to update account info
type Updater struct {
	Alias     *string   `json:"alias" bson:"alias"`
	Nonce     int32     `json:"-" bson:"nonce"`
	UpdatedAt time.Time `json:"-" bson:"updatedAt,omitempty"`
}

var (
	// ErrInvalidNonce occured when validating a signature but the nonce of the address has not generated
	ErrInvalidNonce = errors.New("invalid nonce")
	// ErrInvalidSignature occured when a signature is invalid
	ErrInvalidSignature = errors.New("invalid signature")
)

type Usecase interface {
	Create(c ctx.Ctx, address domain.Address) (*Info, error)
	Get(c ctx.Ctx, address domain.Address) (*Info, error)
	GenerateNonce(c ctx.Ctx, address domain.Address) (int32, error)
	ValidateSignature(c ctx.Ctx, address domain.Address, signature string) error
	Update(c ctx.Ctx, address domain.Address, updater *Updater) (*Info, error)
}

type Repo interface {
	Get(c ctx.Ctx, address domain.Address) (*Account, error)
	Insert(c ctx.Ctx, account *Account) error
	Update(c ctx.Ctx, address domain.Address, updater *Updater) error
}
