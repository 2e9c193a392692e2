package domain

import (
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type ChainId int32

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) ToHexString() (string, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok {
		return "", xerrors.Errorf("invalid id %s", i)
	}
	return fmt.Sprintf("%064x", id), nil
}

type BlockNumber uint64

type TxHash string

// Table is a mongo collection name
type Table string

const (
	TableCollections     Table = "collections"
	TableTokens          Table = "tokens"
	TableMintCounts      Table = "mint_counts"
	TableWhitelistClaims Table = "whitelist_claims"
	TableAccessRules     Table = "access_rules"
	TableAccessGrants    Table = "access_grants"
	TableContentGrants   Table = "content_grants"
	TableEvents          Table = "events"
	TableAccounts        Table = "accounts"
)

func ToBigInt(nums []string) ([]*big.Int, error) {
	var bns []*big.Int
	for _, n := range nums {
		bn, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, ErrInvalidNumberFormat
		}
		bns = append(bns, bn)
	}
	return bns, nil
}
