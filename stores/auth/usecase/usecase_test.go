package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/domain"
	mAccount "github.com/mintgate/goapi/domain/account/mocks"
	"github.com/mintgate/goapi/stores/auth/usecase"
)

func TestSignAndParseToken(t *testing.T) {
	mockAccountUC := &mAccount.Usecase{}

	mockAccountUC.On("Get", mock.Anything, domain.Address("my-address")).Return(nil, nil)

	ctx := ctx.Background()
	u := usecase.New("jwt-secret", mockAccountUC)
	tkn, err := u.SignToken(ctx, "my-address")
	assert.NoError(t, err)
	assert.NotEmpty(t, tkn)
	ads, err := u.ParseToken(ctx, tkn)
	assert.NoError(t, err)
	assert.Equal(t, "my-address", ads)
}
