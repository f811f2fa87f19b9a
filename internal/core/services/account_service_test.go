package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/core/services"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByCPF(ctx context.Context, cpf string) (*domain.Account, error) {
	args := m.Called(ctx, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccountProfile(ctx context.Context, cpf string, name *string, secret *string, now time.Time) error {
	args := m.Called(ctx, cpf, name, secret, now)
	return args.Error(0)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, cpf string, delta decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, cpf, delta, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	ctx      context.Context
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo, services.WithClock(fixedClock))
	suite.ctx = context.Background()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	req := dto.CreateUserRequest{Nome: "  Maria Silva ", CPF: "11111111111", Senha: "segredo1"}

	suite.mockRepo.On("CreateAccount", suite.ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.CPF == "11111111111" && a.Name == "Maria Silva" && a.Secret == "segredo1" &&
			a.Balance.IsZero() && a.CreatedAt.Equal(fixedNow)
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(suite.ctx, req)

	suite.Require().NoError(err)
	suite.Equal("Maria Silva", account.Name)
	suite.True(account.Balance.IsZero())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Duplicate() {
	req := dto.CreateUserRequest{Nome: "Maria Silva", CPF: "11111111111", Senha: "segredo1"}
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Return(apperrors.ErrDuplicate).Once()

	account, err := suite.service.CreateAccount(suite.ctx, req)

	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ValidationSkipsStore() {
	cases := []dto.CreateUserRequest{
		{Nome: "Maria Silva", CPF: "1111111111", Senha: "segredo1"},
		{Nome: "Maria Silva", CPF: "1111111111a", Senha: "segredo1"},
		{Nome: "Ana", CPF: "11111111111", Senha: "segredo1"},
		{Nome: "Maria Silva", CPF: "11111111111", Senha: "abc"},
	}
	for _, req := range cases {
		_, err := suite.service.CreateAccount(suite.ctx, req)
		suite.ErrorIs(err, apperrors.ErrValidation)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_StoreFailure() {
	req := dto.CreateUserRequest{Nome: "Maria Silva", CPF: "11111111111", Senha: "segredo1"}
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Return(errors.New("disk full")).Once()

	_, err := suite.service.CreateAccount(suite.ctx, req)

	suite.Error(err)
	suite.NotErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestAuthenticate() {
	stored := &domain.Account{CPF: "11111111111", Name: "Maria Silva", Secret: "segredo1"}
	suite.mockRepo.On("FindAccountByCPF", suite.ctx, "11111111111").Return(stored, nil)
	suite.mockRepo.On("FindAccountByCPF", suite.ctx, "99999999999").Return(nil, apperrors.ErrNotFound)

	account, err := suite.service.Authenticate(suite.ctx, "11111111111", "segredo1")
	suite.Require().NoError(err)
	suite.Equal("Maria Silva", account.Name)

	_, err = suite.service.Authenticate(suite.ctx, "11111111111", "errada1")
	suite.ErrorIs(err, apperrors.ErrInvalidCredentials)

	_, err = suite.service.Authenticate(suite.ctx, "99999999999", "segredo1")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount() {
	name := "Nova Silva"
	suite.mockRepo.On("UpdateAccountProfile", suite.ctx, "11111111111", &name, (*string)(nil), fixedNow).
		Return(nil).Once()

	err := suite.service.UpdateAccount(suite.ctx, "11111111111", dto.UpdateUserRequest{Nome: &name})

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_Empty() {
	err := suite.service.UpdateAccount(suite.ctx, "11111111111", dto.UpdateUserRequest{})

	suite.ErrorIs(err, apperrors.ErrNothingToUpdate)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateAccountProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_ShortSecret() {
	short := "abc"
	err := suite.service.UpdateAccount(suite.ctx, "11111111111", dto.UpdateUserRequest{Senha: &short})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func TestAccountService_BcryptSecrets(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := services.NewAccountService(repo, services.WithSecretMode(utils.SecretModeBcrypt))
	ctx := context.Background()

	var saved domain.Account
	repo.On("CreateAccount", ctx, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Account) }).
		Return(nil).Once()

	_, err := svc.CreateAccount(ctx, dto.CreateUserRequest{Nome: "Maria Silva", CPF: "11111111111", Senha: "segredo1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.Secret == "segredo1" {
		t.Fatal("secret stored in plain text")
	}

	repo.On("FindAccountByCPF", ctx, "11111111111").Return(&saved, nil)
	if _, err := svc.Authenticate(ctx, "11111111111", "segredo1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}
