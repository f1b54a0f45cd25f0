package handler

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/settlement"
)

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Register(ctx context.Context, params settlement.RegisterParams) (*factory.Factory, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockSettlementService) Mint(ctx context.Context, factoryID string, amount int64) (*factory.Factory, error) {
	args := m.Called(ctx, factoryID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockSettlementService) TransferEnergy(ctx context.Context, fromID, toID string, amount int64) error {
	args := m.Called(ctx, fromID, toID, amount)
	return args.Error(0)
}

func (m *MockSettlementService) CreateTrade(ctx context.Context, tradeID, sellerID, buyerID string, amount, pricePerUnit int64) (*trade.Trade, error) {
	args := m.Called(ctx, tradeID, sellerID, buyerID, amount, pricePerUnit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockSettlementService) ExecuteTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockSettlementService) GetFactory(ctx context.Context, factoryID string) (*factory.Factory, error) {
	args := m.Called(ctx, factoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockSettlementService) ListFactories(ctx context.Context) ([]*factory.Factory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*factory.Factory), args.Error(1)
}

func (m *MockSettlementService) EnergyStatus(ctx context.Context, factoryID string) (factory.EnergyStatus, *factory.Factory, error) {
	args := m.Called(ctx, factoryID)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.Get(0).(factory.EnergyStatus), args.Get(1).(*factory.Factory), args.Error(2)
}

func (m *MockSettlementService) UpdateAvailableEnergy(ctx context.Context, factoryID string, value int64) error {
	args := m.Called(ctx, factoryID, value)
	return args.Error(0)
}

func (m *MockSettlementService) UpdateDailyConsumption(ctx context.Context, factoryID string, value int64) error {
	args := m.Called(ctx, factoryID, value)
	return args.Error(0)
}

func (m *MockSettlementService) FactoryHistory(ctx context.Context, factoryID string) ([]*history.Record, error) {
	args := m.Called(ctx, factoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Record), args.Error(1)
}

func (m *MockSettlementService) GetTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockSettlementService) ListTradesByFactory(ctx context.Context, factoryID string) ([]*trade.Trade, error) {
	args := m.Called(ctx, factoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trade.Trade), args.Error(1)
}

var _ settlement.Service = (*MockSettlementService)(nil)

type MockCredentialsService struct {
	mock.Mock
}

func (m *MockCredentialsService) Login(ctx context.Context, factoryID, password string) (*factory.Factory, error) {
	args := m.Called(ctx, factoryID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockCredentialsService) ChangePassword(ctx context.Context, factoryID, currentPassword, newPassword string) error {
	args := m.Called(ctx, factoryID, currentPassword, newPassword)
	return args.Error(0)
}

var _ CredentialsService = (*MockCredentialsService)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
