package credentials

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ecoguardians/energy-settlement/internal/config"
	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
)

// MockFactoryRepository mocks factory.Repository
type MockFactoryRepository struct {
	mock.Mock
}

func (m *MockFactoryRepository) Create(ctx context.Context, f *factory.Factory) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFactoryRepository) GetByID(ctx context.Context, id string) (*factory.Factory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockFactoryRepository) List(ctx context.Context) ([]*factory.Factory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*factory.Factory), args.Error(1)
}

func (m *MockFactoryRepository) LockForUpdate(ctx context.Context, id string) (*factory.Factory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factory.Factory), args.Error(1)
}

func (m *MockFactoryRepository) AdjustBalances(ctx context.Context, id string, energyDelta, currencyDelta int64) error {
	args := m.Called(ctx, id, energyDelta, currencyDelta)
	return args.Error(0)
}

func (m *MockFactoryRepository) SetPasswordHash(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockFactoryRepository) SetAvailableEnergy(ctx context.Context, id string, value int64) error {
	args := m.Called(ctx, id, value)
	return args.Error(0)
}

func (m *MockFactoryRepository) SetDailyConsumption(ctx context.Context, id string, value int64) error {
	args := m.Called(ctx, id, value)
	return args.Error(0)
}

func (m *MockFactoryRepository) ListMissingPasswordHash(ctx context.Context) ([]*factory.Factory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*factory.Factory), args.Error(1)
}

func (m *MockFactoryRepository) WithTx(tx pgx.Tx) factory.Repository {
	m.Called(tx)
	return m
}

var _ factory.Repository = (*MockFactoryRepository)(nil)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testCredentialsConfig() *config.CredentialsConfig {
	return &config.CredentialsConfig{
		MinPasswordLength:        8,
		AllowFirstLoginBootstrap: false,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, VerifyPassword(hash, "correct horse battery"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword("", "anything"))
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		f := &factory.Factory{ID: "solar-plant-1", PasswordHash: hash}
		mockRepo.On("GetByID", ctx, "solar-plant-1").Return(f, nil).Once()

		got, err := svc.Login(ctx, "solar-plant-1", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, f, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		f := &factory.Factory{ID: "solar-plant-1", PasswordHash: hash}
		mockRepo.On("GetByID", ctx, "solar-plant-1").Return(f, nil).Once()

		_, err := svc.Login(ctx, "solar-plant-1", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown factory maps to invalid credentials", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		mockRepo.On("GetByID", ctx, "ghost").Return(nil, factory.ErrNotFound{FactoryID: "ghost"}).Once()

		_, err := svc.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertExpectations(t)
	})

	t.Run("hashless account fails by default", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		f := &factory.Factory{ID: "legacy-plant", PasswordHash: ""}
		mockRepo.On("GetByID", ctx, "legacy-plant").Return(f, nil).Once()

		_, err := svc.Login(ctx, "legacy-plant", "any-password-1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertNotCalled(t, "SetPasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hashless account bootstraps when enabled", func(t *testing.T) {
		cfg := testCredentialsConfig()
		cfg.AllowFirstLoginBootstrap = true
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), cfg, mockRepo)

		f := &factory.Factory{ID: "legacy-plant", PasswordHash: ""}
		mockRepo.On("GetByID", ctx, "legacy-plant").Return(f, nil).Once()
		mockRepo.On("SetPasswordHash", ctx, "legacy-plant", mock.MatchedBy(func(h string) bool {
			return VerifyPassword(h, "adopted-password")
		})).Return(nil).Once()

		got, err := svc.Login(ctx, "legacy-plant", "adopted-password")
		require.NoError(t, err)
		assert.True(t, VerifyPassword(got.PasswordHash, "adopted-password"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("bootstrap rejects short password", func(t *testing.T) {
		cfg := testCredentialsConfig()
		cfg.AllowFirstLoginBootstrap = true
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), cfg, mockRepo)

		f := &factory.Factory{ID: "legacy-plant", PasswordHash: ""}
		mockRepo.On("GetByID", ctx, "legacy-plant").Return(f, nil).Once()

		_, err := svc.Login(ctx, "legacy-plant", "short")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertNotCalled(t, "SetPasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("old-password")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		f := &factory.Factory{ID: "solar-plant-1", PasswordHash: hash}
		mockRepo.On("GetByID", ctx, "solar-plant-1").Return(f, nil).Once()
		mockRepo.On("SetPasswordHash", ctx, "solar-plant-1", mock.MatchedBy(func(h string) bool {
			return VerifyPassword(h, "brand-new-password")
		})).Return(nil).Once()

		err := svc.ChangePassword(ctx, "solar-plant-1", "old-password", "brand-new-password")
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("weak new password", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		err := svc.ChangePassword(ctx, "solar-plant-1", "old-password", "tiny")
		var weakErr ErrWeakPassword
		require.ErrorAs(t, err, &weakErr)
		assert.Equal(t, 8, weakErr.MinLength)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockRepo := new(MockFactoryRepository)
		svc := NewService(newTestLogger(), testCredentialsConfig(), mockRepo)

		f := &factory.Factory{ID: "solar-plant-1", PasswordHash: hash}
		mockRepo.On("GetByID", ctx, "solar-plant-1").Return(f, nil).Once()

		err := svc.ChangePassword(ctx, "solar-plant-1", "not-the-password", "brand-new-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertNotCalled(t, "SetPasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})
}
