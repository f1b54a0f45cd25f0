package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var factoryTestColumns = []string{
	"factory_id", "name", "password_hash", "external_account_id", "external_signing_key",
	"energy_type", "energy_balance", "currency_balance", "daily_consumption", "available_energy",
	"created_at", "updated_at",
}

func testFactory(now time.Time) *factory.Factory {
	return &factory.Factory{
		ID:                 "solar-plant-1",
		Name:               "Solar Plant One",
		PasswordHash:       "$2a$10$hash",
		ExternalAccountID:  "0.0.4501",
		ExternalSigningKey: "302e0201...",
		EnergyType:         "solar",
		EnergyBalance:      1000,
		CurrencyBalance:    5000,
		DailyConsumption:   120,
		AvailableEnergy:    880,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func factoryRow(f *factory.Factory) *pgxmock.Rows {
	return pgxmock.NewRows(factoryTestColumns).
		AddRow(f.ID, f.Name, f.PasswordHash, f.ExternalAccountID, f.ExternalSigningKey,
			f.EnergyType, f.EnergyBalance, f.CurrencyBalance, f.DailyConsumption, f.AvailableEnergy,
			f.CreatedAt, f.UpdatedAt)
}

func TestFactoryRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}
	f := testFactory(time.Now())

	query := `INSERT INTO factories`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(f.ID, f.Name, f.PasswordHash, f.ExternalAccountID, f.ExternalSigningKey,
				f.EnergyType, f.EnergyBalance, f.CurrencyBalance, f.DailyConsumption, f.AvailableEnergy,
				f.CreatedAt, f.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, f)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(f.ID, f.Name, f.PasswordHash, f.ExternalAccountID, f.ExternalSigningKey,
				f.EnergyType, f.EnergyBalance, f.CurrencyBalance, f.DailyConsumption, f.AvailableEnergy,
				f.CreatedAt, f.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err := repo.Create(ctx, f)
		var existsErr factory.ErrAlreadyExists
		assert.ErrorAs(t, err, &existsErr)
		assert.Equal(t, f.ID, existsErr.FactoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(f.ID, f.Name, f.PasswordHash, f.ExternalAccountID, f.ExternalSigningKey,
				f.EnergyType, f.EnergyBalance, f.CurrencyBalance, f.DailyConsumption, f.AvailableEnergy,
				f.CreatedAt, f.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, f)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create factory")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}
	expected := testFactory(time.Now())

	query := `FROM factories\s+WHERE factory_id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(factoryRow(expected))

		f, err := repo.GetByID(ctx, expected.ID)
		assert.NoError(t, err)
		assert.Equal(t, expected, f)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)

		f, err := repo.GetByID(ctx, expected.ID)
		assert.Error(t, err)
		assert.Nil(t, f)
		var notFoundErr factory.ErrNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, expected.ID, notFoundErr.FactoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}
	expected := testFactory(time.Now())

	query := `WHERE factory_id = \$1\s+FOR UPDATE`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(factoryRow(expected))

		f, err := repo.LockForUpdate(ctx, expected.ID)
		assert.NoError(t, err)
		assert.Equal(t, expected, f)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)

		f, err := repo.LockForUpdate(ctx, expected.ID)
		assert.Error(t, err)
		assert.Nil(t, f)
		var notFoundErr factory.ErrNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_AdjustBalances(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}

	query := `UPDATE factories\s+SET energy_balance = energy_balance \+ \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(int64(-50), int64(250), "solar-plant-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.AdjustBalances(ctx, "solar-plant-1", -50, 250)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejects", func(t *testing.T) {
		// A debit that would drive a balance negative matches no row
		mock.ExpectExec(query).
			WithArgs(int64(-5000), int64(0), "solar-plant-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.AdjustBalances(ctx, "solar-plant-1", -5000, 0)
		var concurrentErr factory.ErrConcurrentModification
		assert.ErrorAs(t, err, &concurrentErr)
		assert.Equal(t, "solar-plant-1", concurrentErr.FactoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(int64(10), int64(10), "solar-plant-1").
			WillReturnError(expectedErr)

		err := repo.AdjustBalances(ctx, "solar-plant-1", 10, 10)
		assert.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_SetPasswordHash(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}

	query := `UPDATE factories\s+SET password_hash = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("$2a$10$newhash", "solar-plant-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.SetPasswordHash(ctx, "solar-plant-1", "$2a$10$newhash")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("$2a$10$newhash", "missing").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetPasswordHash(ctx, "missing", "$2a$10$newhash")
		var notFoundErr factory.ErrNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_List(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}
	now := time.Now()
	f1 := testFactory(now)
	f2 := testFactory(now)
	f2.ID = "wind-farm-2"
	f2.Name = "Wind Farm Two"
	f2.EnergyType = "wind"

	query := `FROM factories\s+ORDER BY factory_id`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(factoryTestColumns).
			AddRow(f1.ID, f1.Name, f1.PasswordHash, f1.ExternalAccountID, f1.ExternalSigningKey,
				f1.EnergyType, f1.EnergyBalance, f1.CurrencyBalance, f1.DailyConsumption, f1.AvailableEnergy,
				f1.CreatedAt, f1.UpdatedAt).
			AddRow(f2.ID, f2.Name, f2.PasswordHash, f2.ExternalAccountID, f2.ExternalSigningKey,
				f2.EnergyType, f2.EnergyBalance, f2.CurrencyBalance, f2.DailyConsumption, f2.AvailableEnergy,
				f2.CreatedAt, f2.UpdatedAt)
		mock.ExpectQuery(query).WillReturnRows(rows)

		factories, err := repo.List(ctx)
		assert.NoError(t, err)
		require.Len(t, factories, 2)
		assert.Equal(t, f1, factories[0])
		assert.Equal(t, f2, factories[1])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(query).WillReturnRows(pgxmock.NewRows(factoryTestColumns))

		factories, err := repo.List(ctx)
		assert.NoError(t, err)
		assert.Empty(t, factories)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFactoryRepository_ListMissingPasswordHash(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FactoryRepository{querier: mock, logger: logger}
	f := testFactory(time.Now())
	f.PasswordHash = ""

	query := `WHERE password_hash = ''`

	mock.ExpectQuery(query).WillReturnRows(factoryRow(f))

	factories, err := repo.ListMissingPasswordHash(ctx)
	assert.NoError(t, err)
	require.Len(t, factories, 1)
	assert.Equal(t, f.ID, factories[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
