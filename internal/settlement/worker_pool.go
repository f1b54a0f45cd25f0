package settlement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
)

// WorkerPoolService decorates a Service with a bounded worker pool. Mutating
// sagas run on pool workers so the number of concurrent external ledger
// round-trips stays capped; reads pass through untouched.
type WorkerPoolService struct {
	base   Service
	pool   *ants.Pool
	logger *slog.Logger
	// Protects the in-flight results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolService(base Service, cfg WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolService, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolService{
		base:    base,
		pool:    pool,
		logger:  logger,
		results: make(map[string]chan error),
	}, nil
}

var _ Service = (*WorkerPoolService)(nil)

// run submits one saga to the pool and blocks until it finishes. A submit
// failure (pool released) is returned directly.
func (s *WorkerPoolService) run(op string, task func() error) error {
	resultChan := make(chan error, 1)

	jobID := uuid.NewString()
	s.mu.Lock()
	s.results[jobID] = resultChan
	s.mu.Unlock()

	err := s.pool.Submit(func() {
		resultChan <- task()

		s.mu.Lock()
		delete(s.results, jobID)
		close(resultChan)
		s.mu.Unlock()
	})
	if err != nil {
		s.mu.Lock()
		delete(s.results, jobID)
		close(resultChan)
		s.mu.Unlock()

		s.logger.Error("Failed to submit settlement operation to worker pool",
			"operation", op,
			"error", err)
		return err
	}

	return <-resultChan
}

func (s *WorkerPoolService) Register(ctx context.Context, params RegisterParams) (*factory.Factory, error) {
	var f *factory.Factory
	err := s.run("register", func() error {
		var err error
		f, err = s.base.Register(ctx, params)
		return err
	})
	return f, err
}

func (s *WorkerPoolService) Mint(ctx context.Context, factoryID string, amount int64) (*factory.Factory, error) {
	var f *factory.Factory
	err := s.run("mint", func() error {
		var err error
		f, err = s.base.Mint(ctx, factoryID, amount)
		return err
	})
	return f, err
}

func (s *WorkerPoolService) TransferEnergy(ctx context.Context, fromID, toID string, amount int64) error {
	return s.run("transfer_energy", func() error {
		return s.base.TransferEnergy(ctx, fromID, toID, amount)
	})
}

func (s *WorkerPoolService) CreateTrade(ctx context.Context, tradeID, sellerID, buyerID string, amount, pricePerUnit int64) (*trade.Trade, error) {
	var t *trade.Trade
	err := s.run("create_trade", func() error {
		var err error
		t, err = s.base.CreateTrade(ctx, tradeID, sellerID, buyerID, amount, pricePerUnit)
		return err
	})
	return t, err
}

func (s *WorkerPoolService) ExecuteTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	var t *trade.Trade
	err := s.run("execute_trade", func() error {
		var err error
		t, err = s.base.ExecuteTrade(ctx, tradeID)
		return err
	})
	return t, err
}

func (s *WorkerPoolService) GetFactory(ctx context.Context, factoryID string) (*factory.Factory, error) {
	return s.base.GetFactory(ctx, factoryID)
}

func (s *WorkerPoolService) ListFactories(ctx context.Context) ([]*factory.Factory, error) {
	return s.base.ListFactories(ctx)
}

func (s *WorkerPoolService) EnergyStatus(ctx context.Context, factoryID string) (factory.EnergyStatus, *factory.Factory, error) {
	return s.base.EnergyStatus(ctx, factoryID)
}

func (s *WorkerPoolService) UpdateAvailableEnergy(ctx context.Context, factoryID string, value int64) error {
	return s.base.UpdateAvailableEnergy(ctx, factoryID, value)
}

func (s *WorkerPoolService) UpdateDailyConsumption(ctx context.Context, factoryID string, value int64) error {
	return s.base.UpdateDailyConsumption(ctx, factoryID, value)
}

func (s *WorkerPoolService) FactoryHistory(ctx context.Context, factoryID string) ([]*history.Record, error) {
	return s.base.FactoryHistory(ctx, factoryID)
}

func (s *WorkerPoolService) GetTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	return s.base.GetTrade(ctx, tradeID)
}

func (s *WorkerPoolService) ListTradesByFactory(ctx context.Context, factoryID string) ([]*trade.Trade, error) {
	return s.base.ListTradesByFactory(ctx, factoryID)
}

// Shutdown releases the worker pool
func (s *WorkerPoolService) Shutdown() {
	s.logger.Info("Shutting down settlement worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of busy workers
func (s *WorkerPoolService) Running() int {
	return s.pool.Running()
}

// Capacity returns the pool capacity
func (s *WorkerPoolService) Capacity() int {
	return s.pool.Cap()
}
