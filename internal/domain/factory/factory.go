package factory

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrNegativeValue    = errors.New("value cannot be negative")
	ErrEmptyFactoryID   = errors.New("factory id cannot be empty")
	ErrEmptyFactoryName = errors.New("factory name cannot be empty")
)

// EnergyStatus classifies a factory's production against its consumption
type EnergyStatus string

const (
	EnergyStatusSurplus  EnergyStatus = "surplus"
	EnergyStatusDeficit  EnergyStatus = "deficit"
	EnergyStatusBalanced EnergyStatus = "balanced"
)

// Factory represents an economic actor holding energy and settlement-currency
// balances. Balances are stored in the settlement asset's smallest unit so
// that local accounting mirrors on-ledger amounts exactly.
type Factory struct {
	ID                 string    `json:"factory_id"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	ExternalAccountID  string    `json:"external_account_id,omitempty"`
	ExternalSigningKey string    `json:"-"` // Stored in plain text; a known custody weakness
	EnergyType         string    `json:"energy_type"`
	EnergyBalance      int64     `json:"energy_balance"`
	CurrencyBalance    int64     `json:"currency_balance"`
	DailyConsumption   int64     `json:"daily_consumption"`
	AvailableEnergy    int64     `json:"available_energy"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// New creates a new factory with the given parameters
func New(id, name, passwordHash, energyType string, initialEnergy, initialCurrency, dailyConsumption, availableEnergy int64) (*Factory, error) {
	if id == "" {
		return nil, ErrEmptyFactoryID
	}
	if name == "" {
		return nil, ErrEmptyFactoryName
	}
	if initialEnergy < 0 || initialCurrency < 0 || dailyConsumption < 0 || availableEnergy < 0 {
		return nil, ErrNegativeValue
	}

	now := time.Now()
	return &Factory{
		ID:               id,
		Name:             name,
		PasswordHash:     passwordHash,
		EnergyType:       energyType,
		EnergyBalance:    initialEnergy,
		CurrencyBalance:  initialCurrency,
		DailyConsumption: dailyConsumption,
		AvailableEnergy:  availableEnergy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// HasExternalAccount reports whether the factory has been provisioned on the
// external ledger.
func (f *Factory) HasExternalAccount() bool {
	return f.ExternalAccountID != ""
}

// CanDebitEnergy checks whether the factory holds at least amount energy units
func (f *Factory) CanDebitEnergy(amount int64) bool {
	return f.EnergyBalance >= amount
}

// CanDebitCurrency checks whether the factory holds at least amount currency units
func (f *Factory) CanDebitCurrency(amount int64) bool {
	return f.CurrencyBalance >= amount
}

// Status derives the surplus/deficit classification from available energy and
// daily consumption.
func (f *Factory) Status() EnergyStatus {
	switch diff := f.AvailableEnergy - f.DailyConsumption; {
	case diff > 0:
		return EnergyStatusSurplus
	case diff < 0:
		return EnergyStatusDeficit
	default:
		return EnergyStatusBalanced
	}
}
