package handler

// RegisterFactoryRequest represents a request to register a new factory
type RegisterFactoryRequest struct {
	FactoryID        string `json:"factory_id" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Password         string `json:"password,omitempty"`
	EnergyType       string `json:"energy_type,omitempty"`
	InitialEnergy    int64  `json:"initial_energy" binding:"min=0"`
	InitialCurrency  int64  `json:"initial_currency" binding:"min=0"`
	DailyConsumption int64  `json:"daily_consumption" binding:"min=0"`
	AvailableEnergy  int64  `json:"available_energy" binding:"min=0"`
}

// FactoryResponse represents a factory in API responses
type FactoryResponse struct {
	FactoryID         string `json:"factory_id"`
	Name              string `json:"name"`
	ExternalAccountID string `json:"external_account_id,omitempty"`
	EnergyType        string `json:"energy_type,omitempty"`
	EnergyBalance     int64  `json:"energy_balance"`
	CurrencyBalance   int64  `json:"currency_balance"`
	DailyConsumption  int64  `json:"daily_consumption"`
	AvailableEnergy   int64  `json:"available_energy"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// EnergyStatusResponse classifies a factory's production against its consumption
type EnergyStatusResponse struct {
	FactoryID        string `json:"factory_id"`
	Status           string `json:"status"`
	AvailableEnergy  int64  `json:"available_energy"`
	DailyConsumption int64  `json:"daily_consumption"`
}

// MintRequest represents a request to mint energy for a factory
type MintRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// TransferRequest represents a request to transfer energy between factories
type TransferRequest struct {
	ToFactoryID string `json:"to_factory_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
}

// UpdateValueRequest carries a single non-negative value for the
// available-energy and daily-consumption endpoints
type UpdateValueRequest struct {
	Value int64 `json:"value" binding:"min=0"`
}

// CreateTradeRequest represents a request to create a new trade under a
// caller-supplied trade identifier
type CreateTradeRequest struct {
	TradeID      string `json:"trade_id" binding:"required"`
	SellerID     string `json:"seller_id" binding:"required"`
	BuyerID      string `json:"buyer_id" binding:"required"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	PricePerUnit int64  `json:"price_per_unit" binding:"required,gt=0"`
}

// TradeResponse represents a trade in API responses
type TradeResponse struct {
	TradeID       string `json:"trade_id"`
	SellerID      string `json:"seller_id"`
	BuyerID       string `json:"buyer_id"`
	Amount        int64  `json:"amount"`
	PricePerUnit  int64  `json:"price_per_unit"`
	TotalPrice    int64  `json:"total_price"`
	Status        string `json:"status"`
	ExternalTxRef string `json:"external_tx_ref,omitempty"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// HistoryRecordResponse represents one append-only history record in API responses
type HistoryRecordResponse struct {
	ID               int64  `json:"id"`
	FactoryID        string `json:"factory_id"`
	TransactionType  string `json:"transaction_type"`
	Amount           int64  `json:"amount"`
	RelatedFactoryID string `json:"related_factory_id,omitempty"`
	ExternalTxRef    string `json:"external_tx_ref,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// LoginRequest represents a factory login request
type LoginRequest struct {
	FactoryID string `json:"factory_id" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login in API responses
type LoginResponse struct {
	FactoryID string `json:"factory_id"`
	Name      string `json:"name"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	FactoryID       string `json:"factory_id" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}
