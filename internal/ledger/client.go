// Package ledger talks to the external token network. The node exposes a
// JSON-RPC endpoint; this package wraps the four primitives the settlement
// engine needs (account provisioning, asset association, transfer, mint) and
// classifies every failure as either a terminal rejection or a retryable
// unavailability.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
)

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// Client is a JSON-RPC client for the token node
type Client struct {
	nodeURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a token-node client. Per-call deadlines come from the
// caller's context; the zero-timeout http.Client never cuts a call short on
// its own.
func NewClient(logger *slog.Logger, nodeURL string) (*Client, error) {
	if nodeURL == "" {
		return nil, errors.New("ledger node URL required")
	}

	return &Client{
		nodeURL:    nodeURL,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// call performs one JSON-RPC round-trip and maps failures onto the
// rejected/unavailable taxonomy.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ErrUnavailable{Method: method, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnavailable{Method: method, Timeout: isTimeout(err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnavailable{Method: method, Err: fmt.Errorf("node returned HTTP %d", resp.StatusCode)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, ErrUnavailable{Method: method, Err: fmt.Errorf("malformed node response: %w", err)}
	}

	if rpcResp.Error != nil {
		return nil, ErrRejected{Method: method, Code: rpcResp.Error.Code, Reason: rpcResp.Error.Message}
	}

	return rpcResp.Result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CreateAccount provisions a new account on the token network, funded with the
// given native stake. Returns the account identifier and its signing key.
func (c *Client) CreateAccount(ctx context.Context, initialStake int64) (string, string, error) {
	result, err := c.call(ctx, "createaccount", map[string]interface{}{
		"initial_stake": initialStake,
	})
	if err != nil {
		return "", "", err
	}

	var out struct {
		AccountID  string `json:"account_id"`
		SigningKey string `json:"signing_key"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", "", ErrUnavailable{Method: "createaccount", Err: fmt.Errorf("malformed result: %w", err)}
	}

	c.logger.Info("Provisioned ledger account", "external_account_id", out.AccountID)
	return out.AccountID, out.SigningKey, nil
}

// AssociateAsset opts the account in to holding the given asset. The
// association must be signed by the account's own key.
func (c *Client) AssociateAsset(ctx context.Context, accountID, signingKey, assetID string) error {
	_, err := c.call(ctx, "associateasset", map[string]interface{}{
		"account_id":  accountID,
		"signing_key": signingKey,
		"asset_id":    assetID,
	})
	return err
}

// Transfer moves amount of the asset between two accounts, signed by the
// sender's key. Returns the network transaction reference.
func (c *Client) Transfer(ctx context.Context, assetID, fromID, fromKey, toID string, amount int64) (string, error) {
	result, err := c.call(ctx, "transferasset", map[string]interface{}{
		"asset_id":    assetID,
		"from":        fromID,
		"signing_key": fromKey,
		"to":          toID,
		"amount":      amount,
	})
	if err != nil {
		return "", err
	}

	return decodeTxRef("transferasset", result)
}

// Mint creates amount new units of the asset in the treasury account
func (c *Client) Mint(ctx context.Context, assetID, treasuryKey string, amount int64) (string, error) {
	result, err := c.call(ctx, "mintasset", map[string]interface{}{
		"asset_id":    assetID,
		"signing_key": treasuryKey,
		"amount":      amount,
	})
	if err != nil {
		return "", err
	}

	return decodeTxRef("mintasset", result)
}

func decodeTxRef(method string, result json.RawMessage) (string, error) {
	var out struct {
		TxRef string `json:"tx_ref"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", ErrUnavailable{Method: method, Err: fmt.Errorf("malformed result: %w", err)}
	}
	if out.TxRef == "" {
		return "", ErrUnavailable{Method: method, Err: errors.New("node confirmed without a transaction reference")}
	}
	return out.TxRef, nil
}
