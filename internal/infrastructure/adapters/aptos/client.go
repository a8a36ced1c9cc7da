package aptos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/api"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/pkg/security"
)

const (
	MainnetURL = "https://api.mainnet.aptoslabs.com"
	TestnetURL = "https://api.testnet.aptoslabs.com"

	defaultTimeout = 30 * time.Second
)

var vmCodePattern = regexp.MustCompile(`Code:\s*([A-Z0-9_]+)`)

// ErrLedgerTimestamp is returned when ledger info lacks a usable timestamp
var ErrLedgerTimestamp = errors.New("ledger_timestamp missing or unparseable")

// ClientConfig represents fullnode client configuration
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LedgerInfo is the subset of GET /v1 the minter needs
type LedgerInfo struct {
	ChainID               uint8
	LedgerVersion         uint64
	LedgerTimestampMicros uint64
}

// LedgerTime converts the microsecond ledger timestamp
func (l LedgerInfo) LedgerTime() time.Time {
	return time.UnixMicro(int64(l.LedgerTimestampMicros))
}

// TransactionStatus is the committed state of a transaction
type TransactionStatus struct {
	Hash     string
	Pending  bool
	Success  bool
	VMStatus string
}

// Client wraps the SDK node client with a circuit breaker and maps REST
// failures to APIError
type Client struct {
	node           *aptossdk.NodeClient
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient creates a new fullnode client. BaseURL may omit /v1.
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	node, err := aptossdk.NewNodeClientWithHttpClient(nodeURL(config.BaseURL), 0, &http.Client{Timeout: config.Timeout})
	if err != nil {
		return nil, &ConfigError{Setting: "APTOS_LABS_API_URL", Err: err}
	}
	if config.APIKey != "" {
		node.SetHeader("Authorization", "Bearer "+config.APIKey)
	}

	cbSettings := gobreaker.Settings{
		Name:        "AptosAPI",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Aptos circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		node:           node,
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		logger:         logger,
	}, nil
}

func nodeURL(base string) string {
	if base == "" {
		base = MainnetURL
	}
	return strings.TrimSuffix(strings.TrimRight(base, "/"), "/v1") + "/v1"
}

// LedgerInfo fetches GET /v1
func (c *Client) LedgerInfo(ctx context.Context) (*LedgerInfo, error) {
	info, err := call(ctx, c, "ledger info", c.node.Info)
	if err != nil {
		return nil, err
	}
	micros, err := strconv.ParseUint(info.LedgerTimestampStr, 10, 64)
	if err != nil {
		return nil, ErrLedgerTimestamp
	}
	return &LedgerInfo{
		ChainID:               info.ChainId,
		LedgerVersion:         info.LedgerVersion(),
		LedgerTimestampMicros: micros,
	}, nil
}

// SequenceNumber fetches the next sequence number of an account
func (c *Client) SequenceNumber(ctx context.Context, address aptossdk.AccountAddress) (uint64, error) {
	account, err := call(ctx, c, "account", func() (aptossdk.AccountInfo, error) {
		return c.node.Account(address)
	})
	if err != nil {
		return 0, err
	}
	seq, err := account.SequenceNumber()
	if err != nil {
		return 0, fmt.Errorf("account response has no sequence_number: %w", err)
	}
	return seq, nil
}

// EstimateGasPrice returns the node's suggested gas unit price
func (c *Client) EstimateGasPrice(ctx context.Context) (uint64, error) {
	estimate, err := call(ctx, c, "estimate gas price", c.node.EstimateGasPrice)
	if err != nil {
		return 0, err
	}
	if estimate.GasEstimate == 0 {
		return 0, fmt.Errorf("gas price response has no gas_estimate")
	}
	return estimate.GasEstimate, nil
}

// SubmitTransaction posts a BCS-encoded signed transaction and returns
// the pending hash
func (c *Client) SubmitTransaction(ctx context.Context, signed *aptossdk.SignedTransaction) (string, error) {
	pending, err := call(ctx, c, "submit transaction", func() (*api.SubmitTransactionResponse, error) {
		return c.node.SubmitTransaction(signed)
	})
	if err != nil {
		return "", err
	}
	if pending == nil || pending.Hash == "" {
		return "", fmt.Errorf("submit response has no hash")
	}
	return pending.Hash, nil
}

// TransactionByHash looks up a submitted transaction
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*TransactionStatus, error) {
	txn, err := call(ctx, c, "transaction by hash", func() (*api.Transaction, error) {
		return c.node.TransactionByHash(hash)
	})
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.Inner == nil {
		return nil, fmt.Errorf("transaction %s: empty response", hash)
	}

	status := &TransactionStatus{
		Hash:    txn.Hash(),
		Pending: txn.Type == api.TransactionVariantPending,
	}
	if user, err := txn.UserTransaction(); err == nil {
		status.Success = user.Success
		status.VMStatus = user.VmStatus
	}
	return status, nil
}

// View calls a Move view function and returns its decoded JSON values
func (c *Client) View(ctx context.Context, payload *aptossdk.ViewPayload) ([]any, error) {
	return call(ctx, c, "view", func() ([]any, error) {
		return c.node.View(payload)
	})
}

// APTBalance returns the octa balance of an account through coin::balance
func (c *Client) APTBalance(ctx context.Context, address aptossdk.AccountAddress) (uint64, error) {
	return call(ctx, c, "apt balance", func() (uint64, error) {
		return c.node.AccountAPTBalance(address)
	})
}

// call runs one SDK request through the circuit breaker. The SDK does not
// take a context, so cancellation is only honored before the request starts.
func call[T any](ctx context.Context, c *Client, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		value, err := fn()
		if err != nil {
			return nil, c.translate(op, err)
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func (c *Client) translate(op string, err error) error {
	var httpErr *aptossdk.HttpError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("aptos %s: %w", op, err)
	}
	apiErr := parseAPIError(httpErr.StatusCode, httpErr.Body)
	c.logger.Debug("Aptos API error",
		zap.String("operation", op),
		zap.String("method", httpErr.Method),
		zap.String("path", httpErr.RequestUrl.Path),
		zap.Int("status", httpErr.StatusCode),
		zap.String("error_code", apiErr.ErrorCode),
		zap.String("vm_status", apiErr.VMStatus))
	return apiErr
}

// parseAPIError extracts error_code, message and the VM status. The VM
// status comes from vm_error_code when present, otherwise from a
// "Code: X" fragment of the message.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if !gjson.ValidBytes(body) {
		apiErr.Message = security.MaskString(string(body))
		return apiErr
	}
	apiErr.ErrorCode = gjson.GetBytes(body, "error_code").String()
	apiErr.Message = gjson.GetBytes(body, "message").String()
	if code := gjson.GetBytes(body, "vm_error_code"); code.Exists() {
		apiErr.VMStatus = code.String()
	}
	if apiErr.VMStatus == "" {
		if m := vmCodePattern.FindStringSubmatch(apiErr.Message); m != nil {
			apiErr.VMStatus = m[1]
		}
	}
	return apiErr
}
