package cctp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config represents IRIS client configuration
type Config struct {
	BaseURL           string
	Environment       string // "sandbox" or "mainnet"
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client polls the Circle IRIS attestation API
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	logger         *zap.Logger
}

// NewClient creates a new IRIS API client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = MaxRequestsPerSecond
	}
	if config.BaseURL == "" {
		if config.Environment == "sandbox" {
			config.BaseURL = IrisSandboxURL
		} else {
			config.BaseURL = IrisMainnetURL
		}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	cbSettings := gobreaker.Settings{
		Name:        "IrisAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Client errors and malformed bodies say nothing about IRIS health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				return upstream.IsClientError()
			}
			var malformed *MalformedResponseError
			return errors.As(err, &malformed)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("IRIS circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:         logger,
	}
}

// BaseURL returns the resolved IRIS endpoint
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// FetchAttestation performs one poll for the burn's attestation. A 404
// or an attestation that is not signed yet yields NotReady.
func (c *Client) FetchAttestation(ctx context.Context, burn entities.BurnMessage) (*PollResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, burn)
	})
	if err != nil {
		metrics.RecordAttestationPoll(uint32(burn.SourceDomain), metrics.OutcomeError)
		c.logger.Warn("Attestation poll failed",
			zap.Uint32("domain", uint32(burn.SourceDomain)),
			zap.String("signature", burn.Signature),
			zap.Error(err))
		return nil, err
	}

	result := out.(*PollResult)
	metrics.RecordAttestationPoll(uint32(burn.SourceDomain), result.State.String())
	c.logger.Debug("Attestation polled",
		zap.Uint32("domain", uint32(burn.SourceDomain)),
		zap.String("signature", burn.Signature),
		zap.String("state", result.State.String()))
	return result, nil
}

func (c *Client) fetch(ctx context.Context, burn entities.BurnMessage) (*PollResult, error) {
	endpoint := fmt.Sprintf("%s/%s/%s",
		c.config.BaseURL,
		strconv.FormatUint(uint64(burn.SourceDomain), 10),
		url.PathEscape(burn.Signature))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &PollResult{State: NotReady}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseMessages(body)
}

func parseMessages(body []byte) (*PollResult, error) {
	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	if len(parsed.Messages) == 0 {
		return nil, &MalformedResponseError{Reason: "no messages"}
	}

	first := parsed.Messages[0]
	if first.Message == nil {
		return nil, &MalformedResponseError{Reason: "message field missing"}
	}
	if first.Attestation == nil {
		return nil, &MalformedResponseError{Reason: "attestation field missing"}
	}
	if !IsAttestationReady(*first.Attestation) {
		return &PollResult{State: NotReady}, nil
	}

	return &PollResult{
		State: Ready,
		Attestation: &entities.Attestation{
			Message:     *first.Message,
			Attestation: *first.Attestation,
			EventNonce:  first.nonce(),
		},
	}, nil
}
