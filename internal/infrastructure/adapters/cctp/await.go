package cctp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/pkg/retry"
)

// PollPolicy bounds AwaitAttestation
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy polls every 5s for up to 20 minutes
var DefaultPollPolicy = PollPolicy{Interval: 5 * time.Second, MaxAttempts: 240}

// AwaitAttestation polls until the attestation is ready. Errors other
// than NotReady stop the loop at once; an exhausted budget returns
// ErrAttestationTimeout.
func AwaitAttestation(ctx context.Context, fetcher AttestationFetcher, burn entities.BurnMessage, policy PollPolicy, logger *zap.Logger) (*entities.Attestation, error) {
	var attestation *entities.Attestation

	err := retry.Poll(ctx, retry.Policy{MaxAttempts: policy.MaxAttempts, Interval: policy.Interval}, logger, "attestation",
		func(ctx context.Context, attempt int) (bool, error) {
			result, err := fetcher.FetchAttestation(ctx, burn)
			if err != nil {
				return false, err
			}
			if !result.IsReady() {
				logger.Debug("Attestation not ready",
					zap.String("signature", burn.Signature),
					zap.Int("attempt", attempt))
				return false, nil
			}
			attestation = result.Attestation
			return true, nil
		})
	if errors.Is(err, retry.ErrAttemptsExhausted) {
		return nil, ErrAttestationTimeout
	}
	if err != nil {
		return nil, err
	}
	return attestation, nil
}
