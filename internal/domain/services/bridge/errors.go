package bridge

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
)

// classify maps adapter errors onto the domain taxonomy. Domain errors
// pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	var (
		upstream   *cctp.UpstreamError
		malformed  *cctp.MalformedResponseError
		configErr  *aptos.ConfigError
		submitErr  *aptos.SubmitError
		apiErr     *aptos.APIError
		signingErr *svm.SigningError
		sendErr    *svm.SubmitError
		failedErr  *svm.TransactionFailedError
	)
	switch {
	case errors.As(err, &upstream):
		return domainerrors.UpstreamError("Circle attestation API", upstream.StatusCode, upstream.Body).
			WithRetryable(upstream.IsRateLimited())
	case errors.As(err, &malformed):
		return domainerrors.MalformedResponseError("Circle attestation API", malformed.Reason)
	case errors.Is(err, cctp.ErrAttestationTimeout):
		return domainerrors.ServiceUnavailableError("attestation", err)
	case errors.As(err, &configErr):
		return domainerrors.ConfigurationError(configErr.Setting, configErr.Err)
	case errors.As(err, &submitErr):
		return domainerrors.OnChainSubmitError("aptos", submitErr.VMStatus, submitErr.Err)
	case errors.As(err, &apiErr):
		return domainerrors.UpstreamError("Aptos fullnode", apiErr.StatusCode, apiErr.Message)
	case errors.As(err, &failedErr):
		return domainerrors.OnChainSubmitError("solana", "", err)
	case errors.As(err, &sendErr):
		return domainerrors.OnChainSubmitError("solana", "", sendErr.Err)
	case errors.As(err, &signingErr), errors.Is(err, svm.ErrAccountMissing), errors.Is(err, svm.ErrKeypairReused):
		return domainerrors.InternalError("burn transaction could not be signed", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domainerrors.ServiceUnavailableError("upstream", err)
	case errors.Is(err, context.DeadlineExceeded):
		return domainerrors.ServiceUnavailableError("upstream", err)
	default:
		return domainerrors.InternalError("bridge operation failed", err)
	}
}
