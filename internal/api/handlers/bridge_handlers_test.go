package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/internal/domain/services/bridge"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/repositories"
	"github.com/yieldai/bridge_service/pkg/logger"
)

const (
	testSignature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	testRecipient = "0x1"
)

var readyAttestation = "0x" + strings.Repeat("ab", 130)

// fakeIris serves canned IRIS responses
type fakeIris struct {
	mu     sync.Mutex
	status int
	body   string
	paths  []string
}

func (f *fakeIris) set(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeIris) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeIris) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func irisMessage(attestation string) string {
	return fmt.Sprintf(`{"messages":[{"message":"0xdeadbeef","attestation":%q,"eventNonce":"42"}]}`, attestation)
}

// stubMinter records mint submissions
type stubMinter struct {
	mu    sync.Mutex
	calls []aptos.MintRequest
	err   error
}

func (s *stubMinter) SubmitMint(_ context.Context, req aptos.MintRequest) (*aptos.MintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &aptos.MintResult{Hash: "0xfeed", Sender: "0xpayer", To: testRecipient}, nil
}

func (s *stubMinter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type bridgeTestEnv struct {
	router *gin.Engine
	iris   *fakeIris
	minter *stubMinter
	repo   *repositories.MemoryTransferRepository
}

func newBridgeTestEnv(t *testing.T) *bridgeTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &bridgeTestEnv{
		iris:   &fakeIris{status: http.StatusNotFound, body: `{"error":"not found"}`},
		minter: &stubMinter{},
		repo:   repositories.NewMemoryTransferRepository(),
	}
	server := httptest.NewServer(env.iris)
	t.Cleanup(server.Close)

	fetcher := cctp.NewClient(cctp.Config{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	}, zap.NewNop())

	service, err := bridge.NewService(bridge.Deps{
		Fetcher:   fetcher,
		Minter:    env.minter,
		Transfers: env.repo,
	}, bridge.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	h := NewBridgeHandlers(service, logger.NewNop())
	router := gin.New()
	router.POST("/api/aptos/mint-cctp", h.MintCCTP)
	router.POST("/api/bridge/transfers", h.TrackTransfer)
	router.GET("/api/bridge/transfers/:signature", h.GetTransfer)
	env.router = router
	return env
}

func (e *bridgeTestEnv) do(method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func mintBody(signature string, domain int, recipient string) string {
	return fmt.Sprintf(`{"signature":%q,"sourceDomain":%d,"finalRecipient":%q}`, signature, domain, recipient)
}

func TestMintCCTP_PendingAttestation(t *testing.T) {
	env := newBridgeTestEnv(t)
	env.iris.set(http.StatusOK, irisMessage("PENDING"))

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 9, testRecipient))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"pending": true}, body["data"])
	assert.Equal(t, 0, env.minter.count())
	assert.Equal(t, []string{"/9/" + testSignature}, env.iris.requests())
}

func TestMintCCTP_NotFoundIsPending(t *testing.T) {
	env := newBridgeTestEnv(t)

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"pending": true}, body["data"])

	stored, err := env.repo.GetBySourceSignature(context.Background(), entities.DomainSolana, testSignature)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.TransferStateAttestationPolling, stored.State)
	assert.Equal(t, 1, stored.PollAttempts)
}

func TestMintCCTP_ReadyAttestationMintsOnce(t *testing.T) {
	env := newBridgeTestEnv(t)
	env.iris.set(http.StatusOK, irisMessage(readyAttestation))

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))
	require.Equal(t, http.StatusOK, w.Code)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "0xfeed", data["hash"])
	assert.Equal(t, "0xpayer", data["sender"])
	assert.Equal(t, testRecipient, data["to"])
	assert.Equal(t, string(entities.TransferStateMintSubmitted), data["state"])

	// A repeat request is answered from the ledger.
	w, body = env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "0xfeed", data["hash"])
	assert.Equal(t, 1, env.minter.count())
}

func TestMintCCTP_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantText string
	}{
		{
			name:     "missing final recipient",
			body:     `{"signature":"abc","sourceDomain":5}`,
			wantCode: "MISSING_FIELD",
			wantText: "finalRecipient",
		},
		{
			name:     "missing signature",
			body:     `{"sourceDomain":5,"finalRecipient":"0x1"}`,
			wantCode: "MISSING_FIELD",
			wantText: "signature",
		},
		{
			name:     "missing source domain",
			body:     `{"signature":"abc","finalRecipient":"0x1"}`,
			wantCode: "MISSING_FIELD",
			wantText: "sourceDomain",
		},
		{
			name:     "unsupported domain",
			body:     mintBody("abc", 0, "0x1"),
			wantCode: "VALIDATION_ERROR",
			wantText: "source domain",
		},
		{
			name:     "malformed recipient",
			body:     mintBody("abc", 5, "not-an-address"),
			wantCode: "VALIDATION_ERROR",
			wantText: "Aptos address",
		},
		{
			name:     "invalid json",
			body:     `{"signature":`,
			wantCode: ErrCodeInvalidRequest,
			wantText: "Invalid request payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newBridgeTestEnv(t)

			w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			errBody, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, errBody["code"])
			assert.Contains(t, errBody["message"], tt.wantText)
			assert.Empty(t, env.iris.requests())
		})
	}
}

func TestMintCCTP_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCode   string
		retryAfter string
	}{
		{
			name:       "rate limited by IRIS",
			status:     http.StatusTooManyRequests,
			body:       `{"error":"slow down"}`,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "UPSTREAM_ERROR",
			retryAfter: retryAfterSeconds,
		},
		{
			name:       "IRIS outage",
			status:     http.StatusBadGateway,
			body:       `bad gateway`,
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "empty messages",
			status:     http.StatusOK,
			body:       `{"messages":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "MALFORMED_RESPONSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newBridgeTestEnv(t)
			env.iris.set(tt.status, tt.body)

			w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			errBody, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, errBody["code"])
			assert.Equal(t, 0, env.minter.count())
		})
	}
}

func TestMintCCTP_MissingPayer(t *testing.T) {
	env := newBridgeTestEnv(t)
	env.iris.set(http.StatusOK, irisMessage(readyAttestation))
	env.minter.err = &aptos.ConfigError{
		Setting: "APTOS_PAYER_WALLET_PRIVATE_KEY",
		Err:     errors.New("neither a private key nor a mnemonic is configured"),
	}

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "CONFIGURATION_ERROR", errBody["code"])
	assert.Contains(t, errBody["message"], "APTOS_PAYER_WALLET_PRIVATE_KEY")
}

func TestMintCCTP_OnChainRejection(t *testing.T) {
	env := newBridgeTestEnv(t)
	env.iris.set(http.StatusOK, irisMessage(readyAttestation))
	env.minter.err = &aptos.SubmitError{VMStatus: "ENONCE_ALREADY_USED", Err: errors.New("vm rejected")}

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "ONCHAIN_SUBMIT_FAILED", errBody["code"])
	assert.Contains(t, errBody["message"], "ENONCE_ALREADY_USED")

	// The rejected transfer is not minted again.
	w, body = env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))
	assert.Equal(t, http.StatusConflict, w.Code)
	errBody = body["error"].(map[string]interface{})
	assert.Equal(t, "TRANSFER_FAILED", errBody["code"])
	assert.Equal(t, 1, env.minter.count())
}

func TestMintCCTP_RecipientMismatch(t *testing.T) {
	env := newBridgeTestEnv(t)

	w, _ := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, testRecipient))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(http.MethodPost, "/api/aptos/mint-cctp", mintBody(testSignature, 5, "0x2"))
	assert.Equal(t, http.StatusConflict, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "RECIPIENT_MISMATCH", errBody["code"])
	assert.Equal(t, 0, env.minter.count())
}

func TestTrackAndGetTransfer(t *testing.T) {
	env := newBridgeTestEnv(t)

	w, body := env.do(http.MethodPost, "/api/bridge/transfers", mintBody(testSignature, 5, testRecipient))
	require.Equal(t, http.StatusAccepted, w.Code)
	data := body["data"].(map[string]interface{})
	transfer := data["transfer"].(map[string]interface{})
	assert.Equal(t, true, transfer["autoRelay"])
	assert.Equal(t, string(entities.TransferStateBurnSubmitted), transfer["state"])
	// Tracking only registers the burn.
	assert.Empty(t, env.iris.requests())

	w, body = env.do(http.MethodGet, "/api/bridge/transfers/"+testSignature, "")
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	status := data["status"].(map[string]interface{})
	assert.Equal(t, string(entities.StatusPending), status["status"])
	assert.Equal(t, testSignature, status["sourceTxHash"])

	w, body = env.do(http.MethodGet, "/api/bridge/transfers/"+testSignature+"?sourceDomain=9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRANSFER_NOT_FOUND", body["error"].(map[string]interface{})["code"])

	w, body = env.do(http.MethodGet, "/api/bridge/transfers/"+testSignature+"?sourceDomain=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]interface{})["code"])
}
