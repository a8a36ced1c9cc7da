package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/pkg/logger"
)

// BridgeService is the part of the bridge service the API exposes
type BridgeService interface {
	MintFromBurn(ctx context.Context, req *entities.MintCCTPRequest) (*entities.MintOutcome, error)
	TrackTransfer(ctx context.Context, req *entities.TrackTransferRequest) (*entities.TransferView, error)
	GetTransfer(ctx context.Context, domain entities.Domain, signature string) (*entities.TransferView, error)
}

// BridgeHandlers serves the CCTP bridge endpoints
type BridgeHandlers struct {
	service BridgeService
	logger  *logger.Logger
}

// NewBridgeHandlers creates new bridge handlers
func NewBridgeHandlers(service BridgeService, logger *logger.Logger) *BridgeHandlers {
	return &BridgeHandlers{
		service: service,
		logger:  logger,
	}
}

// MintCCTP handles POST /api/aptos/mint-cctp. While the attestation is not
// signed yet it answers 200 {pending:true}; callers poll until they get a
// mint result.
func (h *BridgeHandlers) MintCCTP(c *gin.Context) {
	var req entities.MintCCTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	outcome, err := h.service.MintFromBurn(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, "mint_cctp", err)
		return
	}

	if outcome.Pending {
		respondSuccess(c, http.StatusOK, entities.PendingResponse{Pending: true})
		return
	}
	respondSuccess(c, http.StatusOK, outcome.Result)
}

// TrackTransfer handles POST /api/bridge/transfers
func (h *BridgeHandlers) TrackTransfer(c *gin.Context) {
	var req entities.TrackTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	view, err := h.service.TrackTransfer(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, "track_transfer", err)
		return
	}
	respondSuccess(c, http.StatusAccepted, view)
}

// GetTransfer handles GET /api/bridge/transfers/:signature. The source
// domain defaults to Solana.
func (h *BridgeHandlers) GetTransfer(c *gin.Context) {
	domain := entities.DomainSolana
	if raw := c.Query("sourceDomain"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || !entities.Domain(parsed).IsSupported() {
			respondDomainError(c, h.logger, "get_transfer",
				domainerrors.ValidationError("sourceDomain", "unsupported source domain "+raw))
			return
		}
		domain = entities.Domain(parsed)
	}

	view, err := h.service.GetTransfer(c.Request.Context(), domain, c.Param("signature"))
	if err != nil {
		respondDomainError(c, h.logger, "get_transfer", err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}
