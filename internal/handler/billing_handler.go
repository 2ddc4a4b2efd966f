package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

type paymentService interface {
	Plans() []models.Plan
	Simulate(ctx context.Context, principal models.Principal, req dto.SimulatePaymentRequest) (*dto.SimulatePaymentResponse, error)
}

type apiKeyService interface {
	Generate(ctx context.Context, principal models.Principal, req dto.GenerateKeyRequest) (*models.APIKey, error)
	ListMine(ctx context.Context, principal models.Principal) ([]models.APIKey, error)
}

// BillingHandler exposes plans, simulated checkout and API keys.
type BillingHandler struct {
	payments paymentService
	keys     apiKeyService
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(payments paymentService, keys apiKeyService) *BillingHandler {
	return &BillingHandler{payments: payments, keys: keys}
}

// Plans godoc
// @Summary List plans
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payment/plans [get]
func (h *BillingHandler) Plans(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.payments.Plans(), nil)
}

// SimulatePayment godoc
// @Summary Simulate payment
// @Description Charge a plan, issue its API key and apply the role it grants
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SimulatePaymentRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payment/simulate-payment [post]
func (h *BillingHandler) SimulatePayment(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SimulatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payment payload"))
		return
	}
	res, err := h.payments.Simulate(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, res, "payment successful")
}

// GenerateKey godoc
// @Summary Generate API key
// @Tags API Keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateKeyRequest false "Plan"
// @Success 201 {object} response.Envelope
// @Router /keys/generate [post]
func (h *BillingHandler) GenerateKey(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GenerateKeyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err, "invalid key payload"))
			return
		}
	}
	key, err := h.keys.Generate(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, key)
}

// MyKeys godoc
// @Summary List own API keys
// @Tags API Keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /keys/my [get]
func (h *BillingHandler) MyKeys(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	keys, err := h.keys.ListMine(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, keys, nil)
}
