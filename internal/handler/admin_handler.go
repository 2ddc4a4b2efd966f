package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/middleware"
	"github.com/noah-isme/datamatch-api/internal/models"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

type adminService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	ToggleBlock(ctx context.Context, id int64) (*dto.BlockUserResponse, error)
	Promote(ctx context.Context, req dto.PromoteUserRequest) error
	Overview(ctx context.Context) (*models.Overview, bool, error)
}

type adminKeyService interface {
	ListAll(ctx context.Context) ([]models.APIKeyWithOwner, error)
	Revoke(ctx context.Context, id int64) error
}

type adminPaymentService interface {
	ListAll(ctx context.Context) ([]models.PaymentWithOwner, error)
}

type adminDatasetService interface {
	ListAll(ctx context.Context) ([]models.DatasetWithOwner, error)
}

// AdminHandler serves the administration console.
type AdminHandler struct {
	admin    adminService
	keys     adminKeyService
	payments adminPaymentService
	datasets adminDatasetService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admin adminService, keys adminKeyService, payments adminPaymentService, datasets adminDatasetService) *AdminHandler {
	return &AdminHandler{admin: admin, keys: keys, payments: payments, datasets: datasets}
}

// Users godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param search query string false "Email or username search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	filter := models.UserFilter{Search: strings.TrimSpace(c.Query("search"))}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		r := models.UserRole(strings.ToLower(role))
		filter.Role = &r
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	users, pagination, err := h.admin.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// ToggleBlock godoc
// @Summary Block or unblock user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/block [patch]
func (h *AdminHandler) ToggleBlock(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.admin.ToggleBlock(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Promote godoc
// @Summary Promote user to professor
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PromoteUserRequest true "User"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/promote [post]
func (h *AdminHandler) Promote(c *gin.Context) {
	var req dto.PromoteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid promote payload"))
		return
	}
	if err := h.admin.Promote(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, gin.H{"id": req.UserID, "role": models.RoleProfessor}, "user promoted")
}

// Keys godoc
// @Summary List API keys
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/keys [get]
func (h *AdminHandler) Keys(c *gin.Context) {
	keys, err := h.keys.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, keys, nil)
}

// RevokeKey godoc
// @Summary Revoke API key
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Key ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/keys/{id}/revoke [delete]
func (h *AdminHandler) RevokeKey(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.keys.Revoke(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, gin.H{"id": id, "active": false}, "key revoked")
}

// Payments godoc
// @Summary List payments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/payments [get]
func (h *AdminHandler) Payments(c *gin.Context) {
	payments, err := h.payments.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Datasets godoc
// @Summary List datasets with owners
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/datasets [get]
func (h *AdminHandler) Datasets(c *gin.Context) {
	datasets, err := h.datasets.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, datasets, nil)
}

// Overview godoc
// @Summary Platform totals
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, cacheHit, err := h.admin.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}
