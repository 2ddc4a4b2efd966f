package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

const premiumPlan = "Premium"

var planCatalog = []models.Plan{
	{Name: "Beginner", Uploads: 5, Amount: 0, Features: []string{"Up to 5 uploads", "Basic analysis tools", "Community access"}},
	{Name: "Pro", Uploads: 20, Amount: 9.99, Features: []string{"20 uploads", "Advanced analysis", "Priority support"}},
	{Name: premiumPlan, Uploads: 9999, Amount: 19.99, Features: []string{"Unlimited uploads", "Team management", "Full professor access"}},
}

type paymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	ListWithOwner(ctx context.Context) ([]models.PaymentWithOwner, error)
}

type roleUpdater interface {
	UpdateRole(ctx context.Context, id int64, role models.UserRole) error
}

// PaymentService simulates plan purchases.
type PaymentService struct {
	payments  paymentRepository
	users     roleUpdater
	keys      *APIKeyService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	delay     time.Duration
}

// NewPaymentService constructs a PaymentService. delay simulates the card processor.
func NewPaymentService(payments paymentRepository, users roleUpdater, keys *APIKeyService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, delay time.Duration) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{payments: payments, users: users, keys: keys, metrics: metrics, validator: validate, logger: logger, delay: delay}
}

// Plans returns the static catalog.
func (s *PaymentService) Plans() []models.Plan {
	out := make([]models.Plan, len(planCatalog))
	copy(out, planCatalog)
	return out
}

// Simulate charges the caller for planName, issues a plan key and sets the role
// the plan grants. Administrators keep their role.
func (s *PaymentService) Simulate(ctx context.Context, principal models.Principal, req dto.SimulatePaymentRequest) (*dto.SimulatePaymentResponse, error) {
	userID, err := requireUser(principal)
	if err != nil {
		return nil, err
	}
	req.PlanName = strings.TrimSpace(req.PlanName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "planName is required")
	}
	plan, ok := findPlan(req.PlanName)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid plan")
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payment cancelled")
		case <-timer.C:
		}
	}

	txn, err := randomHex(4)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transaction id")
	}
	payment := &models.Payment{
		UserID:        userID,
		TransactionID: "TXN-" + strings.ToUpper(txn),
		Plan:          plan.Name,
		Amount:        plan.Amount,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	key, err := s.keys.issue(ctx, userID, plan.Name, 24)
	if err != nil {
		return nil, err
	}

	role := principal.PrincipalRole()
	if role != models.RoleAdmin {
		role = models.RoleStudent
		if plan.Name == premiumPlan {
			role = models.RoleProfessor
		}
		if err := s.users.UpdateRole(ctx, userID, role); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
		}
	}

	s.metrics.RecordPayment(plan.Name)
	s.logger.Info("payment simulated", zap.Int64("user_id", userID), zap.String("plan", plan.Name), zap.String("transaction_id", payment.TransactionID))
	return &dto.SimulatePaymentResponse{
		TransactionID:  payment.TransactionID,
		APIKey:         key.Key,
		UploadsAllowed: plan.Uploads,
		Role:           string(role),
	}, nil
}

// ListAll returns every payment with its payer.
func (s *PaymentService) ListAll(ctx context.Context) ([]models.PaymentWithOwner, error) {
	payments, err := s.payments.ListWithOwner(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

func findPlan(name string) (models.Plan, bool) {
	for _, p := range planCatalog {
		if p.Name == name {
			return p, true
		}
	}
	return models.Plan{}, false
}
