// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/trafficdept/dlms-backend/internal/apperrors"
	"github.com/trafficdept/dlms-backend/internal/config"
	"github.com/trafficdept/dlms-backend/internal/events"
	"github.com/trafficdept/dlms-backend/internal/models"
)

type PaymentService struct {
	db         *gorm.DB
	config     *config.Config
	dispatcher *events.Dispatcher
}

type CreateFeeIntentRequest struct {
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Purpose string    `json:"purpose" validate:"required,oneof=application_fee exam_fee"`
}

type FeeIntentResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Reference    string    `json:"reference"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
}

type ConfirmPaymentRequest struct {
	PaymentID uuid.UUID `json:"payment_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, dispatcher *events.Dispatcher) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:         db,
		config:     cfg,
		dispatcher: dispatcher,
	}
}

// CreateFeeIntent opens a pending Payment for a fixed fee and, when Stripe is
// configured, backs it with a payment intent.
func (s *PaymentService) CreateFeeIntent(req *CreateFeeIntentRequest) (*FeeIntentResponse, error) {
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		return nil, fieldErrors
	}

	amount := s.config.Payment.ApplicationFee
	if req.Purpose == "exam_fee" {
		amount = s.config.Payment.ExamFee
	}
	currency := s.config.Payment.DefaultCurrency

	reference := fmt.Sprintf("LOCAL-%s", uuid.New().String()[:8])
	clientSecret := ""

	if s.config.Payment.StripeSecretKey != "" {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(int64(amount * 100)),
			Currency: stripe.String(currency),
		}
		params.AddMetadata("user_id", req.UserID.String())
		params.AddMetadata("purpose", req.Purpose)

		pi, err := paymentintent.New(params)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}
		reference = pi.ID
		clientSecret = pi.ClientSecret
	}

	payment := &models.Payment{
		UserID:    req.UserID,
		Purpose:   req.Purpose,
		Amount:    amount,
		Currency:  currency,
		Status:    models.PaymentStatusPending,
		Reference: reference,
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return &FeeIntentResponse{
		PaymentID:    payment.ID,
		ClientSecret: clientSecret,
		Reference:    reference,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// Confirm settles a pending payment, consulting Stripe for the intent status
// when one backs the record.
func (s *PaymentService) Confirm(req *ConfirmPaymentRequest) (*models.Payment, error) {
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		return nil, fieldErrors
	}

	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("payment")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payment.Status == models.PaymentStatusCompleted {
		return &payment, nil
	}

	status := models.PaymentStatusCompleted
	if s.config.Payment.StripeSecretKey != "" {
		pi, err := paymentintent.Get(payment.Reference, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get payment intent: %w", err)
		}
		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			status = models.PaymentStatusFailed
		}
	}

	now := time.Now()
	payment.Status = status
	if status == models.PaymentStatusCompleted {
		payment.PaidAt = &now
	}

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	if status == models.PaymentStatusCompleted {
		s.dispatcher.Publish(events.Event{
			Name:   events.PaymentCompleted,
			UserID: payment.UserID,
			Payload: map[string]interface{}{
				"payment_id": payment.ID,
				"purpose":    payment.Purpose,
				"amount":     payment.Amount,
				"reference":  payment.Reference,
			},
		})
	}

	return &payment, nil
}
