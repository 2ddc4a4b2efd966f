package dto

// GenerateKeyRequest issues a key for the caller. Plan defaults to "free".
type GenerateKeyRequest struct {
	Plan string `json:"plan" validate:"omitempty,max=32"`
}

// SimulatePaymentRequest buys a catalog plan. CardNumber is accepted and ignored.
type SimulatePaymentRequest struct {
	PlanName   string `json:"planName" validate:"required"`
	CardNumber string `json:"cardNumber"`
}

// SimulatePaymentResponse describes the activated plan.
type SimulatePaymentResponse struct {
	TransactionID  string `json:"transactionId"`
	APIKey         string `json:"apiKey"`
	UploadsAllowed int    `json:"uploadsAllowed"`
	Role           string `json:"role"`
}
