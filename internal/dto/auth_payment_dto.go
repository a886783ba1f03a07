// FILE: internal/dto/auth_payment_dto.go
package dto

// --- Auth DTOs ---

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,contains=@"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,contains=@"`
	OTP   string `json:"otp" validate:"required,min=4"`
}

// AuthResponse is shared by /send-otp and /verify-otp.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TrialCheckRequest struct {
	Mode int `json:"mode"`
}

type TrialInfo struct {
	Available      bool    `json:"available"`
	PagesUsed      float64 `json:"pages_used"`
	PagesRemaining float64 `json:"pages_remaining"`
	Limit          float64 `json:"limit"`
}

// --- Payment DTOs ---

type CreatePaymentRequest struct {
	Mode  int `json:"mode" validate:"required,min=1,max=5"`
	Pages int `json:"pages" validate:"required,min=1"`
}

type CreatePaymentResponse struct {
	Success     bool    `json:"success"`
	KeyId       string  `json:"key_id"`
	AmountPaise int64   `json:"amount_paise"`
	Currency    string  `json:"currency"`
	OrderId     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	Pages       int     `json:"pages"`
	Rate        float64 `json:"rate,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderId   string  `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentId string  `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string  `json:"razorpay_signature" validate:"required"`
	Mode              int     `json:"mode" validate:"required,min=1,max=5"`
	Pages             int     `json:"pages" validate:"required,min=1"`
	Amount            float64 `json:"amount"`
}

type VerifyPaymentResponse struct {
	Success   bool   `json:"success"`
	PaymentId string `json:"payment_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}
