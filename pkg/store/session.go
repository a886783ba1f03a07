package store

import (
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
)

// UploadedFile is the single retained file handle plus its derived preview.
type UploadedFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	MIMEType  string `json:"mime_type"`
	Extension string `json:"extension"`

	// Preview (nil/empty when it could not be derived)
	PageCount *int   `json:"page_count,omitempty"`
	Thumbnail []byte `json:"-"`
}

// Quote is the payable amount carried by a quota rejection.
type Quote struct {
	Mode          constant.Mode `json:"mode"`
	Amount        float64       `json:"amount"`
	BillablePages int           `json:"billable_pages"`
	Message       string        `json:"message"`
}

// PaymentOrder is the server-created order handed to the checkout.
type PaymentOrder struct {
	OrderId     string  `json:"order_id"`
	KeyId       string  `json:"key_id"`
	Amount      float64 `json:"amount"`
	AmountPaise int64   `json:"amount_paise"`
	Currency    string  `json:"currency"`
	Pages       int     `json:"pages"`
}

// Session represents the page state owned by one controller container.
type Session struct {
	Email string `json:"email"`

	// THE WORKBENCH
	File  *UploadedFile `json:"file"`
	Mode  constant.Mode `json:"mode"`
	JobID string        `json:"job_id"`

	Trial *dto.TrialInfo `json:"trial"`

	// THE CHECKOUT COUNTER (only between quota rejection and verification)
	Quote *Quote        `json:"quote"`
	Order *PaymentOrder `json:"order"`
}

func (s *Session) Ready() bool {
	return s.File != nil && s.Mode.Valid()
}

// Reset drops everything but the login email.
func (s *Session) Reset() {
	s.File = nil
	s.Mode = 0
	s.JobID = ""
	s.Trial = nil
	s.ClearPayment()
}

func (s *Session) ClearPayment() {
	s.Quote = nil
	s.Order = nil
}
