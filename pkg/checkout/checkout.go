// Package checkout abstracts the hosted payment widget.
package checkout

import "context"

type Request struct {
	KeyID        string
	AmountPaise  int64
	Currency     string
	OrderID      string
	Name         string
	Description  string
	PrefillEmail string
}

type Status string

const (
	StatusSuccess   Status = "success"
	StatusDismissed Status = "dismissed"
	StatusFailed    Status = "failed"
)

// Result is what the provider reported. The signature fields are only set
// on success; Reason only on dismissal or failure.
type Result struct {
	Status    Status
	PaymentID string
	OrderID   string
	Signature string
	Reason    string
}

// Checkout opens the provider widget and blocks until the user finishes
// with it or ctx ends.
type Checkout interface {
	Open(ctx context.Context, req Request) (Result, error)
}
