// FILE: internal/controller/payment_controller.go
package controller

import (
	"context"
	"fmt"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/checkout"
	"shabdsetu-client/pkg/store"

	"github.com/go-playground/validator/v10"
)

type IPaymentController interface {
	// Initiate pays the pending quote and, once verified, resubmits the
	// retained file with the payment id.
	Initiate(ctx context.Context, opts SubmitOptions) (*ProcessResult, error)
}

type paymentController struct {
	backend  apiclient.IBackend
	checkout checkout.Checkout
	jobs     IJobController
	view     view.View
	session  *store.Session
	logger   logger.ILogger
	validate *validator.Validate
	cfg      config.CheckoutConfig
}

func NewPaymentController(
	backend apiclient.IBackend,
	co checkout.Checkout,
	jobs IJobController,
	v view.View,
	session *store.Session,
	log logger.ILogger,
	cfg config.CheckoutConfig,
) IPaymentController {
	return &paymentController{
		backend:  backend,
		checkout: co,
		jobs:     jobs,
		view:     v,
		session:  session,
		logger:   log,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (c *paymentController) restore() {
	c.view.SetBusy(view.ControlPay, false)
	c.view.SetEnabled(view.ControlPay, true)
}

func (c *paymentController) fail(text string) {
	c.view.Notify(view.Notice{Kind: view.NoticeError, Text: text})
}

func (c *paymentController) Initiate(ctx context.Context, opts SubmitOptions) (*ProcessResult, error) {
	quote := c.session.Quote
	if quote == nil {
		c.fail("Nothing to pay for. Please submit the document first.")
		return nil, ErrNoQuote
	}

	orderReq := dto.CreatePaymentRequest{Mode: int(quote.Mode), Pages: quote.BillablePages}
	if err := c.validate.Struct(orderReq); err != nil {
		c.logger.Warn("PAYMENT", "Quote cannot be paid", map[string]interface{}{"mode": orderReq.Mode, "pages": orderReq.Pages, "error": err.Error()})
		c.fail("Nothing to pay for. Please submit the document first.")
		c.restore()
		return nil, fmt.Errorf("%w: %v", ErrNoQuote, err)
	}

	c.view.SetBusy(view.ControlPay, true)

	// 1. Server-side order
	created, err := c.backend.CreatePayment(ctx, orderReq)
	if err != nil {
		c.logger.Error("PAYMENT", "Create payment failed", map[string]interface{}{"error": err})
		c.fail("Failed to create payment. Please try again.")
		c.restore()
		return nil, err
	}
	if !created.Success {
		msg := firstNonEmpty(created.Error, "Failed to create payment. Please try again.")
		c.fail(msg)
		c.restore()
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	order := &store.PaymentOrder{
		OrderId:     created.OrderId,
		KeyId:       created.KeyId,
		Amount:      created.Amount,
		AmountPaise: created.AmountPaise,
		Currency:    created.Currency,
		Pages:       created.Pages,
	}
	if order.Pages == 0 {
		order.Pages = quote.BillablePages
	}
	c.session.Order = order

	c.logger.Info("PAYMENT", "Order created", map[string]interface{}{"order_id": order.OrderId, "amount": order.Amount, "pages": order.Pages})

	// 2. Provider checkout
	res, err := c.checkout.Open(ctx, checkout.Request{
		KeyID:        order.KeyId,
		AmountPaise:  order.AmountPaise,
		Currency:     order.Currency,
		OrderID:      order.OrderId,
		Name:         c.cfg.DisplayName,
		Description:  fmt.Sprintf("%s - %d page(s)", quote.Mode, order.Pages),
		PrefillEmail: c.session.Email,
	})
	if err != nil {
		c.session.Order = nil
		c.logger.Error("PAYMENT", "Checkout could not be opened", map[string]interface{}{"error": err})
		c.fail("Could not open the payment window.")
		c.restore()
		return nil, err
	}

	switch res.Status {
	case checkout.StatusDismissed:
		c.session.Order = nil
		c.view.Notify(view.Notice{Kind: view.NoticeWarning, Text: "Payment cancelled"})
		c.restore()
		return nil, ErrPaymentCancelled
	case checkout.StatusFailed:
		c.session.Order = nil
		c.fail("Payment failed: " + firstNonEmpty(res.Reason, "unknown error"))
		c.restore()
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, res.Reason)
	}

	// 3. Server-side verification; the order and quote are spent either way
	verifyReq := dto.VerifyPaymentRequest{
		RazorpayOrderId:   firstNonEmpty(res.OrderID, order.OrderId),
		RazorpayPaymentId: res.PaymentID,
		RazorpaySignature: res.Signature,
		Mode:              int(quote.Mode),
		Pages:             order.Pages,
		Amount:            order.Amount,
	}
	c.session.ClearPayment()
	c.view.SetBusy(view.ControlPay, false)
	c.view.SetEnabled(view.ControlPay, false)

	if err := c.validate.Struct(verifyReq); err != nil {
		c.logger.Error("PAYMENT", "Checkout result incomplete", map[string]interface{}{"error": err, "payment_id": res.PaymentID})
		c.fail("Payment verification failed. Please contact support if you were charged.")
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}

	verified, err := c.backend.VerifyPayment(ctx, verifyReq)

	if err != nil {
		c.logger.Error("PAYMENT", "Verify payment failed", map[string]interface{}{"error": err, "payment_id": res.PaymentID})
		c.fail("Payment verification failed. Please contact support if you were charged.")
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}
	if !verified.Success {
		msg := firstNonEmpty(verified.Error, verified.Message, "Payment verification failed.")
		c.logger.Warn("PAYMENT", "Payment rejected at verification", map[string]interface{}{"payment_id": res.PaymentID, "message": msg})
		c.fail(msg)
		return nil, fmt.Errorf("%w: %s", ErrPaymentVerification, msg)
	}

	c.view.Notify(view.Notice{Kind: view.NoticeSuccess, Text: "Payment successful. Processing your document..."})

	// 4. Paid resubmission
	opts.PaymentID = firstNonEmpty(verified.PaymentId, res.PaymentID)
	return c.jobs.Process(ctx, opts)
}
