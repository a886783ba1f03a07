package controller

import (
	"context"
	"testing"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/checkout"
	"shabdsetu-client/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	*jobFixture
	checkout *fakeCheckout
	ctrl     IPaymentController
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	jf := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	jf.session.Email = "a@b.c"
	jf.session.Quote = &store.Quote{Mode: constant.ModeOCR, Amount: 50, BillablePages: 17, Message: "Trial used up"}
	jf.backend.createPayment = func(req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
		return &dto.CreatePaymentResponse{
			Success:     true,
			KeyId:       "rzp_test",
			OrderId:     "order_1",
			Amount:      float64(req.Pages) * 3,
			AmountPaise: int64(req.Pages) * 300,
			Currency:    "INR",
			Pages:       req.Pages,
		}, nil
	}

	co := &fakeCheckout{}
	f := &paymentFixture{jobFixture: jf, checkout: co}
	f.ctrl = NewPaymentController(jf.backend, co, jf.ctrl, jf.view, jf.session, logger.NewNopLogger(),
		config.CheckoutConfig{DisplayName: "ShabdSetu"})
	return f
}

func TestInitiate_RequiresQuote(t *testing.T) {
	f := newPaymentFixture(t)
	f.session.Quote = nil

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrNoQuote)
	assert.Zero(t, f.backend.count("create_payment"))
}

func TestInitiate_CreateFailureRestoresControl(t *testing.T) {
	f := newPaymentFixture(t)
	f.backend.createPayment = func(dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
		return &dto.CreatePaymentResponse{Success: false, Error: "Payment service unavailable"}, nil
	}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, f.checkout.got)
	assert.Equal(t, "Payment service unavailable", f.view.LastNotice().Text)
	assert.False(t, f.view.Busy[view.ControlPay])
	assert.True(t, f.view.Enabled[view.ControlPay])
}

func TestInitiate_DismissedNeverVerifies(t *testing.T) {
	f := newPaymentFixture(t)
	f.checkout.result = checkout.Result{Status: checkout.StatusDismissed}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrPaymentCancelled)
	assert.Zero(t, f.backend.count("verify_payment"))
	assert.Zero(t, f.backend.count("process"))
	assert.Equal(t, "Payment cancelled", f.view.LastNotice().Text)
	assert.False(t, f.view.Busy[view.ControlPay])
	assert.True(t, f.view.Enabled[view.ControlPay])
	assert.NotNil(t, f.session.Quote)
	assert.Nil(t, f.session.Order)

	require.Len(t, f.checkout.got, 1)
	req := f.checkout.got[0]
	assert.Equal(t, "rzp_test", req.KeyID)
	assert.Equal(t, int64(5100), req.AmountPaise)
	assert.Equal(t, "order_1", req.OrderID)
	assert.Equal(t, "a@b.c", req.PrefillEmail)
	assert.Equal(t, "ShabdSetu", req.Name)
}

func TestInitiate_ProviderFailure(t *testing.T) {
	f := newPaymentFixture(t)
	f.checkout.result = checkout.Result{Status: checkout.StatusFailed, Reason: "card declined"}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, "Payment failed: card declined", f.view.LastNotice().Text)
	assert.Zero(t, f.backend.count("verify_payment"))
	assert.True(t, f.view.Enabled[view.ControlPay])
}

func TestInitiate_VerificationFailureAborts(t *testing.T) {
	f := newPaymentFixture(t)
	f.checkout.result = checkout.Result{Status: checkout.StatusSuccess, PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}
	f.backend.verifyPayment = func(dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
		return &dto.VerifyPaymentResponse{Success: false, Error: "Invalid signature"}, nil
	}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrPaymentVerification)
	assert.Zero(t, f.backend.count("process"))
	assert.Equal(t, "Invalid signature", f.view.LastNotice().Text)
	assert.Nil(t, f.session.Quote)
	assert.Nil(t, f.session.Order)
	assert.False(t, f.view.Enabled[view.ControlPay])
}

func TestInitiate_SuccessResubmitsWithPaymentID(t *testing.T) {
	f := newPaymentFixture(t)
	f.checkout.result = checkout.Result{Status: checkout.StatusSuccess, PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}

	var verified dto.VerifyPaymentRequest
	f.backend.verifyPayment = func(req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
		verified = req
		return &dto.VerifyPaymentResponse{Success: true, PaymentId: "pay_1"}, nil
	}
	var submitted dto.ProcessRequest
	f.backend.process = func(req dto.ProcessRequest) (*dto.ProcessResponse, error) {
		submitted = req
		return &dto.ProcessResponse{JobId: "job-paid"}, nil
	}
	f.backend.progress = func(string, int) (*dto.ProgressResponse, error) {
		return &dto.ProgressResponse{Percentage: 100, Status: "Complete", OutputFile: "scan_ocr.docx"}, nil
	}

	var res *ProcessResult
	err := f.run(t, func() (err error) {
		res, err = f.ctrl.Initiate(context.Background(), SubmitOptions{})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "order_1", verified.RazorpayOrderId)
	assert.Equal(t, "pay_1", verified.RazorpayPaymentId)
	assert.Equal(t, "sig", verified.RazorpaySignature)
	assert.Equal(t, 1, verified.Mode)
	assert.Equal(t, 17, verified.Pages)
	assert.Equal(t, 51.0, verified.Amount)

	assert.Equal(t, "pay_1", submitted.PaymentId)
	assert.Equal(t, OutcomeAccepted, res.Submit.Outcome)
	require.NotNil(t, res.Job)
	assert.Equal(t, "/download/scan_ocr.docx", res.Job.DownloadURL)
	assert.Nil(t, f.session.Quote)
}

func TestInitiate_ZeroPageQuoteNeverOrders(t *testing.T) {
	f := newPaymentFixture(t)
	f.session.Quote = &store.Quote{Mode: constant.ModeOCR, Amount: 50, BillablePages: 0}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrNoQuote)
	assert.Zero(t, f.backend.count("create_payment"))
	assert.Empty(t, f.checkout.got)
	assert.Equal(t, view.NoticeError, f.view.LastNotice().Kind)
	assert.False(t, f.view.Busy[view.ControlPay])
	assert.True(t, f.view.Enabled[view.ControlPay])
}

func TestInitiate_IncompleteCheckoutResultIsNotVerified(t *testing.T) {
	f := newPaymentFixture(t)
	f.checkout.result = checkout.Result{Status: checkout.StatusSuccess, PaymentID: "pay_1", OrderID: "order_1"}

	_, err := f.ctrl.Initiate(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, ErrPaymentVerification)
	assert.Zero(t, f.backend.count("verify_payment"))
	assert.Zero(t, f.backend.count("process"))
	assert.Nil(t, f.session.Quote)
	assert.False(t, f.view.Enabled[view.ControlPay])
}
