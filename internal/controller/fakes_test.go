package controller

import (
	"context"
	"io"
	"sync"

	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/pkg/checkout"
)

// fakeBackend answers every endpoint from a handler field and counts calls.
// Unset handlers fail the way an unreachable backend would.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	sendOTP       func(dto.SendOTPRequest) (*dto.AuthResponse, error)
	verifyOTP     func(dto.VerifyOTPRequest) (*dto.AuthResponse, error)
	checkTrial    func(dto.TrialCheckRequest) (*dto.TrialInfo, error)
	createPayment func(dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error)
	verifyPayment func(dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
	process       func(dto.ProcessRequest) (*dto.ProcessResponse, error)
	progress      func(jobID string, call int) (*dto.ProgressResponse, error)
	download      func(outputFile string, w io.Writer) (int64, error)
	sendDocument  func(jobID string) (*dto.SendDocumentResponse, error)
	logout        func() error
}

var _ apiclient.IBackend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}}
}

func (f *fakeBackend) hit(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) SendOTP(ctx context.Context, req dto.SendOTPRequest) (*dto.AuthResponse, error) {
	f.hit("send_otp")
	if f.sendOTP == nil {
		return nil, apiclient.ErrTransport
	}
	return f.sendOTP(req)
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.AuthResponse, error) {
	f.hit("verify_otp")
	if f.verifyOTP == nil {
		return nil, apiclient.ErrTransport
	}
	return f.verifyOTP(req)
}

func (f *fakeBackend) CheckTrial(ctx context.Context, req dto.TrialCheckRequest) (*dto.TrialInfo, error) {
	f.hit("check_trial")
	if f.checkTrial == nil {
		return nil, apiclient.ErrTransport
	}
	return f.checkTrial(req)
}

func (f *fakeBackend) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	f.hit("create_payment")
	if f.createPayment == nil {
		return nil, apiclient.ErrTransport
	}
	return f.createPayment(req)
}

func (f *fakeBackend) VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	f.hit("verify_payment")
	if f.verifyPayment == nil {
		return nil, apiclient.ErrTransport
	}
	return f.verifyPayment(req)
}

func (f *fakeBackend) Process(ctx context.Context, req dto.ProcessRequest) (*dto.ProcessResponse, error) {
	f.hit("process")
	if f.process == nil {
		return nil, apiclient.ErrTransport
	}
	return f.process(req)
}

func (f *fakeBackend) Progress(ctx context.Context, jobID string) (*dto.ProgressResponse, error) {
	n := f.hit("progress")
	if f.progress == nil {
		return nil, apiclient.ErrTransport
	}
	return f.progress(jobID, n)
}

func (f *fakeBackend) Download(ctx context.Context, outputFile string, w io.Writer) (int64, error) {
	f.hit("download")
	if f.download == nil {
		return 0, apiclient.ErrTransport
	}
	return f.download(outputFile, w)
}

func (f *fakeBackend) SendDocument(ctx context.Context, jobID string) (*dto.SendDocumentResponse, error) {
	f.hit("send_document")
	if f.sendDocument == nil {
		return nil, apiclient.ErrTransport
	}
	return f.sendDocument(jobID)
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.hit("logout")
	if f.logout == nil {
		return nil
	}
	return f.logout()
}

type fakeCheckout struct {
	result checkout.Result
	err    error
	got    []checkout.Request
}

func (f *fakeCheckout) Open(ctx context.Context, req checkout.Request) (checkout.Result, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}
