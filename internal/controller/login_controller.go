// FILE: internal/controller/login_controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/store"

	"github.com/go-playground/validator/v10"
	"k8s.io/utils/clock"
)

type LoginState string

const (
	StateEnteringEmail LoginState = "entering_email"
	StateOtpSent       LoginState = "otp_sent"
	StateVerified      LoginState = "verified"
)

const (
	msgSendOTPFailed = "Failed to send OTP. Please try again."
	msgVerifyFailed  = "Invalid OTP. Please try again."
	msgVerifyNetwork = "Verification failed. Please try again."
)

type ILoginController interface {
	RequestCode(ctx context.Context, email string) error
	Resend(ctx context.Context) error
	ChangeEmail()
	VerifyCode(ctx context.Context, code string) error
	Logout(ctx context.Context) error
	State() LoginState
}

type loginController struct {
	backend  apiclient.IBackend
	view     view.View
	session  *store.Session
	logger   logger.ILogger
	clock    clock.Clock
	validate *validator.Validate
	cfg      config.LoginConfig
	state    LoginState
}

func NewLoginController(
	backend apiclient.IBackend,
	v view.View,
	session *store.Session,
	log logger.ILogger,
	clk clock.Clock,
	cfg config.LoginConfig,
) ILoginController {
	return &loginController{
		backend:  backend,
		view:     v,
		session:  session,
		logger:   log,
		clock:    clk,
		validate: validator.New(),
		cfg:      cfg,
		state:    StateEnteringEmail,
	}
}

func (c *loginController) State() LoginState {
	return c.state
}

func (c *loginController) notify(kind view.NoticeKind, text string) {
	c.view.Notify(view.Notice{Kind: kind, Text: text, TTL: c.cfg.NoticeTTL})
}

func (c *loginController) RequestCode(ctx context.Context, email string) error {
	req := dto.SendOTPRequest{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := c.validate.Struct(req); err != nil {
		c.notify(view.NoticeError, "Please enter a valid email address.")
		c.view.Focus(view.FieldEmail)
		return ErrInvalidEmail
	}

	c.view.SetBusy(view.ControlSendCode, true)
	defer c.view.SetBusy(view.ControlSendCode, false)

	resp, err := c.backend.SendOTP(ctx, req)
	if err != nil {
		c.logger.Error("LOGIN", "Send OTP request failed", map[string]interface{}{"error": err})
		c.notify(view.NoticeError, msgSendOTPFailed)
		return err
	}
	if !resp.Success {
		msg := firstNonEmpty(resp.Message, msgSendOTPFailed)
		c.notify(view.NoticeError, msg)
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	c.session.Email = req.Email
	c.state = StateOtpSent
	c.view.ShowLoginStep(view.StepCode)
	c.view.Focus(view.FieldCode)
	c.notify(view.NoticeSuccess, firstNonEmpty(resp.Message, "OTP sent to "+req.Email))
	return nil
}

// Resend repeats the request for the remembered email.
func (c *loginController) Resend(ctx context.Context) error {
	if c.session.Email == "" {
		c.ChangeEmail()
		return ErrInvalidEmail
	}
	return c.RequestCode(ctx, c.session.Email)
}

func (c *loginController) ChangeEmail() {
	c.state = StateEnteringEmail
	c.view.ShowLoginStep(view.StepEmail)
	c.view.Focus(view.FieldEmail)
}

// VerifyCode redirects to the tool page RedirectDelay after a successful
// verification; the call returns once the redirect was issued.
func (c *loginController) VerifyCode(ctx context.Context, code string) error {
	req := dto.VerifyOTPRequest{Email: c.session.Email, OTP: strings.TrimSpace(code)}
	if err := c.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Email" {
			c.ChangeEmail()
			c.notify(view.NoticeError, "Please request a code first.")
			return ErrInvalidEmail
		}
		c.notify(view.NoticeError, "Please enter the code from your email.")
		c.view.Focus(view.FieldCode)
		return ErrInvalidCode
	}

	c.view.SetBusy(view.ControlVerifyCode, true)
	resp, err := c.backend.VerifyOTP(ctx, req)
	if err != nil {
		c.view.SetBusy(view.ControlVerifyCode, false)
		c.logger.Error("LOGIN", "Verify OTP request failed", map[string]interface{}{"error": err})
		c.notify(view.NoticeError, msgVerifyNetwork)
		return err
	}
	if !resp.Success {
		c.view.SetBusy(view.ControlVerifyCode, false)
		msg := firstNonEmpty(resp.Message, msgVerifyFailed)
		c.notify(view.NoticeError, msg)
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	c.state = StateVerified
	c.view.ShowLoginStep(view.StepDone)
	c.notify(view.NoticeSuccess, firstNonEmpty(resp.Message, "Login successful! Redirecting..."))
	c.logger.Info("LOGIN", "User verified", map[string]interface{}{"email": req.Email})

	select {
	case <-c.clock.After(c.cfg.RedirectDelay):
		c.view.Redirect(constant.ToolPath)
	case <-ctx.Done():
	}
	return nil
}

// Logout forgets the local session even when the backend call fails.
func (c *loginController) Logout(ctx context.Context) error {
	err := c.backend.Logout(ctx)
	if err != nil {
		c.logger.Warn("LOGIN", "Logout request failed", map[string]interface{}{"error": err.Error()})
	}

	c.session.Reset()
	c.session.Email = ""
	c.state = StateEnteringEmail
	c.view.ShowLoginStep(view.StepEmail)
	c.view.Redirect(constant.LoginPath)
	return err
}
