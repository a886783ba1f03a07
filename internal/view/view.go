// Package view holds the handles controllers use to update what the user sees.
package view

import (
	"time"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/pkg/store"
)

type Control string

const (
	ControlSendCode   Control = "send_code"
	ControlVerifyCode Control = "verify_code"
	ControlSubmit     Control = "submit"
	ControlPay        Control = "pay"
)

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message; the view dismisses it after TTL.
type Notice struct {
	Kind NoticeKind
	Text string
	TTL  time.Duration
}

type LoginStep string

const (
	StepEmail LoginStep = "email"
	StepCode  LoginStep = "code"
	StepDone  LoginStep = "done"
)

const (
	FieldEmail = "email"
	FieldCode  = "code"
)

// Preview is what the upload area shows for the retained file.
type Preview struct {
	Name         string
	Size         string
	MIMEType     string
	PageCount    *int // nil hides the page counter
	HasThumbnail bool // false shows the generic icon
}

type View interface {
	ApplyTheme(theme string)
	Notify(n Notice)
	SetBusy(c Control, busy bool)
	SetEnabled(c Control, enabled bool)

	ShowLoginStep(step LoginStep)
	Focus(field string)
	Redirect(path string)

	ShowPreview(p Preview)
	ClearPreview()

	ShowTrial(mode constant.Mode, info dto.TrialInfo)
	ShowProgress(percentage int, status string)
	ShowDownload(url string)
	ShowError(title, message string)
	ShowPaymentPrompt(q store.Quote)
}
