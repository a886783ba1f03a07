// FILE: internal/controller/job_controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/poller"
	"shabdsetu-client/pkg/store"

	"github.com/dustin/go-humanize"
	"k8s.io/utils/clock"
)

type Outcome string

const (
	OutcomeSkipped         Outcome = "skipped"
	OutcomeAccepted        Outcome = "accepted"
	OutcomePaymentRequired Outcome = "payment_required"
	OutcomeRejected        Outcome = "rejected"
)

const (
	msgNetworkError = "Network error. Please try again."
	msgPollTimeout  = "Processing is taking longer than expected. Please check back later."
)

// SubmitOptions are the per-mode form parameters.
type SubmitOptions struct {
	Language   string
	SourceLang string
	TargetLang string
	PaymentID  string
}

type SubmitResult struct {
	Outcome Outcome
	JobID   string
	Quote   *store.Quote
	Message string
}

type JobResult struct {
	JobID       string
	OutputFile  string
	DownloadURL string
	Status      string
}

type ProcessResult struct {
	Submit *SubmitResult
	Job    *JobResult // nil unless the submission was accepted
}

type IJobController interface {
	SelectMode(ctx context.Context, mode constant.Mode) error
	Submit(ctx context.Context, opts SubmitOptions) (*SubmitResult, error)
	Poll(ctx context.Context, jobID string) (*JobResult, error)
	Process(ctx context.Context, opts SubmitOptions) (*ProcessResult, error)
	Download(ctx context.Context, outputFile, dir string) (string, error)
	SendDocument(ctx context.Context, jobID string) error
	Reset()
}

type jobController struct {
	backend apiclient.IBackend
	view    view.View
	session *store.Session
	logger  logger.ILogger
	clock   clock.WithTicker
	poll    config.PollConfig
}

func NewJobController(
	backend apiclient.IBackend,
	v view.View,
	session *store.Session,
	log logger.ILogger,
	clk clock.WithTicker,
	poll config.PollConfig,
) IJobController {
	return &jobController{backend: backend, view: v, session: session, logger: log, clock: clk, poll: poll}
}

// SelectMode stores the mode and refreshes trial info. A retained file the
// new mode cannot accept is dropped.
func (c *jobController) SelectMode(ctx context.Context, mode constant.Mode) error {
	if !mode.Valid() {
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Please choose a processing mode."})
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	c.session.Mode = mode

	if f := c.session.File; f != nil && !constant.IsExtensionAllowed(mode, f.Extension) {
		c.session.File = nil
		c.view.ClearPreview()
		c.view.Notify(view.Notice{Kind: view.NoticeWarning, Text: fmt.Sprintf("%s cannot be used with %s. Please choose another file.", f.Name, mode)})
	}
	c.view.SetEnabled(view.ControlSubmit, c.session.Ready())

	info, err := c.backend.CheckTrial(ctx, dto.TrialCheckRequest{Mode: int(mode)})
	if err != nil {
		c.logger.Warn("JOB", "Trial check failed", map[string]interface{}{"mode": int(mode), "error": err.Error()})
		return nil
	}
	c.session.Trial = info
	c.view.ShowTrial(mode, *info)
	return nil
}

func (c *jobController) Submit(ctx context.Context, opts SubmitOptions) (*SubmitResult, error) {
	if !c.session.Ready() {
		return &SubmitResult{Outcome: OutcomeSkipped}, nil
	}

	mode := c.session.Mode
	spec, _ := mode.Spec()
	req := dto.ProcessRequest{
		FileName:  c.session.File.Name,
		Mode:      int(mode),
		PaymentId: opts.PaymentID,
	}
	switch {
	case spec.NeedsLanguage:
		if opts.Language == "" {
			c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Please choose a language."})
			return nil, ErrMissingLanguage
		}
		req.Language = opts.Language
	case spec.NeedsTranslation:
		if opts.SourceLang == "" || opts.TargetLang == "" {
			c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Please choose source and target languages."})
			return nil, ErrMissingLanguage
		}
		req.SourceLang = opts.SourceLang
		req.TargetLang = opts.TargetLang
	}

	f, err := os.Open(c.session.File.Path)
	if err != nil {
		c.view.ShowError("Error", "Could not read the selected file.")
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	req.File = f

	c.view.SetBusy(view.ControlSubmit, true)
	defer c.view.SetBusy(view.ControlSubmit, false)

	c.logger.Info("JOB", "Submitting document", map[string]interface{}{"file": req.FileName, "mode": req.Mode, "paid": req.PaymentId != ""})

	resp, err := c.backend.Process(ctx, req)
	if err != nil {
		c.logger.Error("JOB", "Process request failed", map[string]interface{}{"error": err})
		if errors.Is(err, apiclient.ErrNotLoggedIn) {
			c.view.ShowError("Session expired", "Please log in again.")
			c.view.Redirect(constant.LoginPath)
			return nil, err
		}
		msg := msgNetworkError
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.view.ShowError("Error", msg)
		return nil, err
	}

	switch {
	case resp.JobId != "":
		if resp.TrialInfo != nil {
			c.session.Trial = resp.TrialInfo
			c.view.ShowTrial(mode, *resp.TrialInfo)
		}
		c.session.JobID = resp.JobId
		c.session.ClearPayment()
		c.view.ShowProgress(0, "Queued")
		return &SubmitResult{Outcome: OutcomeAccepted, JobID: resp.JobId}, nil

	case resp.Error == constant.QuotaExceededError && resp.EstimatedCost > 0:
		quote := &store.Quote{
			Mode:          mode,
			Amount:        resp.EstimatedCost,
			BillablePages: resp.BillablePages,
			Message:       firstNonEmpty(resp.Message, "Your free trial is used up. Pay to process this document."),
		}
		if resp.Limit > 0 {
			trial := &dto.TrialInfo{PagesUsed: resp.PagesUsed, PagesRemaining: resp.PagesRemaining, Limit: resp.Limit}
			c.session.Trial = trial
			c.view.ShowTrial(mode, *trial)
		}
		c.session.Quote = quote
		c.view.ShowPaymentPrompt(*quote)
		c.view.SetEnabled(view.ControlPay, true)
		return &SubmitResult{Outcome: OutcomePaymentRequired, Quote: quote, Message: quote.Message}, nil

	default:
		msg := firstNonEmpty(resp.Message, resp.Error, "Processing failed. Please try again.")
		c.view.ShowError("Error", msg)
		return &SubmitResult{Outcome: OutcomeRejected, Message: msg}, nil
	}
}

// Poll follows a job until it completes, fails, or the configured bounds
// run out. Failed polls count as attempts.
func (c *jobController) Poll(ctx context.Context, jobID string) (*JobResult, error) {
	result := &JobResult{JobID: jobID}
	p := poller.New(c.clock, poller.Config{
		Interval:    c.poll.Interval,
		MaxAttempts: c.poll.MaxAttempts,
		MaxDuration: c.poll.MaxDuration,
	})

	err := p.Run(ctx, func(ctx context.Context, attempt int) (bool, error) {
		resp, err := c.backend.Progress(ctx, jobID)
		if err != nil {
			c.logger.Warn("JOB", "Progress poll failed", map[string]interface{}{"job_id": jobID, "attempt": attempt, "error": err.Error()})
			return false, nil
		}

		result.Status = resp.Status
		c.view.ShowProgress(resp.Percentage, resp.Status)

		if resp.Error.Failed {
			msg := firstNonEmpty(resp.Status, resp.Error.Message, "Processing failed.")
			c.view.ShowError("Processing failed", msg)
			return true, fmt.Errorf("%w: %s", ErrJobFailed, msg)
		}
		if resp.Percentage >= 100 && resp.OutputFile != "" {
			result.OutputFile = resp.OutputFile
			result.DownloadURL = "/download/" + url.PathEscape(resp.OutputFile)
			c.view.ShowDownload(result.DownloadURL)
			return true, nil
		}
		return false, nil
	})

	switch {
	case err == nil:
		c.logger.Info("JOB", "Job completed", map[string]interface{}{"job_id": jobID, "output_file": result.OutputFile})
	case errors.Is(err, poller.ErrLimitReached):
		c.logger.Warn("JOB", "Gave up polling", map[string]interface{}{"job_id": jobID})
		c.view.ShowError("Timeout", msgPollTimeout)
	case errors.Is(err, ErrJobFailed):
		c.logger.Warn("JOB", "Job failed", map[string]interface{}{"job_id": jobID, "error": err.Error()})
	default:
		// cancelled; the job id stays so the caller can resume
		return nil, err
	}

	c.session.JobID = ""
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *jobController) Process(ctx context.Context, opts SubmitOptions) (*ProcessResult, error) {
	submitted, err := c.Submit(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := &ProcessResult{Submit: submitted}
	if submitted.Outcome != OutcomeAccepted {
		return out, nil
	}

	job, err := c.Poll(ctx, submitted.JobID)
	if err != nil {
		return out, err
	}
	out.Job = job
	return out, nil
}

// Download saves the output file into dir and returns its path.
func (c *jobController) Download(ctx context.Context, outputFile, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(outputFile))

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := c.backend.Download(ctx, outputFile, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		c.logger.Error("JOB", "Download failed", map[string]interface{}{"output_file": outputFile, "error": err})
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Download failed. Please try again."})
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}

	c.view.Notify(view.Notice{Kind: view.NoticeSuccess, Text: fmt.Sprintf("Saved %s (%s)", dest, humanize.IBytes(uint64(n)))})
	return dest, nil
}

func (c *jobController) SendDocument(ctx context.Context, jobID string) error {
	resp, err := c.backend.SendDocument(ctx, jobID)
	if err != nil {
		c.logger.Error("JOB", "Send document failed", map[string]interface{}{"job_id": jobID, "error": err})
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: msgNetworkError})
		return err
	}
	if !resp.Success {
		msg := firstNonEmpty(resp.Error, resp.Message, "Failed to send document.")
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: msg})
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	c.view.Notify(view.Notice{Kind: view.NoticeSuccess, Text: firstNonEmpty(resp.Message, "Document sent to your email.")})
	return nil
}

func (c *jobController) Reset() {
	c.session.Reset()
	c.view.ClearPreview()
	c.view.SetEnabled(view.ControlSubmit, false)
	c.view.SetEnabled(view.ControlPay, false)
}
