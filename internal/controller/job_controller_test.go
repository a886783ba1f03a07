package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/internal/view/viewtest"
	"shabdsetu-client/pkg/poller"
	"shabdsetu-client/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type jobFixture struct {
	backend *fakeBackend
	view    *viewtest.Recorder
	session *store.Session
	clock   *testingclock.FakeClock
	ctrl    IJobController
}

func newJobFixture(t *testing.T, mode constant.Mode, fileName string) *jobFixture {
	f := &jobFixture{
		backend: newFakeBackend(),
		view:    viewtest.New(),
		session: &store.Session{Mode: mode},
		clock:   testingclock.NewFakeClock(time.Now()),
	}
	if fileName != "" {
		path := writeTemp(t, fileName, []byte("%PDF-1.4 document"))
		f.session.File = &store.UploadedFile{Name: fileName, Path: path, Extension: filepath.Ext(fileName)[1:]}
	}
	f.ctrl = NewJobController(f.backend, f.view, f.session, logger.NewNopLogger(), f.clock,
		config.PollConfig{Interval: time.Second, MaxAttempts: 5})
	return f
}

// run executes fn while advancing the fake clock until fn returns.
func (f *jobFixture) run(t *testing.T, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("operation did not finish")
		default:
		}
		if f.clock.HasWaiters() {
			f.clock.Step(time.Second)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSelectMode(t *testing.T) {
	f := newJobFixture(t, 0, "")
	ctx := context.Background()

	assert.ErrorIs(t, f.ctrl.SelectMode(ctx, constant.Mode(9)), ErrUnknownMode)
	assert.Zero(t, f.backend.count("check_trial"))

	// trial refresh failure only logs
	require.NoError(t, f.ctrl.SelectMode(ctx, constant.ModeOCR))
	assert.Equal(t, constant.ModeOCR, f.session.Mode)
	assert.Nil(t, f.view.Trial)

	f.backend.checkTrial = func(req dto.TrialCheckRequest) (*dto.TrialInfo, error) {
		assert.Equal(t, 3, req.Mode)
		return &dto.TrialInfo{Available: true, PagesUsed: 1, PagesRemaining: 2, Limit: 3}, nil
	}
	require.NoError(t, f.ctrl.SelectMode(ctx, constant.ModeProofread))
	require.NotNil(t, f.view.Trial)
	assert.Equal(t, 2.0, f.view.Trial.PagesRemaining)
	assert.Equal(t, 2.0, f.session.Trial.PagesRemaining)
}

func TestSelectMode_DropsIncompatibleFile(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")

	require.NoError(t, f.ctrl.SelectMode(context.Background(), constant.ModeTranslate))
	assert.Nil(t, f.session.File)
	assert.Equal(t, view.NoticeWarning, f.view.LastNotice().Kind)
	assert.False(t, f.view.Enabled[view.ControlSubmit])
}

func TestSubmit_SkippedWithoutFileOrMode(t *testing.T) {
	for _, f := range []*jobFixture{newJobFixture(t, 0, "scan.pdf"), newJobFixture(t, constant.ModeOCR, "")} {
		res, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
		assert.Zero(t, f.backend.count("process"))
	}
}

func TestSubmit_FormFieldsFollowMode(t *testing.T) {
	opts := SubmitOptions{Language: "hindi", SourceLang: "hindi", TargetLang: "english"}
	tests := []struct {
		mode constant.Mode
		file string
		want dto.ProcessRequest
	}{
		{constant.ModeOCR, "scan.pdf", dto.ProcessRequest{Mode: 1}},
		{constant.ModeOCRProofread, "scan.pdf", dto.ProcessRequest{Mode: 2, Language: "hindi"}},
		{constant.ModeOCRTranslate, "scan.pdf", dto.ProcessRequest{Mode: 4, SourceLang: "hindi", TargetLang: "english"}},
		{constant.ModeTranslate, "essay.docx", dto.ProcessRequest{Mode: 5, SourceLang: "hindi", TargetLang: "english"}},
	}

	for _, tt := range tests {
		f := newJobFixture(t, tt.mode, tt.file)
		var got dto.ProcessRequest
		f.backend.process = func(req dto.ProcessRequest) (*dto.ProcessResponse, error) {
			got = req
			body, _ := io.ReadAll(req.File)
			assert.Equal(t, "%PDF-1.4 document", string(body))
			return &dto.ProcessResponse{JobId: "job-1"}, nil
		}

		res, err := f.ctrl.Submit(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, res.Outcome)
		assert.Equal(t, tt.want.Mode, got.Mode)
		assert.Equal(t, tt.want.Language, got.Language, tt.mode.String())
		assert.Equal(t, tt.want.SourceLang, got.SourceLang, tt.mode.String())
		assert.Equal(t, tt.want.TargetLang, got.TargetLang, tt.mode.String())
		assert.Equal(t, tt.file, got.FileName)
	}
}

func TestSubmit_MissingLanguage(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCRTranslate, "scan.pdf")
	_, err := f.ctrl.Submit(context.Background(), SubmitOptions{SourceLang: "hindi"})
	assert.ErrorIs(t, err, ErrMissingLanguage)
	assert.Zero(t, f.backend.count("process"))
}

func TestSubmit_Accepted(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.process = func(dto.ProcessRequest) (*dto.ProcessResponse, error) {
		return &dto.ProcessResponse{JobId: "job-7", TrialInfo: &dto.TrialInfo{PagesUsed: 2, Limit: 3, PagesRemaining: 1}}, nil
	}

	res, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "job-7", res.JobID)
	assert.Equal(t, "job-7", f.session.JobID)
	assert.Equal(t, 1.0, f.view.Trial.PagesRemaining)
	assert.False(t, f.view.Busy[view.ControlSubmit])
}

func TestSubmit_QuotaWithCostShowsPaymentPrompt(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.process = func(dto.ProcessRequest) (*dto.ProcessResponse, error) {
		return &dto.ProcessResponse{Error: constant.QuotaExceededError, EstimatedCost: 50, BillablePages: 17, Message: "Trial used up"}, nil
	}

	res, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomePaymentRequired, res.Outcome)
	require.Len(t, f.view.Payments, 1)
	assert.Equal(t, 50.0, f.view.Payments[0].Amount)
	assert.Equal(t, 17, f.view.Payments[0].BillablePages)
	assert.Empty(t, f.view.Errors)
	require.NotNil(t, f.session.Quote)
	assert.Equal(t, constant.ModeOCR, f.session.Quote.Mode)
	assert.True(t, f.view.Enabled[view.ControlPay])
}

func TestSubmit_QuotaWithoutCostShowsError(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.process = func(dto.ProcessRequest) (*dto.ProcessResponse, error) {
		return &dto.ProcessResponse{Error: constant.QuotaExceededError, EstimatedCost: 0, Message: "Limit reached"}, nil
	}

	res, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Empty(t, f.view.Payments)
	assert.Equal(t, []string{"Limit reached"}, f.view.Errors)
	assert.Nil(t, f.session.Quote)
}

func TestSubmit_OtherRejectionUsesErrorField(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.process = func(dto.ProcessRequest) (*dto.ProcessResponse, error) {
		return &dto.ProcessResponse{Error: "Invalid file"}, nil
	}

	res, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, []string{"Invalid file"}, f.view.Errors)
}

func TestSubmit_TransportFailure(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")

	_, err := f.ctrl.Submit(context.Background(), SubmitOptions{})
	assert.ErrorIs(t, err, apiclient.ErrTransport)
	assert.Equal(t, []string{msgNetworkError}, f.view.Errors)
	assert.False(t, f.view.Busy[view.ControlSubmit])
}

func TestPoll_CompletesWithDownload(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.session.JobID = "job-1"
	f.backend.progress = func(jobID string, call int) (*dto.ProgressResponse, error) {
		assert.Equal(t, "job-1", jobID)
		switch call {
		case 1:
			return &dto.ProgressResponse{Percentage: 30, Status: "Page 1/3"}, nil
		case 2:
			return &dto.ProgressResponse{Percentage: 60, Status: "Page 2/3"}, nil
		default:
			return &dto.ProgressResponse{Percentage: 100, Status: "Complete", OutputFile: "x"}, nil
		}
	}

	var res *JobResult
	err := f.run(t, func() (err error) {
		res, err = f.ctrl.Poll(context.Background(), "job-1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "/download/x", res.DownloadURL)
	assert.Equal(t, "x", res.OutputFile)
	assert.Equal(t, []string{"/download/x"}, f.view.Downloads)
	assert.Equal(t, []int{30, 60, 100}, f.view.Progress)
	assert.Empty(t, f.session.JobID)
}

func TestPoll_JobErrorFlag(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.progress = func(string, int) (*dto.ProgressResponse, error) {
		return &dto.ProgressResponse{Percentage: 40, Status: "Error: unreadable scan", Error: dto.ErrorFlag{Failed: true}}, nil
	}

	err := f.run(t, func() error {
		_, err := f.ctrl.Poll(context.Background(), "job-1")
		return err
	})
	assert.ErrorIs(t, err, ErrJobFailed)
	assert.Equal(t, []string{"Error: unreadable scan"}, f.view.Errors)
	assert.Empty(t, f.view.Downloads)
}

func TestPoll_StopsAtAttemptLimit(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.session.JobID = "job-1"
	f.backend.progress = func(_ string, call int) (*dto.ProgressResponse, error) {
		if call%2 == 0 {
			return nil, &apiclient.APIError{StatusCode: 404, Message: "Job not found"}
		}
		return &dto.ProgressResponse{Percentage: 10, Status: "Working"}, nil
	}

	err := f.run(t, func() error {
		_, err := f.ctrl.Poll(context.Background(), "job-1")
		return err
	})
	assert.ErrorIs(t, err, poller.ErrLimitReached)
	assert.Equal(t, 5, f.backend.count("progress"))
	assert.Equal(t, []string{msgPollTimeout}, f.view.Errors)
	assert.Empty(t, f.session.JobID)
}

func TestPoll_CancelKeepsJob(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.session.JobID = "job-1"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ctrl.Poll(ctx, "job-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "job-1", f.session.JobID)
}

func TestProcess_SubmitsThenPolls(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.backend.process = func(dto.ProcessRequest) (*dto.ProcessResponse, error) {
		return &dto.ProcessResponse{JobId: "job-2"}, nil
	}
	f.backend.progress = func(string, int) (*dto.ProgressResponse, error) {
		return &dto.ProgressResponse{Percentage: 100, Status: "Complete", OutputFile: "scan_ocr.docx"}, nil
	}

	var res *ProcessResult
	err := f.run(t, func() (err error) {
		res, err = f.ctrl.Process(context.Background(), SubmitOptions{})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Submit.Outcome)
	require.NotNil(t, res.Job)
	assert.Equal(t, "scan_ocr.docx", res.Job.OutputFile)
}

func TestDownload(t *testing.T) {
	f := newJobFixture(t, 0, "")
	f.backend.download = func(outputFile string, w io.Writer) (int64, error) {
		n, err := io.Copy(w, bytes.NewReader([]byte("docx-bytes")))
		return n, err
	}
	dir := filepath.Join(t.TempDir(), "out")

	path, err := f.ctrl.Download(context.Background(), "scan_ocr.docx", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scan_ocr.docx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(data))

	f.backend.download = func(string, io.Writer) (int64, error) {
		return 0, &apiclient.APIError{StatusCode: 404, Message: "File not found"}
	}
	_, err = f.ctrl.Download(context.Background(), "gone.docx", dir)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "gone.docx"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestSendDocument(t *testing.T) {
	f := newJobFixture(t, 0, "")
	f.backend.sendDocument = func(jobID string) (*dto.SendDocumentResponse, error) {
		if jobID == "job-ok" {
			return &dto.SendDocumentResponse{Success: true, Message: "Sent"}, nil
		}
		return &dto.SendDocumentResponse{Success: false, Error: "Job not complete"}, nil
	}
	ctx := context.Background()

	require.NoError(t, f.ctrl.SendDocument(ctx, "job-ok"))
	assert.Equal(t, "Sent", f.view.LastNotice().Text)

	assert.ErrorIs(t, f.ctrl.SendDocument(ctx, "job-busy"), ErrRejected)
	assert.Equal(t, "Job not complete", f.view.LastNotice().Text)
}

func TestReset(t *testing.T) {
	f := newJobFixture(t, constant.ModeOCR, "scan.pdf")
	f.session.Email = "a@b.c"
	f.session.JobID = "job-1"
	f.session.Quote = &store.Quote{Amount: 5}

	f.ctrl.Reset()
	assert.Nil(t, f.session.File)
	assert.Zero(t, f.session.Mode)
	assert.Empty(t, f.session.JobID)
	assert.Nil(t, f.session.Quote)
	assert.Equal(t, "a@b.c", f.session.Email)
}
