// Package viewtest provides a View that records every call for assertions.
package viewtest

import (
	"fmt"
	"sync"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/store"
)

type Recorder struct {
	mu sync.Mutex

	Calls     []string
	Theme     string
	Notices   []view.Notice
	Busy      map[view.Control]bool
	Enabled   map[view.Control]bool
	Step      view.LoginStep
	Focused   string
	Redirects []string
	Preview   *view.Preview
	Trial     *dto.TrialInfo
	Progress  []int
	Statuses  []string
	Downloads []string
	Errors    []string
	Payments  []store.Quote
}

var _ view.View = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		Busy:    map[view.Control]bool{},
		Enabled: map[view.Control]bool{},
	}
}

func (r *Recorder) record(format string, args ...interface{}) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) ApplyTheme(theme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Theme = theme
	r.record("theme:%s", theme)
}

func (r *Recorder) Notify(n view.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, n)
	r.record("notice:%s:%s", n.Kind, n.Text)
}

func (r *Recorder) SetBusy(c view.Control, busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy[c] = busy
	r.record("busy:%s:%t", c, busy)
}

func (r *Recorder) SetEnabled(c view.Control, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Enabled[c] = enabled
	r.record("enabled:%s:%t", c, enabled)
}

func (r *Recorder) ShowLoginStep(step view.LoginStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Step = step
	r.record("step:%s", step)
}

func (r *Recorder) Focus(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Focused = field
	r.record("focus:%s", field)
}

func (r *Recorder) Redirect(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Redirects = append(r.Redirects, path)
	r.record("redirect:%s", path)
}

func (r *Recorder) ShowPreview(p view.Preview) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Preview = &p
	r.record("preview:%s", p.Name)
}

func (r *Recorder) ClearPreview() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Preview = nil
	r.record("preview:clear")
}

func (r *Recorder) ShowTrial(mode constant.Mode, info dto.TrialInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Trial = &info
	r.record("trial:%d", int(mode))
}

func (r *Recorder) ShowProgress(percentage int, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress = append(r.Progress, percentage)
	r.Statuses = append(r.Statuses, status)
	r.record("progress:%d", percentage)
}

func (r *Recorder) ShowDownload(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Downloads = append(r.Downloads, url)
	r.record("download:%s", url)
}

func (r *Recorder) ShowError(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
	r.record("error:%s:%s", title, message)
}

func (r *Recorder) ShowPaymentPrompt(q store.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Payments = append(r.Payments, q)
	r.record("payment:%.2f", q.Amount)
}

// LastNotice returns the most recent notice, or the zero value.
func (r *Recorder) LastNotice() view.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notices) == 0 {
		return view.Notice{}
	}
	return r.Notices[len(r.Notices)-1]
}
