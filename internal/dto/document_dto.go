package dto

import (
	"encoding/json"
	"io"
)

// ProcessRequest is sent as multipart/form-data to /process.
// Empty optional fields are omitted from the form.
type ProcessRequest struct {
	FileName   string
	File       io.Reader
	Mode       int
	Language   string
	SourceLang string
	TargetLang string
	PaymentId  string
}

// ProcessResponse covers both the accepted shape ({job_id, trial_info}) and
// the rejection shape returned with 4xx codes.
type ProcessResponse struct {
	JobId          string     `json:"job_id,omitempty"`
	TrialInfo      *TrialInfo `json:"trial_info,omitempty"`
	Error          string     `json:"error,omitempty"`
	Message        string     `json:"message,omitempty"`
	EstimatedCost  float64    `json:"estimated_cost,omitempty"`
	BillablePages  int        `json:"billable_pages,omitempty"`
	PagesUsed      float64    `json:"pages_used,omitempty"`
	PagesRemaining float64    `json:"pages_remaining,omitempty"`
	Limit          float64    `json:"limit,omitempty"`
	DocumentPages  *int       `json:"document_pages,omitempty"`
	DocumentChars  *int       `json:"document_chars,omitempty"`
	PageUsage      float64    `json:"page_usage,omitempty"`
}

// ErrorFlag decodes the progress "error" field, which the backend sends as
// true on failed jobs and as a message string on unknown ids.
type ErrorFlag struct {
	Failed  bool
	Message string
}

func (e *ErrorFlag) UnmarshalJSON(data []byte) error {
	switch s := string(data); {
	case s == "null" || s == "false":
		*e = ErrorFlag{}
	case s == "true":
		*e = ErrorFlag{Failed: true}
	case len(s) >= 2 && s[0] == '"':
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		*e = ErrorFlag{Failed: true, Message: msg}
	default:
		*e = ErrorFlag{Failed: true, Message: s}
	}
	return nil
}

type ProgressResponse struct {
	Percentage int       `json:"percentage"`
	Status     string    `json:"status"`
	OutputFile string    `json:"output_file,omitempty"`
	Error      ErrorFlag `json:"error"`
}

type SendDocumentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
