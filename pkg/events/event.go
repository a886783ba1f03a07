package events

import "time"

// Event defines the contract for all view events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PROGRESS").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeTheme         = "THEME"
	TypeNotice        = "NOTICE"
	TypeBusy          = "BUSY"
	TypeEnabled       = "ENABLED"
	TypeLoginStep     = "LOGIN_STEP"
	TypeFocus         = "FOCUS"
	TypeRedirect      = "REDIRECT"
	TypePreview       = "PREVIEW"
	TypePreviewClear  = "PREVIEW_CLEAR"
	TypeTrial         = "TRIAL"
	TypeProgress      = "PROGRESS"
	TypeDownload      = "DOWNLOAD"
	TypeErrorModal    = "ERROR_MODAL"
	TypePaymentPrompt = "PAYMENT_PROMPT"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String reads a payload field as a string, returning "" when absent.
func String(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}

// Int reads a numeric payload field; JSON round trips turn ints into float64.
func Int(e Event, key string) (int, bool) {
	switch v := e.Payload()[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func Float(e Event, key string) float64 {
	switch v := e.Payload()[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func Bool(e Event, key string) bool {
	v, _ := e.Payload()[key].(bool)
	return v
}
