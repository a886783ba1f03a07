package view

import (
	"context"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/dto"
	"shabdsetu-client/internal/pkg/logger"
	pkgEvents "shabdsetu-client/pkg/events"
	"shabdsetu-client/pkg/store"
)

type Publisher interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// BusView turns view calls into events for whatever renderer consumes the bus.
type BusView struct {
	ctx       context.Context
	publisher Publisher
	logger    logger.ILogger
}

func NewBusView(ctx context.Context, publisher Publisher, log logger.ILogger) *BusView {
	return &BusView{ctx: ctx, publisher: publisher, logger: log}
}

func (v *BusView) emit(eventType string, data map[string]interface{}) {
	if err := v.publisher.Publish(v.ctx, pkgEvents.New(eventType, data)); err != nil {
		v.logger.Error("VIEW", "Failed to publish view event", map[string]interface{}{"error": err.Error(), "type": eventType})
	}
}

func (v *BusView) ApplyTheme(theme string) {
	v.emit(pkgEvents.TypeTheme, map[string]interface{}{"theme": theme})
}

func (v *BusView) Notify(n Notice) {
	v.emit(pkgEvents.TypeNotice, map[string]interface{}{
		"kind":   string(n.Kind),
		"text":   n.Text,
		"ttl_ms": n.TTL.Milliseconds(),
	})
}

func (v *BusView) SetBusy(c Control, busy bool) {
	v.emit(pkgEvents.TypeBusy, map[string]interface{}{"control": string(c), "busy": busy})
}

func (v *BusView) SetEnabled(c Control, enabled bool) {
	v.emit(pkgEvents.TypeEnabled, map[string]interface{}{"control": string(c), "enabled": enabled})
}

func (v *BusView) ShowLoginStep(step LoginStep) {
	v.emit(pkgEvents.TypeLoginStep, map[string]interface{}{"step": string(step)})
}

func (v *BusView) Focus(field string) {
	v.emit(pkgEvents.TypeFocus, map[string]interface{}{"field": field})
}

func (v *BusView) Redirect(path string) {
	v.emit(pkgEvents.TypeRedirect, map[string]interface{}{"path": path})
}

func (v *BusView) ShowPreview(p Preview) {
	data := map[string]interface{}{
		"name":          p.Name,
		"size":          p.Size,
		"mime_type":     p.MIMEType,
		"has_thumbnail": p.HasThumbnail,
	}
	if p.PageCount != nil {
		data["page_count"] = *p.PageCount
	}
	v.emit(pkgEvents.TypePreview, data)
}

func (v *BusView) ClearPreview() {
	v.emit(pkgEvents.TypePreviewClear, nil)
}

func (v *BusView) ShowTrial(mode constant.Mode, info dto.TrialInfo) {
	v.emit(pkgEvents.TypeTrial, map[string]interface{}{
		"mode":            mode.String(),
		"available":       info.Available,
		"pages_used":      info.PagesUsed,
		"pages_remaining": info.PagesRemaining,
		"limit":           info.Limit,
	})
}

func (v *BusView) ShowProgress(percentage int, status string) {
	v.emit(pkgEvents.TypeProgress, map[string]interface{}{"percentage": percentage, "status": status})
}

func (v *BusView) ShowDownload(url string) {
	v.emit(pkgEvents.TypeDownload, map[string]interface{}{"url": url})
}

func (v *BusView) ShowError(title, message string) {
	v.emit(pkgEvents.TypeErrorModal, map[string]interface{}{"title": title, "message": message})
}

func (v *BusView) ShowPaymentPrompt(q store.Quote) {
	data := map[string]interface{}{
		"mode":           q.Mode.String(),
		"amount":         q.Amount,
		"billable_pages": q.BillablePages,
		"message":        q.Message,
	}
	if spec, err := q.Mode.Spec(); err == nil {
		data["rate_per_page"] = spec.RatePerPage
	}
	v.emit(pkgEvents.TypePaymentPrompt, data)
}
