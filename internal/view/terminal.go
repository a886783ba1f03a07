package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"shabdsetu-client/internal/constant"
	pkgEvents "shabdsetu-client/pkg/events"

	"github.com/fatih/color"
)

const progressWidth = 30

type palette struct {
	info    *color.Color
	success *color.Color
	warning *color.Color
	err     *color.Color
	accent  *color.Color
	muted   *color.Color
}

func paletteFor(theme string) palette {
	if theme == constant.ThemeDark {
		return palette{
			info:    color.New(color.FgHiCyan),
			success: color.New(color.FgHiGreen),
			warning: color.New(color.FgHiYellow),
			err:     color.New(color.FgHiRed, color.Bold),
			accent:  color.New(color.FgHiMagenta, color.Bold),
			muted:   color.New(color.FgHiBlack),
		}
	}
	return palette{
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		err:     color.New(color.FgRed, color.Bold),
		accent:  color.New(color.FgMagenta, color.Bold),
		muted:   color.New(color.FgBlack),
	}
}

// Terminal renders view events as lines of text. Busy/enabled/focus events
// only matter to interactive widgets and are not printed.
type Terminal struct {
	mu         sync.Mutex
	out        io.Writer
	theme      string
	palette    palette
	inProgress bool
}

func NewTerminal(out io.Writer, theme string) *Terminal {
	return &Terminal{out: out, theme: theme, palette: paletteFor(theme)}
}

func (t *Terminal) Theme() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

func (t *Terminal) Handle(e pkgEvents.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.EventType() != pkgEvents.TypeProgress {
		t.endProgressLine()
	}

	p := t.palette
	switch e.EventType() {
	case pkgEvents.TypeTheme:
		theme := pkgEvents.String(e, "theme")
		if theme == t.theme {
			return
		}
		t.theme = theme
		t.palette = paletteFor(theme)
		t.palette.muted.Fprintf(t.out, "theme: %s\n", theme)

	case pkgEvents.TypeNotice:
		t.noticeColor(pkgEvents.String(e, "kind")).Fprintln(t.out, pkgEvents.String(e, "text"))

	case pkgEvents.TypeLoginStep:
		switch LoginStep(pkgEvents.String(e, "step")) {
		case StepCode:
			p.info.Fprintln(t.out, "Enter the code sent to your email.")
		case StepEmail:
			p.info.Fprintln(t.out, "Enter your email address.")
		}

	case pkgEvents.TypeRedirect:
		p.muted.Fprintf(t.out, "-> %s\n", pkgEvents.String(e, "path"))

	case pkgEvents.TypePreview:
		t.renderPreview(e)

	case pkgEvents.TypePreviewClear:
		p.muted.Fprintln(t.out, "file removed")

	case pkgEvents.TypeTrial:
		fmt.Fprintf(t.out, "%s trial: %.1f of %.0f pages used, %.1f remaining\n",
			pkgEvents.String(e, "mode"),
			pkgEvents.Float(e, "pages_used"),
			pkgEvents.Float(e, "limit"),
			pkgEvents.Float(e, "pages_remaining"))

	case pkgEvents.TypeProgress:
		t.renderProgress(e)

	case pkgEvents.TypeDownload:
		p.success.Fprintf(t.out, "Ready: %s\n", pkgEvents.String(e, "url"))

	case pkgEvents.TypeErrorModal:
		p.err.Fprintf(t.out, "%s: %s\n", pkgEvents.String(e, "title"), pkgEvents.String(e, "message"))

	case pkgEvents.TypePaymentPrompt:
		pages, _ := pkgEvents.Int(e, "billable_pages")
		p.warning.Fprintln(t.out, pkgEvents.String(e, "message"))
		line := fmt.Sprintf("%s for %d page(s): Rs. %.2f", pkgEvents.String(e, "mode"), pages, pkgEvents.Float(e, "amount"))
		if rate, ok := pkgEvents.Int(e, "rate_per_page"); ok && rate > 0 {
			line += fmt.Sprintf(" (Rs. %d/page)", rate)
		}
		p.accent.Fprintln(t.out, line)
	}
}

func (t *Terminal) noticeColor(kind string) *color.Color {
	switch NoticeKind(kind) {
	case NoticeSuccess:
		return t.palette.success
	case NoticeWarning:
		return t.palette.warning
	case NoticeError:
		return t.palette.err
	default:
		return t.palette.info
	}
}

func (t *Terminal) renderPreview(e pkgEvents.Event) {
	icon := "[doc]"
	if pkgEvents.Bool(e, "has_thumbnail") {
		icon = "[pdf preview]"
	}
	line := fmt.Sprintf("%s %s (%s, %s)", icon, pkgEvents.String(e, "name"), pkgEvents.String(e, "size"), pkgEvents.String(e, "mime_type"))
	if pages, ok := pkgEvents.Int(e, "page_count"); ok {
		line += fmt.Sprintf(" - %d page(s)", pages)
	}
	t.palette.accent.Fprintln(t.out, line)
}

func (t *Terminal) renderProgress(e pkgEvents.Event) {
	pct, _ := pkgEvents.Int(e, "percentage")
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * progressWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressWidth-filled)

	fmt.Fprintf(t.out, "\r[%s] %3d%% %s\033[K", bar, pct, pkgEvents.String(e, "status"))
	t.inProgress = true
	if pct == 100 {
		t.endProgressLine()
	}
}

func (t *Terminal) endProgressLine() {
	if t.inProgress {
		fmt.Fprintln(t.out)
		t.inProgress = false
	}
}
