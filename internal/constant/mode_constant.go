package constant

import (
	"fmt"
	"sort"
	"strings"
)

// Mode is a processing mode as numbered by the backend.
type Mode int

const (
	ModeOCR Mode = iota + 1
	ModeOCRProofread
	ModeProofread
	ModeOCRTranslate
	ModeTranslate
)

// ModeSpec describes what a mode accepts and which form fields it needs.
type ModeSpec struct {
	Mode             Mode
	Name             string
	Extensions       []string
	NeedsLanguage    bool
	NeedsTranslation bool
	RatePerPage      int // INR, mirrors the backend price list
}

var modeSpecs = map[Mode]ModeSpec{
	ModeOCR:          {Mode: ModeOCR, Name: "OCR", Extensions: []string{"pdf"}, RatePerPage: 3},
	ModeOCRProofread: {Mode: ModeOCRProofread, Name: "OCR + Proofread", Extensions: []string{"pdf"}, NeedsLanguage: true, RatePerPage: 9},
	ModeProofread:    {Mode: ModeProofread, Name: "Proofread", Extensions: []string{"docx", "doc"}, NeedsLanguage: true, RatePerPage: 6},
	ModeOCRTranslate: {Mode: ModeOCRTranslate, Name: "OCR + Translation", Extensions: []string{"pdf"}, NeedsTranslation: true, RatePerPage: 9},
	ModeTranslate:    {Mode: ModeTranslate, Name: "Translation", Extensions: []string{"docx", "doc"}, NeedsTranslation: true, RatePerPage: 6},
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	PrefKeyTheme          = "theme"
	PrefKeySessionCookies = "session_cookies"

	MaxUploadBytes = 50 * 1024 * 1024

	QuotaExceededError = "Trial limit exceeded"
	ToolPath           = "/tool"
	LoginPath          = "/login"
)

func (m Mode) Valid() bool {
	_, ok := modeSpecs[m]
	return ok
}

func (m Mode) Spec() (ModeSpec, error) {
	spec, ok := modeSpecs[m]
	if !ok {
		return ModeSpec{}, fmt.Errorf("unknown mode %d", int(m))
	}
	return spec, nil
}

func (m Mode) String() string {
	if spec, ok := modeSpecs[m]; ok {
		return spec.Name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// AllowedExtensions returns the accepted extensions for m. The zero mode
// (nothing selected yet) accepts the union of every mode.
func AllowedExtensions(m Mode) []string {
	if spec, ok := modeSpecs[m]; ok {
		return spec.Extensions
	}

	seen := map[string]bool{}
	var all []string
	for _, spec := range modeSpecs {
		for _, ext := range spec.Extensions {
			if !seen[ext] {
				seen[ext] = true
				all = append(all, ext)
			}
		}
	}
	sort.Strings(all)
	return all
}

func IsExtensionAllowed(m Mode, ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, allowed := range AllowedExtensions(m) {
		if allowed == ext {
			return true
		}
	}
	return false
}

func Modes() []ModeSpec {
	specs := make([]ModeSpec, 0, len(modeSpecs))
	for _, spec := range modeSpecs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Mode < specs[j].Mode })
	return specs
}
