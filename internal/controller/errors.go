package controller

import "errors"

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrUnknownMode         = errors.New("unknown processing mode")
	ErrMissingLanguage     = errors.New("language not chosen")
	ErrUnsupportedFile     = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrRejected            = errors.New("rejected by server")
	ErrJobFailed           = errors.New("processing failed")
	ErrNoQuote             = errors.New("no payable quote")
	ErrPaymentCancelled    = errors.New("payment cancelled")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPaymentVerification = errors.New("payment verification failed")
)

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
