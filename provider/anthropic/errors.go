package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/loomlabs/loom"
)

// wrapError categorizes an Anthropic SDK error so the retry layer can
// tell transient failures from permanent ones.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		// Likely a network error; leave as-is.
		return err
	}

	code := apiErr.StatusCode
	msg := err.Error()
	switch {
	case code == 429 || code == 529 || (code >= 500 && code < 600):
		return loom.NewTransientError(msg, code, err)
	default:
		return loom.NewPermanentError(msg, code, err)
	}
}
