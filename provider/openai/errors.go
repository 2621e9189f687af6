package openai

import (
	"errors"

	"github.com/openai/openai-go"

	"github.com/loomlabs/loom"
)

// wrapError categorizes an OpenAI SDK error so the retry layer can
// tell transient failures from permanent ones.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Likely a network error; leave as-is.
		return err
	}

	code := apiErr.StatusCode
	msg := err.Error()
	switch {
	case code == 429 || (code >= 500 && code < 600):
		return loom.NewTransientError(msg, code, err)
	default:
		return loom.NewPermanentError(msg, code, err)
	}
}
