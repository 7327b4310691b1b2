package screenshot

import (
	"errors"

	"github.com/skarab42/pantin-go/internal/apperr"
	"github.com/skarab42/pantin-go/internal/browser"
	"github.com/skarab42/pantin-go/internal/codec"
	"github.com/skarab42/pantin-go/internal/marionette"
)

// translateBrowserErr maps the concrete error types surfaced by the
// marionette/browser/process/profile layers onto the apperr taxonomy the
// HTTP façade understands, per the error handling design's propagation
// rule: low-level errors are wrapped with context at each boundary, and
// only the façade maps them to status+body.
func translateBrowserErr(err error) error {
	if err == nil {
		return nil
	}

	var (
		parseErr    *browser.ParseURLError
		protoErr    *browser.UnsupportedURLProtocolError
		failureErr  *marionette.CommandFailureError
		mismatchErr *marionette.CommandIdMismatchError
		timeoutErr  *marionette.ConnectionTimeoutError
		handErr     *marionette.HandshakeError
		frameErr    *codec.FramingError
	)

	switch {
	case errors.As(err, &parseErr):
		return apperr.Wrap(apperr.KindParseURL, err, parseErr.Error())
	case errors.As(err, &protoErr):
		return apperr.Wrap(apperr.KindUnsupportedURLProtocol, err, protoErr.Error())
	case errors.As(err, &failureErr):
		return apperr.Wrap(apperr.KindCommandFailure, err, failureErr.Error())
	case errors.As(err, &mismatchErr), errors.As(err, &handErr), errors.As(err, &frameErr):
		return apperr.Wrap(apperr.KindFramingViolation, err, "")
	case errors.As(err, &timeoutErr):
		return apperr.Wrap(apperr.KindConnectionTimeout, err, "")
	default:
		return apperr.Wrap(apperr.KindPoolError, err, "")
	}
}
