// Package screenshot implements the per-request orchestration that
// composes navigation, DOM tweaks, resize, delay, element lookup, and
// capture across a borrowed browser worker.
package screenshot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skarab42/pantin-go/internal/apperr"
	"github.com/skarab42/pantin-go/internal/pool"
	"github.com/skarab42/pantin-go/internal/security"
)

// Mode selects the capture target.
type Mode string

const (
	ModeFull     Mode = "full"
	ModeViewport Mode = "viewport"
	ModeSelector Mode = "selector"
	ModeXPath    Mode = "xpath"
)

// Request describes one screenshot request's parameters, already parsed
// and defaulted by the HTTP façade.
type Request struct {
	URL       string
	Delay     time.Duration
	Width     int
	Height    int
	Scrollbar bool
	Mode      Mode
	Selector  string
	XPath     string
}

// Take runs the eight-step pipeline: checkout, navigate, scrollbar,
// resize, delay, capture-target selection, screenshot, release. The
// borrowed worker is released (recycled) on success or on an ordinary
// command failure; it is discarded (poisoned) instead if ctx was
// cancelled or the error indicates the Marionette connection itself is
// no longer trustworthy (see isPoisoning).
func Take(ctx context.Context, p *pool.Pool, req Request) ([]byte, error) {
	handle, err := p.Get(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPoolError, err, "")
	}

	log.Debug().Str("url", security.RedactURL(req.URL)).Str("mode", string(req.Mode)).Msg("screenshot pipeline starting")

	var png []byte
	var pipelineErr error

	func() {
		defer func() {
			if ctx.Err() != nil || isPoisoning(pipelineErr) {
				handle.Discard()
				return
			}
			handle.Release()
		}()

		w := handle.Worker

		if err := w.Navigate(req.URL); err != nil {
			pipelineErr = translateBrowserErr(err)
			return
		}

		if !req.Scrollbar {
			if err := w.HideBodyScrollbar(); err != nil {
				pipelineErr = translateBrowserErr(err)
				return
			}
		}

		if err := w.SetViewportSize(req.Width, req.Height); err != nil {
			pipelineErr = translateBrowserErr(err)
			return
		}

		if req.Delay > 0 {
			select {
			case <-time.After(req.Delay):
			case <-ctx.Done():
				pipelineErr = ctx.Err()
				return
			}
		}

		full, elementID, err := resolveCaptureTarget(w, req)
		if err != nil {
			pipelineErr = err
			return
		}

		bytes, err := w.Screenshot(full, elementID)
		if err != nil {
			pipelineErr = translateBrowserErr(err)
			return
		}
		png = bytes
	}()

	if pipelineErr != nil {
		log.Debug().Str("worker_id", handle.Worker.ID).Err(pipelineErr).Msg("screenshot pipeline failed")
	}

	return png, pipelineErr
}

// isPoisoning reports whether err leaves the Marionette connection in a
// state no longer safe to reuse: a desynced response id, a malformed frame,
// a failed handshake, or a Marionette connect timeout. Per the
// protocol's id-correlation invariant, any of these means the connection
// (and therefore the worker) must be closed rather than recycled.
func isPoisoning(err error) bool {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return false
	}

	switch appErr.Kind {
	case apperr.KindFramingViolation, apperr.KindConnectionTimeout:
		return true
	default:
		return false
	}
}

type elementFinder interface {
	FindElementCSS(string) (string, error)
	FindElementXPath(string) (string, error)
}

func resolveCaptureTarget(w elementFinder, req Request) (full bool, elementID string, err error) {
	switch req.Mode {
	case ModeFull:
		return true, "", nil
	case ModeViewport:
		return false, "", nil
	case ModeSelector:
		if req.Selector == "" {
			return false, "", apperr.MissingField("selector")
		}
		id, err := w.FindElementCSS(req.Selector)
		if err != nil {
			return false, "", translateBrowserErr(err)
		}
		return false, id, nil
	case ModeXPath:
		if req.XPath == "" {
			return false, "", apperr.MissingField("xpath")
		}
		id, err := w.FindElementXPath(req.XPath)
		if err != nil {
			return false, "", translateBrowserErr(err)
		}
		return false, id, nil
	default:
		return false, "", apperr.New(apperr.KindQueryRejection, "unknown mode: "+string(req.Mode))
	}
}
