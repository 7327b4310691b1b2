// Package browser composes a Firefox profile, a supervised process, and a
// Marionette client into one disposable worker, and exposes the domain
// operations the screenshot pipeline drives it with.
package browser

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/skarab42/pantin-go/internal/marionette"
	"github.com/skarab42/pantin-go/internal/process"
	"github.com/skarab42/pantin-go/internal/profile"
)

var firefoxArgs = []string{
	"--private",
	"--headless",
	"--no-remote",
	"--marionette",
	"--new-instance",
	"--profile",
}

// Worker is one browser instance: profile + process + Marionette
// connection, owned exclusively while checked out of the pool.
type Worker struct {
	ID         string
	profile    *profile.Profile
	process    *process.Process
	client     *marionette.Client
	windowSize struct{ width, height int }
}

// New provisions a profile, spawns Firefox against it, and opens a
// Marionette session, in that strict order.
func New(program string, trace bool) (*Worker, error) {
	id := uuid.NewString()
	log.Debug().Str("worker_id", id).Msg("opening a new browser worker")

	prof, err := profile.New()
	if err != nil {
		return nil, err
	}

	args := append(append([]string{}, firefoxArgs...), prof.Path())
	proc, err := process.Spawn(program, args, trace)
	if err != nil {
		prof.Remove()
		return nil, err
	}

	client, err := marionette.Connect(prof.MarionetteAddress())
	if err != nil {
		proc.Kill()
		prof.Remove()
		return nil, err
	}

	log.Debug().Str("worker_id", id).Str("address", prof.MarionetteAddress()).Msg("browser worker ready")

	return &Worker{ID: id, profile: prof, process: proc, client: client}, nil
}

// PID returns the Firefox process id, if known.
func (w *Worker) PID() int {
	return w.process.ID()
}

// Status reports the non-blocking state of the underlying process.
func (w *Worker) Status() process.Status {
	return w.process.Status()
}

// Navigate validates and loads url in the browsing context.
func (w *Worker) Navigate(rawURL string) error {
	validated, err := ValidateURL(rawURL)
	if err != nil {
		return err
	}
	return w.client.Navigate(validated)
}

// viewportDeltaScript computes how much larger the chrome window is than
// its content viewport, so a requested viewport size can be converted into
// the window size that produces it.
const viewportDeltaScript = `return [window.outerWidth - window.innerWidth, window.outerHeight - window.innerHeight];`

// getWindowToViewportDelta returns (deltaWidth, deltaHeight).
func (w *Worker) getWindowToViewportDelta() (int, int, error) {
	raw, err := w.client.ExecuteScript(viewportDeltaScript, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("browser: computing viewport delta: %w", err)
	}

	var delta [2]int
	if err := unmarshalJSON(raw, &delta); err != nil {
		return 0, 0, fmt.Errorf("browser: decoding viewport delta: %w", err)
	}

	return delta[0], delta[1], nil
}

// SetViewportSize resizes the chrome window so the content viewport ends up
// exactly width x height.
func (w *Worker) SetViewportSize(width, height int) error {
	deltaW, deltaH, err := w.getWindowToViewportDelta()
	if err != nil {
		return err
	}

	rect := marionette.WindowRect{
		Width:  intPtr(width + deltaW),
		Height: intPtr(height + deltaH),
	}

	if _, err := w.client.SetWindowRect(rect); err != nil {
		return fmt.Errorf("browser: setting window rect: %w", err)
	}

	w.windowSize.width, w.windowSize.height = width, height
	return nil
}

func intPtr(i int) *int { return &i }

// InjectStyle creates a <style> element in the document head with the given
// CSS content.
func (w *Worker) InjectStyle(css string) error {
	script := `const style = document.createElement('style');
style.textContent = arguments[0];
document.head.appendChild(style);`
	_, err := w.client.ExecuteScript(script, []any{css})
	if err != nil {
		return fmt.Errorf("browser: injecting style: %w", err)
	}
	return nil
}

// HideBodyScrollbar injects a style rule suppressing the page's own
// scrollbar, so captures don't include it.
func (w *Worker) HideBodyScrollbar() error {
	return w.InjectStyle(`html, body { scrollbar-width: none !important; }`)
}

// FindElementCSS locates a single element by CSS selector.
func (w *Worker) FindElementCSS(selector string) (string, error) {
	return w.client.FindElement(marionette.UsingCSSSelector, selector)
}

// FindElementXPath locates a single element by XPath.
func (w *Worker) FindElementXPath(expr string) (string, error) {
	return w.client.FindElement(marionette.UsingXPath, expr)
}

// Screenshot captures a PNG. full=true requests the entire page; a
// non-empty elementID requests that element; with full=false and no
// elementID the current viewport is captured. Both values are forwarded to
// WebDriver:TakeScreenshot as given.
func (w *Worker) Screenshot(full bool, elementID string) ([]byte, error) {
	b64, err := w.client.TakeScreenshot(full, elementID)
	if err != nil {
		return nil, err
	}

	bytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("browser: decoding screenshot: %w", err)
	}

	return bytes, nil
}

// Close tears down the worker in the order: kill process (if alive),
// settle delay (Windows only), remove profile directory.
func (w *Worker) Close() (process.Status, error) {
	log.Debug().Str("worker_id", w.ID).Msg("closing browser worker")

	status := w.process.Status()
	var statusErr error

	switch status {
	case process.Alive:
		if err := w.process.Kill(); err != nil {
			statusErr = err
		}
		status = w.process.Status()
	case process.StatusError:
		statusErr = fmt.Errorf("browser: child status error")
	}

	w.client.Close()

	settlePostKill()

	if w.profile.Exists() {
		if err := w.profile.Remove(); err != nil && statusErr == nil {
			statusErr = err
		}
	}

	log.Debug().Str("worker_id", w.ID).Str("status", status.String()).Msg("browser worker closed")

	return status, statusErr
}
