// Package handlers implements the HTTP façade: query parsing, dispatch to
// the screenshot pipeline, and error-to-status mapping.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/skarab42/pantin-go/internal/apperr"
	"github.com/skarab42/pantin-go/internal/browser"
	"github.com/skarab42/pantin-go/internal/config"
	"github.com/skarab42/pantin-go/internal/metrics"
	"github.com/skarab42/pantin-go/internal/middleware"
	"github.com/skarab42/pantin-go/internal/pool"
	"github.com/skarab42/pantin-go/internal/screenshot"
)

// Handler serves the screenshot API.
type Handler struct {
	pool *pool.Pool
	cfg  *config.Config
}

// New creates a Handler bound to a browser pool and configuration.
func New(p *pool.Pool, cfg *config.Config) *Handler {
	return &Handler{pool: p, cfg: cfg}
}

// Mux builds the request router: /ping, /screenshot, /metrics, and a 404
// fallback, wrapped with request-id stamping and a per-request deadline.
func (h *Handler) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.handlePing)
	mux.HandleFunc("GET /screenshot", h.handleScreenshot)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", h.handleNotFound)

	chain := middleware.Chain(withRequestID, middleware.Timeout(h.cfg.RequestTimeout))
	return chain(mux)
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"data": "pong"})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// screenshotQuery is the parsed, defaulted form of GET /screenshot's query
// string, per spec §6's field table.
type screenshotQuery struct {
	url          string
	delay        time.Duration
	width        int
	height       int
	scrollbar    bool
	responseType string
	mode         screenshot.Mode
}

var validResponseTypes = map[string]bool{
	"attachment":       true,
	"image-png-base64": true,
	"image-png-bytes":  true,
	"json-png-base64":  true,
	"json-png-bytes":   true,
}

func parseScreenshotQuery(q url.Values) (screenshotQuery, string, string, error) {
	out := screenshotQuery{
		delay:        0,
		width:        800,
		height:       600,
		scrollbar:    false,
		responseType: "image-png-bytes",
		mode:         screenshot.ModeViewport,
	}

	rawURL := q.Get("url")
	if rawURL == "" {
		return out, "", "", apperr.New(apperr.KindMissingField, "Failed to deserialize query string: missing field `url`")
	}
	out.url = rawURL

	if v := q.Get("delay"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: delay")
		}
		out.delay = time.Duration(ms) * time.Millisecond
	}

	if v := q.Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width <= 0 {
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: width")
		}
		out.width = width
	}

	if v := q.Get("height"); v != "" {
		height, err := strconv.Atoi(v)
		if err != nil || height <= 0 {
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: height")
		}
		out.height = height
	}

	if v := q.Get("scrollbar"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: scrollbar")
		}
		out.scrollbar = b
	}

	if v := q.Get("response_type"); v != "" {
		if !validResponseTypes[v] {
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: response_type")
		}
		out.responseType = v
	}

	var selector, xpath string
	if v := q.Get("mode"); v != "" {
		switch screenshot.Mode(v) {
		case screenshot.ModeFull, screenshot.ModeViewport, screenshot.ModeSelector, screenshot.ModeXPath:
			out.mode = screenshot.Mode(v)
		default:
			return out, "", "", apperr.New(apperr.KindQueryRejection, "invalid field: mode")
		}
	}

	selector = q.Get("selector")
	xpath = q.Get("xpath")

	if out.mode == screenshot.ModeSelector && selector == "" {
		return out, "", "", apperr.MissingField("selector")
	}
	if out.mode == screenshot.ModeXPath && xpath == "" {
		return out, "", "", apperr.MissingField("xpath")
	}

	return out, selector, xpath, nil
}

func (h *Handler) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, selector, xpath, err := parseScreenshotQuery(r.URL.Query())
	if err != nil {
		h.writeScreenshotError(w, "", "unknown", err, start)
		return
	}

	// Reject an obviously bad URL before checking out a worker: navigate()
	// re-validates downstream, but there is no reason to spend a pool slot
	// on input that can never succeed.
	validated, err := browser.ValidateURL(q.url)
	if err != nil {
		h.writeScreenshotError(w, string(q.mode), q.responseType, translateEarlyURLErr(err), start)
		return
	}

	req := screenshot.Request{
		URL:       validated,
		Delay:     q.delay,
		Width:     q.width,
		Height:    q.height,
		Scrollbar: q.scrollbar,
		Mode:      q.mode,
		Selector:  selector,
		XPath:     xpath,
	}

	png, err := screenshot.Take(r.Context(), h.pool, req)
	if err != nil {
		h.writeScreenshotError(w, string(q.mode), q.responseType, err, start)
		return
	}

	metrics.RecordRequest(string(q.mode), q.responseType, "ok", time.Since(start))
	writeScreenshot(w, q.responseType, png)
}

func (h *Handler) writeScreenshotError(w http.ResponseWriter, mode, responseType string, err error, start time.Time) {
	metrics.RecordRequest(mode, responseType, "error", time.Since(start))

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeError(w, statusForKind(appErr.Kind), appErr.Error())
		return
	}

	log.Error().Err(err).Msg("unhandled error from screenshot pipeline")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func translateEarlyURLErr(err error) error {
	switch e := err.(type) {
	case *browser.ParseURLError:
		return apperr.Wrap(apperr.KindParseURL, e, e.Error())
	case *browser.UnsupportedURLProtocolError:
		return apperr.Wrap(apperr.KindUnsupportedURLProtocol, e, e.Error())
	default:
		return apperr.Wrap(apperr.KindParseURL, err, "")
	}
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindMissingField, apperr.KindQueryRejection, apperr.KindParseURL, apperr.KindUnsupportedURLProtocol:
		return http.StatusBadRequest
	case apperr.KindCommandFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeScreenshot(w http.ResponseWriter, responseType string, png []byte) {
	switch responseType {
	case "image-png-bytes":
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	case "attachment":
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="screenshot.png"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	case "image-png-base64":
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)))
	case "json-png-base64":
		writeJSON(w, http.StatusOK, map[string]string{"base64": base64.StdEncoding.EncodeToString(png)})
	case "json-png-bytes":
		ints := make([]int, len(png))
		for i, b := range png {
			ints[i] = int(b)
		}
		writeJSON(w, http.StatusOK, map[string][]int{"bytes": ints})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

func writeError(w http.ResponseWriter, status int, cause string) {
	writeJSON(w, status, map[string]string{"cause": cause})
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("x-request-id")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("x-request-id", id)
		}
		w.Header().Set("x-request-id", id)
		next.ServeHTTP(w, r)
	})
}
