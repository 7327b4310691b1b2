// Package marionette implements Firefox's remote automation wire protocol:
// a length-prefixed, framed JSON request/response channel over TCP, with a
// mandatory handshake and strict request/response id correlation.
package marionette

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skarab42/pantin-go/internal/codec"
)

// requestID is the process-wide monotonically increasing counter used to
// correlate a response with its request. It is shared across all Marionette
// connections intentionally: it simplifies log correlation and causes no
// collisions since ids are only matched per-connection.
var requestID atomic.Uint32

const (
	connectRetryBudget   = 2000 * time.Millisecond
	connectRetryInterval = 100 * time.Millisecond
	expectedProtocol     = 3
	expectedApplication  = "gecko"
)

// Client owns one TCP connection to a Marionette server plus the session
// state negotiated over it. It is not safe for concurrent use: the worker
// that owns a Client issues exactly one outstanding request at a time.
type Client struct {
	conn      net.Conn
	reader    *bufio.Reader
	SessionID string
}

// Connect dials address with a 2000ms total retry budget, polling every
// 100ms, then performs the handshake and opens a new session. This mirrors
// the three-step construction sequence required by the wire protocol.
func Connect(address string) (*Client, error) {
	conn, err := dialWithRetry(address)
	if err != nil {
		return nil, err
	}

	c := &Client{conn: conn, reader: bufio.NewReader(conn)}

	if err := c.readHandshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := c.newSession(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Debug().Str("address", address).Str("session_id", c.SessionID).Msg("marionette session established")

	return c, nil
}

func dialWithRetry(address string) (net.Conn, error) {
	start := time.Now()
	var lastErr error

	for {
		conn, err := net.DialTimeout("tcp", address, connectRetryInterval)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if time.Since(start) >= connectRetryBudget {
			return nil, &ConnectionTimeoutError{
				Address:   address,
				ElapsedMS: time.Since(start).Milliseconds(),
				LastErr:   lastErr,
			}
		}

		time.Sleep(connectRetryInterval)
	}
}

func (c *Client) readHandshake() error {
	frame, err := codec.Decode(c.reader)
	if err != nil {
		return fmt.Errorf("marionette: reading handshake: %w", err)
	}

	var hs handshakeFrame
	if err := json.Unmarshal(frame, &hs); err != nil {
		return &HandshakeError{Reason: fmt.Sprintf("invalid handshake JSON: %v", err)}
	}

	if hs.ApplicationType != expectedApplication {
		return &HandshakeError{Reason: fmt.Sprintf("unexpected applicationType %q", hs.ApplicationType)}
	}

	if hs.MarionetteProtocol != expectedProtocol {
		return &HandshakeError{Reason: fmt.Sprintf("unexpected marionetteProtocol %d", hs.MarionetteProtocol)}
	}

	return nil
}

func (c *Client) newSession() error {
	result, err := Send[any, NewSessionResult](c, cmdNewSession, nil)
	if err != nil {
		return err
	}
	c.SessionID = result.SessionID
	return nil
}

// Close releases the underlying TCP connection. It does not attempt a
// graceful protocol-level teardown: the owning browser worker kills the
// Firefox process as part of the same teardown.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Send issues a typed command and decodes its typed response. P is the
// parameter shape, R the expected result shape; a nil P is sent as JSON
// null.
func Send[P any, R any](c *Client, name string, params P) (R, error) {
	var zero R

	id := requestID.Add(1)

	payload, err := (requestEnvelope{id: id, name: name, params: params}).MarshalJSON()
	if err != nil {
		return zero, err
	}

	if err := codec.Encode(c.conn, payload); err != nil {
		return zero, fmt.Errorf("marionette: sending %s: %w", name, err)
	}

	frame, err := codec.Decode(c.reader)
	if err != nil {
		return zero, fmt.Errorf("marionette: reading response to %s: %w", name, err)
	}

	var env responseEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return zero, fmt.Errorf("marionette: decoding response to %s: %w", name, err)
	}

	if env.Failure != nil {
		return zero, env.Failure
	}

	if env.ID != id {
		return zero, &CommandIdMismatchError{Expected: id, Got: env.ID}
	}

	if err := json.Unmarshal(env.Result, &zero); err != nil {
		return zero, fmt.Errorf("marionette: decoding result of %s: %w", name, err)
	}

	return zero, nil
}

// SetWindowRect sets the browser chrome window's position/size.
func (c *Client) SetWindowRect(rect WindowRect) (WindowRect, error) {
	return Send[WindowRect, WindowRect](c, cmdSetWindowRect, rect)
}

// Navigate loads url in the current browsing context. No URL validation is
// performed here: that is the Browser worker's responsibility (component F).
func (c *Client) Navigate(url string) error {
	_, err := Send[NavigateParams, struct{}](c, cmdNavigate, NavigateParams{URL: url})
	return err
}

// ExecuteScript runs an arbitrary script in page context and returns its
// JSON-encodable result.
func (c *Client) ExecuteScript(script string, args []any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	result, err := Send[ExecuteScriptParams, ExecuteScriptResult](c, cmdExecuteScript, ExecuteScriptParams{Script: script, Args: args})
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// FindElement locates a single element by CSS selector or XPath.
func (c *Client) FindElement(using FindElementUsing, value string) (string, error) {
	result, err := Send[FindElementParams, FindElementResult](c, cmdFindElement, FindElementParams{Using: using, Value: value})
	if err != nil {
		return "", err
	}
	return result.ElementID(), nil
}

// TakeScreenshot captures a PNG, either of the full page (full=true) or of
// the current viewport / a specific element (full=false, optional id).
func (c *Client) TakeScreenshot(full bool, elementID string) (string, error) {
	params := TakeScreenshotParams{Full: boolPtr(full)}
	if elementID != "" {
		params.ID = strPtr(elementID)
	}
	result, err := Send[TakeScreenshotParams, TakeScreenshotResult](c, cmdTakeScreenshot, params)
	if err != nil {
		return "", err
	}
	return result.Value, nil
}
