package browser

import (
	"fmt"
	"net/url"
)

// ParseURLError is returned when the input cannot be parsed as a URL at
// all, even after the https:// default is applied.
type ParseURLError struct {
	Input string
	Err   error
}

func (e *ParseURLError) Error() string {
	return fmt.Sprintf("failed to parse url %q: %v", e.Input, e.Err)
}

func (e *ParseURLError) Unwrap() error { return e.Err }

// UnsupportedURLProtocolError is returned when the URL's scheme is anything
// other than http or https.
type UnsupportedURLProtocolError struct {
	Scheme string
}

func (e *UnsupportedURLProtocolError) Error() string {
	return "unsupported url protocol: only 'http://' and 'https://' are allowed"
}

// ValidateURL parses raw as a URL. If it lacks a scheme, https:// is
// prepended and it is reparsed once. The scheme must then be http or
// https; any other parse failure is surfaced as ParseURLError.
func ValidateURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ParseURLError{Input: raw, Err: err}
	}

	if u.Scheme == "" {
		raw = "https://" + raw
		u, err = url.Parse(raw)
		if err != nil {
			return "", &ParseURLError{Input: raw, Err: err}
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &UnsupportedURLProtocolError{Scheme: u.Scheme}
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
