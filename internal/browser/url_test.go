package browser

import "testing"

func TestValidateURLRewritesBareHost(t *testing.T) {
	got, err := ValidateURL("example.com")
	if err != nil {
		t.Fatalf("validateURL: %v", err)
	}
	if got != "https://example.com/" {
		t.Errorf("expected https://example.com/, got %q", got)
	}
}

func TestValidateURLRejectsUnsupportedScheme(t *testing.T) {
	_, err := ValidateURL("about:config")
	if _, ok := err.(*UnsupportedURLProtocolError); !ok {
		t.Fatalf("expected UnsupportedURLProtocolError, got %v", err)
	}
}

func TestValidateURLAcceptsHTTPS(t *testing.T) {
	got, err := ValidateURL("https://example.com/path?q=1")
	if err != nil {
		t.Fatalf("validateURL: %v", err)
	}
	if got != "https://example.com/path?q=1" {
		t.Errorf("unexpected normalization: %q", got)
	}
}

func TestValidateURLAcceptsHTTP(t *testing.T) {
	got, err := ValidateURL("http://example.com")
	if err != nil {
		t.Fatalf("validateURL: %v", err)
	}
	if got != "http://example.com/" {
		t.Errorf("expected http://example.com/, got %q", got)
	}
}

func TestValidateURLRejectsFTP(t *testing.T) {
	_, err := ValidateURL("ftp://example.com/file")
	if _, ok := err.(*UnsupportedURLProtocolError); !ok {
		t.Fatalf("expected UnsupportedURLProtocolError, got %v", err)
	}
}
