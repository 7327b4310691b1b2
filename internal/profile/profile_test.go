package profile

import (
	"os"
	"strings"
	"testing"
)

func TestNewCreatesDirectoryWithMarionettePort(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Remove()

	if !p.Exists() {
		t.Fatal("expected profile directory to exist")
	}

	if !strings.HasPrefix(filepathBase(p.Path()), dirPrefix) {
		t.Errorf("expected directory name to start with %q, got %q", dirPrefix, p.Path())
	}

	data, err := os.ReadFile(p.Path() + "/user.js")
	if err != nil {
		t.Fatalf("reading user.js: %v", err)
	}

	if !strings.Contains(string(data), `user_pref("marionette.port",`) {
		t.Errorf("expected marionette.port pref in user.js, got:\n%s", data)
	}

	if p.MarionetteAddress() == "" {
		t.Error("expected non-empty marionette address")
	}
}

func TestRemoveDeletesDirectory(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if p.Exists() {
		t.Error("expected profile directory to be gone after Remove")
	}
}

func filepathBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
