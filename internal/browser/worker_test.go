package browser

import "testing"

// skipUnlessFirefox skips tests that require spawning a real Firefox
// binary; these are excluded from short-mode runs the same way the
// teacher's browser pool tests are.
func skipUnlessFirefox(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser worker test in short mode (requires firefox binary)")
	}
}

func TestWorkerLifecycle(t *testing.T) {
	skipUnlessFirefox(t)

	w, err := New("firefox", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.Navigate("https://example.com"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := w.SetViewportSize(800, 600); err != nil {
		t.Fatalf("SetViewportSize: %v", err)
	}

	png, err := w.Screenshot(false, "")
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected non-empty PNG bytes")
	}

	status, err := w.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if status.String() != "exited" {
		t.Errorf("expected exited status after close, got %v", status)
	}

	if w.profile.Exists() {
		t.Error("expected profile directory to be removed after close")
	}
}
