package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler(t *testing.T) {
	handler := Handler()
	if handler == nil {
		t.Fatal("Handler() returned nil")
	}

	RecordRequest("viewport", "image-png-bytes", "ok", 1*time.Second)
	UpdatePoolMetrics(3, 2, 1)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	expectedMetrics := []string{
		"pantin_browser_pool_size",
		"pantin_browser_pool_available",
		"pantin_browser_pool_in_use",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric %q not found in output", metric)
		}
	}
}

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("1.0.0", "go1.22")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "pantin_build_info") {
		t.Error("Expected pantin_build_info metric")
	}
	if !strings.Contains(body, "version=\"1.0.0\"") {
		t.Error("Expected version label in build_info")
	}
	if !strings.Contains(body, "go_version=\"go1.22\"") {
		t.Error("Expected go_version label in build_info")
	}
}

func TestRecordRequest(t *testing.T) {
	RecordRequest("viewport", "image-png-bytes", "ok", 1*time.Second)
	RecordRequest("viewport", "image-png-bytes", "error", 500*time.Millisecond)
	RecordRequest("full", "attachment", "ok", 2*time.Second)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	body := w.Body.String()

	if !strings.Contains(body, "pantin_requests_total") {
		t.Error("Expected pantin_requests_total metric")
	}
	if !strings.Contains(body, "pantin_request_duration_seconds") {
		t.Error("Expected pantin_request_duration_seconds metric")
	}
}

func TestRecordEviction(t *testing.T) {
	RecordEviction("age")
	RecordEviction("recycle_count")
	RecordEviction("poisoned")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "pantin_browser_pool_evicted_total") {
		t.Error("Expected pantin_browser_pool_evicted_total metric")
	}
}

func TestUpdatePoolMetrics(t *testing.T) {
	UpdatePoolMetrics(3, 2, 1)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "pantin_browser_pool_size 3") {
		t.Error("Expected browser_pool_size to be 3")
	}
	if !strings.Contains(body, "pantin_browser_pool_available 2") {
		t.Error("Expected browser_pool_available to be 2")
	}
	if !strings.Contains(body, "pantin_browser_pool_in_use 1") {
		t.Error("Expected browser_pool_in_use to be 1")
	}
}

func TestStartMemoryCollector(t *testing.T) {
	stopCh := make(chan struct{})

	go StartMemoryCollector(50*time.Millisecond, stopCh)

	time.Sleep(150 * time.Millisecond)

	close(stopCh)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, req)

	body := w.Body.String()

	if !strings.Contains(body, "pantin_memory_usage_bytes") {
		t.Error("Expected pantin_memory_usage_bytes metric")
	}
	if !strings.Contains(body, "pantin_memory_sys_bytes") {
		t.Error("Expected pantin_memory_sys_bytes metric")
	}
	if !strings.Contains(body, "pantin_goroutines") {
		t.Error("Expected pantin_goroutines metric")
	}
}
