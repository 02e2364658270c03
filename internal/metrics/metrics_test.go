package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから指定名のメトリクスファミリーを取得する。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を取得する。
func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordAuthEvent_LabelsOperationAndResult は認証カウンタが操作と結果のラベル付きで増加することを検証する。
func TestRecordAuthEvent_LabelsOperationAndResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthEvent("signin", ResultOK)
	c.RecordAuthEvent("signin", ResultOK)
	c.RecordAuthEvent("signin", "WRONG_PASSWORD")

	mf := findMetric(t, reg, "eduapp_auth_events_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		if op := labelValue(m, "operation"); op != "signin" {
			t.Errorf("operation = %q, want signin", op)
		}
		val := m.GetCounter().GetValue()
		switch labelValue(m, "result") {
		case ResultOK:
			if val != 2 {
				t.Errorf("auth_events_total{result=ok} = %v, want 2", val)
			}
		case "WRONG_PASSWORD":
			if val != 1 {
				t.Errorf("auth_events_total{result=WRONG_PASSWORD} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected result label: %s", labelValue(m, "result"))
		}
	}
}

// TestRecordDocumentOp_IncrementsCounter はドキュメント操作カウンタが増加することを検証する。
func TestRecordDocumentOp_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDocumentOp("update", "DOCUMENT_NOT_FOUND")

	mf := findMetric(t, reg, "eduapp_document_operations_total")
	m := mf.GetMetric()[0]
	if got := labelValue(m, "operation"); got != "update" {
		t.Errorf("operation = %q, want update", got)
	}
	if got := labelValue(m, "result"); got != "DOCUMENT_NOT_FOUND" {
		t.Errorf("result = %q, want DOCUMENT_NOT_FOUND", got)
	}
	if val := m.GetCounter().GetValue(); val != 1 {
		t.Errorf("document_operations_total = %v, want 1", val)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	mf := findMetric(t, reg, "eduapp_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		label := labelValue(m, "status_code")
		val := m.GetCounter().GetValue()
		switch label {
		case "200":
			if val != 2 {
				t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
			}
		case "401":
			if val != 1 {
				t.Errorf("http_status_total{status_code=401} = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected label value: %s", label)
		}
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(100 * time.Millisecond)
	c.RecordRequestLatency(2 * time.Second)

	h := findMetric(t, reg, "eduapp_request_latency_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
	}
	// 合計は0.1 + 2.0 = 2.1秒
	if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
	}
}

// TestRecordSessionsCleaned_AddsCount は削除セッション数が加算されることを検証する。
func TestRecordSessionsCleaned_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsCleaned(10)
	c.RecordSessionsCleaned(5)

	val := findMetric(t, reg, "eduapp_sessions_cleaned_total").GetMetric()[0].GetCounter().GetValue()
	if val != 15 {
		t.Errorf("sessions_cleaned_total = %v, want 15", val)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat はハンドラーがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthEvent("signup", ResultOK)
	c.RecordDocumentOp("get", ResultOK)
	c.RecordHTTPStatus(200)
	c.RecordRequestLatency(500 * time.Millisecond)
	c.RecordSessionsCleaned(3)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"eduapp_auth_events_total",
		"eduapp_document_operations_total",
		"eduapp_http_status_total",
		"eduapp_request_latency_seconds",
		"eduapp_sessions_cleaned_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordSessionsCleaned(1)

	if val := findMetric(t, reg1, "eduapp_sessions_cleaned_total").GetMetric()[0].GetCounter().GetValue(); val != 1 {
		t.Errorf("reg1 sessions_cleaned_total = %v, want 1", val)
	}
	if val := findMetric(t, reg2, "eduapp_sessions_cleaned_total").GetMetric()[0].GetCounter().GetValue(); val != 0 {
		t.Errorf("reg2 sessions_cleaned_total = %v, want 0", val)
	}
}
