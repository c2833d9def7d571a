package deployments

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

func TestPrometheusRulesContainExpectedAlerts(t *testing.T) {
	text := readAsset(t, "observability", "prometheus", "askdb_rules.yaml")

	requiredAlerts := []string{
		"AskDBTranslationFailuresHigh",
		"AskDBExecutionFailuresHigh",
		"AskDBLLMLatencyP95High",
		"AskDBHTTPErrorRateHigh",
	}
	for _, alertName := range requiredAlerts {
		if !strings.Contains(text, "alert: "+alertName) {
			t.Fatalf("rules missing alert %q", alertName)
		}
	}

	requiredMetrics := []string{
		"askdb:translation_failure_ratio_10m",
		"askdb:execution_failure_ratio_10m",
		"askdb:llm_latency_ms_p95",
		"askdb:http_error_rate_5m",
	}
	for _, metricName := range requiredMetrics {
		matched, err := regexp.MatchString(regexp.QuoteMeta(metricName), text)
		if err != nil {
			t.Fatalf("regexp error for metric %q: %v", metricName, err)
		}
		if !matched {
			t.Fatalf("rules missing metric reference %q", metricName)
		}
	}
}

func TestPrometheusRecordingRulesUseExportedMetrics(t *testing.T) {
	text := readAsset(t, "observability", "prometheus", "askdb_recording_rules.yaml")

	for _, recordName := range []string{
		"askdb:translation_failure_ratio_10m",
		"askdb:execution_failure_ratio_10m",
		"askdb:llm_latency_ms_p95",
		"askdb:http_error_rate_5m",
	} {
		if !strings.Contains(text, "record: "+recordName) {
			t.Fatalf("recording rules missing record %q", recordName)
		}
	}
	for _, metric := range []string{
		"askdb_translations_total",
		"askdb_executions_total",
		"askdb_llm_latency_ms_bucket",
		"askdb_http_requests_total",
	} {
		if !strings.Contains(text, metric) {
			t.Fatalf("recording rules missing source metric %q", metric)
		}
	}
}

func TestPrometheusScrapeExampleContainsMetricsPathAndRules(t *testing.T) {
	text := readAsset(t, "observability", "prometheus", "prometheus-scrape.example.yaml")

	for _, token := range []string{
		"metrics_path: /v1/metrics",
		"askdb_rules.yaml",
		"askdb_recording_rules.yaml",
		"job_name: askdb-server",
	} {
		if !strings.Contains(text, token) {
			t.Fatalf("scrape example missing %q", token)
		}
	}
}

func TestComposeProvidesHistoryAndArchiveServices(t *testing.T) {
	text := readAsset(t, "docker-compose.yml")

	for _, token := range []string{"postgres:", "minio:", "prometheus-scrape.example.yaml"} {
		if !strings.Contains(text, token) {
			t.Fatalf("compose file missing %q", token)
		}
	}
}

func readAsset(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{repoRoot(t), "deployments"}, parts...)...)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), ".."))
}
